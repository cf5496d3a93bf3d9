package consume

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reachiq/csv-sync/internal/csvcodec"
	"github.com/reachiq/csv-sync/internal/model"
	"github.com/reachiq/csv-sync/internal/queue"
)

type fakeReceiver struct {
	messages []*queue.Message
	deleted  []string
}

func (f *fakeReceiver) ReceiveOne(ctx context.Context, waitSeconds int32) (*queue.Message, error) {
	if len(f.messages) == 0 {
		return nil, nil
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeReceiver) Delete(ctx context.Context, receiptHandle string) error {
	f.deleted = append(f.deleted, receiptHandle)
	return nil
}

type fakeEngine struct {
	runs    int
	mode    model.OperationMode
	succeed bool
}

func (f *fakeEngine) RunBatch(ctx context.Context, batchID string, mode model.OperationMode, batch *csvcodec.Batch) model.BatchOutcome {
	f.runs++
	f.mode = mode
	outcome := model.BatchOutcome{BatchID: batchID, Mode: mode, Rows: len(batch.Rows)}
	if !f.succeed {
		outcome.Results = []model.RowResult{{Row: 0, Family: model.FamilyCompany, State: model.StateFailed, Err: context.DeadlineExceeded}}
	}
	return outcome
}

func (f *fakeEngine) Report(outcome model.BatchOutcome) bool {
	return outcome.Success()
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestProcessMessageAcksOnSuccess(t *testing.T) {
	receiver := &fakeReceiver{}
	engine := &fakeEngine{succeed: true}
	consumer := New(receiver, engine, nil, quietLogger())

	outcome := consumer.ProcessMessage(context.Background(), &queue.Message{
		ID:            "m1",
		Body:          "name,company_website\nAcme,acme.com\n",
		ReceiptHandle: "rh-1",
	})

	assert.True(t, outcome.Success())
	assert.Equal(t, 1, engine.runs)
	assert.Equal(t, model.ModeUpsert, engine.mode, "raw CSV body defaults to UPSERT")
	assert.Equal(t, []string{"rh-1"}, receiver.deleted)
}

func TestProcessMessageRetainsOnFailure(t *testing.T) {
	receiver := &fakeReceiver{}
	engine := &fakeEngine{succeed: false}
	consumer := New(receiver, engine, nil, quietLogger())

	outcome := consumer.ProcessMessage(context.Background(), &queue.Message{
		ID:            "m2",
		Body:          "name\nAcme\n",
		ReceiptHandle: "rh-2",
	})

	assert.False(t, outcome.Success())
	assert.Empty(t, receiver.deleted, "failed batches keep their message on the queue")
}

func TestProcessMessageEnvelopeMode(t *testing.T) {
	receiver := &fakeReceiver{}
	engine := &fakeEngine{succeed: true}
	consumer := New(receiver, engine, nil, quietLogger())

	body := `{"operation_type":"UPDATE","message_id":"ext-1","csv":"name\nAcme\n"}`
	consumer.ProcessMessage(context.Background(), &queue.Message{ID: "m3", Body: body, ReceiptHandle: "rh-3"})

	assert.Equal(t, model.ModeUpdate, engine.mode)
}

func TestProcessMessageUnknownModeIsFatal(t *testing.T) {
	receiver := &fakeReceiver{}
	engine := &fakeEngine{succeed: true}
	consumer := New(receiver, engine, nil, quietLogger())

	body := `{"operation_type":"create","csv":"name\nAcme\n"}`
	outcome := consumer.ProcessMessage(context.Background(), &queue.Message{ID: "m4", Body: body, ReceiptHandle: "rh-4"})

	assert.Error(t, outcome.Fatal, "operation mode is case-sensitive")
	assert.Zero(t, engine.runs, "no row may run after a config error")
	assert.Empty(t, receiver.deleted)
}

func TestProcessMessageMalformedCSV(t *testing.T) {
	receiver := &fakeReceiver{}
	engine := &fakeEngine{succeed: true}
	consumer := New(receiver, engine, nil, quietLogger())

	outcome := consumer.ProcessMessage(context.Background(), &queue.Message{ID: "m5", Body: "a,b\n1\n", ReceiptHandle: "rh-5"})

	assert.Error(t, outcome.Fatal)
	assert.Zero(t, engine.runs)
	assert.Empty(t, receiver.deleted)
}

func TestConsumeOneEmptyQueue(t *testing.T) {
	consumer := New(&fakeReceiver{}, &fakeEngine{succeed: true}, nil, quietLogger())

	outcome, err := consumer.ConsumeOne(context.Background())
	require.NoError(t, err)
	assert.Nil(t, outcome)
}

func TestConsumeOneProcesses(t *testing.T) {
	receiver := &fakeReceiver{messages: []*queue.Message{{
		ID:            "m6",
		Body:          "name\nAcme\n",
		ReceiptHandle: "rh-6",
	}}}
	consumer := New(receiver, &fakeEngine{succeed: true}, nil, quietLogger())

	outcome, err := consumer.ConsumeOne(context.Background())
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Success())
	assert.Equal(t, []string{"rh-6"}, receiver.deleted)
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantMode model.OperationMode
		wantCSV  string
		wantErr  bool
	}{
		{"raw csv", "a,b\n1,2\n", model.ModeUpsert, "a,b\n1,2\n", false},
		{"envelope with mode", `{"operation_type":"CREATE","csv":"a\n1\n"}`, model.ModeCreate, "a\n1\n", false},
		{"envelope without mode", `{"csv":"a\n1\n"}`, model.ModeUpsert, "a\n1\n", false},
		{"unknown mode", `{"operation_type":"MERGE","csv":"a\n1\n"}`, "", "", true},
		{"json without csv treated as raw", `{"foo":"bar"}`, model.ModeUpsert, `{"foo":"bar"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, csvBlob, err := ParseEnvelope(tt.body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantCSV, csvBlob)
		})
	}
}
