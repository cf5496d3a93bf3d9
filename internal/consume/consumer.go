// Package consume drives batches from the queue through the reconciliation
// engine and decides whether each message may be acknowledged.
package consume

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/reachiq/csv-sync/internal/csvcodec"
	"github.com/reachiq/csv-sync/internal/model"
	"github.com/reachiq/csv-sync/internal/queue"
	"github.com/reachiq/csv-sync/internal/tracking"
)

// Receiver is the slice of the queue transport the consumer needs. The
// transport's visibility lease guarantees no two workers hold the same
// message at once; the consumer relies on that instead of its own locking.
type Receiver interface {
	ReceiveOne(ctx context.Context, waitSeconds int32) (*queue.Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Engine runs one decoded batch and reports the ack decision.
type Engine interface {
	RunBatch(ctx context.Context, batchID string, mode model.OperationMode, batch *csvcodec.Batch) model.BatchOutcome
	Report(outcome model.BatchOutcome) bool
}

// Consumer leases one message at a time and processes it to completion.
type Consumer struct {
	queue  Receiver
	engine Engine
	audit  *tracking.Store
	log    *logrus.Logger

	// WaitSeconds is the long-poll window per receive call.
	WaitSeconds int32
}

// New wires a consumer. The audit store may be nil (no local audit log).
func New(q Receiver, engine Engine, audit *tracking.Store, log *logrus.Logger) *Consumer {
	return &Consumer{queue: q, engine: engine, audit: audit, log: log, WaitSeconds: 10}
}

// Run loops until ctx is cancelled. An in-flight batch always runs to
// completion: cancellation is only observed between messages, and the batch
// itself is processed on a context detached from the shutdown signal.
func (c *Consumer) Run(ctx context.Context) {
	c.log.Info("👂 Consumer started, waiting for batches")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("🛑 Consumer stopped")
			return
		default:
		}

		msg, err := c.queue.ReceiveOne(ctx, c.WaitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("🛑 Consumer stopped")
				return
			}
			c.log.WithError(err).Error("❌ Failed to receive from queue")
			continue
		}
		if msg == nil {
			continue
		}

		c.ProcessMessage(context.WithoutCancel(ctx), msg)
	}
}

// ConsumeOne drains at most one message synchronously. Returns the outcome,
// or nil when the queue was empty.
func (c *Consumer) ConsumeOne(ctx context.Context) (*model.BatchOutcome, error) {
	msg, err := c.queue.ReceiveOne(ctx, 1)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	outcome := c.ProcessMessage(ctx, msg)
	return &outcome, nil
}

// ProcessMessage runs one queue message through the engine and deletes it
// only when the whole batch applied. Anything else leaves the message for
// the transport's visibility-timeout retry.
func (c *Consumer) ProcessMessage(ctx context.Context, msg *queue.Message) model.BatchOutcome {
	batchID := uuid.New().String()
	log := c.log.WithFields(logrus.Fields{"batch_id": batchID, "message_id": msg.ID})

	mode, csvBlob, err := ParseEnvelope(msg.Body)
	if err != nil {
		log.WithError(err).Error("💥 Bad message envelope, batch aborted")
		c.auditAbort(batchID, msg.ID, err)
		return model.BatchOutcome{BatchID: batchID, Fatal: err}
	}

	batch, err := csvcodec.Decode(csvBlob)
	if err != nil {
		log.WithError(err).Error("💥 Malformed CSV payload, batch aborted")
		c.auditAbort(batchID, msg.ID, err)
		return model.BatchOutcome{BatchID: batchID, Mode: mode, Fatal: err}
	}

	if c.audit != nil {
		if err := c.audit.SaveBatch(batchID, msg.ID, string(mode), len(batch.Rows)); err != nil {
			log.WithError(err).Warn("⚠️ Failed to record batch in audit store")
		}
	}

	outcome := c.engine.RunBatch(ctx, batchID, mode, batch)
	c.auditOutcome(outcome)

	if !c.engine.Report(outcome) {
		return outcome
	}

	if err := c.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		// The batch applied but the ack failed; the transport will redeliver
		// and the redelivery reruns as an upsert-style retry.
		log.WithError(err).Error("❌ Failed to delete acknowledged message")
	}
	return outcome
}

// ParseEnvelope extracts the operation mode and CSV payload from a message
// body. A body that is not a JSON envelope is treated as raw CSV under the
// default UPSERT mode.
func ParseEnvelope(body string) (model.OperationMode, string, error) {
	var env model.Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil || env.CSV == "" {
		return model.ModeUpsert, body, nil
	}
	if env.OperationType == "" {
		return model.ModeUpsert, env.CSV, nil
	}
	mode, err := model.ParseMode(env.OperationType)
	if err != nil {
		return "", "", fmt.Errorf("envelope: %w", err)
	}
	return mode, env.CSV, nil
}

func (c *Consumer) auditAbort(batchID, messageID string, cause error) {
	if c.audit == nil {
		return
	}
	if err := c.audit.SaveBatch(batchID, messageID, "", 0); err != nil {
		c.log.WithError(err).Warn("⚠️ Failed to record aborted batch")
		return
	}
	c.audit.SaveRowFailure(batchID, -1, "", cause.Error())
	c.audit.UpdateBatchStatus(batchID, "aborted")
}

func (c *Consumer) auditOutcome(outcome model.BatchOutcome) {
	if c.audit == nil {
		return
	}
	for _, failure := range outcome.Failures() {
		c.audit.SaveRowFailure(outcome.BatchID, failure.Row, string(failure.Family), failure.Err.Error())
	}
	status := "applied"
	if outcome.Fatal != nil {
		status = "aborted"
	} else if !outcome.Success() {
		status = "failed"
	}
	c.audit.UpdateBatchStatus(outcome.BatchID, status)
}
