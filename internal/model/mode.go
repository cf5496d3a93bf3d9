package model

import (
	"errors"
	"fmt"
)

// OperationMode selects the merge policy for a whole batch, never per row.
type OperationMode string

const (
	ModeCreate OperationMode = "CREATE"
	ModeUpdate OperationMode = "UPDATE"
	ModeUpsert OperationMode = "UPSERT"
)

// ErrBadMode marks an operation string outside the three known modes. It is
// always batch-fatal.
var ErrBadMode = errors.New("unknown operation mode")

// ParseMode validates the literal operation string from the message envelope.
// The comparison is case-sensitive; anything unrecognized is fatal for the batch.
func ParseMode(s string) (OperationMode, error) {
	switch OperationMode(s) {
	case ModeCreate, ModeUpdate, ModeUpsert:
		return OperationMode(s), nil
	default:
		return "", fmt.Errorf("%w %q", ErrBadMode, s)
	}
}

// Envelope is the JSON message body carried on the queue. A body that is not
// valid JSON is treated as raw CSV with the default UPSERT mode instead.
type Envelope struct {
	OperationType string `json:"operation_type"`
	MessageID     string `json:"message_id,omitempty"`
	// AutoFill is reserved; it is parsed but never acted on.
	AutoFill bool   `json:"auto_fill,omitempty"`
	CSV      string `json:"csv"`
}
