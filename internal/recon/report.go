package recon

import (
	"github.com/sirupsen/logrus"

	"github.com/reachiq/csv-sync/internal/model"
)

// Report logs the batch verdict and returns whether the source queue message
// may be acknowledged. There is no partial acknowledgment: one failed row in
// either family retains the whole message for transport-level retry.
func (e *Engine) Report(outcome model.BatchOutcome) bool {
	fields := logrus.Fields{
		"batch_id": outcome.BatchID,
		"mode":     outcome.Mode,
		"rows":     outcome.Rows,
		"writes":   len(outcome.Results),
	}

	if outcome.Fatal != nil {
		e.log.WithFields(fields).WithError(outcome.Fatal).Error("💥 Batch aborted before any row was written")
		return false
	}

	failures := outcome.Failures()
	if len(failures) > 0 {
		e.log.WithFields(fields).Warnf("❌ Batch failed: %d of %d writes did not apply, message retained", len(failures), len(outcome.Results))
		return false
	}

	e.log.WithFields(fields).Info("🏁 Batch fully applied, safe to acknowledge")
	return true
}
