package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/reachiq/csv-sync/internal/consume"
	"github.com/reachiq/csv-sync/internal/model"
	"github.com/reachiq/csv-sync/internal/tracking"
)

// Sender enqueues a message body and returns the assigned message id.
type Sender interface {
	Send(ctx context.Context, body string) (string, error)
}

// Handler serves the sync API. All collaborators are injected.
type Handler struct {
	queue    Sender
	consumer *consume.Consumer
	audit    *tracking.Store
	log      *logrus.Logger
}

// New builds the API handler set.
func New(queue Sender, consumer *consume.Consumer, audit *tracking.Store, log *logrus.Logger) *Handler {
	return &Handler{queue: queue, consumer: consumer, audit: audit, log: log}
}

// Hello is the root liveness endpoint.
// @Summary Liveness check
// @Tags meta
// @Produce plain
// @Success 200 {string} string "Hello, World!"
// @Router / [get]
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Hello, World!"))
}

// UploadCSV accepts a CSV file and enqueues it as one batch message.
// @Summary Upload a CSV file
// @Description Enqueue an uploaded CSV file for reconciliation under the given operation type
// @Tags sync
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param operation_type formData string false "CREATE, UPDATE or UPSERT (default UPSERT)"
// @Success 200 {object} map[string]interface{} "File enqueued"
// @Failure 400 {object} map[string]interface{} "No file or bad operation type"
// @Failure 500 {object} map[string]interface{} "Enqueue failed"
// @Router /upload_csv [post]
func (h *Handler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file was provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	operation := strings.TrimSpace(r.FormValue("operation_type"))
	if operation == "" {
		operation = string(model.ModeUpsert)
	}
	mode, err := model.ParseMode(operation)
	if err != nil {
		http.Error(w, "Invalid operation_type", http.StatusBadRequest)
		return
	}

	envelope, err := json.Marshal(model.Envelope{
		OperationType: string(mode),
		CSV:           string(content),
	})
	if err != nil {
		http.Error(w, "Failed to build message", http.StatusInternalServerError)
		return
	}

	messageID, err := h.queue.Send(r.Context(), string(envelope))
	if err != nil {
		h.log.WithError(err).Error("❌ Failed to enqueue uploaded CSV")
		http.Error(w, "Failed to enqueue file", http.StatusInternalServerError)
		return
	}

	h.log.WithFields(logrus.Fields{
		"file":       header.Filename,
		"mode":       mode,
		"message_id": messageID,
	}).Info("📨 CSV enqueued")

	writeJSON(w, map[string]interface{}{
		"message":   "File uploaded successfully.",
		"messageId": messageID,
		"mode":      mode,
		"createdAt": time.Now().UTC(),
	})
}

// ConsumeCSV synchronously drains at most one queued batch.
// @Summary Consume one queued CSV batch
// @Description Lease at most one message from the queue, reconcile it and report the outcome
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]interface{} "Batch outcome or empty queue"
// @Failure 500 {object} map[string]interface{} "Queue receive failed"
// @Router /consume_csv [get]
func (h *Handler) ConsumeCSV(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.consumer.ConsumeOne(r.Context())
	if err != nil {
		h.log.WithError(err).Error("❌ Failed to consume from queue")
		http.Error(w, "Failed to consume from queue", http.StatusInternalServerError)
		return
	}
	if outcome == nil {
		writeJSON(w, map[string]interface{}{"message": "No CSV file to consume."})
		return
	}

	resp := map[string]interface{}{
		"message": "CSV file consumed successfully.",
		"batchId": outcome.BatchID,
		"mode":    outcome.Mode,
		"rows":    outcome.Rows,
		"applied": outcome.Success(),
	}
	if outcome.Fatal != nil {
		resp["message"] = "CSV batch aborted."
		resp["error"] = outcome.Fatal.Error()
	} else if failures := outcome.Failures(); len(failures) > 0 {
		resp["message"] = "CSV batch failed, message retained."
		resp["failedWrites"] = len(failures)
	}
	writeJSON(w, resp)
}

// ListBatches returns the local audit log of processed batches.
// @Summary List processed batches
// @Tags batches
// @Produce json
// @Success 200 {array} map[string]interface{} "Batches"
// @Failure 500 {object} map[string]interface{} "Audit store failure"
// @Router /api/v1/batches [get]
func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.audit.ListBatches()
	if err != nil {
		http.Error(w, "Failed to fetch batches", http.StatusInternalServerError)
		return
	}
	writeJSON(w, batches)
}

// GetBatch returns one batch with its recorded row failures.
// @Summary Get batch
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{} "Batch details"
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Router /api/v1/batches/{id} [get]
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	prefix := "/api/v1/batches/"
	batchID := strings.TrimPrefix(r.URL.Path, prefix)
	if batchID == "" || batchID == r.URL.Path {
		http.Error(w, "Batch ID is required", http.StatusBadRequest)
		return
	}

	batch, err := h.audit.GetBatch(batchID)
	if err != nil {
		http.Error(w, "Batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, batch)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
