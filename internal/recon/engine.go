// Package recon is the reconciliation engine: it decides, row by row, whether
// a matching document already exists in each index family and how incoming
// fields merge into it under the batch's operation mode.
package recon

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/reachiq/csv-sync/internal/csvcodec"
	"github.com/reachiq/csv-sync/internal/dates"
	"github.com/reachiq/csv-sync/internal/model"
	"github.com/reachiq/csv-sync/internal/project"
)

// ErrNoMatch marks an UPDATE row whose natural key has no existing document.
// Update mode never creates, so the row fails.
var ErrNoMatch = errors.New("no existing document matches natural key")

// Searcher is the slice of the index backend the engine needs. Read calls
// never mutate; write calls report success distinctly from "not found".
type Searcher interface {
	EnsureIndex(ctx context.Context, index string, header []string) error
	PropertyKeys(ctx context.Context, index string) ([]string, error)
	FindOne(ctx context.Context, index, searchField, value string) (model.MatchResult, error)
	Create(ctx context.Context, index string, fields map[string]string) (string, error)
	PartialUpdate(ctx context.Context, index, id string, fields map[string]string) error
}

// Mirror is the secondary document store. Every call is best-effort.
type Mirror interface {
	Insert(ctx context.Context, collection, esID string, fields map[string]string) error
	Update(ctx context.Context, collection, esID string, fields map[string]string) error
}

// FamilyTarget binds one document family to its index and natural-key pair:
// CheckField is the application field on the draft, SearchField its
// exact-match form on the index (usually the .keyword sub-field).
type FamilyTarget struct {
	Family      model.Family
	Index       string
	CheckField  string
	SearchField string
}

// Engine reconciles CSV batches into the index families. Backend handles are
// injected; the engine holds no ambient connection state.
type Engine struct {
	searcher Searcher
	mirror   Mirror
	targets  []FamilyTarget
	log      *logrus.Logger
}

// NewEngine wires the engine to its backends and family targets.
func NewEngine(searcher Searcher, mirror Mirror, targets []FamilyTarget, log *logrus.Logger) *Engine {
	return &Engine{searcher: searcher, mirror: mirror, targets: targets, log: log}
}

// rowHandler applies one operation mode's merge policy to a single
// (row, family) draft. One handler exists per mode; the active one is picked
// once per batch.
type rowHandler func(ctx context.Context, target FamilyTarget, row int, draft model.DocumentDraft) model.RowResult

func (e *Engine) handlers() map[model.OperationMode]rowHandler {
	return map[model.OperationMode]rowHandler{
		model.ModeCreate: e.createRow,
		model.ModeUpdate: e.updateRow,
		model.ModeUpsert: e.upsertRow,
	}
}

// RunBatch processes every row of a decoded batch under one operation mode.
// Rows run strictly in CSV order: a later row's lookup may depend on a
// document created by an earlier row of the same batch.
func (e *Engine) RunBatch(ctx context.Context, batchID string, mode model.OperationMode, batch *csvcodec.Batch) model.BatchOutcome {
	outcome := model.BatchOutcome{BatchID: batchID, Mode: mode, Rows: len(batch.Rows)}

	handler, ok := e.handlers()[mode]
	if !ok {
		outcome.Fatal = fmt.Errorf("%w %q", model.ErrBadMode, mode)
		return outcome
	}

	// PropertyKeySets are computed once, before any row is touched. A target
	// index missing entirely is created from the CSV header first. Without
	// the key sets no row can be projected, so a failure aborts the whole batch.
	keysets := make(map[model.Family]project.PropertyKeySet, len(e.targets))
	for _, target := range e.targets {
		if err := e.searcher.EnsureIndex(ctx, target.Index, batch.Header); err != nil {
			outcome.Fatal = fmt.Errorf("ensure index %s: %w", target.Index, err)
			return outcome
		}
		fields, err := e.searcher.PropertyKeys(ctx, target.Index)
		if err != nil {
			outcome.Fatal = fmt.Errorf("property keys for %s: %w", target.Index, err)
			return outcome
		}
		keysets[target.Family] = project.NewPropertyKeySet(fields)
	}

	e.log.WithFields(logrus.Fields{
		"batch_id": batchID,
		"mode":     mode,
		"rows":     len(batch.Rows),
	}).Info("🚀 Starting batch reconciliation")

	for i, raw := range batch.Rows {
		row := model.RowRecord(raw)
		for _, target := range e.targets {
			draft := project.Project(row, target.Family, keysets[target.Family])
			result := handler(ctx, target, i, draft)
			if result.Err != nil {
				e.log.WithFields(logrus.Fields{
					"batch_id": batchID,
					"row":      i,
					"family":   target.Family,
				}).WithError(result.Err).Warn("❌ Row failed")
			}
			outcome.Results = append(outcome.Results, result)
		}
	}

	return outcome
}

// createRow always writes a new document, skipping the match lookup entirely.
// Two rows with the same natural key produce two distinct documents.
func (e *Engine) createRow(ctx context.Context, target FamilyTarget, row int, draft model.DocumentDraft) model.RowResult {
	id, err := e.searcher.Create(ctx, target.Index, draft.Fields)
	if err != nil {
		return model.RowResult{Row: row, Family: target.Family, State: model.StateFailed, Err: err}
	}
	e.mirrorWrite(ctx, target, id, draft.Fields, true)
	return model.RowResult{Row: row, Family: target.Family, State: model.StateCreated, DocID: id}
}

// updateRow merges onto the matched document or fails the row when the
// natural key resolves to nothing.
func (e *Engine) updateRow(ctx context.Context, target FamilyTarget, row int, draft model.DocumentDraft) model.RowResult {
	match, err := e.resolve(ctx, target, draft)
	if err != nil {
		return model.RowResult{Row: row, Family: target.Family, State: model.StateFailed, Err: err}
	}
	if !match.Found {
		return model.RowResult{Row: row, Family: target.Family, State: model.StateFailed, Err: ErrNoMatch}
	}
	return e.mergeRow(ctx, target, row, draft, match)
}

// upsertRow behaves like update when a match exists and like create when it
// does not. Absence of a match is never a failure here.
func (e *Engine) upsertRow(ctx context.Context, target FamilyTarget, row int, draft model.DocumentDraft) model.RowResult {
	match, err := e.resolve(ctx, target, draft)
	if err != nil {
		return model.RowResult{Row: row, Family: target.Family, State: model.StateFailed, Err: err}
	}
	if !match.Found {
		return e.createRow(ctx, target, row, draft)
	}
	return e.mergeRow(ctx, target, row, draft, match)
}

// resolve looks up the draft's natural key. A draft without a usable key
// value resolves to NotFound without touching the backend.
func (e *Engine) resolve(ctx context.Context, target FamilyTarget, draft model.DocumentDraft) (model.MatchResult, error) {
	value := draft.Fields[target.CheckField]
	if value == "" {
		return model.MatchResult{}, nil
	}
	return e.searcher.FindOne(ctx, target.Index, target.SearchField, value)
}

// mergeRow applies a partial update onto the matched identity, normalizing
// date fields against the stored document first.
func (e *Engine) mergeRow(ctx context.Context, target FamilyTarget, row int, draft model.DocumentDraft, match model.MatchResult) model.RowResult {
	payload := e.normalizeDates(target, draft.Fields, match.Stored)
	if err := e.searcher.PartialUpdate(ctx, target.Index, match.DocID, payload); err != nil {
		return model.RowResult{Row: row, Family: target.Family, State: model.StateFailed, DocID: match.DocID, Err: err}
	}
	e.mirrorWrite(ctx, target, match.DocID, payload, false)
	return model.RowResult{Row: row, Family: target.Family, State: model.StateMerged, DocID: match.DocID}
}

// normalizeDates reparses incoming values for every field whose stored
// counterpart looks like a date, so the merge cannot mix layouts. A value
// that cannot be reconciled is dropped from the payload, not failed.
func (e *Engine) normalizeDates(target FamilyTarget, fields map[string]string, stored map[string]interface{}) map[string]string {
	payload := make(map[string]string, len(fields))
	for key, incoming := range fields {
		storedValue, ok := stored[key].(string)
		if !ok {
			payload[key] = incoming
			continue
		}
		layout, ok := dates.GuessFormat(storedValue)
		if !ok {
			payload[key] = incoming
			continue
		}
		canonical, err := dates.Reparse(incoming, layout)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"family": target.Family,
				"field":  key,
				"value":  incoming,
			}).Warn("⚠️ Dropping unreconcilable date field from merge")
			continue
		}
		payload[key] = canonical
	}
	return payload
}

// mirrorWrite duplicates an index write into the secondary store. Failures
// are logged and swallowed: the mirror never decides a row's outcome.
func (e *Engine) mirrorWrite(ctx context.Context, target FamilyTarget, esID string, fields map[string]string, created bool) {
	var err error
	if created {
		err = e.mirror.Insert(ctx, target.Index, esID, fields)
	} else {
		err = e.mirror.Update(ctx, target.Index, esID, fields)
	}
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"family": target.Family,
			"index":  target.Index,
			"es_id":  esID,
		}).WithError(err).Warn("⚠️ Mirror write failed")
	}
}
