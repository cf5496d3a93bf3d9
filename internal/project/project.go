package project

import (
	"regexp"

	"github.com/reachiq/csv-sync/internal/model"
)

// reservedKey matches mapping fields that must never be written by imports:
// anything starting with a digit or @ is internal to the index.
var reservedKey = regexp.MustCompile(`^[0-9@]`)

// PropertyKeySet is the set of field names eligible for one document family.
// It is computed once per batch from the index mapping and stays stable for
// the batch's duration.
type PropertyKeySet map[string]struct{}

// NewPropertyKeySet filters raw mapping field names down to the eligible set.
func NewPropertyKeySet(fields []string) PropertyKeySet {
	keys := make(PropertyKeySet, len(fields))
	for _, f := range fields {
		if f == "" || reservedKey.MatchString(f) {
			continue
		}
		keys[f] = struct{}{}
	}
	return keys
}

// Contains reports whether the field is eligible.
func (s PropertyKeySet) Contains(field string) bool {
	_, ok := s[field]
	return ok
}

// Project derives a family-tagged draft from a row: only keys present in both
// the row and the key set survive. Extra row columns are dropped silently;
// an empty intersection yields an empty (but valid) draft.
func Project(row model.RowRecord, family model.Family, keys PropertyKeySet) model.DocumentDraft {
	fields := make(map[string]string)
	for k, v := range row {
		if keys.Contains(k) {
			fields[k] = v
		}
	}
	return model.DocumentDraft{Family: family, Fields: fields}
}
