package model

// Family tags which document family a draft or write belongs to.
type Family string

const (
	FamilyCompany Family = "company"
	FamilyRecord  Family = "record"
)

// RowRecord is one CSV data line keyed by the header columns.
type RowRecord map[string]string

// DocumentDraft is a row projected onto one family's eligible fields.
// It only exists while a single row is being reconciled.
type DocumentDraft struct {
	Family Family
	Fields map[string]string
}

// MatchResult is the outcome of a natural-key lookup against the index.
type MatchResult struct {
	Found  bool
	DocID  string
	Stored map[string]interface{}
}

// RowState is the terminal state of one row in one family.
type RowState string

const (
	StateCreated RowState = "created"
	StateMerged  RowState = "merged"
	StateFailed  RowState = "failed"
)

// RowResult records where a single (row, family) write ended up.
type RowResult struct {
	Row    int
	Family Family
	State  RowState
	DocID  string
	Err    error
}

// Failed reports whether this row ended in a terminal failure.
func (r RowResult) Failed() bool { return r.State == StateFailed }

// BatchOutcome aggregates every RowResult of one batch. The queue message
// may only be deleted when Success is true.
type BatchOutcome struct {
	BatchID string
	Mode    OperationMode
	Rows    int
	Results []RowResult
	Fatal   error
}

// Success is true only if the batch was not aborted and every row in every
// family reached a non-failed terminal state.
func (o BatchOutcome) Success() bool {
	if o.Fatal != nil {
		return false
	}
	for _, r := range o.Results {
		if r.Failed() {
			return false
		}
	}
	return true
}

// Failures returns only the failed row results.
func (o BatchOutcome) Failures() []RowResult {
	var failed []RowResult
	for _, r := range o.Results {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	return failed
}
