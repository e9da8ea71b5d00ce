package harness

import "github.com/Chasungsoo/querydsl/internal/testutil"

// TraceEvent is the outcome of one check.
type TraceEvent struct {
	Seq        int64                `json:"seq"`
	Query      string               `json:"query"`
	Fetch      string               `json:"fetch"`
	Statements []testutil.Statement `json:"statements"`
	Rows       [][]any              `json:"rows,omitempty"`
	Count      *int64               `json:"count,omitempty"`
	Found      *bool                `json:"found,omitempty"`
	Error      string               `json:"error,omitempty"`
	Message    string               `json:"message,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per check, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a check outcome.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// Event returns the last event of the named query.
func (r *Result) Event(query string) (TraceEvent, bool) {
	for i := len(r.Trace) - 1; i >= 0; i-- {
		if r.Trace[i].Query == query {
			return r.Trace[i], true
		}
	}
	return TraceEvent{}, false
}
