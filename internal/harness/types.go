package harness

import "github.com/roach88/dobble/internal/session"

// KindDropped is the trace kind of a push frame that failed to decode.
const KindDropped = "dropped"

// TraceEntry records the outcome of one scenario step.
type TraceEntry struct {
	// Step is the 1-based step index in the scenario.
	Step int `json:"step"`

	// Seq is the logical time assigned to the event. Zero for dropped frames,
	// which never reach the reducer.
	Seq int64 `json:"seq,omitempty"`

	Kind    string   `json:"kind"`
	Changed bool     `json:"changed"`
	Effects []string `json:"effects,omitempty"`

	// Refused is the gate's refusal message for a refused issue.
	Refused string `json:"refused,omitempty"`

	// Status and Readiness are taken after the step.
	Status    string `json:"status"`
	Readiness string `json:"readiness"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all step expectations and assertions match.
	Pass bool `json:"pass"`

	// Trace contains one entry per step, in order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// View is the last view the session published.
	View session.View `json:"view"`

	// Digest is the canonical digest of View, as reproduced by replaying
	// the scenario's journal.
	Digest string `json:"digest"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a trace entry.
func (r *Result) AddTrace(e TraceEntry) {
	r.Trace = append(r.Trace, e)
}
