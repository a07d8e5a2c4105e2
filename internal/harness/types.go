package harness

import "github.com/roach88/scenekit/internal/ir"

// TraceEvent records the outcome of one action or one reconcile batch.
type TraceEvent struct {
	Step int    `json:"step"`
	Kind string `json:"kind"` // "actions" or "batch"

	// Action outcomes.
	Index   int    `json:"index,omitempty"`
	Type    string `json:"type,omitempty"`
	Success bool   `json:"success,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`

	// Reconcile outcomes.
	Created []string `json:"created,omitempty"`
	Updated []string `json:"updated,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
	Skipped int      `json:"skipped,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists every action result and reconcile result in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Scene is the final scene.
	Scene ir.Scene `json:"-"`

	// Refs maps action refs to the ids they created.
	Refs map[string]string `json:"refs,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Refs:   make(map[string]string),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
