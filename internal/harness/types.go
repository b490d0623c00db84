package harness

import (
	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/registry"
)

// Outcome values recorded for a step.
const OutcomeOK = "ok"

// StepTrace records how one step was executed.
type StepTrace struct {
	Index   int    `json:"index"`
	As      string `json:"as"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"` // OutcomeOK or the registry error code

	// Approved is the flag returned by add_node.
	Approved *bool `json:"approved,omitempty"`

	// Applied lists the urls a batch call approved or removed.
	Applied []string `json:"applied,omitempty"`

	// Seqs lists the events the step committed.
	Seqs []int64 `json:"seqs,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	Steps []StepTrace `json:"steps"`

	// Events is the full event log, including registry-created.
	Events []event.Event `json:"events"`

	// Final is the registry state after the last step.
	Final registry.Snapshot `json:"final"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Events: []event.Event{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
