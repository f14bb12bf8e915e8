package engine

import (
	"time"

	"github.com/easelab/easel/pkg/domain"
)

// Report summarizes the execution of one sync plan.
type Report struct {
	GraphID  string
	Planned  int
	Duration time.Duration

	Succeeded int
	Failed    int
	Errors    []error
}

// Success reports whether every operation went through.
func (r *Report) Success() bool { return r.Failed == 0 }

// Err returns the accumulated failures as a single PartialSyncError,
// or nil when the sync was clean.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return &domain.PartialSyncError{Errors: r.Errors}
}
