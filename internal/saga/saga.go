// Package saga keeps an explicit stack of compensating actions for a
// multi-step operation.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Compensation undoes one completed forward step.
type Compensation func(ctx context.Context) error

type step struct {
	name string
	undo Compensation
}

// Saga is request scoped and not safe for concurrent use.
type Saga struct {
	steps []step
}

func New() *Saga {
	return &Saga{}
}

// Push registers the undo action for a step that just succeeded.
func (s *Saga) Push(name string, undo Compensation) {
	s.steps = append(s.steps, step{name: name, undo: undo})
}

// Forget drops every pending compensation once the operation committed.
func (s *Saga) Forget() {
	s.steps = nil
}

// Compensate runs pending compensations in reverse order. Every action runs
// even when an earlier one fails; failures are combined into the result.
func (s *Saga) Compensate(ctx context.Context) error {
	var errs error
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		if err := st.undo(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", st.name, err))
		}
	}
	s.steps = nil
	return errs
}

// Errors splits a Compensate result into its individual failures.
func Errors(err error) []error {
	return multierr.Errors(err)
}
