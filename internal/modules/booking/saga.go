package booking

import (
	"context"
	"errors"
	"fmt"
)

// sagaStep is one forward action with the action that undoes it.
type sagaStep struct {
	name       string
	do         func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// CompensationError means a step failed and undoing the earlier steps failed too.
type CompensationError struct {
	Step  string
	Cause error
	Err   error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("step %s failed (%v) and compensation failed: %v", e.Step, e.Cause, e.Err)
}

func (e *CompensationError) Unwrap() []error { return []error{e.Cause, e.Err} }

// runSaga runs the steps in order. When one fails, the completed steps are
// compensated in reverse and the step's error is returned.
func runSaga(ctx context.Context, steps []sagaStep) error {
	done := make([]sagaStep, 0, len(steps))
	for _, st := range steps {
		if err := st.do(ctx); err != nil {
			var errs []error
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].compensate == nil {
					continue
				}
				if cerr := done[i].compensate(ctx); cerr != nil {
					errs = append(errs, fmt.Errorf("%s: %w", done[i].name, cerr))
				}
			}
			if len(errs) > 0 {
				return &CompensationError{Step: st.name, Cause: err, Err: errors.Join(errs...)}
			}
			return err
		}
		done = append(done, st)
	}
	return nil
}
