package cause

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"go.uber.org/multierr"
)

// ErrInterrupted is wrapped by every error reported for an interruption.
var ErrInterrupted = errors.New("fiber interrupted")

// PanicError is the defect recorded when user code panics inside the runtime.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// FailureError carries a typed failure that is not itself an error.
type FailureError struct {
	Value any
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("failure: %v", e.Value)
}

// DefectError carries a defect that is not itself an error.
type DefectError struct {
	Value any
}

func (e *DefectError) Error() string {
	return fmt.Sprintf("defect: %v", e.Value)
}

// Squash reduces the cause to a single representative error: the first typed failure,
// else the first defect, else the interruption. It returns nil for an empty cause.
func (c Cause[E]) Squash() error {
	if fs := c.Failures(); len(fs) > 0 {
		return failureToError(fs[0])
	}
	if ds := c.Defects(); len(ds) > 0 {
		return defectToError(ds[0])
	}
	if ids := c.Interruptors(); len(ids) > 0 {
		return interruptToError(ids[0])
	}
	return nil
}

// Err combines every leaf of the cause into one error, keeping concurrent and
// sequential failures alike. It returns nil for an empty cause.
func (c Cause[E]) Err() error {
	var errs []error
	c.walk(func(n node) {
		switch n := n.(type) {
		case failNode:
			errs = append(errs, failureToError(n.err))
		case dieNode:
			errs = append(errs, defectToError(n.defect))
		case interruptNode:
			errs = append(errs, interruptToError(n.id))
		}
	})
	return multierr.Combine(errs...)
}

func failureToError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &FailureError{Value: v}
}

func defectToError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return &DefectError{Value: v}
}

func interruptToError(id fiberid.ID) error {
	return fmt.Errorf("%w by fiber %v", ErrInterrupted, id)
}
