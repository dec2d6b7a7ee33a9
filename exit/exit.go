// Package exit models the terminal result of a fiber: a success value or a cause.
package exit

import (
	"fmt"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
)

// Exit is either Success(value) or Failure(cause).
type Exit[E, A any] struct {
	value  A
	cause  cause.Cause[E]
	failed bool
}

// Succeed is a successful exit.
func Succeed[E, A any](a A) Exit[E, A] {
	return Exit[E, A]{value: a}
}

// FailCause is a failed exit with the given cause.
func FailCause[E, A any](c cause.Cause[E]) Exit[E, A] {
	return Exit[E, A]{cause: c, failed: true}
}

// Fail is a failed exit with a single typed failure.
func Fail[A, E any](err E) Exit[E, A] {
	return FailCause[E, A](cause.Fail(err))
}

// Die is a failed exit with a single defect.
func Die[E, A any](defect any) Exit[E, A] {
	return FailCause[E, A](cause.Die[E](defect))
}

// Interrupt is a failed exit caused by an interruption from the given fiber.
func Interrupt[E, A any](by fiberid.ID) Exit[E, A] {
	return FailCause[E, A](cause.Interrupt[E](by))
}

func (e Exit[E, A]) IsSuccess() bool { return !e.failed }

func (e Exit[E, A]) IsFailure() bool { return e.failed }

// IsInterrupted reports whether the exit failed with an interruption.
func (e Exit[E, A]) IsInterrupted() bool {
	return e.failed && e.cause.IsInterrupted()
}

// Value returns the success value.
func (e Exit[E, A]) Value() (A, bool) {
	return e.value, !e.failed
}

// Cause returns the failure cause; it is Empty for a success.
func (e Exit[E, A]) Cause() cause.Cause[E] {
	return e.cause
}

// Err reports the failure as a single error, or nil on success.
func (e Exit[E, A]) Err() error {
	if !e.failed {
		return nil
	}
	return e.cause.Squash()
}

func (e Exit[E, A]) String() string {
	if e.failed {
		return fmt.Sprintf("Failure(%v)", e.cause)
	}
	return fmt.Sprintf("Success(%v)", e.value)
}

// Fold eliminates the exit.
func Fold[E, A, Z any](e Exit[E, A], onFailure func(cause.Cause[E]) Z, onSuccess func(A) Z) Z {
	if e.failed {
		return onFailure(e.cause)
	}
	return onSuccess(e.value)
}

// Map transforms the success value.
func Map[E, A, B any](e Exit[E, A], f func(A) B) Exit[E, B] {
	if e.failed {
		return FailCause[E, B](e.cause)
	}
	return Succeed[E](f(e.value))
}

// MapError transforms every typed failure of the cause.
func MapError[E, E2, A any](e Exit[E, A], f func(E) E2) Exit[E2, A] {
	if e.failed {
		return FailCause[E2, A](cause.Map(e.cause, f))
	}
	return Succeed[E2](e.value)
}

// ZipWith combines two exits. Successes are combined with f; when both failed the causes
// are combined with g, otherwise the single failure is kept.
func ZipWith[E, A, B, C any](
	left Exit[E, A],
	right Exit[E, B],
	f func(A, B) C,
	g func(cause.Cause[E], cause.Cause[E]) cause.Cause[E],
) Exit[E, C] {
	switch {
	case left.failed && right.failed:
		return FailCause[E, C](g(left.cause, right.cause))
	case left.failed:
		return FailCause[E, C](left.cause)
	case right.failed:
		return FailCause[E, C](right.cause)
	default:
		return Succeed[E](f(left.value, right.value))
	}
}

// CollectAll gathers the successes, merging failures sequentially.
// It returns false when exits is empty.
func CollectAll[E, A any](exits ...Exit[E, A]) (Exit[E, []A], bool) {
	return collect(exits, cause.Then[E])
}

// CollectAllPar gathers the successes, merging failures in parallel.
// It returns false when exits is empty.
func CollectAllPar[E, A any](exits ...Exit[E, A]) (Exit[E, []A], bool) {
	return collect(exits, cause.Both[E])
}

func collect[E, A any](exits []Exit[E, A], g func(cause.Cause[E], cause.Cause[E]) cause.Cause[E]) (Exit[E, []A], bool) {
	if len(exits) == 0 {
		return Exit[E, []A]{}, false
	}
	acc := Map(exits[0], func(a A) []A { return []A{a} })
	for _, ex := range exits[1:] {
		acc = ZipWith(acc, ex, func(as []A, a A) []A { return append(as, a) }, g)
	}
	return acc, true
}

// Erase forgets both type parameters.
func Erase[E, A any](e Exit[E, A]) Exit[any, any] {
	return Exit[any, any]{value: any(e.value), cause: cause.Erase(e.cause), failed: e.failed}
}

// Narrow restores the type parameters of an erased exit.
// A success must carry an A (or nil); every Fail leaf must carry an E.
func Narrow[E, A any](e Exit[any, any]) Exit[E, A] {
	if e.failed {
		return FailCause[E, A](cause.Narrow[E](e.cause))
	}
	v, _ := e.value.(A)
	return Succeed[E](v)
}
