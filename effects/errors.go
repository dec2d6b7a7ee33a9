package effects

import (
	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// FoldCauseM handles both outcomes of eff with effects. The failure handler sees the full
// cause, defects and interruptions included. This is the only place a failure is caught;
// every other handler is built on it.
func FoldCauseM[R, E, E2, A, B any](
	eff Effect[R, E, A],
	onFailure func(cause.Cause[E]) Effect[R, E2, B],
	onSuccess func(A) Effect[R, E2, B],
) Effect[R, E2, B] {
	return Effect[R, E2, B]{op: &foldOp{
		inner:     eff.op,
		onFailure: func(c cause.Cause[any]) instruction { return onFailure(cause.Narrow[E](c)).op },
		onSuccess: func(v any) instruction { return onSuccess(as[A](v)).op },
	}}
}

// FoldM handles typed failures and successes with effects. Causes carrying a defect or an
// interruption are not handled and propagate unchanged, except that typed failures
// inside them, which cannot be expressed as E2, are kept as *cause.FailureError defects.
func FoldM[R, E, E2, A, B any](
	eff Effect[R, E, A],
	onFailure func(E) Effect[R, E2, B],
	onSuccess func(A) Effect[R, E2, B],
) Effect[R, E2, B] {
	return FoldCauseM(eff,
		func(c cause.Cause[E]) Effect[R, E2, B] {
			if e, ok := typedFailure(c); ok {
				return onFailure(e)
			}
			return Halt[R, E2, B](recast[E, E2](c))
		},
		onSuccess,
	)
}

// Fold maps both outcomes to a value. Defects and interruptions still propagate.
func Fold[R, E, A, B any](eff Effect[R, E, A], onFailure func(E) B, onSuccess func(A) B) Effect[R, E, B] {
	return FoldM(eff,
		func(e E) Effect[R, E, B] { return Succeed[R, E](onFailure(e)) },
		func(a A) Effect[R, E, B] { return Succeed[R, E](onSuccess(a)) },
	)
}

// CatchAll recovers from typed failures only. Defects and interruptions are never
// swallowed; use CatchAllCause to handle those.
func CatchAll[R, E, A any](eff Effect[R, E, A], h func(E) Effect[R, E, A]) Effect[R, E, A] {
	return FoldCauseM(eff,
		func(c cause.Cause[E]) Effect[R, E, A] {
			if e, ok := typedFailure(c); ok {
				return h(e)
			}
			return Halt[R, E, A](c)
		},
		Succeed[R, E, A],
	)
}

// CatchAllCause recovers from every cause, defects and interruptions included.
func CatchAllCause[R, E, A any](eff Effect[R, E, A], h func(cause.Cause[E]) Effect[R, E, A]) Effect[R, E, A] {
	return FoldCauseM(eff, h, Succeed[R, E, A])
}

// MapError transforms every typed failure, keeping the rest of the cause intact.
func MapError[R, E, E2, A any](eff Effect[R, E, A], f func(E) E2) Effect[R, E2, A] {
	return FoldCauseM(eff,
		func(c cause.Cause[E]) Effect[R, E2, A] { return Halt[R, E2, A](cause.Map(c, f)) },
		Succeed[R, E2, A],
	)
}

// OrElse runs that when eff fails with a typed failure.
func OrElse[R, E, A any](eff Effect[R, E, A], that Effect[R, E, A]) Effect[R, E, A] {
	return CatchAll(eff, func(E) Effect[R, E, A] { return that })
}

// Result runs eff and succeeds with its exit.
func Result[R, E, A any](eff Effect[R, E, A]) Effect[R, E, exit.Exit[E, A]] {
	return FoldCauseM(eff,
		func(c cause.Cause[E]) Effect[R, E, exit.Exit[E, A]] {
			return Succeed[R, E](exit.FailCause[E, A](c))
		},
		func(a A) Effect[R, E, exit.Exit[E, A]] {
			return Succeed[R, E](exit.Succeed[E](a))
		},
	)
}

// typedFailure returns the first typed failure of a cause made only of typed failures.
func typedFailure[E any](c cause.Cause[E]) (E, bool) {
	if c.IsDie() || c.IsInterrupted() {
		var zero E
		return zero, false
	}
	return c.FailureOption()
}

func recast[E, E2 any](c cause.Cause[E]) cause.Cause[E2] {
	return cause.Fold(c,
		cause.Empty[E2],
		func(e E) cause.Cause[E2] { return cause.Die[E2](&cause.FailureError{Value: e}) },
		cause.Die[E2],
		cause.Interrupt[E2],
		cause.Then[E2],
		cause.Both[E2],
	)
}
