package effects

import (
	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// BracketExit acquires a resource uninterruptibly, uses it, and releases it.
//
// For every successful acquire, release runs exactly once and uninterruptibly, whether use
// succeeds, fails or is interrupted, before the bracket's own exit is known. A failing
// release is appended to the cause already in flight with cause.Then.
func BracketExit[R, E, A, B any](
	acquire Effect[R, E, A],
	release func(A, exit.Exit[E, B]) Effect[R, E, Unit],
	use func(A) Effect[R, E, B],
) Effect[R, E, B] {
	return UninterruptibleMask(func(restore InterruptStatus) Effect[R, E, B] {
		return FlatMap(acquire, func(a A) Effect[R, E, B] {
			return ensuringExit(
				Restore(restore, Suspend(func() Effect[R, E, B] { return use(a) })),
				func(ex exit.Exit[E, B]) Effect[R, E, Unit] { return release(a, ex) },
			)
		})
	})
}

// Bracket is BracketExit for releases that do not care how use ended.
func Bracket[R, E, A, B any](
	acquire Effect[R, E, A],
	release func(A) Effect[R, E, Unit],
	use func(A) Effect[R, E, B],
) Effect[R, E, B] {
	return BracketExit(acquire,
		func(a A, _ exit.Exit[E, B]) Effect[R, E, Unit] { return release(a) },
		use,
	)
}

// OnExit runs cleanup with eff's exit once eff ends, on every exit path.
func OnExit[R, E, A any](eff Effect[R, E, A], cleanup func(exit.Exit[E, A]) Effect[R, E, Unit]) Effect[R, E, A] {
	return BracketExit(UnitEff[R, E](),
		func(_ Unit, ex exit.Exit[E, A]) Effect[R, E, Unit] { return cleanup(ex) },
		func(Unit) Effect[R, E, A] { return eff },
	)
}

// Ensuring runs finalizer after eff, on every exit path.
func Ensuring[R, E, A any](eff Effect[R, E, A], finalizer Effect[R, E, Unit]) Effect[R, E, A] {
	return OnExit(eff, func(exit.Exit[E, A]) Effect[R, E, Unit] { return finalizer })
}

// OnError runs cleanup with the cause when eff fails.
func OnError[R, E, A any](eff Effect[R, E, A], cleanup func(cause.Cause[E]) Effect[R, E, Unit]) Effect[R, E, A] {
	return OnExit(eff, func(ex exit.Exit[E, A]) Effect[R, E, Unit] {
		if ex.IsFailure() {
			return cleanup(ex.Cause())
		}
		return UnitEff[R, E]()
	})
}

// OnInterrupt runs cleanup when eff is interrupted.
func OnInterrupt[R, E, A any](eff Effect[R, E, A], cleanup Effect[R, E, Unit]) Effect[R, E, A] {
	return OnExit(eff, func(ex exit.Exit[E, A]) Effect[R, E, Unit] {
		if ex.IsInterrupted() {
			return cleanup
		}
		return UnitEff[R, E]()
	})
}

// ensuringExit pushes finalizer on the fiber's finalizer stack while eff runs.
// The driver pops and runs it uninterruptibly when eff ends.
func ensuringExit[R, E, A any](eff Effect[R, E, A], finalizer func(exit.Exit[E, A]) Effect[R, E, Unit]) Effect[R, E, A] {
	return Effect[R, E, A]{op: &ensuringOp{
		inner: eff.op,
		finalizer: func(ex exit.Exit[any, any]) instruction {
			return finalizer(typedExit[E, A](ex)).op
		},
	}}
}
