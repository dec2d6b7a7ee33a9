package effects

import (
	"errors"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// Succeed is an effect that succeeds with a.
func Succeed[R, E, A any](a A) Effect[R, E, A] {
	return Effect[R, E, A]{op: &succeedOp{value: a}}
}

// UnitEff succeeds with Unit.
func UnitEff[R, E any]() Effect[R, E, Unit] {
	return Effect[R, E, Unit]{op: unitOp}
}

// Fail fails with the typed error err.
func Fail[R, A, E any](err E) Effect[R, E, A] {
	return Halt[R, E, A](cause.Fail(err))
}

// Halt fails with the given cause.
func Halt[R, E, A any](c cause.Cause[E]) Effect[R, E, A] {
	erased := cause.Erase(c)
	return Effect[R, E, A]{op: haltOp(erased)}
}

// HaltWith fails with the cause computed by f when the effect runs.
func HaltWith[R, E, A any](f func() cause.Cause[E]) Effect[R, E, A] {
	return Effect[R, E, A]{op: &failOp{cause: func() cause.Cause[any] { return cause.Erase(f()) }}}
}

// Die fails with a defect. Typed error handlers never see it.
func Die[R, E, A any](defect any) Effect[R, E, A] {
	return Effect[R, E, A]{op: dieOp(defect)}
}

// DieMessage dies with an error built from msg.
func DieMessage[R, E, A any](msg string) Effect[R, E, A] {
	return Die[R, E, A](errors.New(msg))
}

// Done replays an exit.
func Done[R, E, A any](ex exit.Exit[E, A]) Effect[R, E, A] {
	return Effect[R, E, A]{op: exitOp(erasedExit(ex))}
}

// EffectTotal runs a side effect that cannot fail. The thunk runs to completion once
// started, whatever interruptions arrive meanwhile; a panic inside it is a defect.
func EffectTotal[R, E, A any](thunk func() A) Effect[R, E, A] {
	return Effect[R, E, A]{op: &totalOp{thunk: func() any { return thunk() }}}
}

// Do runs a side effect for its own sake.
func Do[R, E any](fn func()) Effect[R, E, Unit] {
	return EffectTotal[R, E](func() Unit {
		fn()
		return Unit{}
	})
}

// EffectPartial runs a side effect whose error becomes a typed failure.
func EffectPartial[R, A any](thunk func() (A, error)) Effect[R, error, A] {
	return Suspend(func() Effect[R, error, A] {
		a, err := thunk()
		return FromResult[R](a, err)
	})
}

// FromResult lifts a Go (value, error) pair.
func FromResult[R, A any](a A, err error) Effect[R, error, A] {
	if err != nil {
		return Fail[R, A](err)
	}
	return Succeed[R, error](a)
}

// Suspend defers building an effect until it runs.
func Suspend[R, E, A any](thunk func() Effect[R, E, A]) Effect[R, E, A] {
	return Effect[R, E, A]{op: &suspendOp{thunk: func() instruction { return thunk().op }}}
}

// Async admits an external callback-based source. register receives a resolver that must
// be called, synchronously or later, with the outcome; calls after the first are ignored.
// register may return a canceler, run if the fiber is interrupted while it waits.
func Async[R, E, A any](register func(resolve func(exit.Exit[E, A])) (cancel func())) Effect[R, E, A] {
	return Effect[R, E, A]{op: &asyncOp{
		register: func(resume func(instruction)) func() {
			return register(func(ex exit.Exit[E, A]) {
				resume(exitOp(erasedExit(ex)))
			})
		},
	}}
}

// Never suspends forever. It can only end by interruption.
func Never[R, E, A any]() Effect[R, E, A] {
	return Effect[R, E, A]{op: &asyncOp{
		register: func(func(instruction)) func() { return nil },
	}}
}

// Yield gives the turn back to the scheduler so other fibers may run.
func Yield[R, E any]() Effect[R, E, Unit] {
	return Effect[R, E, Unit]{op: &yieldOp{}}
}
