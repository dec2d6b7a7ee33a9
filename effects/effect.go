package effects

import (
	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// Unit is the value of effects run only for what they do.
type Unit = struct{}

// Effect describes a computation that reads an environment R, may fail with E and may
// succeed with A. An Effect is plain data: building one runs nothing, and no Effect is
// ever modified after construction. Use a Runtime to execute it.
//
// The zero Effect is invalid; running it dies with a defect.
type Effect[R, E, A any] struct {
	op instruction
}

// instruction is a node of the erased effect algebra the driver loop reduces.
type instruction interface {
	instruction()
}

type (
	succeedOp struct{ value any }

	failOp struct{ cause func() cause.Cause[any] }

	// totalOp is a synchronous side effect; it is never interrupted midway.
	totalOp struct{ thunk func() any }

	suspendOp struct{ thunk func() instruction }

	flatMapOp struct {
		inner instruction
		k     func(any) instruction
	}

	foldOp struct {
		inner     instruction
		onFailure func(cause.Cause[any]) instruction
		onSuccess func(any) instruction
	}

	// asyncOp suspends the fiber until resume is called. register may return a canceler
	// invoked when the fiber is interrupted while suspended.
	asyncOp struct {
		register func(resume func(instruction)) func()
	}

	forkOp struct {
		inner  instruction
		daemon bool
	}

	descriptorOp struct{ f func(Descriptor) instruction }

	readOp struct{ f func(env any) instruction }

	provideOp struct {
		inner instruction
		env   any
	}

	setInterruptStatusOp struct {
		inner         instruction
		interruptible bool
	}

	checkInterruptStatusOp struct{ f func(interruptible bool) instruction }

	// ensuringOp registers finalizer on the fiber's finalizer stack for the duration
	// of inner.
	ensuringOp struct {
		inner     instruction
		finalizer func(exit.Exit[any, any]) instruction
	}

	yieldOp struct{}
)

func (*succeedOp) instruction()              {}
func (*failOp) instruction()                 {}
func (*totalOp) instruction()                {}
func (*suspendOp) instruction()              {}
func (*flatMapOp) instruction()              {}
func (*foldOp) instruction()                 {}
func (*asyncOp) instruction()                {}
func (*forkOp) instruction()                 {}
func (*descriptorOp) instruction()           {}
func (*readOp) instruction()                 {}
func (*provideOp) instruction()              {}
func (*setInterruptStatusOp) instruction()   {}
func (*checkInterruptStatusOp) instruction() {}
func (*ensuringOp) instruction()             {}
func (*yieldOp) instruction()                {}

var unitOp instruction = &succeedOp{value: Unit{}}

func haltOp(c cause.Cause[any]) instruction {
	return &failOp{cause: func() cause.Cause[any] { return c }}
}

func dieOp(defect any) instruction {
	return haltOp(cause.Die[any](defect))
}

func exitOp(ex exit.Exit[any, any]) instruction {
	if v, ok := ex.Value(); ok {
		return &succeedOp{value: v}
	}
	return haltOp(ex.Cause())
}

// as recovers a typed value from the erased value flowing through the loop.
// A nil interface value becomes the zero value of A.
func as[A any](v any) A {
	a, _ := v.(A)
	return a
}

func erasedExit[E, A any](ex exit.Exit[E, A]) exit.Exit[any, any] {
	return exit.Erase(ex)
}

func typedExit[E, A any](ex exit.Exit[any, any]) exit.Exit[E, A] {
	return exit.Narrow[E, A](ex)
}
