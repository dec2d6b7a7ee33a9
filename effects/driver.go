package effects

import (
	"runtime/debug"
	"sync/atomic"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
)

// frame is an entry of the explicit continuation stack. The loop never recurses into a
// continuation, so the Go stack stays flat however deep a chain of effects goes.
type frame interface {
	frame()
}

type (
	applyFrame struct{ k func(any) instruction }

	foldFrame struct {
		onFailure func(cause.Cause[any]) instruction
		onSuccess func(any) instruction
	}

	restoreStatusFrame struct{}

	restoreEnvFrame struct{}

	// finalizerFrame marks where the top of the finalizer stack must run.
	finalizerFrame struct{}

	// finalizerResultFrame holds the exit a finalizer is running for.
	finalizerResultFrame struct{ ex exit.Exit[any, any] }

	// exitFrame ends the fiber with ex once its children are gone.
	exitFrame struct{ ex exit.Exit[any, any] }
)

func (applyFrame) frame()           {}
func (foldFrame) frame()            {}
func (restoreStatusFrame) frame()   {}
func (restoreEnvFrame) frame()      {}
func (finalizerFrame) frame()       {}
func (finalizerResultFrame) frame() {}
func (exitFrame) frame()            {}

// endTurnOp is returned by step when the turn is over: the fiber suspended, yielded or
// completed. It is never reduced.
type endTurnOp struct{}

func (*endTurnOp) instruction() {}

var endTurn instruction = &endTurnOp{}

// runLoop is one turn of the fiber. It reduces instructions until the fiber suspends,
// completes, yields or spends its step budget.
func (f *fiberContext) runLoop(cur instruction) {
	if !f.turned {
		f.turned = true
		defer f.markStarted()
	}
	budget := f.rt.cfg.YieldBudget
	for steps := 0; cur != endTurn; steps++ {
		if steps >= budget {
			f.submit(cur)
			return
		}
		if f.shouldInterrupt() {
			f.interrupting = true
			cur = haltOp(f.interruptCause())
		}
		cur = f.step(cur)
	}
}

// step reduces a single instruction. Returning endTurn ends the turn.
func (f *fiberContext) step(cur instruction) (next instruction) {
	defer func() {
		if r := recover(); r != nil {
			next = dieOp(&cause.PanicError{Value: r, Stack: debug.Stack()})
		}
	}()

	switch op := cur.(type) {
	case *succeedOp:
		return f.nextInstr(op.value)

	case *failOp:
		return f.unwind(op.cause())

	case *totalOp:
		return f.nextInstr(op.thunk())

	case *suspendOp:
		return op.thunk()

	case *flatMapOp:
		f.push(applyFrame{k: op.k})
		return op.inner

	case *foldOp:
		f.push(foldFrame{onFailure: op.onFailure, onSuccess: op.onSuccess})
		return op.inner

	case *asyncOp:
		return f.enterAsync(op)

	case *forkOp:
		return f.nextInstr(f.fork(op))

	case *descriptorOp:
		return op.f(f.descriptor())

	case *readOp:
		return op.f(f.env())

	case *provideOp:
		f.pushEnv(op.env)
		f.push(restoreEnvFrame{})
		return op.inner

	case *setInterruptStatusOp:
		f.pushInterruptStatus(op.interruptible)
		f.push(restoreStatusFrame{})
		return op.inner

	case *checkInterruptStatusOp:
		return op.f(f.isInterruptible())

	case *ensuringOp:
		f.pushFinalizer(op.finalizer)
		f.push(finalizerFrame{})
		return op.inner

	case *yieldOp:
		f.submit(unitOp)
		return endTurn

	default:
		// nil: the zero Effect, or a continuation that returned one
		return dieOp(ErrInvalidEffect)
	}
}

// nextInstr feeds a success value to the continuation on top of the stack.
func (f *fiberContext) nextInstr(v any) instruction {
	for len(f.stack) > 0 {
		switch fr := f.pop().(type) {
		case applyFrame:
			return fr.k(v)

		case foldFrame:
			return fr.onSuccess(v)

		case restoreStatusFrame:
			f.popInterruptStatus()
			// leaving a region is a checkpoint
			return &succeedOp{value: v}

		case restoreEnvFrame:
			f.popEnv()

		case finalizerFrame:
			return f.runFinalizer(f.popFinalizer(), exit.Succeed[any](v))

		case finalizerResultFrame:
			if orig, ok := fr.ex.Value(); ok {
				v = orig
				continue
			}
			return f.unwind(fr.ex.Cause())

		case exitFrame:
			f.done(fr.ex)
			return endTurn
		}
	}
	return f.complete(exit.Succeed[any](v))
}

// unwind propagates c through the stack until a handler takes it. Success continuations
// are dropped, regions are left and every finalizer on the way runs.
func (f *fiberContext) unwind(c cause.Cause[any]) instruction {
	for len(f.stack) > 0 {
		switch fr := f.pop().(type) {
		case applyFrame:

		case foldFrame:
			// an interrupted fiber cannot recover while it is interruptible
			if f.interruptPending.Load() && f.isInterruptible() {
				continue
			}
			f.interrupting = false
			return fr.onFailure(c)

		case restoreStatusFrame:
			f.popInterruptStatus()

		case restoreEnvFrame:
			f.popEnv()

		case finalizerFrame:
			return f.runFinalizer(f.popFinalizer(), exit.FailCause[any, any](c))

		case finalizerResultFrame:
			if fr.ex.IsFailure() {
				c = cause.Then(fr.ex.Cause(), c)
			}

		case exitFrame:
			f.done(fr.ex)
			return endTurn
		}
	}
	return f.complete(exit.FailCause[any, any](c))
}

// runFinalizer starts fin uninterruptibly. Whatever fin ends with, the frames pushed here
// resume the exit it ran for.
func (f *fiberContext) runFinalizer(fin finalizer, ex exit.Exit[any, any]) (next instruction) {
	f.pushInterruptStatus(false)
	f.push(restoreStatusFrame{})
	f.push(finalizerResultFrame{ex: ex})

	defer func() {
		if r := recover(); r != nil {
			next = dieOp(&cause.PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	return fin(ex)
}

// complete ends the fiber. Children still alive are interrupted and awaited first,
// uninterruptibly, so no fiber outlives its parent.
func (f *fiberContext) complete(ex exit.Exit[any, any]) instruction {
	children := f.liveChildren()
	if len(children) == 0 {
		f.done(ex)
		return endTurn
	}
	f.pushInterruptStatus(false)
	f.push(exitFrame{ex: ex})
	return interruptAllOp(children, f.id)
}

// enterAsync suspends the fiber on op. It returns the instruction to continue with when
// op resumed during registration, or endTurn when the fiber stays suspended.
func (f *fiberContext) enterAsync(op *asyncOp) instruction {
	interruptible := f.isInterruptible()

	f.mu.Lock()
	if f.interruptPending.Load() && interruptible {
		f.mu.Unlock()
		f.interrupting = true
		return haltOp(f.interruptCause())
	}
	f.async.epoch++
	epoch := f.async.epoch
	f.async = asyncState{epoch: epoch, interruptible: interruptible, registering: true}
	f.status = fiberSuspended
	f.mu.Unlock()

	resume := func(next instruction) {
		f.mu.Lock()
		if f.async.epoch != epoch || f.status != fiberSuspended {
			f.mu.Unlock()
			return
		}
		f.status = fiberRunning
		f.async.epoch++
		f.async.cancel = nil
		if f.async.registering {
			f.async.syncResume = next
			f.mu.Unlock()
			return
		}
		f.mu.Unlock()
		f.submit(next)
	}

	cancel := f.register(op, resume)

	f.mu.Lock()
	f.async.registering = false
	next := f.async.syncResume
	cancelPending := f.async.cancelPending
	f.async.syncResume = nil
	f.async.cancelPending = false
	if next == nil {
		f.async.cancel = cancel
		f.mu.Unlock()
		return endTurn
	}
	f.mu.Unlock()

	if cancelPending {
		f.runCanceler(cancel)
	}
	return next
}

// register runs the registration of op. A panic resumes the fiber with a defect.
func (f *fiberContext) register(op *asyncOp, resume func(instruction)) (cancel func()) {
	defer func() {
		if r := recover(); r != nil {
			cancel = nil
			resume(dieOp(&cause.PanicError{Value: r, Stack: debug.Stack()}))
		}
	}()
	return op.register(resume)
}

// fork starts a child fiber running op.inner. The child inherits the environment and the
// interrupt status in force at the fork.
func (f *fiberContext) fork(op *forkOp) *fiberContext {
	var parent *fiberContext
	if !op.daemon {
		parent = f
	}
	child := newFiberContext(f.rt, parent, f.env(), f.isInterruptible())
	if parent != nil {
		f.addChild(child)
	}
	f.rt.fiberStarted(child, f)
	child.submit(op.inner)
	return child
}

// awaitAllOp suspends until every fiber is done.
func awaitAllOp(fibers []*fiberContext) instruction {
	return &asyncOp{register: func(resume func(instruction)) func() {
		if len(fibers) == 0 {
			resume(unitOp)
			return nil
		}
		var remaining atomic.Int64
		remaining.Store(int64(len(fibers)))
		cancels := make([]func(), 0, len(fibers))
		for _, fc := range fibers {
			cancels = append(cancels, fc.observe(func(exit.Exit[any, any]) {
				if remaining.Add(-1) == 0 {
					resume(unitOp)
				}
			}))
		}
		return func() {
			for _, cancel := range cancels {
				cancel()
			}
		}
	}}
}

// interruptAllOp signals every fiber as interrupted by `by` and awaits them all.
func interruptAllOp(fibers []*fiberContext, by fiberid.ID) instruction {
	return &suspendOp{thunk: func() instruction {
		for _, fc := range fibers {
			fc.interruptAs(by)
		}
		return awaitAllOp(fibers)
	}}
}
