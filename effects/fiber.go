package effects

import (
	"context"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
)

// Fiber is a handle on a forked fiber. It does not own the fiber; dropping it neither
// stops nor leaks anything.
type Fiber[E, A any] struct {
	ctx *fiberContext
}

func (fb *Fiber[E, A]) ID() fiberid.ID {
	return fb.ctx.id
}

// Poll returns the fiber's exit without waiting, and whether it is known yet.
func (fb *Fiber[E, A]) Poll() (exit.Exit[E, A], bool) {
	ex, ok := fb.ctx.poll()
	if !ok {
		return exit.Exit[E, A]{}, false
	}
	return typedExit[E, A](ex), true
}

// AwaitExit blocks the calling goroutine until the fiber is done or ctx ends. It is meant
// for code outside the runtime; inside an effect use Await or Join.
func (fb *Fiber[E, A]) AwaitExit(ctx context.Context) (exit.Exit[E, A], error) {
	resultCh := make(chan exit.Exit[any, any], 1)
	cancel := fb.ctx.observe(func(ex exit.Exit[any, any]) {
		resultCh <- ex
	})
	defer cancel()

	select {
	case ex := <-resultCh:
		return typedExit[E, A](ex), nil
	case <-ctx.Done():
		return exit.Exit[E, A]{}, ctx.Err()
	}
}

// Fork runs eff on a new child fiber and succeeds immediately with its handle.
// The child is interrupted when the forking fiber ends.
func Fork[R, E, A any](eff Effect[R, E, A]) Effect[R, E, *Fiber[E, A]] {
	return forkWith(eff, false)
}

// ForkDaemon runs eff on a fiber that is not supervised by the forking fiber and may
// outlive it.
func ForkDaemon[R, E, A any](eff Effect[R, E, A]) Effect[R, E, *Fiber[E, A]] {
	return forkWith(eff, true)
}

func forkWith[R, E, A any](eff Effect[R, E, A], daemon bool) Effect[R, E, *Fiber[E, A]] {
	return Effect[R, E, *Fiber[E, A]]{op: &flatMapOp{
		inner: &forkOp{inner: eff.op, daemon: daemon},
		k: func(v any) instruction {
			return &succeedOp{value: &Fiber[E, A]{ctx: v.(*fiberContext)}}
		},
	}}
}

// Await suspends until the fiber is done and succeeds with its exit.
func Await[R, E, A any](fb *Fiber[E, A]) Effect[R, E, exit.Exit[E, A]] {
	return Effect[R, E, exit.Exit[E, A]]{op: awaitFiberOp(fb.ctx, func(ex exit.Exit[any, any]) instruction {
		return &succeedOp{value: typedExit[E, A](ex)}
	})}
}

// Join suspends until the fiber is done and replays its exit in the joining fiber.
func Join[R, E, A any](fb *Fiber[E, A]) Effect[R, E, A] {
	return Effect[R, E, A]{op: awaitFiberOp(fb.ctx, exitOp)}
}

func awaitFiberOp(fc *fiberContext, then func(exit.Exit[any, any]) instruction) instruction {
	return &asyncOp{register: func(resume func(instruction)) func() {
		return fc.observe(func(ex exit.Exit[any, any]) {
			resume(then(ex))
		})
	}}
}

// InterruptFiber interrupts the fiber and waits until it is done, finalizers included.
// It succeeds with the fiber's exit.
func InterruptFiber[R, E, A any](fb *Fiber[E, A]) Effect[R, E, exit.Exit[E, A]] {
	return FlatMap(InterruptFork[R, E](fb), func(Unit) Effect[R, E, exit.Exit[E, A]] {
		return Await[R](fb)
	})
}

// InterruptFork sends the interruption without waiting for the fiber to finish.
func InterruptFork[R, E, E2, A any](fb *Fiber[E2, A]) Effect[R, E, Unit] {
	return DescriptorWith(func(d Descriptor) Effect[R, E, Unit] {
		return Do[R, E](func() { fb.ctx.interruptAs(d.ID) })
	})
}

// Interrupt terminates the current fiber as interrupted by itself.
func Interrupt[R, E, A any]() Effect[R, E, A] {
	return DescriptorWith(func(d Descriptor) Effect[R, E, A] {
		return Halt[R, E, A](cause.Interrupt[E](d.ID))
	})
}

// AwaitAllChildren suspends until every child of the current fiber is done.
func AwaitAllChildren[R, E any]() Effect[R, E, Unit] {
	return Effect[R, E, Unit]{op: &descriptorOp{f: func(d Descriptor) instruction {
		return awaitAllOp(d.self.liveChildren())
	}}}
}

// ForkWithErrorHandler forks eff and runs handler on the child when eff fails.
func ForkWithErrorHandler[R, E, A any](eff Effect[R, E, A], handler func(cause.Cause[E]) Effect[R, E, Unit]) Effect[R, E, *Fiber[E, A]] {
	return Fork(CatchAllCause(eff, func(c cause.Cause[E]) Effect[R, E, A] {
		return FlatMap(handler(c), func(Unit) Effect[R, E, A] { return Halt[R, E, A](c) })
	}))
}

// Children succeeds with the ids of the current fiber's live children.
func Children[R, E any]() Effect[R, E, []fiberid.ID] {
	return DescriptorWith(func(d Descriptor) Effect[R, E, []fiberid.ID] {
		return Succeed[R, E](d.Children)
	})
}
