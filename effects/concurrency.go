package effects

import (
	"sync/atomic"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
)

// ForeachPar runs f for every item on its own child fiber and collects the results in
// item order.
//
// The first failure interrupts the fibers still running. The resulting cause keeps the
// failure of every fiber combined with cause.Both in item order, leaving out the
// interruptions the coordinator itself caused.
func ForeachPar[R, E, A, B any](items []A, f func(A) Effect[R, E, B]) Effect[R, E, []B] {
	return Suspend(func() Effect[R, E, []B] {
		ops := make([]instruction, len(items))
		for i, item := range items {
			ops[i] = f(item).op
		}
		return Effect[R, E, []B]{op: &flatMapOp{
			inner: parAllOp(ops),
			k: func(v any) instruction {
				values := v.([]any)
				out := make([]B, len(values))
				for i, value := range values {
					out[i] = as[B](value)
				}
				return &succeedOp{value: out}
			},
		}}
	})
}

// CollectAllPar runs every effect concurrently. See ForeachPar.
func CollectAllPar[R, E, A any](effs ...Effect[R, E, A]) Effect[R, E, []A] {
	return ForeachPar(effs, func(eff Effect[R, E, A]) Effect[R, E, A] { return eff })
}

// ZipWithPar runs left and right concurrently and combines their results with f.
// When both fail, the cause is cause.Both(left, right).
func ZipWithPar[R, E, A, B, C any](left Effect[R, E, A], right Effect[R, E, B], f func(A, B) C) Effect[R, E, C] {
	return Effect[R, E, C]{op: &flatMapOp{
		inner: parAllOp([]instruction{left.op, right.op}),
		k: func(v any) instruction {
			values := v.([]any)
			return &succeedOp{value: f(as[A](values[0]), as[B](values[1]))}
		},
	}}
}

// ZipPar is ZipWithPar into a Tuple.
func ZipPar[R, E, A, B any](left Effect[R, E, A], right Effect[R, E, B]) Effect[R, E, Tuple[A, B]] {
	return ZipWithPar(left, right, func(a A, b B) Tuple[A, B] { return Tuple[A, B]{First: a, Second: b} })
}

// Race runs both effects concurrently. The first to succeed wins and the other is
// interrupted. If both fail, the cause is cause.Both(left, right).
func Race[R, E, A any](left, right Effect[R, E, A]) Effect[R, E, A] {
	return RaceAll(left, right)
}

// RaceAll generalizes Race to any number of effects. With none, it dies.
func RaceAll[R, E, A any](effs ...Effect[R, E, A]) Effect[R, E, A] {
	if len(effs) == 0 {
		return DieMessage[R, E, A]("race of no effects")
	}
	ops := make([]instruction, len(effs))
	for i, eff := range effs {
		ops[i] = eff.op
	}
	return Effect[R, E, A]{op: raceOp(ops)}
}

// RaceFirst runs the effects concurrently and ends with the first to complete, whether it
// succeeds or fails. The others are interrupted and awaited. With none, it dies.
func RaceFirst[R, E, A any](effs ...Effect[R, E, A]) Effect[R, E, A] {
	if len(effs) == 0 {
		return DieMessage[R, E, A]("race of no effects")
	}
	ops := make([]instruction, len(effs))
	for i, eff := range effs {
		ops[i] = eff.op
	}
	return Effect[R, E, A]{op: raceFirstOp(ops)}
}

// forkAllOp forks ops as children running with the interrupt status in force at the call,
// then continues with then. Forking happens uninterruptibly so no child is left behind
// unsupervised.
func forkAllOp(ops []instruction, then func(self *fiberContext, children []*fiberContext) instruction) instruction {
	return &checkInterruptStatusOp{f: func(interruptible bool) instruction {
		return &setInterruptStatusOp{interruptible: false, inner: &descriptorOp{f: func(d Descriptor) instruction {
			self := d.self
			children := make([]*fiberContext, len(ops))
			for i, op := range ops {
				children[i] = self.fork(&forkOp{inner: &setInterruptStatusOp{inner: op, interruptible: interruptible}})
			}
			return &setInterruptStatusOp{interruptible: interruptible, inner: then(self, children)}
		}}}
	}}
}

// parAllOp succeeds with the []any of every child's value or fails with their causes.
func parAllOp(ops []instruction) instruction {
	return forkAllOp(ops, func(self *fiberContext, children []*fiberContext) instruction {
		return settleOp(self.id, children,
			func(_ int, ex exit.Exit[any, any]) bool { return ex.IsFailure() },
			func(exits []exit.Exit[any, any]) instruction {
				values := make([]any, len(exits))
				for i, ex := range exits {
					v, ok := ex.Value()
					if !ok {
						return haltOp(combineCauses(exits, self.id))
					}
					values[i] = v
				}
				return &succeedOp{value: values}
			},
		)
	})
}

// raceOp succeeds with the first child value or fails with every child's cause.
func raceOp(ops []instruction) instruction {
	return forkAllOp(ops, func(self *fiberContext, children []*fiberContext) instruction {
		var winner atomic.Int64
		winner.Store(-1)
		return settleOp(self.id, children,
			func(i int, ex exit.Exit[any, any]) bool {
				return ex.IsSuccess() && winner.CompareAndSwap(-1, int64(i))
			},
			func(exits []exit.Exit[any, any]) instruction {
				if w := winner.Load(); w >= 0 {
					return exitOp(exits[w])
				}
				return haltOp(combineCauses(exits, self.id))
			},
		)
	})
}

// raceFirstOp ends with the exit of the first child to complete.
func raceFirstOp(ops []instruction) instruction {
	return forkAllOp(ops, func(self *fiberContext, children []*fiberContext) instruction {
		var winner atomic.Int64
		winner.Store(-1)
		return settleOp(self.id, children,
			func(i int, _ exit.Exit[any, any]) bool {
				return winner.CompareAndSwap(-1, int64(i))
			},
			func(exits []exit.Exit[any, any]) instruction {
				return exitOp(exits[winner.Load()])
			},
		)
	})
}

// settleOp waits until every child is done or one of them ends with an exit matching
// decisive. In the latter case the others are interrupted and awaited, though never
// before they have had their first turn. done then sees every child's exit, in child
// order.
//
// If the waiting fiber is itself interrupted, it interrupts and awaits the children
// before unwinding any further.
func settleOp(
	by fiberid.ID,
	children []*fiberContext,
	decisive func(int, exit.Exit[any, any]) bool,
	done func([]exit.Exit[any, any]) instruction,
) instruction {
	wait := &flatMapOp{
		inner: awaitFirstOp(children, decisive),
		k: func(any) instruction {
			return &flatMapOp{
				inner: awaitFirstTurnsOp(children),
				k:     func(any) instruction { return interruptAllOp(children, by) },
			}
		},
	}
	return &flatMapOp{
		inner: &ensuringOp{inner: wait, finalizer: func(ex exit.Exit[any, any]) instruction {
			if ex.IsSuccess() {
				return unitOp
			}
			return interruptAllOp(children, by)
		}},
		k: func(any) instruction {
			exits := make([]exit.Exit[any, any], len(children))
			for i, child := range children {
				exits[i], _ = child.poll()
			}
			return done(exits)
		},
	}
}

// awaitFirstTurnsOp resumes once every child has ended its first turn, so a sibling
// that fails right away keeps its own failure instead of being pre-empted.
func awaitFirstTurnsOp(children []*fiberContext) instruction {
	return &asyncOp{register: func(resume func(instruction)) func() {
		var remaining atomic.Int64
		remaining.Store(int64(len(children)) + 1)
		arrive := func() {
			if remaining.Add(-1) == 0 {
				resume(unitOp)
			}
		}
		for _, child := range children {
			child.afterFirstTurn(arrive)
		}
		arrive()
		return nil
	}}
}

// awaitFirstOp resumes once a child ends with a decisive exit or all are done.
// Resuming is a turn of the waiting fiber, so siblings already queued get to run first.
func awaitFirstOp(children []*fiberContext, decisive func(int, exit.Exit[any, any]) bool) instruction {
	return &asyncOp{register: func(resume func(instruction)) func() {
		if len(children) == 0 {
			resume(unitOp)
			return nil
		}
		var remaining atomic.Int64
		remaining.Store(int64(len(children)))
		cancels := make([]func(), 0, len(children))
		for i, child := range children {
			cancels = append(cancels, child.observe(func(ex exit.Exit[any, any]) {
				last := remaining.Add(-1) == 0
				if decisive(i, ex) || last {
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

// combineCauses joins the failed exits with cause.Both in order. Interruptions caused by
// the coordinator are dropped unless nothing else is left.
func combineCauses(exits []exit.Exit[any, any], by fiberid.ID) cause.Cause[any] {
	all := cause.Empty[any]()
	stripped := cause.Empty[any]()
	for _, ex := range exits {
		if ex.IsSuccess() {
			continue
		}
		all = cause.Both(all, ex.Cause())
		stripped = cause.Both(stripped, ex.Cause().StripInterrupts(by))
	}
	if stripped.IsEmpty() {
		return all
	}
	return stripped
}
