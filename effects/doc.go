// Package effects is a fiber-based effect runtime for Go.
//
// Programs are built as immutable descriptions of computation, Effect values, and run by a
// Runtime that interprets them on lightweight fibers. Fibers can be forked, joined, raced
// and interrupted; failures are typed and never thrown.
//
// # Effects
//
// An Effect[R, E, A] reads an environment R, may fail with E and may succeed with A.
// Building an effect runs nothing:
//
//	greet := effects.FlatMap(
//	    effects.Environment[Config, error](),
//	    func(cfg Config) effects.Effect[Config, error, string] {
//	        return effects.Succeed[Config, error]("hello " + cfg.Name)
//	    },
//	)
//
// # Failures
//
// A failed effect carries a cause.Cause: typed failures (Fail), defects such as panics
// (Die) and interruptions (Interrupt), combined with Then when they happen one after the
// other and with Both when they happen in parallel. CatchAll and FoldM see typed failures
// only; CatchAllCause and FoldCauseM see everything.
//
// # Fibers
//
// Fork starts a child fiber. A fiber that ends for any reason interrupts the children it
// still has and waits for them, so no child outlives its parent. ForkDaemon opts out.
// Interruption is cooperative: it takes effect at the next interruptible checkpoint and
// never inside MakeUninterruptible regions or finalizers.
//
// # Resources
//
// Bracket guarantees that for every successful acquire, release runs exactly once, on
// success, failure and interruption alike, before the bracket's own exit is known.
//
// # Running
//
//	rt := effects.NewRuntime(config.Default(), logger)
//	defer rt.Shutdown()
//
//	ex := effects.RunSync(rt, effects.Provide[any](greet, Config{Name: "gopher"}))
//
// By default every fiber of a runtime runs on a single cooperative worker. Setting
// NumWorkers spreads fibers over a pool while keeping each fiber on one worker.
package effects
