package effects_test

import (
	"context"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/effects"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkJoin_ReturnsChildResult(t *testing.T) {
	for _, workers := range []int{1, 4} {
		rt, _ := newRuntime(t, workers)

		child := effects.ZipRight(effects.Sleep[any, string](5*time.Millisecond), effects.Succeed[any, string](42))
		eff := effects.FlatMap(effects.Fork(child), effects.Join[any, string, int])

		assert.Equal(t, 42, requireSuccess(t, runExit(t, rt, eff)))
	}
}

func TestJoin_ReplaysChildFailure(t *testing.T) {
	rt, _ := newRuntime(t, 1)

	eff := effects.FlatMap(effects.Fork(effects.Fail[any, int]("child failed")), effects.Join[any, string, int])

	ex := runExit(t, rt, eff)
	assert.Equal(t, []string{"child failed"}, ex.Cause().Failures())
}

func TestInterrupt_SleepingChildRunsFinalizerBeforeJoin(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rec := &recorder{}

	type result struct {
		parent fiberid.ID
		exit   exit.Exit[string, effects.Unit]
	}

	sleeper := effects.Ensuring(
		effects.Sleep[any, string](100*time.Millisecond),
		record[any, string](rec, "finalized"),
	)
	eff := effects.FlatMap(effects.FiberID[any, string](), func(parent fiberid.ID) effects.Effect[any, string, result] {
		return effects.FlatMap(effects.Fork(sleeper), func(fb *effects.Fiber[string, effects.Unit]) effects.Effect[any, string, result] {
			joined := effects.ZipRight(
				effects.ZipRight(effects.Sleep[any, string](10*time.Millisecond), effects.InterruptFork[any, string](fb)),
				effects.Result(effects.Join[any](fb)),
			)
			return effects.FlatMap(joined, func(ex exit.Exit[string, effects.Unit]) effects.Effect[any, string, result] {
				return effects.As(record[any, string](rec, "joined"), result{parent: parent, exit: ex})
			})
		})
	})

	got := requireSuccess(t, runExit(t, rt, eff))
	require.True(t, got.exit.IsInterrupted())
	assert.True(t, cause.Equal(cause.Interrupt[string](got.parent), got.exit.Cause()), "got %v", got.exit)
	assert.Equal(t, []string{"finalized", "joined"}, rec.get())
}

func TestInterrupt_PropagatesToChildren(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rec := &recorder{}

	grandchild := make(chan *effects.Fiber[string, int], 1)
	f2 := effects.Ensuring(effects.Never[any, string, int](), record[any, string](rec, "f2 finalized"))
	f1 := effects.FlatMap(effects.Fork(f2), func(fb *effects.Fiber[string, int]) effects.Effect[any, string, int] {
		return effects.ZipRight(
			effects.Do[any, string](func() { grandchild <- fb }),
			effects.Never[any, string, int](),
		)
	})

	fb1 := effects.RunAsync(rt, f1, nil)
	fb2 := <-grandchild

	ex1 := requireSuccess(t, runExit(t, rt, effects.InterruptFiber[any](fb1)))
	assert.True(t, ex1.IsInterrupted())

	ex2, done := fb2.Poll()
	require.True(t, done, "child must be done before its parent")
	assert.True(t, ex2.IsInterrupted())
	assert.Equal(t, []string{"f2 finalized"}, rec.get())
}

func TestSupervision_ParentCompletionInterruptsChildren(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rec := &recorder{}

	entered := make(chan struct{})
	child := effects.Ensuring(
		effects.ZipRight(effects.Do[any, string](func() { close(entered) }), effects.Never[any, string, int]()),
		record[any, string](rec, "child finalized"),
	)
	parent := effects.FlatMap(effects.Fork(child), func(fb *effects.Fiber[string, int]) effects.Effect[any, string, *effects.Fiber[string, int]] {
		return effects.As(closed[any, string](entered), fb)
	})
	fb := requireSuccess(t, runExit(t, rt, parent))

	ex, done := fb.Poll()
	require.True(t, done)
	assert.True(t, ex.IsInterrupted())
	assert.Equal(t, []string{"child finalized"}, rec.get())
}

func TestForkDaemon_OutlivesParent(t *testing.T) {
	rt, _ := newRuntime(t, 1)

	fb := requireSuccess(t, runExit(t, rt, effects.ForkDaemon(effects.Never[any, string, int]())))

	_, done := fb.Poll()
	require.False(t, done)

	ex := requireSuccess(t, runExit(t, rt, effects.InterruptFiber[any](fb)))
	assert.True(t, ex.IsInterrupted())
}

func TestFork_ChildInheritsStatusAndEnvironment(t *testing.T) {
	rt, _ := newRuntime(t, 1)

	inspect := effects.FlatMap(effects.Environment[string, string](), func(env string) effects.Effect[string, string, effects.Tuple[string, bool]] {
		return effects.Map(effects.GetDescriptor[string, string](), func(d effects.Descriptor) effects.Tuple[string, bool] {
			return effects.Tuple[string, bool]{First: env, Second: d.Interruptible}
		})
	})
	forkJoin := effects.FlatMap(effects.Fork(inspect), effects.Join[string, string, effects.Tuple[string, bool]])

	free := requireSuccess(t, runExit(t, rt, effects.Provide[any](forkJoin, "env")))
	assert.Equal(t, effects.Tuple[string, bool]{First: "env", Second: true}, free)

	masked := requireSuccess(t, runExit(t, rt, effects.Provide[any](effects.MakeUninterruptible(forkJoin), "env")))
	assert.Equal(t, effects.Tuple[string, bool]{First: "env", Second: false}, masked)
}

func TestChildren_And_AwaitAllChildren(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rec := &recorder{}

	sleepThen := func(d time.Duration, event string) effects.Effect[any, string, effects.Unit] {
		return effects.ZipRight(effects.Sleep[any, string](d), record[any, string](rec, event))
	}

	eff := effects.FlatMap(effects.Fork(sleepThen(20*time.Millisecond, "slow")), func(slow *effects.Fiber[string, effects.Unit]) effects.Effect[any, string, []fiberid.ID] {
		return effects.FlatMap(effects.Fork(sleepThen(5*time.Millisecond, "fast")), func(fast *effects.Fiber[string, effects.Unit]) effects.Effect[any, string, []fiberid.ID] {
			return effects.ZipLeft(effects.Children[any, string](), effects.AwaitAllChildren[any, string]())
		})
	})

	children := requireSuccess(t, runExit(t, rt, eff))
	assert.Len(t, children, 2)
	assert.Equal(t, []string{"fast", "slow"}, rec.get())
}

func TestForkWithErrorHandler_SeesChildFailure(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rec := &recorder{}

	handler := func(c cause.Cause[string]) effects.Effect[any, string, effects.Unit] {
		return record[any, string](rec, c.String())
	}
	eff := effects.FlatMap(
		effects.ForkWithErrorHandler(effects.Fail[any, int]("boom"), handler),
		func(fb *effects.Fiber[string, int]) effects.Effect[any, string, exit.Exit[string, int]] {
			return effects.Await[any](fb)
		},
	)

	ex := requireSuccess(t, runExit(t, rt, eff))
	assert.Equal(t, []string{"boom"}, ex.Cause().Failures())
	assert.Equal(t, []string{"Fail(boom)"}, rec.get())
}

func TestRunContext_CancellationInterruptsRoot(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rec := &recorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	eff := effects.Ensuring(effects.Never[any, string, int](), record[any, string](rec, "finalized"))
	ex := effects.RunContext(ctx, rt, eff)

	require.True(t, ex.IsInterrupted())
	assert.Equal(t, []fiberid.ID{fiberid.None}, ex.Cause().Interruptors())
	assert.ErrorIs(t, ex.Err(), effects.ErrInterrupted)
	assert.Equal(t, []string{"finalized"}, rec.get())
}

func TestFiber_AwaitExitHonoursContext(t *testing.T) {
	rt, _ := newRuntime(t, 1)

	fb := effects.RunAsync(rt, effects.Never[any, string, int](), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := fb.AwaitExit(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, fb.ID().IsNone())

	requireSuccess(t, runExit(t, rt, effects.InterruptFiber[any](fb)))
}

func TestRunAsync_CallbackReceivesExit(t *testing.T) {
	rt, _ := newRuntime(t, 1)

	got := make(chan exit.Exit[string, int], 1)
	effects.RunAsync(rt, effects.Succeed[any, string](7), func(ex exit.Exit[string, int]) {
		got <- ex
	})

	select {
	case ex := <-got:
		assert.Equal(t, 7, requireSuccess(t, ex))
	case <-time.After(time.Second):
		t.Fatal("callback was not called")
	}
}
