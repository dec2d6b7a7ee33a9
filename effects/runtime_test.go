package effects_test

import (
	"strings"
	"testing"

	"github.com/on-the-ground/effect_ive_runtime/effects"
	"github.com/on-the-ground/effect_ive_runtime/effects/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRuntime_LogsFiberLifecycle(t *testing.T) {
	rt, logs := newRuntime(t, 1)

	requireSuccess(t, runExit(t, rt, effects.Succeed[any, string](1)))

	done := logs.FilterMessage("fiber done").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, rt.ID(), fields["runtimeId"])
	assert.Contains(t, fields, "fiberId")
	assert.Equal(t, true, fields["success"])
}

func TestRuntime_ReportsUnhandledChildFailures(t *testing.T) {
	rt, logs := newRuntime(t, 1)

	failing := effects.FlatMap(effects.Fork(effects.Fail[any, int]("child failed")), effects.Await[any, string, int])
	requireSuccess(t, runExit(t, rt, failing))

	interrupted := effects.FlatMap(effects.Fork(effects.Never[any, string, int]()), effects.InterruptFiber[any, string, int])
	requireSuccess(t, runExit(t, rt, interrupted))

	reported := logs.FilterMessage("fiber failed").All()
	require.Len(t, reported, 1)
	assert.Equal(t, zapcore.WarnLevel, reported[0].Level)
	assert.True(t, strings.Contains(reported[0].ContextMap()["cause"].(string), "child failed"))
}

func TestRuntime_FailureReportingCanBeDisabled(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cfg := config.Default()
	cfg.ReportFailures = false
	rt := effects.NewRuntime(cfg, zap.New(core))
	t.Cleanup(rt.Shutdown)

	failing := effects.FlatMap(effects.Fork(effects.Fail[any, int]("child failed")), effects.Await[any, string, int])
	requireSuccess(t, runExit(t, rt, failing))

	assert.Zero(t, logs.FilterMessage("fiber failed").Len())
}

func TestRuntime_ShutdownRejectsNewFibers(t *testing.T) {
	rt, _ := newRuntime(t, 1)
	rt.Shutdown()
	rt.Shutdown()

	ex := effects.RunSync(rt, effects.Succeed[any, string](1))

	require.True(t, ex.IsFailure())
	assert.ErrorIs(t, ex.Err(), effects.ErrRuntimeClosed)
}

func TestRuntime_FromLoadedConfig(t *testing.T) {
	cfg, err := config.Load(strings.NewReader("runtime:\n  num_workers: 3\n  yield_budget: 16\n"))
	require.NoError(t, err)

	rt := effects.NewRuntime(cfg, zap.NewNop())
	t.Cleanup(rt.Shutdown)
	assert.Equal(t, 3, rt.Config().NumWorkers)
	assert.Equal(t, 16, rt.Config().YieldBudget)

	eff := effects.FoldLeft(make([]int, 1000), 0, func(acc, _ int) effects.Effect[any, string, int] {
		return effects.Succeed[any, string](acc + 1)
	})
	assert.Equal(t, 1000, requireSuccess(t, runExit(t, rt, eff)))
}

func TestDefaultRuntime_IsShared(t *testing.T) {
	rt := effects.DefaultRuntime()
	require.NotNil(t, rt)
	assert.Same(t, rt, effects.DefaultRuntime())
	assert.NotEmpty(t, rt.ID())

	assert.Equal(t, 1, requireSuccess(t, effects.RunSync(rt, effects.Succeed[any, string](1))))
}
