package effects_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/effect_ive_runtime/effects"
	"github.com/on-the-ground/effect_ive_runtime/effects/config"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newRuntime(t *testing.T, numWorkers int) (*effects.Runtime, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	rt := effects.NewRuntime(config.NewRuntimeConfig(config.DefaultYieldBudget, numWorkers), zap.New(core))
	t.Cleanup(rt.Shutdown)
	return rt, logs
}

func runExit[E, A any](t *testing.T, rt *effects.Runtime, eff effects.Effect[any, E, A]) exit.Exit[E, A] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ex, err := effects.RunAsync(rt, eff, nil).AwaitExit(ctx)
	require.NoError(t, err, "effect did not complete in time")
	return ex
}

func requireSuccess[E, A any](t *testing.T, ex exit.Exit[E, A]) A {
	t.Helper()
	v, ok := ex.Value()
	require.True(t, ok, "expected success, got %v", ex)
	return v
}

// recorder collects events from effects running on other goroutines.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func record[R, E any](r *recorder, event string) effects.Effect[R, E, effects.Unit] {
	return effects.Do[R, E](func() { r.add(event) })
}

// closed suspends until ch is closed.
func closed[R, E any](ch <-chan struct{}) effects.Effect[R, E, effects.Unit] {
	return effects.Async[R](func(resolve func(exit.Exit[E, effects.Unit])) func() {
		go func() {
			<-ch
			resolve(exit.Succeed[E](effects.Unit{}))
		}()
		return nil
	})
}
