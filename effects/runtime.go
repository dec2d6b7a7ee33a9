package effects

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/effects/config"
	"github.com/on-the-ground/effect_ive_runtime/effects/internal/scheduler"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// ErrRuntimeClosed is the defect of fibers whose runtime was shut down under them.
	ErrRuntimeClosed = errors.New("runtime is closed")
	// ErrInvalidEffect is the defect raised when the zero Effect is run.
	ErrInvalidEffect = errors.New("invalid effect: zero value")
	// ErrInterrupted is wrapped by the error of an interrupted exit.
	ErrInterrupted = cause.ErrInterrupted
)

// Runtime executes effects. It owns the scheduler every fiber it starts is run on.
type Runtime struct {
	id        string
	cfg       config.RuntimeConfig
	logger    *zap.Logger
	scheduler scheduler.Scheduler
	cancel    context.CancelFunc
	closed    atomic.Bool
}

// NewRuntime starts a runtime. A nil logger is replaced by a production zap logger at the
// configured level.
func NewRuntime(cfg config.RuntimeConfig, logger *zap.Logger) *Runtime {
	cfg = cfg.Normalize()
	if logger == nil {
		logger = newLogger(cfg.LogLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var sched scheduler.Scheduler
	if cfg.NumWorkers > 1 {
		sched = scheduler.NewPartitioned(ctx, cfg.NumWorkers)
	} else {
		sched = scheduler.NewSingle(ctx)
	}

	id := uuid.NewString()
	rt := &Runtime{
		id:        id,
		cfg:       cfg,
		logger:    logger.With(zap.String("runtimeId", id)),
		scheduler: sched,
		cancel:    cancel,
	}
	rt.logger.Debug("runtime started",
		zap.Int(config.KeyYieldBudget, cfg.YieldBudget),
		zap.Int(config.KeyNumWorkers, cfg.NumWorkers),
	)
	return rt
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// DefaultRuntime is a process-wide runtime with the default configuration.
func DefaultRuntime() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = NewRuntime(config.Default(), nil)
	})
	return defaultRuntime
}

func (rt *Runtime) ID() string {
	return rt.id
}

func (rt *Runtime) Config() config.RuntimeConfig {
	return rt.cfg
}

// Shutdown stops accepting new turns and lets the queued ones drain. Fibers that try to
// continue afterwards die with ErrRuntimeClosed.
func (rt *Runtime) Shutdown() {
	if !rt.closed.CompareAndSwap(false, true) {
		return
	}
	rt.scheduler.Close()
	rt.cancel()
	if err := rt.logger.Sync(); err != nil {
		rt.logger.Debug("failed to sync logger", zap.Error(err))
	}
}

func (rt *Runtime) fiberStarted(child, parent *fiberContext) {
	if parent == nil {
		child.logger.Debug("fiber started")
		return
	}
	child.logger.Debug("fiber forked", zap.Stringer("parentId", parent.id))
}

func (rt *Runtime) fiberDone(fc *fiberContext, ex exit.Exit[any, any]) {
	fc.logger.Debug("fiber done",
		zap.Bool("success", ex.IsSuccess()),
		zap.Duration("lifetime", fc.id.Lifetime().Duration()),
	)
	if fc.root || !rt.cfg.ReportFailures || ex.IsSuccess() || ex.Cause().IsInterruptedOnly() {
		return
	}
	fc.logger.Warn("fiber failed", zap.Stringer("cause", ex.Cause()))
}

// RunAsync starts eff on a new root fiber and returns its handle immediately.
// cb, if not nil, is called with the exit once the fiber is done.
func RunAsync[E, A any](rt *Runtime, eff Effect[any, E, A], cb func(exit.Exit[E, A])) *Fiber[E, A] {
	fc := newFiberContext(rt, nil, nil, true)
	fc.root = true
	if cb != nil {
		fc.observe(func(ex exit.Exit[any, any]) {
			cb(typedExit[E, A](ex))
		})
	}
	rt.fiberStarted(fc, nil)
	if rt.closed.Load() {
		fc.done(exit.FailCause[any, any](cause.Die[any](ErrRuntimeClosed)))
	} else {
		fc.submit(eff.op)
	}
	return &Fiber[E, A]{ctx: fc}
}

// RunSync runs eff on a root fiber and blocks until it is done.
func RunSync[E, A any](rt *Runtime, eff Effect[any, E, A]) exit.Exit[E, A] {
	ex, _ := RunAsync(rt, eff, nil).AwaitExit(context.Background())
	return ex
}

// RunContext runs eff and blocks until it is done or ctx ends. When ctx ends first, the
// fiber is interrupted by fiberid.None and awaited, so its finalizers have run by the time RunContext
// returns.
func RunContext[E, A any](ctx context.Context, rt *Runtime, eff Effect[any, E, A]) exit.Exit[E, A] {
	fb := RunAsync(rt, eff, nil)
	ex, err := fb.AwaitExit(ctx)
	if err == nil {
		return ex
	}
	fb.ctx.interruptAs(fiberid.None)
	ex, _ = fb.AwaitExit(context.Background())
	return ex
}
