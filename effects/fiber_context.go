package effects

import (
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"go.uber.org/zap"
)

type fiberStatus int

const (
	fiberRunning fiberStatus = iota
	fiberSuspended
	fiberDone
)

// fiberContext is one fiber: an interpreter instance plus its state.
//
// The stacks are owned by the driver loop and only touched during the fiber's own turns,
// which never overlap. Everything under mu is shared with other fibers: the result cell
// and its observers, pending interruptors, the children registry and the suspension
// bookkeeping an interrupt needs to cancel a pending Async.
type fiberContext struct {
	id     fiberid.ID
	rt     *Runtime
	parent *fiberContext
	root   bool
	logger *zap.Logger

	// owned by the driver loop
	stack           []frame
	interruptStatus []bool
	environments    []any
	finalizers      []finalizer
	interrupting    bool
	turned          bool

	interruptPending atomic.Bool

	mu           sync.Mutex
	status       fiberStatus
	result       exit.Exit[any, any]
	observers    map[uint64]func(exit.Exit[any, any])
	observerSeq  uint64
	interruptors []fiberid.ID
	children     map[fiberid.ID]*fiberContext
	async        asyncState
	started      bool
	onStart      []func()
}

type finalizer func(exit.Exit[any, any]) instruction

// asyncState tracks the Async the fiber is suspended in. epoch identifies the suspension
// so late or duplicate resumes are ignored.
type asyncState struct {
	epoch         uint64
	interruptible bool
	cancel        func()
	registering   bool
	syncResume    instruction
	cancelPending bool
}

func newFiberContext(rt *Runtime, parent *fiberContext, env any, interruptible bool) *fiberContext {
	id := fiberid.New()
	return &fiberContext{
		id:              id,
		rt:              rt,
		parent:          parent,
		logger:          rt.logger.With(zap.Stringer("fiberId", id)),
		interruptStatus: []bool{interruptible},
		environments:    []any{env},
		status:          fiberRunning,
		observers:       map[uint64]func(exit.Exit[any, any]){},
		children:        map[fiberid.ID]*fiberContext{},
	}
}

// --- driver-owned state ---

func (f *fiberContext) push(fr frame) {
	f.stack = append(f.stack, fr)
}

func (f *fiberContext) pop() frame {
	last := len(f.stack) - 1
	fr := f.stack[last]
	f.stack[last] = nil
	f.stack = f.stack[:last]
	return fr
}

func (f *fiberContext) isInterruptible() bool {
	return f.interruptStatus[len(f.interruptStatus)-1]
}

func (f *fiberContext) pushInterruptStatus(interruptible bool) {
	f.interruptStatus = append(f.interruptStatus, interruptible)
}

func (f *fiberContext) popInterruptStatus() {
	f.interruptStatus = f.interruptStatus[:len(f.interruptStatus)-1]
}

func (f *fiberContext) env() any {
	return f.environments[len(f.environments)-1]
}

func (f *fiberContext) pushEnv(env any) {
	f.environments = append(f.environments, env)
}

func (f *fiberContext) popEnv() {
	last := len(f.environments) - 1
	f.environments[last] = nil
	f.environments = f.environments[:last]
}

func (f *fiberContext) pushFinalizer(fin finalizer) {
	f.finalizers = append(f.finalizers, fin)
}

func (f *fiberContext) popFinalizer() finalizer {
	last := len(f.finalizers) - 1
	fin := f.finalizers[last]
	f.finalizers[last] = nil
	f.finalizers = f.finalizers[:last]
	return fin
}

// shouldInterrupt is checked at every interruptible checkpoint.
func (f *fiberContext) shouldInterrupt() bool {
	return f.interruptPending.Load() && f.isInterruptible() && !f.interrupting
}

func (f *fiberContext) interruptCause() cause.Cause[any] {
	f.mu.Lock()
	ids := append([]fiberid.ID(nil), f.interruptors...)
	f.mu.Unlock()

	c := cause.Empty[any]()
	for _, id := range ids {
		c = cause.Then(c, cause.Interrupt[any](id))
	}
	return c
}

func (f *fiberContext) descriptor() Descriptor {
	f.mu.Lock()
	interruptors := append([]fiberid.ID(nil), f.interruptors...)
	children := make([]fiberid.ID, 0, len(f.children))
	for id := range f.children {
		children = append(children, id)
	}
	f.mu.Unlock()

	return Descriptor{
		ID:            f.id,
		Interruptible: f.isInterruptible(),
		Interruptors:  interruptors,
		Children:      children,
		Lifetime:      f.id.Lifetime(),
		RuntimeID:     f.rt.id,
		Logger:        f.logger,
		self:          f,
	}
}

// --- shared state ---

// observe calls cb with the fiber's exit once it is recorded; immediately if it already
// is. The returned function unregisters cb.
func (f *fiberContext) observe(cb func(exit.Exit[any, any])) (cancel func()) {
	f.mu.Lock()
	if f.status == fiberDone {
		result := f.result
		f.mu.Unlock()
		cb(result)
		return func() {}
	}
	f.observerSeq++
	key := f.observerSeq
	f.observers[key] = cb
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.observers, key)
		f.mu.Unlock()
	}
}

// afterFirstTurn calls cb once the fiber's first turn has ended or the fiber is done;
// immediately if either already happened.
func (f *fiberContext) afterFirstTurn(cb func()) {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		cb()
		return
	}
	f.onStart = append(f.onStart, cb)
	f.mu.Unlock()
}

func (f *fiberContext) markStarted() {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	waiters := f.onStart
	f.onStart = nil
	f.mu.Unlock()

	for _, cb := range waiters {
		cb()
	}
}

// poll returns the exit if it has been recorded.
func (f *fiberContext) poll() (exit.Exit[any, any], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.status == fiberDone
}

func (f *fiberContext) addChild(child *fiberContext) {
	f.mu.Lock()
	f.children[child.id] = child
	f.mu.Unlock()
}

func (f *fiberContext) removeChild(id fiberid.ID) {
	f.mu.Lock()
	delete(f.children, id)
	f.mu.Unlock()
}

func (f *fiberContext) liveChildren() []*fiberContext {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fiberContext, 0, len(f.children))
	for _, child := range f.children {
		out = append(out, child)
	}
	return out
}

// interruptAs signals an interruption from the given fiber. If the fiber is suspended in
// an interruptible Async, the Async is cancelled and the fiber resumed so it can
// terminate; otherwise the signal is picked up at the next interruptible checkpoint.
func (f *fiberContext) interruptAs(by fiberid.ID) {
	f.mu.Lock()
	if f.status == fiberDone {
		f.mu.Unlock()
		return
	}
	f.interruptors = append(f.interruptors, by)
	f.interruptPending.Store(true)

	if f.status != fiberSuspended || !f.async.interruptible {
		f.mu.Unlock()
		return
	}

	f.status = fiberRunning
	f.async.epoch++
	cancel := f.async.cancel
	f.async.cancel = nil
	if f.async.registering {
		// the registering turn picks this up and runs the canceler itself
		f.async.syncResume = unitOp
		f.async.cancelPending = true
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	f.runCanceler(cancel)
	f.submit(unitOp)
}

func (f *fiberContext) runCanceler(cancel func()) {
	if cancel == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("panic in async canceler", zap.Any("error", r))
		}
	}()
	cancel()
}

// submit schedules a turn of the fiber starting at next.
func (f *fiberContext) submit(next instruction) {
	if !f.rt.scheduler.Submit(fiberTurn{fiber: f, next: next}) {
		f.logger.Warn("runtime closed, abandoning fiber")
		f.done(exit.FailCause[any, any](cause.Die[any](ErrRuntimeClosed)))
	}
}

// done records the exit exactly once and notifies observers.
func (f *fiberContext) done(ex exit.Exit[any, any]) {
	f.mu.Lock()
	if f.status == fiberDone {
		f.mu.Unlock()
		return
	}
	f.status = fiberDone
	f.result = ex
	observers := f.observers
	f.observers = nil
	f.mu.Unlock()

	f.markStarted()
	if f.parent != nil {
		f.parent.removeChild(f.id)
	}
	f.rt.fiberDone(f, ex)
	for _, cb := range observers {
		cb(ex)
	}
}

type fiberTurn struct {
	fiber *fiberContext
	next  instruction
}

func (t fiberTurn) PartitionKey() string {
	return t.fiber.id.PartitionKey()
}

func (t fiberTurn) Run() {
	t.fiber.runLoop(t.next)
}
