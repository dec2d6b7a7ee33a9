// Package task adapts Go's blocking and channel-based APIs to effects.
package task

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/on-the-ground/effect_ive_runtime/cause"
	"github.com/on-the-ground/effect_ive_runtime/effects"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// ErrChannelClosed is the failure of FromChannel when the channel closes before a value.
var ErrChannelClosed = errors.New("task result channel closed")

// TaskPayload is a blocking operation honouring context cancellation.
type TaskPayload[A any] func(context.Context) (A, error)

// FromFunc runs fn on its own goroutine while the fiber waits, without holding a scheduler
// worker. A returned error is a typed failure and a panic a defect. Interrupting the fiber
// cancels the context given to fn; the fiber ends as interrupted without waiting for fn.
func FromFunc[R, A any](fn TaskPayload[A]) effects.Effect[R, error, A] {
	return effects.Async[R](func(resolve func(exit.Exit[error, A])) func() {
		ctx, cancel := context.WithCancel(context.Background())
		ready := make(chan struct{})
		go func() {
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					resolve(exit.FailCause[error, A](cause.Die[error](&cause.PanicError{Value: r, Stack: debug.Stack()})))
				}
			}()
			close(ready)

			a, err := fn(ctx)
			if err != nil {
				resolve(exit.Fail[A](err))
				return
			}
			resolve(exit.Succeed[error](a))
		}()
		<-ready
		return cancel
	})
}

// FromChannel waits for the next value on ch. Interrupting the fiber stops the wait.
func FromChannel[R, A any](ch <-chan A) effects.Effect[R, error, A] {
	return effects.Async[R](func(resolve func(exit.Exit[error, A])) func() {
		done := make(chan struct{})
		go func() {
			select {
			case a, ok := <-ch:
				if !ok {
					resolve(exit.Fail[A](ErrChannelClosed))
					return
				}
				resolve(exit.Succeed[error](a))
			case <-done:
			}
		}()
		return func() { close(done) }
	})
}

// FromContext waits until ctx ends and fails with its error.
func FromContext[R any](ctx context.Context) effects.Effect[R, error, effects.Unit] {
	return FromFunc[R](func(inner context.Context) (effects.Unit, error) {
		select {
		case <-ctx.Done():
			return effects.Unit{}, ctx.Err()
		case <-inner.Done():
			return effects.Unit{}, inner.Err()
		}
	})
}
