// Package lease bounds how many fibers may hold a named resource at once.
//
// A registered key carries a fixed number of owners. Acquiring a key beyond that suspends
// the fiber until a holder releases it; waiters are served in arrival order.
package lease

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_runtime/effects"
	"github.com/on-the-ground/effect_ive_runtime/effects/log"
	"github.com/on-the-ground/effect_ive_runtime/effects/state"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

var ErrUnregisteredResource = errors.New("unregistered resource")
var ErrResourceInUse = errors.New("unable to deregister resource in use")
var ErrNotAcquired = errors.New("release of a resource nobody holds")

// Registry maps resource keys to their lease counters.
type Registry struct {
	store state.Store[string]
}

// NewRegistry keeps resources in store. The store holds the registry's own records, so it
// must accept arbitrary values; the in-memory store does.
func NewRegistry(store state.Store[string]) *Registry {
	return &Registry{store: store}
}

func NewInMemoryRegistry() *Registry {
	return NewRegistry(state.NewInMemoryStore[string](nil))
}

// Effect performs one lease operation.
//
// Register yields false if the key already exists. Acquire yields true once a lease is held,
// suspending until one is free. An interrupted Acquire leaves the queue without taking a
// lease, but a lease it already got is only returned by Release; WithLease covers both.
// Release only gives back leases taken by Acquire. The leases WithLease holds are not
// its to free, so with only those held it fails with ErrNotAcquired.
func Effect[R any](reg *Registry, payload payload) effects.Effect[R, error, bool] {
	switch payload := payload.(type) {

	case register:
		return state.EffectInsertIfAbsent[R](reg.store, payload.Key, newResource(payload.NumOwners))

	case deregister:
		return effects.FlatMap(load[R](reg, payload.Key), func(r *resource) effects.Effect[R, error, bool] {
			if held, ok := r.retire(); !ok {
				return effects.Fail[R, bool](fmt.Errorf("%w: key %s, holders %d", ErrResourceInUse, payload.Key, held))
			}
			return state.EffectCompareAndDelete[R](reg.store, payload.Key, r)
		})

	case acquire:
		return effects.FlatMap(load[R](reg, payload.Key), func(r *resource) effects.Effect[R, error, bool] {
			return effects.Suspend(func() effects.Effect[R, error, bool] {
				return take[R](payload.Key, &ticket{res: r})
			})
		})

	case release:
		return effects.FlatMap(load[R](reg, payload.Key), func(r *resource) effects.Effect[R, error, bool] {
			return effects.Suspend(func() effects.Effect[R, error, bool] {
				if !r.give() {
					return effects.Fail[R, bool](fmt.Errorf("%w: key %s", ErrNotAcquired, payload.Key))
				}
				return effects.Succeed[R, error](true)
			})
		})

	default:
		panic("exhaustive match")
	}
}

func EffectRegistration[R any](reg *Registry, key string, numOwners int) effects.Effect[R, error, bool] {
	return Effect[R](reg, RegisterOf(key, numOwners))
}

func EffectDeregistration[R any](reg *Registry, key string) effects.Effect[R, error, bool] {
	return Effect[R](reg, DeregisterOf(key))
}

func EffectAcquisition[R any](reg *Registry, key string) effects.Effect[R, error, bool] {
	return Effect[R](reg, AcquireOf(key))
}

func EffectRelease[R any](reg *Registry, key string) effects.Effect[R, error, bool] {
	return Effect[R](reg, ReleaseOf(key))
}

// WithLease runs eff while holding a lease on key. The lease is given back on every exit
// path, including interruption while still queued for it.
func WithLease[R, A any](reg *Registry, key string, eff effects.Effect[R, error, A]) effects.Effect[R, error, A] {
	return effects.FlatMap(load[R](reg, key), func(r *resource) effects.Effect[R, error, A] {
		return effects.Suspend(func() effects.Effect[R, error, A] {
			t := &ticket{res: r, scoped: true}
			return effects.Ensuring(
				effects.ZipRight(take[R](key, t), eff),
				effects.Do[R, error](t.abandon),
			)
		})
	})
}

func load[R any](reg *Registry, key string) effects.Effect[R, error, *resource] {
	return effects.MapError(state.EffectLoad[R, string, *resource](reg.store, key), func(err error) error {
		if errors.Is(err, state.ErrKeyNotFound) {
			return fmt.Errorf("%w: key %s", ErrUnregisteredResource, key)
		}
		return err
	})
}

// take suspends until t holds a lease on r. The canceler drops t from the queue.
func take[R any](key string, t *ticket) effects.Effect[R, error, bool] {
	queued := effects.Async[R](func(resolve func(exit.Exit[error, bool])) func() {
		ok, now := t.res.take(t, resolve)
		switch {
		case !ok:
			resolve(exit.Fail[bool](fmt.Errorf("%w: key %s", ErrUnregisteredResource, key)))
			return nil
		case now:
			resolve(exit.Succeed[error](true))
			return nil
		}
		return t.abandon
	})
	return effects.Tap(queued, func(bool) effects.Effect[R, error, effects.Unit] {
		return log.Debug[R, error]("lease acquired", map[string]interface{}{"key": key})
	})
}
