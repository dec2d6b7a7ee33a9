// Package state exposes a keyed compare-and-swap store as effects.
package state

import (
	"errors"
	"fmt"

	"github.com/on-the-ground/effect_ive_runtime/effects"
)

var (
	ErrKeyNotFound    = errors.New("key not found")
	ErrUnexpectedType = errors.New("unexpected type")
)

// Effect performs one state operation against store.
// Load yields the stored value and fails with ErrKeyNotFound when the key is absent.
// The other operations yield whether they took effect.
func Effect[R any, K comparable](store Store[K], payload Payload) effects.Effect[R, error, any] {
	return effects.EffectPartial[R](func() (any, error) {
		switch payload := payload.(type) {
		case Load[K]:
			v, ok, err := store.Load(payload.Key)
			if err != nil {
				return nil, fmt.Errorf("failed to load key %v: %w", payload.Key, err)
			}
			if !ok {
				return nil, fmt.Errorf("%w: key %v", ErrKeyNotFound, payload.Key)
			}
			return v, nil
		case InsertIfAbsent[K]:
			return wrap(store.InsertIfAbsent(payload.Key, payload.New))
		case CompareAndSwap[K]:
			return wrap(store.CompareAndSwap(payload.Key, payload.Old, payload.New))
		case CompareAndDelete[K]:
			return wrap(store.CompareAndDelete(payload.Key, payload.Old))
		default:
			panic(fmt.Sprintf("exhaustive match fallback, payload type: %T", payload))
		}
	})
}

func EffectLoad[R any, K comparable, V any](store Store[K], key K) effects.Effect[R, error, V] {
	return effects.FlatMap(Effect[R](store, LoadPayloadOf(key)), typed[R, V])
}

func EffectInsertIfAbsent[R any, K comparable, V any](store Store[K], key K, new V) effects.Effect[R, error, bool] {
	return effects.FlatMap(Effect[R](store, InsertPayloadOf(key, new)), typed[R, bool])
}

func EffectCompareAndSwap[R any, K comparable, V any](store Store[K], key K, old, new V) effects.Effect[R, error, bool] {
	return effects.FlatMap(Effect[R](store, CASPayloadOf(key, old, new)), typed[R, bool])
}

func EffectCompareAndDelete[R any, K comparable, V any](store Store[K], key K, old V) effects.Effect[R, error, bool] {
	return effects.FlatMap(Effect[R](store, CADPayloadOf(key, old)), typed[R, bool])
}

// EffectUpdate replaces the value under key with f of it and yields the new value.
// It retries on a lost compare-and-swap, so f may run more than once.
func EffectUpdate[R any, K comparable, V any](store Store[K], key K, f func(V) V) effects.Effect[R, error, V] {
	return effects.FlatMap(EffectLoad[R, K, V](store, key), func(old V) effects.Effect[R, error, V] {
		new := f(old)
		return effects.FlatMap(EffectCompareAndSwap[R](store, key, old, new), func(swapped bool) effects.Effect[R, error, V] {
			if swapped {
				return effects.Succeed[R, error](new)
			}
			return EffectUpdate[R](store, key, f)
		})
	})
}

func wrap(ok bool, err error) (any, error) {
	if err != nil {
		return nil, fmt.Errorf("state operation failed: %w", err)
	}
	return ok, nil
}

// typed asserts a raw state result to V, failing with ErrUnexpectedType otherwise.
func typed[R, V any](v any) effects.Effect[R, error, V] {
	res, ok := v.(V)
	if !ok {
		return effects.Fail[R, V](fmt.Errorf("%w: %T", ErrUnexpectedType, v))
	}
	return effects.Succeed[R, error](res)
}
