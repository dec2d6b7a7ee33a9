// Package managed describes resources as values that can be composed before use.
//
// A Managed knows how to acquire a resource and how to release it. Composing managed
// values nests their brackets, so resources are released in the reverse order of their
// acquisition, exactly once, however Use ends.
package managed

import (
	"github.com/on-the-ground/effect_ive_runtime/effects"
	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// Managed is a resource of type A acquired in an effect with environment R and error E.
type Managed[R, E, A any] struct {
	run func(k func(A) effects.Effect[R, E, any]) effects.Effect[R, E, any]
}

// MakeExit acquires with acquire and releases with release, which sees how the scope
// ended.
func MakeExit[R, E, A any](
	acquire effects.Effect[R, E, A],
	release func(A, exit.Exit[E, any]) effects.Effect[R, E, effects.Unit],
) Managed[R, E, A] {
	return Managed[R, E, A]{run: func(k func(A) effects.Effect[R, E, any]) effects.Effect[R, E, any] {
		return effects.BracketExit(acquire, release, k)
	}}
}

// Make acquires with acquire and releases with release.
func Make[R, E, A any](
	acquire effects.Effect[R, E, A],
	release func(A) effects.Effect[R, E, effects.Unit],
) Managed[R, E, A] {
	return MakeExit(acquire, func(a A, _ exit.Exit[E, any]) effects.Effect[R, E, effects.Unit] {
		return release(a)
	})
}

// Succeed is a resource that needs no release.
func Succeed[R, E, A any](a A) Managed[R, E, A] {
	return Managed[R, E, A]{run: func(k func(A) effects.Effect[R, E, any]) effects.Effect[R, E, any] {
		return k(a)
	}}
}

// FromEffect acquires with eff and releases nothing.
func FromEffect[R, E, A any](eff effects.Effect[R, E, A]) Managed[R, E, A] {
	return Managed[R, E, A]{run: func(k func(A) effects.Effect[R, E, any]) effects.Effect[R, E, any] {
		return effects.FlatMap(eff, k)
	}}
}

func Map[R, E, A, B any](m Managed[R, E, A], f func(A) B) Managed[R, E, B] {
	return Managed[R, E, B]{run: func(k func(B) effects.Effect[R, E, any]) effects.Effect[R, E, any] {
		return m.run(func(a A) effects.Effect[R, E, any] { return k(f(a)) })
	}}
}

// FlatMap acquires m, then the resource f builds from it. The second is released first.
func FlatMap[R, E, A, B any](m Managed[R, E, A], f func(A) Managed[R, E, B]) Managed[R, E, B] {
	return Managed[R, E, B]{run: func(k func(B) effects.Effect[R, E, any]) effects.Effect[R, E, any] {
		return m.run(func(a A) effects.Effect[R, E, any] { return f(a).run(k) })
	}}
}

func Zip[R, E, A, B any](left Managed[R, E, A], right Managed[R, E, B]) Managed[R, E, effects.Tuple[A, B]] {
	return FlatMap(left, func(a A) Managed[R, E, effects.Tuple[A, B]] {
		return Map(right, func(b B) effects.Tuple[A, B] {
			return effects.Tuple[A, B]{First: a, Second: b}
		})
	})
}

// Foreach acquires one resource per item, in item order.
func Foreach[R, E, A, B any](items []A, f func(A) Managed[R, E, B]) Managed[R, E, []B] {
	acc := Succeed[R, E]([]B{})
	for _, item := range items {
		prev := acc
		acc = FlatMap(prev, func(bs []B) Managed[R, E, []B] {
			return Map(f(item), func(b B) []B {
				out := make([]B, len(bs), len(bs)+1)
				copy(out, bs)
				return append(out, b)
			})
		})
	}
	return acc
}

// Use acquires the resource, runs f with it and releases it.
func Use[R, E, A, B any](m Managed[R, E, A], f func(A) effects.Effect[R, E, B]) effects.Effect[R, E, B] {
	erased := m.run(func(a A) effects.Effect[R, E, any] {
		return effects.Map(f(a), func(b B) any { return b })
	})
	return effects.Map(erased, func(v any) B {
		b, _ := v.(B)
		return b
	})
}
