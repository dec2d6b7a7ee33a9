package effects

// Tuple pairs the results of two effects.
type Tuple[A, B any] struct {
	First  A
	Second B
}

// FlatMap sequences f after eff. Building the chain is O(1); the driver loop keeps the
// continuation on its own stack, so arbitrarily long chains run in constant native stack.
func FlatMap[R, E, A, B any](eff Effect[R, E, A], f func(A) Effect[R, E, B]) Effect[R, E, B] {
	return Effect[R, E, B]{op: &flatMapOp{
		inner: eff.op,
		k:     func(v any) instruction { return f(as[A](v)).op },
	}}
}

// Map transforms the success value.
func Map[R, E, A, B any](eff Effect[R, E, A], f func(A) B) Effect[R, E, B] {
	return Effect[R, E, B]{op: &flatMapOp{
		inner: eff.op,
		k:     func(v any) instruction { return &succeedOp{value: f(as[A](v))} },
	}}
}

// As replaces the success value.
func As[R, E, A, B any](eff Effect[R, E, A], b B) Effect[R, E, B] {
	return Map(eff, func(A) B { return b })
}

// AsUnit discards the success value.
func AsUnit[R, E, A any](eff Effect[R, E, A]) Effect[R, E, Unit] {
	return As(eff, Unit{})
}

// Tap runs f for its effect and keeps the original value.
func Tap[R, E, A, B any](eff Effect[R, E, A], f func(A) Effect[R, E, B]) Effect[R, E, A] {
	return FlatMap(eff, func(a A) Effect[R, E, A] {
		return As(f(a), a)
	})
}

// ZipWith runs left then right and combines their values.
func ZipWith[R, E, A, B, C any](left Effect[R, E, A], right Effect[R, E, B], f func(A, B) C) Effect[R, E, C] {
	return FlatMap(left, func(a A) Effect[R, E, C] {
		return Map(right, func(b B) C { return f(a, b) })
	})
}

// Zip runs left then right and pairs their values.
func Zip[R, E, A, B any](left Effect[R, E, A], right Effect[R, E, B]) Effect[R, E, Tuple[A, B]] {
	return ZipWith(left, right, func(a A, b B) Tuple[A, B] { return Tuple[A, B]{First: a, Second: b} })
}

// ZipRight runs left then right, keeping right's value.
func ZipRight[R, E, A, B any](left Effect[R, E, A], right Effect[R, E, B]) Effect[R, E, B] {
	return FlatMap(left, func(A) Effect[R, E, B] { return right })
}

// ZipLeft runs left then right, keeping left's value.
func ZipLeft[R, E, A, B any](left Effect[R, E, A], right Effect[R, E, B]) Effect[R, E, A] {
	return FlatMap(left, func(a A) Effect[R, E, A] { return As(right, a) })
}

// Foreach runs f on every element in order and collects the results.
func Foreach[R, E, A, B any](as []A, f func(A) Effect[R, E, B]) Effect[R, E, []B] {
	return Suspend(func() Effect[R, E, []B] {
		out := make([]B, 0, len(as))
		var loop func(i int) Effect[R, E, []B]
		loop = func(i int) Effect[R, E, []B] {
			if i == len(as) {
				return Succeed[R, E](out)
			}
			return FlatMap(f(as[i]), func(b B) Effect[R, E, []B] {
				out = append(out, b)
				return loop(i + 1)
			})
		}
		return loop(0)
	})
}

// ForeachUnit runs f on every element in order, discarding the results.
func ForeachUnit[R, E, A, B any](as []A, f func(A) Effect[R, E, B]) Effect[R, E, Unit] {
	return FoldLeft(as, Unit{}, func(_ Unit, a A) Effect[R, E, Unit] { return AsUnit(f(a)) })
}

// CollectAll runs the effects in order and collects their values.
func CollectAll[R, E, A any](effs ...Effect[R, E, A]) Effect[R, E, []A] {
	return Foreach(effs, func(eff Effect[R, E, A]) Effect[R, E, A] { return eff })
}

// FoldLeft threads an accumulator through f, element by element.
func FoldLeft[R, E, A, Z any](as []A, zero Z, f func(Z, A) Effect[R, E, Z]) Effect[R, E, Z] {
	var loop func(i int, acc Z) Effect[R, E, Z]
	loop = func(i int, acc Z) Effect[R, E, Z] {
		if i == len(as) {
			return Succeed[R, E](acc)
		}
		return FlatMap(f(acc, as[i]), func(next Z) Effect[R, E, Z] { return loop(i+1, next) })
	}
	return Suspend(func() Effect[R, E, Z] { return loop(0, zero) })
}

// Loop runs body for each state from initial while cont holds, stepping with inc,
// and collects the results.
func Loop[R, E, S, A any](initial S, cont func(S) bool, inc func(S) S, body func(S) Effect[R, E, A]) Effect[R, E, []A] {
	return Suspend(func() Effect[R, E, []A] {
		var out []A
		var loop func(s S) Effect[R, E, []A]
		loop = func(s S) Effect[R, E, []A] {
			if !cont(s) {
				return Succeed[R, E](out)
			}
			return FlatMap(body(s), func(a A) Effect[R, E, []A] {
				out = append(out, a)
				return loop(inc(s))
			})
		}
		return loop(initial)
	})
}
