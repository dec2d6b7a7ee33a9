package effects

import (
	"errors"
	"fmt"
	"time"

	"github.com/on-the-ground/effect_ive_runtime/exit"
	"github.com/rickb777/date/v2/timespan"
)

// ErrTimeout is the failure of TimeoutErr.
var ErrTimeout = errors.New("effect timed out")

type TimeSpan = timespan.TimeSpan

// Sleep suspends the fiber for d without holding a scheduler worker.
// Interrupting the fiber stops the timer.
func Sleep[R, E any](d time.Duration) Effect[R, E, Unit] {
	return Async[R, E](func(resolve func(exit.Exit[E, Unit])) func() {
		timer := time.AfterFunc(d, func() {
			resolve(exit.Succeed[E](Unit{}))
		})
		return func() { timer.Stop() }
	})
}

// Timeout races eff against a timer of d. If eff completes first, its exit decides:
// its value with true, or its failure. Once d elapses, eff is interrupted and its
// finalizers run, and Timeout succeeds with the zero value and false.
func Timeout[R, E, A any](eff Effect[R, E, A], d time.Duration) Effect[R, E, Tuple[A, bool]] {
	return RaceFirst(
		Map(eff, func(a A) Tuple[A, bool] { return Tuple[A, bool]{First: a, Second: true} }),
		As(Sleep[R, E](d), Tuple[A, bool]{}),
	)
}

// TimeoutFail is Timeout that fails with err when d elapses.
func TimeoutFail[R, E, A any](eff Effect[R, E, A], d time.Duration, err E) Effect[R, E, A] {
	return FlatMap(Timeout(eff, d), func(t Tuple[A, bool]) Effect[R, E, A] {
		if !t.Second {
			return Fail[R, A](err)
		}
		return Succeed[R, E](t.First)
	})
}

// TimeoutErr is TimeoutFail with an error wrapping ErrTimeout.
func TimeoutErr[R, A any](eff Effect[R, error, A], d time.Duration) Effect[R, error, A] {
	return TimeoutFail(eff, d, fmt.Errorf("%w after %v", ErrTimeout, d))
}

// Timed succeeds with eff's value and the span of wall-clock time it ran in.
func Timed[R, E, A any](eff Effect[R, E, A]) Effect[R, E, Tuple[TimeSpan, A]] {
	return FlatMap(EffectTotal[R, E](time.Now), func(start time.Time) Effect[R, E, Tuple[TimeSpan, A]] {
		return Map(eff, func(a A) Tuple[TimeSpan, A] {
			return Tuple[TimeSpan, A]{First: timespan.BetweenTimes(start, time.Now()), Second: a}
		})
	})
}
