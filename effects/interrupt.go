package effects

// InterruptStatus marks whether a region of a fiber may be interrupted.
type InterruptStatus bool

const (
	Interruptible   InterruptStatus = true
	Uninterruptible InterruptStatus = false
)

// InterruptStatusOf runs eff with the given interrupt status, restoring the previous
// status when eff ends.
func InterruptStatusOf[R, E, A any](eff Effect[R, E, A], status InterruptStatus) Effect[R, E, A] {
	return Effect[R, E, A]{op: &setInterruptStatusOp{inner: eff.op, interruptible: bool(status)}}
}

// MakeUninterruptible runs eff without preemption. Interrupts received meanwhile are
// delivered at the next interruptible checkpoint after eff.
func MakeUninterruptible[R, E, A any](eff Effect[R, E, A]) Effect[R, E, A] {
	return InterruptStatusOf(eff, Uninterruptible)
}

// MakeInterruptible runs eff in an interruptible region.
func MakeInterruptible[R, E, A any](eff Effect[R, E, A]) Effect[R, E, A] {
	return InterruptStatusOf(eff, Interruptible)
}

// CheckInterruptible passes the current interrupt status to f.
func CheckInterruptible[R, E, A any](f func(InterruptStatus) Effect[R, E, A]) Effect[R, E, A] {
	return Effect[R, E, A]{op: &checkInterruptStatusOp{f: func(interruptible bool) instruction {
		return f(InterruptStatus(interruptible)).op
	}}}
}

// UninterruptibleMask runs the effect built by f uninterruptibly. f receives the status
// in force before the mask so parts of it can be restored with Restore.
func UninterruptibleMask[R, E, A any](f func(restore InterruptStatus) Effect[R, E, A]) Effect[R, E, A] {
	return CheckInterruptible(func(status InterruptStatus) Effect[R, E, A] {
		return MakeUninterruptible(f(status))
	})
}

// Restore runs eff with the status captured by UninterruptibleMask.
func Restore[R, E, A any](status InterruptStatus, eff Effect[R, E, A]) Effect[R, E, A] {
	return InterruptStatusOf(eff, status)
}
