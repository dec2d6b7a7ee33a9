package effects

import (
	"github.com/on-the-ground/effect_ive_runtime/fiberid"
	"github.com/rickb777/date/v2/timespan"
	"go.uber.org/zap"
)

// Descriptor is a snapshot of the running fiber's metadata.
type Descriptor struct {
	ID            fiberid.ID
	Interruptible bool
	Interruptors  []fiberid.ID
	Children      []fiberid.ID
	Lifetime      timespan.TimeSpan
	RuntimeID     string
	// Logger is the runtime logger annotated with this fiber's id.
	Logger *zap.Logger

	self *fiberContext
}

// DescriptorWith runs the effect built from the current fiber's descriptor.
func DescriptorWith[R, E, A any](f func(Descriptor) Effect[R, E, A]) Effect[R, E, A] {
	return Effect[R, E, A]{op: &descriptorOp{f: func(d Descriptor) instruction { return f(d).op }}}
}

// GetDescriptor succeeds with the current fiber's descriptor.
func GetDescriptor[R, E any]() Effect[R, E, Descriptor] {
	return DescriptorWith(Succeed[R, E, Descriptor])
}

// FiberID succeeds with the current fiber's id.
func FiberID[R, E any]() Effect[R, E, fiberid.ID] {
	return DescriptorWith(func(d Descriptor) Effect[R, E, fiberid.ID] {
		return Succeed[R, E](d.ID)
	})
}
