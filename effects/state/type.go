package state

// Payload is a sealed interface for state operations.
// Only the payload types of this package (Load, InsertIfAbsent, CompareAndSwap,
// CompareAndDelete) implement it.
type Payload interface {
	payload()
}

// Load is the payload type for retrieving a value from the state.
type Load[K comparable] struct {
	Key K
}

func LoadPayloadOf[K comparable](k K) Payload {
	return Load[K]{Key: k}
}

// payload prevents external packages from implementing Payload.
func (Load[K]) payload() {}

// InsertIfAbsent is the payload type for storing a value under a key that is not set yet.
type InsertIfAbsent[K comparable] struct {
	Key K
	New any
}

func InsertPayloadOf[K comparable](k K, v any) Payload {
	return InsertIfAbsent[K]{Key: k, New: v}
}

func (InsertIfAbsent[K]) payload() {}

// CompareAndSwap is the payload type for replacing Old with New under Key.
type CompareAndSwap[K comparable] struct {
	Key K
	Old any // should be comparable
	New any
}

func CASPayloadOf[K comparable](k K, old, new any) Payload {
	return CompareAndSwap[K]{Key: k, Old: old, New: new}
}

func (CompareAndSwap[K]) payload() {}

// CompareAndDelete is the payload type for deleting Key while it still holds Old.
type CompareAndDelete[K comparable] struct {
	Key K
	Old any // should be comparable
}

func CADPayloadOf[K comparable](k K, old any) Payload {
	return CompareAndDelete[K]{Key: k, Old: old}
}

func (CompareAndDelete[K]) payload() {}

// Store is a keyed compare-and-swap repository.
// Compared values must be comparable or implement Equatable, depending on the backend.
// A panic while comparing is surfaced by the state effects as a defect.
type Store[K comparable] interface {
	Load(key K) (value any, ok bool, err error)
	InsertIfAbsent(key K, value any) (inserted bool, err error)
	CompareAndSwap(key K, old, new any) (swapped bool, err error)
	CompareAndDelete(key K, old any) (deleted bool, err error)
}

// Equatable values decide their own equality in stores that compare by value.
type Equatable interface {
	Equals(other any) bool
}

// Equals compares with Equatable when a implements it, and with == otherwise.
func Equals(a, b any) bool {
	if eq, ok := a.(Equatable); ok {
		return eq.Equals(b)
	}
	return a == b
}
