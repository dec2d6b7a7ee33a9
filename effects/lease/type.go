package lease

type payload interface {
	sealedInterface()
}

// DeregisterOf builds the removal of a resource. It fails while the resource is held or
// waited on.
func DeregisterOf(key string) payload {
	return deregister{
		Key: key,
	}
}

// RegisterOf builds a registration for a resource that numOwners fibers may hold at once.
// Non-positive counts register a single-owner resource.
func RegisterOf(key string, numOwners int) payload {
	return register{
		Key:       key,
		NumOwners: numOwners,
	}
}

// AcquireOf builds a request for one lease on key, waiting in line if all are taken.
func AcquireOf(key string) payload {
	return acquire{
		Key: key,
	}
}

// ReleaseOf builds the return of a lease taken with AcquireOf.
func ReleaseOf(key string) payload {
	return release{
		Key: key,
	}
}

type register struct {
	Key       string
	NumOwners int
}

func (register) sealedInterface() {}

type deregister struct {
	Key string
}

func (deregister) sealedInterface() {}

type acquire struct {
	Key string
}

func (acquire) sealedInterface() {}

type release struct {
	Key string
}

func (release) sealedInterface() {}
