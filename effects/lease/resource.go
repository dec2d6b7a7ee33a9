package lease

import (
	"slices"
	"sync"

	"github.com/on-the-ground/effect_ive_runtime/exit"
)

// resource counts the owners of one registered key and queues fibers waiting for a turn.
// scoped counts the held leases that belong to a WithLease; only the others can be given
// back by a bare release.
type resource struct {
	mu      sync.Mutex
	owners  int
	held    int
	scoped  int
	retired bool
	queue   []*ticket
}

func newResource(numOwners int) *resource {
	if numOwners < 1 {
		numOwners = 1
	}
	return &resource{owners: numOwners}
}

type ticketState int

const (
	waiting ticketState = iota
	granted
	settled
)

// ticket is one fiber's claim on a resource, from queueing until it gives the lease back.
type ticket struct {
	res     *resource
	scoped  bool
	state   ticketState
	resolve func(exit.Exit[error, bool])
}

// take grants t a lease right away if one is free, otherwise queues it to be resolved later.
func (r *resource) take(t *ticket, resolve func(exit.Exit[error, bool])) (ok, now bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retired {
		return false, false
	}
	if r.held < r.owners {
		r.held++
		r.grantLocked(t)
		return true, true
	}
	t.resolve = resolve
	r.queue = append(r.queue, t)
	return true, false
}

// give frees one lease taken by a bare acquire. It reports false if there is none.
func (r *resource) give() bool {
	r.mu.Lock()
	if r.held-r.scoped == 0 {
		r.mu.Unlock()
		return false
	}
	next := r.releaseLocked(nil)
	r.mu.Unlock()
	next.grant()
	return true
}

// releaseLocked frees the lease of by, or an unscoped one when by is nil, handing it
// straight to the oldest waiter if any.
func (r *resource) releaseLocked(by *ticket) *ticket {
	if by != nil && by.scoped {
		r.scoped--
	}
	if len(r.queue) == 0 {
		r.held--
		return nil
	}
	next := r.queue[0]
	r.queue = r.queue[1:]
	r.grantLocked(next)
	return next
}

func (r *resource) grantLocked(t *ticket) {
	t.state = granted
	if t.scoped {
		r.scoped++
	}
}

// retire marks r as gone unless it is held or waited on, in which case it reports the
// number of current holders.
func (r *resource) retire() (held int, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held > 0 || len(r.queue) > 0 {
		return r.held, false
	}
	r.retired = true
	return 0, true
}

func (t *ticket) grant() {
	if t != nil {
		t.resolve(exit.Succeed[error](true))
	}
}

// abandon gives back whatever t holds. A queued ticket leaves the queue and a granted one
// frees its lease. Later calls do nothing.
func (t *ticket) abandon() {
	r := t.res
	r.mu.Lock()
	var next *ticket
	switch t.state {
	case waiting:
		r.queue = slices.DeleteFunc(r.queue, func(q *ticket) bool { return q == t })
	case granted:
		next = r.releaseLocked(t)
	}
	t.state = settled
	r.mu.Unlock()
	next.grant()
}
