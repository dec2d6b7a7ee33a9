// Package scheduler provides the turn queues fibers are executed on.
//
// A turn is a bounded slice of one fiber's driver loop. Turns of the same fiber never run
// concurrently: the single strategy drains one FIFO on one goroutine, and the partitioned
// strategy routes every turn of a fiber to the same worker by hashing its partition key.
package scheduler

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Partitionable is routed by its partition key.
type Partitionable interface {
	PartitionKey() string
}

// Turn is a unit of work submitted to a scheduler.
type Turn interface {
	Partitionable
	Run()
}

// Scheduler executes submitted turns.
type Scheduler interface {
	// Submit enqueues the turn. It never blocks, so a running turn may resubmit
	// work to the worker executing it. It returns false once the scheduler is closed.
	Submit(turn Turn) bool
	// Close stops the workers after the turns already queued have run.
	Close()
}

// --- single queue ---

type singleQueue struct {
	worker *worker
}

// NewSingle runs every turn on one goroutine, in submission order.
func NewSingle(ctx context.Context) Scheduler {
	return singleQueue{worker: newWorker(ctx)}
}

func (q singleQueue) Submit(turn Turn) bool {
	return q.worker.push(turn)
}

func (q singleQueue) Close() {
	q.worker.close()
}

// --- partitioned queue ---

type partitionedQueue struct {
	workers []*worker
}

// NewPartitioned runs turns on numWorkers goroutines. Turns with the same partition key
// always land on the same worker and keep their submission order.
func NewPartitioned(ctx context.Context, numWorkers int) Scheduler {
	if numWorkers <= 1 {
		return NewSingle(ctx)
	}
	workers := make([]*worker, numWorkers)
	for i := range workers {
		workers[i] = newWorker(ctx)
	}
	return partitionedQueue{workers: workers}
}

func (pq partitionedQueue) Submit(turn Turn) bool {
	return pq.workers[getIndexByHash(turn, len(pq.workers))].push(turn)
}

func (pq partitionedQueue) Close() {
	for _, w := range pq.workers {
		w.close()
	}
}

func hash(key string) int {
	return int(xxhash.Sum64String(key) >> 1)
}

func getIndexByHash(payload Partitionable, numChs int) int {
	switch numChs {
	case 0:
		panic("number of workers cannot be 0")
	case 1:
		return 0
	default:
		return hash(payload.PartitionKey()) % numChs
	}
}

// --- worker ---

// worker drains an unbounded FIFO on its own goroutine.
type worker struct {
	mu      sync.Mutex
	pending []Turn
	closed  bool
	wakeCh  chan struct{}
	doneCh  chan struct{}
}

func newWorker(ctx context.Context) *worker {
	w := &worker{
		wakeCh: make(chan struct{}, 1),
		doneCh: make(chan struct{}),
	}
	ready := make(chan struct{})
	go func() {
		defer close(w.doneCh)
		close(ready)
		for {
			turns, closed := w.drain()
			for _, turn := range turns {
				turn.Run()
			}
			if len(turns) > 0 {
				continue
			}
			if closed {
				return
			}
			select {
			case <-w.wakeCh:
			case <-ctx.Done():
				w.close()
			}
		}
	}()
	<-ready
	return w
}

func (w *worker) push(turn Turn) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = append(w.pending, turn)
	w.mu.Unlock()

	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
	return true
}

func (w *worker) drain() ([]Turn, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	turns := w.pending
	w.pending = nil
	return turns, w.closed
}

func (w *worker) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wakeCh <- struct{}{}:
	default:
	}
}
