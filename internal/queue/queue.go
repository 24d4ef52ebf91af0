// Package queue implements the Write Queues (C5): six unbounded,
// thread-safe FIFOs staging insert/delete mutations between the
// matcher (many producers) and the Flush Scheduler (single consumer),
// per spec.md §4.3/§9. Grounded on the producer/consumer shape of the
// predecessor's consumer.go FeedResult channel, reimplemented over a
// mutex-guarded list since a genuinely unbounded queue needs no pump
// goroutine of its own.
package queue

import (
	"container/list"
	"sync"

	"github.com/transitfusion/gtfsrealtime/pkg/gtfsmodel"
)

// FIFO is a generic unbounded, thread-safe first-in-first-out queue.
type FIFO[T any] struct {
	mu    sync.Mutex
	items list.List
}

// Push enqueues v. Never blocks.
func (q *FIFO[T]) Push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items.PushBack(v)
}

// Pop dequeues the oldest item, or returns ok=false if empty.
func (q *FIFO[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.items.Front()
	if front == nil {
		return v, false
	}
	q.items.Remove(front)
	return front.Value.(T), true
}

// Len reports the current queue depth.
func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Queues aggregates the six FIFOs C4 (Matcher) enqueues onto and C6
// (Flush Scheduler) drains.
type Queues struct {
	TripUpdateInsert      FIFO[gtfsmodel.TripUpdate]
	TripUpdateDelete      FIFO[string]
	ServiceAlertInsert    FIFO[gtfsmodel.ServiceAlert]
	ServiceAlertDelete    FIFO[string]
	VehiclePositionInsert FIFO[gtfsmodel.VehiclePosition]
	VehiclePositionDelete FIFO[string]
}

// New returns an empty set of queues.
func New() *Queues {
	return &Queues{}
}
