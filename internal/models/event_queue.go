package models

import (
	"container/heap"
	"time"
)

const EventOrderArrival = "OrderArrival"

// Event is something that happens at a point on a simulation's time axis.
type Event struct {
	Time time.Time
	Type string
	Data interface{}

	seq uint64
}

// EventQueue releases events in time order. Events sharing a time come out
// in the order they were enqueued. It is not safe for concurrent use; each
// simulation run owns its queue.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if !h[i].Time.Equal(h[j].Time) {
		return h[i].Time.Before(h[j].Time)
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() interface{} {
	old := *h
	last := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	return last
}

func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

func (q *EventQueue) Enqueue(e *Event) {
	e.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.events, e)
}

// Dequeue removes the earliest event, or returns nil when the queue is empty.
func (q *EventQueue) Dequeue() *Event {
	if len(q.events) == 0 {
		return nil
	}
	return heap.Pop(&q.events).(*Event)
}

func (q *EventQueue) Peek() *Event {
	if len(q.events) == 0 {
		return nil
	}
	return q.events[0]
}

func (q *EventQueue) IsEmpty() bool { return len(q.events) == 0 }

func (q *EventQueue) Len() int { return len(q.events) }
