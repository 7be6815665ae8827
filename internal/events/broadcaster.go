// Package events fans queue snapshots out to in-process subscribers and to
// external sinks. Publishing never blocks: when a buffer is full the oldest
// pending update is discarded.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chrisdamba/brewqueue/internal/models"
)

// Sink receives every update as JSON on the queue_updates topic.
type Sink interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type Broadcaster struct {
	logger *slog.Logger
	in     chan models.QueueUpdate
	sinks  []Sink

	mu     sync.Mutex
	subs   map[int]chan models.QueueUpdate
	nextID int

	seq     atomic.Uint64
	dropped atomic.Uint64
}

func NewBroadcaster(buffer int, logger *slog.Logger, sinks ...Sink) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster{
		logger: logger.With("component", "broadcaster"),
		in:     make(chan models.QueueUpdate, buffer),
		sinks:  sinks,
		subs:   make(map[int]chan models.QueueUpdate),
	}
}

// Publish stamps the update with the next sequence number and enqueues it.
func (b *Broadcaster) Publish(update models.QueueUpdate) {
	update.Sequence = b.seq.Add(1)
	b.offer(b.in, update)
}

// offer sends u on ch, evicting the oldest queued value if ch is full.
func (b *Broadcaster) offer(ch chan models.QueueUpdate, u models.QueueUpdate) {
	for i := 0; i < 2; i++ {
		select {
		case ch <- u:
			return
		default:
		}
		select {
		case <-ch:
			b.dropped.Add(1)
		default:
		}
	}
	b.dropped.Add(1)
}

// Dropped returns how many updates were discarded because a buffer was full.
func (b *Broadcaster) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribe registers a receiver with its own bounded buffer. The returned
// cancel function unregisters it and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan models.QueueUpdate, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.QueueUpdate, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

// Run delivers queued updates until ctx is done, then closes every
// subscriber channel.
func (b *Broadcaster) Run(ctx context.Context) error {
	defer b.closeSubscribers()
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-b.in:
			b.deliver(u)
		}
	}
}

func (b *Broadcaster) deliver(u models.QueueUpdate) {
	b.mu.Lock()
	for _, ch := range b.subs {
		b.offer(ch, u)
	}
	b.mu.Unlock()

	if len(b.sinks) == 0 {
		return
	}
	payload, err := json.Marshal(u)
	if err != nil {
		b.logger.Error("failed to encode queue update", "sequence", u.Sequence, "error", err)
		return
	}
	for _, sink := range b.sinks {
		if err := sink.WriteMessage(models.TopicQueueUpdates, payload); err != nil {
			b.logger.Warn("sink write failed", "sequence", u.Sequence, "error", err)
		}
	}
}

func (b *Broadcaster) closeSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
