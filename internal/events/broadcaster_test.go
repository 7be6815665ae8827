package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/brewqueue/internal/logging"
	"github.com/chrisdamba/brewqueue/internal/models"
)

type recordingSink struct {
	mu       sync.Mutex
	topics   []string
	messages [][]byte
	got      chan struct{}
	err      error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{got: make(chan struct{}, 16)}
}

func (s *recordingSink) WriteMessage(topic string, msg []byte) error {
	s.mu.Lock()
	s.topics = append(s.topics, topic)
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.got <- struct{}{}
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestPublish_NeverBlocksAndKeepsNewest(t *testing.T) {
	b := NewBroadcaster(2, logging.Discard())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(models.QueueUpdate{EventType: models.EventOrderCreated})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running broadcaster")
	}

	if got := b.Dropped(); got != 8 {
		t.Errorf("Dropped = %d, want 8", got)
	}
	first := <-b.in
	second := <-b.in
	if first.Sequence != 9 || second.Sequence != 10 {
		t.Errorf("kept sequences %d,%d, want 9,10", first.Sequence, second.Sequence)
	}
}

func TestRun_FansOutToSubscribersAndSinks(t *testing.T) {
	sink := newRecordingSink()
	sink.err = errors.New("broker down")
	b := NewBroadcaster(4, logging.Discard(), sink)
	sub, cancelSub := b.Subscribe(4)
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	b.Publish(models.QueueUpdate{
		EventType: models.EventOrderCreated,
		Orders:    []*models.Order{{ID: "o1", Status: models.OrderStatusWaiting}},
	})
	wait(t, sink.got)

	select {
	case u := <-sub:
		if u.Sequence != 1 || len(u.Orders) != 1 || u.Orders[0].ID != "o1" {
			t.Errorf("unexpected update %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber got nothing")
	}

	sink.mu.Lock()
	if sink.topics[0] != models.TopicQueueUpdates {
		t.Errorf("topic = %s", sink.topics[0])
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(sink.messages[0], &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	sink.mu.Unlock()
	if decoded["eventType"] != models.EventOrderCreated {
		t.Errorf("eventType = %v", decoded["eventType"])
	}

	cancel()
	<-done
	if _, ok := <-sub; ok {
		t.Error("subscriber channel still open after Run returned")
	}
}

func TestSubscribe_SlowSubscriberDropsOldest(t *testing.T) {
	b := NewBroadcaster(8, logging.Discard())
	sub, cancelSub := b.Subscribe(1)

	b.deliver(models.QueueUpdate{Sequence: 1})
	b.deliver(models.QueueUpdate{Sequence: 2})

	if u := <-sub; u.Sequence != 2 {
		t.Errorf("got sequence %d, want 2", u.Sequence)
	}
	cancelSub()
	cancelSub()
	if _, ok := <-sub; ok {
		t.Error("channel open after cancel")
	}
	// delivering after unsubscribe must not panic
	b.deliver(models.QueueUpdate{Sequence: 3})
}
