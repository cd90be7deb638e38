package gateway

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/flemzord/scrumroll/internal/journal"
)

func newTestHub() *EventHub {
	return NewEventHub(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestEventHub_PublishToSubscriber(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	ch := hub.subscribe()
	if ch == nil {
		t.Fatal("subscribe returned nil before Close")
	}

	run := &journal.Run{Job: "aggregate", Status: journal.StatusOK, Written: 2}
	hub.Publish(Event{
		Type:    EventJobFinished,
		Job:     "aggregate",
		Trigger: journal.TriggerCron,
		Time:    time.Now(),
		Run:     run,
	})

	select {
	case e := <-ch:
		if e.Type != EventJobFinished {
			t.Errorf("Type = %q, want %q", e.Type, EventJobFinished)
		}
		if e.Job != "aggregate" {
			t.Errorf("Job = %q, want %q", e.Job, "aggregate")
		}
		if e.Run == nil || e.Run.Written != 2 {
			t.Errorf("Run = %+v, want Written 2", e.Run)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestEventHub_MultipleSubscribers(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	ch1 := hub.subscribe()
	ch2 := hub.subscribe()

	hub.Publish(Event{Type: EventJobStarted, Job: "prune"})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case e := <-ch:
			if e.Job != "prune" {
				t.Errorf("subscriber %d: Job = %q, want %q", i, e.Job, "prune")
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event received", i)
		}
	}
}

func TestEventHub_SlowSubscriberDrops(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	ch := hub.subscribe()

	// Publish must never block, even past the subscriber buffer.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(Event{Type: EventJobStarted, Job: "aggregate"})
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("buffered events = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestEventHub_Unsubscribe(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	ch := hub.subscribe()
	hub.unsubscribe(ch)

	hub.Publish(Event{Type: EventJobStarted, Job: "aggregate"})

	if len(ch) != 0 {
		t.Errorf("buffered events = %d, want 0 after unsubscribe", len(ch))
	}
}

func TestEventHub_CloseDisconnectsSubscribers(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	ch := hub.subscribe()

	hub.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	if hub.subscribe() != nil {
		t.Error("subscribe after Close should return nil")
	}
}

func TestEventHub_PublishAfterClose(t *testing.T) {
	t.Parallel()

	hub := newTestHub()
	hub.Close()
	hub.Close()

	// Must not panic on a closed hub.
	hub.Publish(Event{Type: EventJobFinished, Job: "aggregate"})
}
