package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datenai/datalab/internal/domain"
)

func collect(t *testing.T, ch <-chan domain.StreamEvent, n int) []domain.StreamEvent {
	t.Helper()
	var events []domain.StreamEvent
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, want %d", len(events), n)
		}
	}
	return events
}

func drainClosed(t *testing.T, ch <-chan domain.StreamEvent) {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected extra event %v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestBus_OpenTwiceFails(t *testing.T) {
	b := NewBus()

	if err := b.Open("exec-1"); err != nil {
		t.Fatal(err)
	}
	if err := b.Open("exec-1"); !errors.Is(err, ErrStreamExists) {
		t.Errorf("second Open error = %v, want ErrStreamExists", err)
	}

	// A closed stream never reopens for the same ID
	b.Close("exec-1")
	if err := b.Open("exec-1"); !errors.Is(err, ErrStreamExists) {
		t.Errorf("Open after Close error = %v, want ErrStreamExists", err)
	}
}

func TestBus_SubscribeUnknownStream(t *testing.T) {
	b := NewBus()
	if _, err := b.Subscribe(context.Background(), "nope"); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("Subscribe error = %v, want ErrStreamNotFound", err)
	}
}

func TestBus_PublishToUnknownStream(t *testing.T) {
	b := NewBus()
	if err := b.Publish("nope", domain.EventPlanning, nil); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("Publish error = %v, want ErrStreamNotFound", err)
	}
}

func TestBus_OrderedDeliveryToEarlySubscriber(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")

	ch, err := b.Subscribe(context.Background(), "exec-1")
	if err != nil {
		t.Fatal(err)
	}

	kinds := []domain.EventKind{
		domain.EventPlanning, domain.EventCodeGeneration,
		domain.EventExecution, domain.EventSummary, domain.EventComplete,
	}
	for _, k := range kinds {
		if err := b.Publish("exec-1", k, map[string]any{"k": string(k)}); err != nil {
			t.Fatal(err)
		}
	}
	b.Close("exec-1")

	events := collect(t, ch, len(kinds))
	for i, k := range kinds {
		if events[i].Event != k {
			t.Errorf("event[%d] = %q, want %q", i, events[i].Event, k)
		}
	}
	drainClosed(t, ch)
}

func TestBus_LateSubscriberReplaysThenFollows(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")

	b.Publish("exec-1", domain.EventPlanning, nil)
	b.Publish("exec-1", domain.EventCodeGeneration, nil)

	// Connect after two events fired, before the run completes
	ch, err := b.Subscribe(context.Background(), "exec-1")
	if err != nil {
		t.Fatal(err)
	}

	b.Publish("exec-1", domain.EventExecution, nil)
	b.Publish("exec-1", domain.EventComplete, nil)
	b.Close("exec-1")

	events := collect(t, ch, 4)
	want := []domain.EventKind{
		domain.EventPlanning, domain.EventCodeGeneration,
		domain.EventExecution, domain.EventComplete,
	}
	for i, k := range want {
		if events[i].Event != k {
			t.Errorf("event[%d] = %q, want %q (no gaps, no duplicates)", i, events[i].Event, k)
		}
	}
	drainClosed(t, ch)
}

func TestBus_SubscribeAfterCloseReplaysCacheAndEnds(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")
	b.Publish("exec-1", domain.EventPlanning, nil)
	b.Publish("exec-1", domain.EventError, nil)
	b.Close("exec-1")

	ch, err := b.Subscribe(context.Background(), "exec-1")
	if err != nil {
		t.Fatal(err)
	}
	events := collect(t, ch, 2)
	if events[0].Event != domain.EventPlanning || events[1].Event != domain.EventError {
		t.Errorf("replayed events = %v", events)
	}
	drainClosed(t, ch)
}

func TestBus_MultipleConcurrentSubscribers(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")
	b.Publish("exec-1", domain.EventPlanning, nil)

	ch1, err := b.Subscribe(context.Background(), "exec-1")
	if err != nil {
		t.Fatal(err)
	}
	ch2, err := b.Subscribe(context.Background(), "exec-1")
	if err != nil {
		t.Fatal(err)
	}

	b.Publish("exec-1", domain.EventComplete, nil)
	b.Close("exec-1")

	for _, ch := range []<-chan domain.StreamEvent{ch1, ch2} {
		events := collect(t, ch, 2)
		if events[0].Event != domain.EventPlanning || events[1].Event != domain.EventComplete {
			t.Errorf("subscriber events = %v", events)
		}
		drainClosed(t, ch)
	}
}

func TestBus_PublishAfterCloseIsDropped(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")
	b.Publish("exec-1", domain.EventPlanning, nil)
	b.Close("exec-1")

	if err := b.Publish("exec-1", domain.EventComplete, nil); err != nil {
		t.Fatalf("Publish after Close errored: %v", err)
	}

	ch, _ := b.Subscribe(context.Background(), "exec-1")
	events := collect(t, ch, 1)
	if len(events) != 1 || events[0].Event != domain.EventPlanning {
		t.Errorf("events = %v, want only the pre-close event", events)
	}
	drainClosed(t, ch)
}

func TestBus_SubscriberContextCancel(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "exec-1")
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	drainClosed(t, ch)
}

func TestBus_IndependentStreams(t *testing.T) {
	b := NewBus()
	b.Open("exec-1")
	b.Open("exec-2")

	ch1, _ := b.Subscribe(context.Background(), "exec-1")
	ch2, _ := b.Subscribe(context.Background(), "exec-2")

	b.Publish("exec-1", domain.EventPlanning, map[string]any{"run": 1})
	b.Publish("exec-2", domain.EventPlanning, map[string]any{"run": 2})
	b.Close("exec-1")
	b.Close("exec-2")

	ev1 := collect(t, ch1, 1)
	ev2 := collect(t, ch2, 1)
	if ev1[0].ExecutionID != "exec-1" {
		t.Errorf("stream 1 saw execution %q", ev1[0].ExecutionID)
	}
	if ev2[0].ExecutionID != "exec-2" {
		t.Errorf("stream 2 saw execution %q", ev2[0].ExecutionID)
	}
	drainClosed(t, ch1)
	drainClosed(t, ch2)
}

func TestBus_Stats(t *testing.T) {
	b := NewBus()
	b.Open("open-1")
	b.Open("done-1")
	b.Publish("open-1", domain.EventPlanning, nil)
	b.Publish("done-1", domain.EventPlanning, nil)
	b.Publish("done-1", domain.EventComplete, nil)
	b.Close("done-1")

	st := b.GetStats()
	if st.OpenStreams != 1 || st.CompletedStreams != 1 {
		t.Errorf("stats = %+v, want 1 open / 1 completed", st)
	}
	if st.CachedEvents != 3 {
		t.Errorf("cached events = %d, want 3", st.CachedEvents)
	}
}
