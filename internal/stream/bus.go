// Package stream implements the per-execution event bus: an append-only
// replay cache per execution plus live delivery to any number of
// subscribers. A subscriber first receives every cached event in recorded
// order, then newly published events until the stream closes. Closing the
// stream is the only way a subscription terminates normally; a closed
// stream is never reopened.
package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/datenai/datalab/internal/domain"
)

var (
	// ErrStreamExists is returned when opening a stream ID that already has one
	ErrStreamExists = errors.New("stream already exists")

	// ErrStreamNotFound is returned when subscribing to an unknown stream ID
	ErrStreamNotFound = errors.New("stream not found")
)

// Bus fans progress events out to stream subscribers
type Bus struct {
	streams map[string]*eventStream
	mu      sync.Mutex
}

// eventStream holds one execution's replay cache and follower wake signals.
// events is append-only, so followers can snapshot a tail slice under the
// lock and deliver it without holding the lock.
type eventStream struct {
	events  []domain.StreamEvent
	closed  bool
	waiters []chan struct{}
}

// NewBus creates an empty Bus
func NewBus() *Bus {
	return &Bus{
		streams: make(map[string]*eventStream),
	}
}

// Open creates a fresh, empty stream for an execution. Each execution gets
// exactly one stream for its lifetime; opening twice is an error even after
// the first stream has closed.
func (b *Bus) Open(executionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.streams[executionID]; exists {
		return ErrStreamExists
	}
	b.streams[executionID] = &eventStream{}
	return nil
}

// Publish appends a timestamped event to the replay cache and wakes any
// live subscribers. The cache write happens regardless of whether anyone is
// subscribed, so late subscribers replay the full history. Publishing to a
// closed stream drops the event: complete/error must stay terminal.
func (b *Bus) Publish(executionID string, kind domain.EventKind, data map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.streams[executionID]
	if !ok {
		return ErrStreamNotFound
	}
	if s.closed {
		return nil
	}
	s.events = append(s.events, domain.NewStreamEvent(executionID, kind, data))
	s.wake()
	return nil
}

// Close marks the stream completed and wakes subscribers so they terminate.
// Closing an already-closed or unknown stream is a no-op.
func (b *Bus) Close(executionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.streams[executionID]
	if !ok || s.closed {
		return
	}
	s.closed = true
	s.wake()
}

// wake releases every waiting follower. Caller holds b.mu.
func (s *eventStream) wake() {
	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil
}

// Subscribe returns a channel yielding the stream's cached events in
// recorded order followed by live events until the stream closes, at which
// point the channel is closed. If the stream already closed, the channel
// yields the full cache and ends. The returned channel is also closed when
// ctx is cancelled (client disconnect).
func (b *Bus) Subscribe(ctx context.Context, executionID string) (<-chan domain.StreamEvent, error) {
	b.mu.Lock()
	s, ok := b.streams[executionID]
	b.mu.Unlock()
	if !ok {
		return nil, ErrStreamNotFound
	}

	out := make(chan domain.StreamEvent, 16)
	go func() {
		defer close(out)
		next := 0
		for {
			b.mu.Lock()
			pending := s.events[next:]
			done := s.closed
			var wake chan struct{}
			if len(pending) == 0 && !done {
				wake = make(chan struct{})
				s.waiters = append(s.waiters, wake)
			}
			b.mu.Unlock()

			for _, ev := range pending {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			next += len(pending)

			if len(pending) > 0 {
				continue
			}
			if done {
				return
			}
			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Completed reports whether the stream exists and has closed
func (b *Bus) Completed(executionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.streams[executionID]
	return ok && s.closed
}

// Stats summarizes bus state for observability
type Stats struct {
	OpenStreams      int `json:"open_streams"`
	CompletedStreams int `json:"completed_streams"`
	CachedEvents     int `json:"cached_events"`
}

// GetStats returns a snapshot of bus state
func (b *Bus) GetStats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	var st Stats
	for _, s := range b.streams {
		if s.closed {
			st.CompletedStreams++
		} else {
			st.OpenStreams++
		}
		st.CachedEvents += len(s.events)
	}
	return st
}
