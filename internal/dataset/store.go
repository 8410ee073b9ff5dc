package dataset

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Meta describes a stored dataset
type Meta struct {
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Store is a thread-safe in-memory dataset store. Uploaded snapshots are
// ephemeral; RemoveExpired drops entries older than the configured TTL.
type Store struct {
	frames map[string]*Frame
	meta   map[string]Meta
	mu     sync.Mutex
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		frames: make(map[string]*Frame),
		meta:   make(map[string]Meta),
	}
}

// Put stores a frame and returns its generated dataset ID
func (s *Store) Put(f *Frame, filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.frames[id] = f
	s.meta[id] = Meta{Filename: filename, UploadedAt: time.Now()}
	return id
}

// Get returns a private copy of the stored frame, so the caller can hand it
// to a script without sharing mutable state across executions.
func (s *Store) Get(id string) (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.frames[id]
	if !ok {
		return nil, false
	}
	return f.Copy(), true
}

// GetMeta returns the metadata recorded at upload time
func (s *Store) GetMeta(id string) (Meta, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meta[id]
	return m, ok
}

// Count returns the number of stored datasets
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// RemoveExpired drops datasets uploaded before now-ttl and reports how many
// were removed. Wired to a cron schedule by the serve command.
func (s *Store) RemoveExpired(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, m := range s.meta {
		if m.UploadedAt.Before(cutoff) {
			delete(s.frames, id)
			delete(s.meta, id)
			removed++
		}
	}
	return removed
}
