// Package registry tracks in-flight executions. Cancellation is purely
// cooperative: removing an execution only changes what IsLive reports, and
// the engine polls IsLive at each state transition to honor it.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrAlreadyRegistered is returned when registering an execution ID twice
var ErrAlreadyRegistered = errors.New("execution already registered")

// Metadata is the registration snapshot for one execution
type Metadata struct {
	DatasetID string
	TaskID    string
	StartedAt time.Time
}

// Registry tracks which execution IDs are currently live
type Registry struct {
	executions map[string]Metadata
	mu         sync.Mutex
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		executions: make(map[string]Metadata),
	}
}

// Register inserts an execution with liveness=true. Registering an ID twice
// is a programmer error given unique ID generation and is reported as such.
func (r *Registry) Register(executionID, datasetID, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.executions[executionID]; exists {
		return fmt.Errorf("execution %s: %w", executionID, ErrAlreadyRegistered)
	}
	r.executions[executionID] = Metadata{
		DatasetID: datasetID,
		TaskID:    taskID,
		StartedAt: time.Now(),
	}
	return nil
}

// IsLive reports whether the execution is still live. Unknown and removed
// IDs both report false.
func (r *Registry) IsLive(executionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.executions[executionID]
	return ok
}

// Remove drops an execution. Removing an unknown ID is a no-op.
func (r *Registry) Remove(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.executions, executionID)
}

// Count returns the number of live executions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.executions)
}

// Get returns the registration snapshot for an execution, if present
func (r *Registry) Get(executionID string) (Metadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.executions[executionID]
	return meta, ok
}
