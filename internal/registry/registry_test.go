package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestRegistry_RegisterAndIsLive(t *testing.T) {
	r := New()

	if err := r.Register("exec-1", "ds-1", "task-1"); err != nil {
		t.Fatal(err)
	}

	if !r.IsLive("exec-1") {
		t.Error("IsLive(exec-1) = false, want true")
	}
	if r.IsLive("unknown") {
		t.Error("IsLive(unknown) = true, want false")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistry_DuplicateRegisterFails(t *testing.T) {
	r := New()

	if err := r.Register("exec-1", "ds-1", "task-1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("exec-1", "ds-2", "task-2"); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate Register error = %v, want ErrAlreadyRegistered", err)
	}
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := New()
	r.Register("exec-1", "ds-1", "task-1")

	r.Remove("exec-1")
	if r.IsLive("exec-1") {
		t.Error("IsLive after Remove = true, want false")
	}

	// Second remove and removing an unknown ID are both no-ops
	r.Remove("exec-1")
	r.Remove("never-existed")

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0", r.Count())
	}
}

func TestRegistry_Metadata(t *testing.T) {
	r := New()
	r.Register("exec-1", "ds-1", "task-1")

	meta, ok := r.Get("exec-1")
	if !ok {
		t.Fatal("Get(exec-1) not found")
	}
	if meta.DatasetID != "ds-1" || meta.TaskID != "task-1" {
		t.Errorf("metadata = %+v, want ds-1/task-1", meta)
	}
	if meta.StartedAt.IsZero() {
		t.Error("StartedAt is zero")
	}

	if _, ok := r.Get("unknown"); ok {
		t.Error("Get(unknown) found, want absent")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("exec-%d", n)
			r.Register(id, "ds", "task")
			r.IsLive(id)
			r.Count()
			r.Remove(id)
		}(i)
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("Count() = %d, want 0 after all removed", r.Count())
	}
}
