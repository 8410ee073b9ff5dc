package tui

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel_SnapshotUpdates(t *testing.T) {
	m := NewModel("http://localhost:8080")

	updated, _ := m.Update(SnapshotMsg{Snapshot: Snapshot{ActiveTasks: 3, Datasets: 2}})
	got := updated.(Model)

	if got.snapshot.ActiveTasks != 3 || got.snapshot.Datasets != 2 {
		t.Errorf("snapshot = %+v", got.snapshot)
	}
	if got.fetchErr != nil {
		t.Errorf("fetchErr = %v, want nil", got.fetchErr)
	}
	if got.lastRefresh.IsZero() {
		t.Error("lastRefresh not set")
	}
}

func TestModel_FetchErrorKeepsLastSnapshot(t *testing.T) {
	m := NewModel("http://localhost:8080")
	updated, _ := m.Update(SnapshotMsg{Snapshot: Snapshot{ActiveTasks: 1}})
	m = updated.(Model)

	updated, _ = m.Update(SnapshotMsg{Err: errors.New("connection refused")})
	got := updated.(Model)

	if got.fetchErr == nil {
		t.Error("fetchErr not recorded")
	}
	if got.snapshot.ActiveTasks != 1 {
		t.Error("stale snapshot discarded on fetch error")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := NewModel("http://localhost:8080")

	for _, key := range []string{"q", "ctrl+c", "esc"} {
		var msg tea.KeyMsg
		switch key {
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Errorf("key %q returned no command, want quit", key)
		}
	}
}

func TestModel_TickSchedulesRefresh(t *testing.T) {
	m := NewModel("http://localhost:8080")
	_, cmd := m.Update(TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick returned no command, want fetch + next tick")
	}
}

func TestFetchCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{
			"status": "healthy",
			"system": {
				"datasets": {"count": 4},
				"results": {"count": 9},
				"streaming": {"open_streams": 1, "completed_streams": 7, "cached_events": 42},
				"execution": {"active_tasks": 2}
			}
		}`))
	}))
	defer srv.Close()

	msg := fetchCmd(srv.URL)()
	snap, ok := msg.(SnapshotMsg)
	if !ok {
		t.Fatalf("msg type = %T", msg)
	}
	if snap.Err != nil {
		t.Fatal(snap.Err)
	}
	want := Snapshot{ActiveTasks: 2, Datasets: 4, Results: 9, OpenStreams: 1, CompletedStreams: 7, CachedEvents: 42}
	if snap.Snapshot != want {
		t.Errorf("snapshot = %+v, want %+v", snap.Snapshot, want)
	}
}

func TestFetchCmd_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	msg := fetchCmd(srv.URL)()
	if snap := msg.(SnapshotMsg); snap.Err == nil {
		t.Error("server error produced no fetch error")
	}
}

func TestView_RendersStats(t *testing.T) {
	m := NewModel("http://localhost:8080")
	updated, _ := m.Update(SnapshotMsg{Snapshot: Snapshot{ActiveTasks: 3}})
	m = updated.(Model)

	out := m.View()
	if !strings.Contains(out, "Active executions") {
		t.Error("view missing stats rows")
	}
	if !strings.Contains(out, "3") {
		t.Error("view missing active count")
	}
}

func TestView_RendersFetchError(t *testing.T) {
	m := NewModel("http://localhost:9999")
	updated, _ := m.Update(SnapshotMsg{Err: errors.New("connection refused")})
	m = updated.(Model)

	if !strings.Contains(m.View(), "cannot reach server") {
		t.Error("view missing error banner")
	}
}
