// Package tui renders a live terminal dashboard for a running datalab
// server, polling its status and health endpoints.
package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshInterval is how often the dashboard polls the server
const refreshInterval = 2 * time.Second

// Snapshot is the server state shown by the dashboard
type Snapshot struct {
	ActiveTasks      int
	Datasets         int
	Results          int
	OpenStreams      int
	CompletedStreams int
	CachedEvents     int
}

// Model is the TUI application model
type Model struct {
	apiURL string

	snapshot    Snapshot
	fetchErr    error
	lastRefresh time.Time

	width  int
	height int
}

// NewModel creates a dashboard model for the given server base URL
func NewModel(apiURL string) Model {
	return Model{apiURL: apiURL}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchCmd(m.apiURL), tickCmd())
}

// TickMsg triggers a refresh
type TickMsg time.Time

// SnapshotMsg carries freshly fetched server state
type SnapshotMsg struct {
	Snapshot Snapshot
	Err      error
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, fetchCmd(m.apiURL)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tea.Batch(fetchCmd(m.apiURL), tickCmd())

	case SnapshotMsg:
		m.fetchErr = msg.Err
		if msg.Err == nil {
			m.snapshot = msg.Snapshot
			m.lastRefresh = time.Now()
		}
	}
	return m, nil
}

// healthResponse mirrors GET /api/health
type healthResponse struct {
	System struct {
		Datasets struct {
			Count int `json:"count"`
		} `json:"datasets"`
		Results struct {
			Count int `json:"count"`
		} `json:"results"`
		Streaming struct {
			OpenStreams      int `json:"open_streams"`
			CompletedStreams int `json:"completed_streams"`
			CachedEvents     int `json:"cached_events"`
		} `json:"streaming"`
		Execution struct {
			ActiveTasks int `json:"active_tasks"`
		} `json:"execution"`
	} `json:"system"`
}

func fetchCmd(apiURL string) tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(apiURL + "/api/health")
		if err != nil {
			return SnapshotMsg{Err: err}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return SnapshotMsg{Err: fmt.Errorf("server returned %s", resp.Status)}
		}

		var health healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return SnapshotMsg{Err: err}
		}

		return SnapshotMsg{Snapshot: Snapshot{
			ActiveTasks:      health.System.Execution.ActiveTasks,
			Datasets:         health.System.Datasets.Count,
			Results:          health.System.Results.Count,
			OpenStreams:      health.System.Streaming.OpenStreams,
			CompletedStreams: health.System.Streaming.CompletedStreams,
			CachedEvents:     health.System.Streaming.CachedEvents,
		}}
	}
}

// Run starts the dashboard program
func Run(apiURL string) error {
	p := tea.NewProgram(NewModel(apiURL), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
