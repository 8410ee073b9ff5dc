// Package domain defines the core types shared across the analysis engine:
// task descriptors, dataset schemas, stream events, artifacts and terminal
// execution results.
package domain

// EventKind identifies the type of a progress event
type EventKind string

const (
	EventPlanning       EventKind = "planning"
	EventCodeGeneration EventKind = "code_generation"
	EventExecution      EventKind = "execution"
	EventSummary        EventKind = "summary"
	EventComplete       EventKind = "complete"
	EventError          EventKind = "error"
)

// ExecutionStatus is the terminal status of an execution
type ExecutionStatus string

const (
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// TaskDescriptor describes the analysis task a client selected
type TaskDescriptor struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// DatasetSchema is the structural summary of a tabular dataset, passed to
// the oracle so generated code matches the actual columns and types
type DatasetSchema struct {
	Columns    []string          `json:"columns"`
	Dtypes     map[string]string `json:"dtypes"`
	Shape      []int             `json:"shape"`
	SampleRows []map[string]any  `json:"sample_rows,omitempty"`
	NullCounts map[string]int    `json:"null_counts,omitempty"`
}
