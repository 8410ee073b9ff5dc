package domain

// ExecutionResult is the terminal record of one execution. It is created
// exactly once, on the terminal transition, and never mutated afterwards.
// DatasetID and DatasetSchema carry enough of the originating request to
// support a dependent follow-on execution.
type ExecutionResult struct {
	ExecutionID   string          `json:"task_execution_id"`
	Status        ExecutionStatus `json:"status"`
	Plan          []string        `json:"plan,omitempty"`
	Assumptions   []string        `json:"assumptions,omitempty"`
	Code          string          `json:"code,omitempty"`
	Artifacts     []Artifact      `json:"artifacts,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	Followups     []string        `json:"followups,omitempty"`
	Error         string          `json:"error,omitempty"`
	ElapsedSecs   float64         `json:"execution_time"`
	DatasetID     string          `json:"file_id,omitempty"`
	DatasetSchema *DatasetSchema  `json:"dataset_schema,omitempty"`
}
