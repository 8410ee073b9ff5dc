// Package oracle wraps the external code-generation collaborator: plan and
// code generation for a task, repair of failing code, and natural-language
// summaries of results.
package oracle

import (
	"context"

	"github.com/datenai/datalab/internal/domain"
)

// Generation is the oracle's answer to a plan request
type Generation struct {
	Plan        []string `json:"plan"`
	Assumptions []string `json:"assumptions"`
	Code        string   `json:"code"`
	Summary     string   `json:"summary"`
	Followups   []string `json:"followups"`
}

// SuggestionSet is the oracle's answer to a suggestion request
type SuggestionSet struct {
	Suggestions []domain.TaskSuggestion `json:"suggestions"`
	Assumptions []string                `json:"assumptions"`
}

// Oracle is the code-generation collaborator. Every call may fail; the
// caller decides how each failure degrades.
type Oracle interface {
	// GeneratePlan turns a task plus dataset schema into an execution plan
	// with generated code and a draft summary.
	GeneratePlan(ctx context.Context, task domain.TaskDescriptor, schema domain.DatasetSchema) (*Generation, error)

	// Repair attempts to fix failing code given the fault message and the
	// dataset's column/type context.
	Repair(ctx context.Context, code, fault string, schema domain.DatasetSchema) (string, error)

	// Summarize produces a short natural-language summary of the artifacts.
	Summarize(ctx context.Context, artifacts []domain.Artifact, task domain.TaskDescriptor) (string, error)

	// GenerateSuggestions proposes analysis tasks for the dataset, optionally
	// steered by a free-text user goal.
	GenerateSuggestions(ctx context.Context, schema domain.DatasetSchema, goal string) (*SuggestionSet, error)
}
