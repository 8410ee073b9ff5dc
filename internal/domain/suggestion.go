package domain

// Suggestion categories. Every suggestion surfaced to a client carries one
// of these; free-form categories from the oracle are normalized first.
const (
	CategoryEDA                = "eda"
	CategoryCleaning           = "cleaning"
	CategoryVisualization      = "visualization"
	CategoryFeatureEngineering = "feature_engineering"
	CategoryModeling           = "modeling"
	CategoryStatisticalTesting = "statistical_testing"
)

// TaskSuggestion is one proposed analysis task. Its ID and Title feed
// directly into the TaskDescriptor of a run request.
type TaskSuggestion struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	EstimatedTime string `json:"estimated_time"`
	Priority      string `json:"priority"`
}
