// Package suggest proposes analysis tasks for a dataset: a curated,
// relevance-ranked catalog per analysis path, supplemented by oracle-
// generated suggestions. Catalog tasks win ties; the oracle only adds
// tasks the catalog does not already cover. An oracle failure degrades to
// the catalog alone, it never fails the request.
package suggest

import (
	"context"
	"log/slog"
	"strings"

	"github.com/datenai/datalab/internal/domain"
	"github.com/datenai/datalab/internal/oracle"
)

const (
	// maxCatalogTasks bounds the ranked catalog contribution
	maxCatalogTasks = 8
	// maxSuggestions bounds the combined response
	maxSuggestions = 10
)

// Service combines the catalog with the oracle's suggestions
type Service struct {
	oracle oracle.Oracle
	log    *slog.Logger
}

// NewService creates a suggestion service
func NewService(orc oracle.Oracle, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{oracle: orc, log: log}
}

// Request describes one suggestion query
type Request struct {
	Schema domain.DatasetSchema
	Goal   string
	Path   string
}

// Response is the combined suggestion set
type Response struct {
	Suggestions []domain.TaskSuggestion `json:"suggestions"`
	Assumptions []string                `json:"assumptions"`
}

// Suggest returns up to maxSuggestions tasks for the dataset: the ranked
// catalog first, then deduplicated oracle suggestions with normalized
// categories.
func (s *Service) Suggest(ctx context.Context, req Request) Response {
	combined := relevantTasks(req.Path, req.Schema, maxCatalogTasks)
	seen := make(map[string]bool, maxSuggestions)
	for _, t := range combined {
		seen[t.ID] = true
	}

	var assumptions []string
	set, err := s.oracle.GenerateSuggestions(ctx, req.Schema, req.Goal)
	if err != nil {
		s.log.Warn("suggestion generation failed, serving catalog only", "error", err)
		assumptions = []string{"Using rule-based suggestions based on dataset characteristics"}
	} else {
		assumptions = set.Assumptions
		for _, t := range set.Suggestions {
			if t.ID == "" || seen[t.ID] {
				continue
			}
			t.Category = normalizeCategory(t.Category)
			combined = append(combined, t)
			seen[t.ID] = true
		}
	}

	if len(combined) > maxSuggestions {
		combined = combined[:maxSuggestions]
	}
	return Response{Suggestions: combined, Assumptions: assumptions}
}

// normalizeCategory maps a free-form oracle category onto the known set.
// The oracle sometimes echoes the whole "a|b|c" choice list or invents
// variants like "machine_learning".
func normalizeCategory(category string) string {
	switch category {
	case domain.CategoryEDA, domain.CategoryCleaning, domain.CategoryVisualization,
		domain.CategoryFeatureEngineering, domain.CategoryModeling, domain.CategoryStatisticalTesting:
		return category
	}

	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "clean"):
		return domain.CategoryCleaning
	case strings.Contains(lower, "visual"):
		return domain.CategoryVisualization
	case strings.Contains(lower, "feature"):
		return domain.CategoryFeatureEngineering
	case strings.Contains(lower, "model"), strings.Contains(lower, "ml"):
		return domain.CategoryModeling
	case strings.Contains(lower, "stat"):
		return domain.CategoryStatisticalTesting
	default:
		return domain.CategoryEDA
	}
}
