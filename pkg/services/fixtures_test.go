package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence/memory"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type templateOption func(*models.Template)

func withStatus(status models.TemplateStatus) templateOption {
	return func(t *models.Template) { t.Status = status }
}

func withAITitle(title string) templateOption {
	return func(t *models.Template) { t.AITitle = title }
}

func withComplexity(level models.Complexity) templateOption {
	return func(t *models.Template) { t.Complexity = level }
}

func withCategories(categories ...string) templateOption {
	return func(t *models.Template) { t.Categories = categories }
}

func withIndustries(industries ...string) templateOption {
	return func(t *models.Template) { t.AIIndustries = industries }
}

func withUseCase(useCase string) templateOption {
	return func(t *models.Template) { t.UseCase = useCase }
}

func withDescription(description string) templateOption {
	return func(t *models.Template) { t.Description = description }
}

func withApps(apps ...string) templateOption {
	return func(t *models.Template) { t.AIAppsUsed = apps }
}

func withPopularity(score int) templateOption {
	return func(t *models.Template) { t.PopularityScore = score }
}

func withSlug(s string) templateOption {
	return func(t *models.Template) { t.Slug = s }
}

// newTemplate builds a published template created minutes after baseTime.
func newTemplate(id, title string, minutes int, opts ...templateOption) *models.Template {
	template := &models.Template{
		ID:          id,
		Title:       title,
		Description: title + " workflow",
		Status:      models.TemplateStatusPublished,
		Complexity:  models.ComplexitySimple,
		CreatedAt:   baseTime.Add(time.Duration(minutes) * time.Minute),
		UpdatedAt:   baseTime.Add(time.Duration(minutes) * time.Minute),
	}

	for _, opt := range opts {
		opt(template)
	}

	return template
}

func newStore(t *testing.T, templates ...*models.Template) *memory.Persistence {
	t.Helper()

	store := memory.NewPersistence()
	for _, template := range templates {
		require.NoError(t, store.TemplateRepository().Insert(t.Context(), template))
	}

	return store
}

func workflowDoc(name string, types ...string) map[string]any {
	nodes := make([]any, 0, len(types))
	for i, nodeType := range types {
		nodes = append(nodes, map[string]any{
			"name":       nodeType,
			"type":       nodeType,
			"parameters": map[string]any{"index": i},
		})
	}

	return map[string]any{
		"name":        name,
		"nodes":       nodes,
		"connections": map[string]any{},
	}
}
