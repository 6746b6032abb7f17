package file

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test")
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_HealthCheck(t *testing.T) {
	fp := NewPersistence(t.TempDir())
	require.NoError(t, fp.HealthCheck(t.Context()))

	missing := NewPersistence(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, missing.HealthCheck(t.Context()))
	assert.NoError(t, missing.Close(t.Context()))
}

func TestTemplateRepository_RoundTrip(t *testing.T) {
	testDir := t.TempDir()
	repo := NewPersistence(testDir).TemplateRepository()
	ctx := t.Context()

	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first := &models.Template{
		ID:         "11111111-1111-1111-1111-111111111111",
		Title:      "Invoice Sync",
		Workflow:   map[string]any{"nodes": []any{map[string]any{"type": "n8n-nodes-base.slack"}}},
		Categories: []string{"Finance"},
		Status:     models.TemplateStatusPublished,
		CreatedAt:  created,
	}
	second := &models.Template{
		ID:        "22222222-2222-2222-2222-222222222222",
		Title:     "Pending",
		Status:    models.TemplateStatusPending,
		CreatedAt: created.Add(time.Minute),
	}

	require.NoError(t, repo.Insert(ctx, second))
	require.NoError(t, repo.Insert(ctx, first))
	assert.FileExists(t, filepath.Join(testDir, "templates", first.ID+".json"))

	err := repo.Insert(ctx, first)
	assert.True(t, persistence.IsTemplateAlreadyExists(err))

	result, err := repo.Find(ctx, persistence.NewQuery().WithCount())
	require.NoError(t, err)
	require.Len(t, result.Templates, 2)
	assert.Equal(t, first.ID, result.Templates[0].ID)
	assert.Equal(t, int64(2), result.TotalCount)

	result, err = repo.Find(ctx, persistence.NewQuery().Visible())
	require.NoError(t, err)
	require.Len(t, result.Templates, 1)
	assert.Equal(t, []string{"Finance"}, result.Templates[0].Categories)

	second.Status = models.TemplateStatusPublished
	require.NoError(t, repo.Update(ctx, second))

	result, err = repo.Find(ctx, persistence.NewQuery().Visible())
	require.NoError(t, err)
	assert.Len(t, result.Templates, 2)

	require.NoError(t, repo.Delete(ctx, second.ID))
	assert.True(t, persistence.IsTemplateNotFound(repo.Delete(ctx, second.ID)))
	assert.True(t, persistence.IsTemplateNotFound(repo.Update(ctx, second)))
}

func TestTemplateRepository_EmptyDirectory(t *testing.T) {
	repo := NewTemplateRepository(t.TempDir())

	result, err := repo.Find(t.Context(), persistence.NewQuery().WithCount())
	require.NoError(t, err)
	assert.Empty(t, result.Templates)
	assert.Equal(t, int64(0), result.TotalCount)
}
