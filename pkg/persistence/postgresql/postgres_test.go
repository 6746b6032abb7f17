package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/persistence/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"templates", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("directory_test"),
			postgres.WithUsername("directory"),
			postgres.WithPassword("directory"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)
		require.NoError(t, store.Close(ctx))
		cancel()
	})

	return store, ctx
}

func newTemplate(title string, created time.Time) *models.Template {
	return &models.Template{
		ID:          uuid.NewString(),
		Title:       title,
		Description: title + " description",
		Workflow:    map[string]any{"nodes": []any{map[string]any{"type": "n8n-nodes-base.slack"}}},
		NodeCount:   1,
		NodesUsed:   []string{"n8n-nodes-base.slack"},
		Complexity:  models.ComplexitySimple,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	store, ctx := setupTestDB(t)

	require.NoError(t, store.HealthCheck(ctx))
}

func TestTemplateRepository_CRUD(t *testing.T) {
	store, ctx := setupTestDB(t)
	repo := store.TemplateRepository()

	template := newTemplate("Invoice Sync", time.Now().UTC().Truncate(time.Microsecond))
	template.AIAppsUsed = []string{"Slack", "QuickBooks"}
	template.Status = models.TemplateStatusPending
	template.ContributorEmail = "dev@example.com"

	require.NoError(t, repo.Insert(ctx, template))

	err := repo.Insert(ctx, template)
	assert.True(t, persistence.IsTemplateAlreadyExists(err))

	result, err := repo.Find(ctx, persistence.NewQuery().Where(persistence.Eq(persistence.FieldID, template.ID)))
	require.NoError(t, err)
	require.Len(t, result.Templates, 1)

	got := result.Templates[0]
	assert.Equal(t, template.Title, got.Title)
	assert.Equal(t, template.AIAppsUsed, got.AIAppsUsed)
	assert.Equal(t, models.TemplateStatusPending, got.Status)
	assert.Equal(t, "dev@example.com", got.ContributorEmail)
	assert.Equal(t, template.Workflow, got.Workflow)
	assert.Nil(t, got.AITags)

	template.Status = models.TemplateStatusPublished
	require.NoError(t, repo.Update(ctx, template))

	missing := newTemplate("Missing", time.Now())
	assert.True(t, persistence.IsTemplateNotFound(repo.Update(ctx, missing)))

	require.NoError(t, repo.Delete(ctx, template.ID))
	assert.True(t, persistence.IsTemplateNotFound(repo.Delete(ctx, template.ID)))
}

func TestTemplateRepository_Find(t *testing.T) {
	store, ctx := setupTestDB(t)
	repo := store.TemplateRepository()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	published := newTemplate("Invoice 100% Sync", base)
	published.Status = models.TemplateStatusPublished
	published.AIAppsUsed = []string{"Slack"}
	published.PopularityScore = 5

	legacy := newTemplate("Lead Router", base.Add(time.Hour))
	legacy.AITitle = "Route Leads"
	legacy.Categories = []string{"Sales"}
	legacy.PopularityScore = 50

	pending := newTemplate("Pending Invoice", base.Add(2*time.Hour))
	pending.Status = models.TemplateStatusPending

	for _, template := range []*models.Template{published, legacy, pending} {
		require.NoError(t, repo.Insert(ctx, template))
	}

	tests := []struct {
		name  string
		query *persistence.Query
		want  []string
		total int64
	}{
		{
			name:  "visible includes null status",
			query: persistence.NewQuery().Visible().WithCount(),
			want:  []string{published.ID, legacy.ID},
			total: 2,
		},
		{
			name:  "ilike escapes wildcards",
			query: persistence.NewQuery().Where(persistence.ILike(persistence.FieldTitle, "100%")),
			want:  []string{published.ID},
		},
		{
			name:  "ieq on ai title",
			query: persistence.NewQuery().Where(persistence.IEq(persistence.FieldAITitle, "route leads")),
			want:  []string{legacy.ID},
		},
		{
			name:  "contains fold on list column",
			query: persistence.NewQuery().Where(persistence.ContainsFold(persistence.FieldAppsUsed, "SLACK")),
			want:  []string{published.ID},
		},
		{
			name:  "contains is case sensitive",
			query: persistence.NewQuery().Where(persistence.Contains(persistence.FieldCategories, "sales")),
			want:  []string{},
		},
		{
			name:  "popularity descending with window",
			query: persistence.NewQuery().Order(persistence.FieldPopularity, true).Window(1, 1).WithCount(),
			want:  []string{published.ID},
			total: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.Find(ctx, tt.query)
			require.NoError(t, err)

			ids := make([]string, 0, len(result.Templates))
			for _, template := range result.Templates {
				ids = append(ids, template.ID)
			}

			assert.Equal(t, tt.want, ids)
			assert.Equal(t, tt.total, result.TotalCount)
		})
	}
}
