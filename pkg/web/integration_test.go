//go:build integration

package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/n8njson/directory/pkg/metrics"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/newsletter"
	"github.com/n8njson/directory/pkg/persistence/postgresql"
	"github.com/n8njson/directory/pkg/services"
	"github.com/n8njson/directory/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "directory_test",
				"POSTGRES_USER":     "directory",
				"POSTGRES_PASSWORD": "directory",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://directory:directory@%s:%s/directory_test?sslmode=disable", host, port.Port())
}

func setupIntegrationApp(t *testing.T, databaseURL string) (*fiber.App, *services.Submissions) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := postgresql.NewPersistence(t.Context(), logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close(context.Background()) })

	m := metrics.New(prometheus.NewRegistry())
	repo := store.TemplateRepository()
	catalog := services.NewCatalog(store, nil, logger, nil, m)
	submissions := services.NewSubmissions(repo, nil, nil, logger, nil, m)

	handlers := web.NewAPIHandlers(
		services.NewResolver(repo, logger, nil, m),
		catalog,
		submissions,
		services.NewNewsletter(newsletter.NewClient(newsletter.Config{}, logger), logger, nil, m),
		validator.New(validator.WithRequiredStructEnabled()),
		logger,
		baseURL,
	)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app, submissions
}

func TestSubmissionLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app, submissions := setupIntegrationApp(t, setupTestDB(t))

	resp, body := doRequest(t, app, http.MethodPost, "/api/templates/submit", web.SubmitTemplateRequest{
		Email:          "grace@example.com",
		FullName:       "Grace Hopper",
		AutomationJSON: contributedWorkflow,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var submitted web.SubmitTemplateResponse
	require.NoError(t, json.Unmarshal(body, &submitted))

	t.Run("pending submissions are hidden", func(t *testing.T) {
		resp, body := doRequest(t, app, http.MethodGet, "/templates", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list web.ListTemplatesResponse
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Empty(t, list.Templates)
		assert.Zero(t, list.Total)

		resp, _ = doRequest(t, app, http.MethodGet, "/templates/"+submitted.TemplateID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("approved submissions are listed and resolvable", func(t *testing.T) {
		approved, err := submissions.Approve(t.Context(), submitted.TemplateID)
		require.NoError(t, err)
		assert.Equal(t, models.TemplateStatusPublished, approved.Status)

		resp, body := doRequest(t, app, http.MethodGet, "/templates?search=invoice", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list web.ListTemplatesResponse
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list.Templates, 1)
		assert.Equal(t, int64(1), list.Total)
		assert.Equal(t, "Intermediate", list.Templates[0].Complexity)

		resp, body = doRequest(t, app, http.MethodGet, "/templates/invoice-reminder", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var page web.TemplateResponse
		require.NoError(t, json.Unmarshal(body, &page))
		assert.Equal(t, submitted.TemplateID, page.Template.ID)
	})

	t.Run("duplicates are rejected across statuses", func(t *testing.T) {
		resp, body := doRequest(t, app, http.MethodPost, "/api/templates/submit", web.SubmitTemplateRequest{
			Email:          "ada@example.com",
			FullName:       "Ada Lovelace",
			AutomationJSON: contributedWorkflow,
		})
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "duplicate_template", decodeProblem(t, body).Type)
	})

	t.Run("rejected submissions are deleted", func(t *testing.T) {
		result, err := submissions.SubmitForReview(t.Context(), services.SubmissionRequest{
			Title:       "Weekly Digest",
			Description: "Sends a weekly digest",
			Workflow: map[string]any{
				"nodes": []any{map[string]any{"name": "Mail", "type": "n8n-nodes-base.gmail"}},
			},
		})
		require.NoError(t, err)

		require.NoError(t, submissions.Reject(t.Context(), result.TemplateID))

		pending, err := submissions.Pending(t.Context())
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}
