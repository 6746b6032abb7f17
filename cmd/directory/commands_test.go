package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/persistence/file"
	"github.com/n8njson/directory/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadWorkflow = `{
	"name": "Daily Standup Digest",
	"nodes": [
		{"name": "Every morning", "type": "n8n-nodes-base.scheduleTrigger"},
		{"name": "Post", "type": "n8n-nodes-base.slack"}
	],
	"connections": {}
}`

func runAdmin(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := newRootCommand()
	command.Writer = &out
	command.ErrWriter = io.Discard

	argv := append([]string{"directory", "--database-url", "file://" + dataDir, "--log-level", "error"}, args...)
	err := command.Run(context.Background(), argv)

	return out.String(), err
}

func findAll(t *testing.T, dataDir string) []*models.Template {
	t.Helper()

	result, err := file.NewPersistence(dataDir).TemplateRepository().Find(context.Background(), persistence.NewQuery())
	require.NoError(t, err)

	return result.Templates
}

func TestUploadCommand(t *testing.T) {
	dataDir := t.TempDir()
	workflowPath := filepath.Join(t.TempDir(), "workflow.json")
	require.NoError(t, os.WriteFile(workflowPath, []byte(uploadWorkflow), 0o600))

	out, err := runAdmin(t, dataDir, "upload",
		"--description", "Posts a digest to Slack every morning",
		"--category", "Productivity",
		"--category", "Communication",
		workflowPath,
	)
	require.NoError(t, err)
	assert.Contains(t, out, `"Daily Standup Digest" (2 nodes)`)

	stored := findAll(t, dataDir)
	require.Len(t, stored, 1)
	assert.Equal(t, models.TemplateStatusPublished, stored[0].Status)
	assert.Equal(t, "daily-standup-digest", stored[0].Slug)
	assert.Equal(t, []string{"Productivity", "Communication"}, stored[0].Categories)
	assert.Equal(t, services.SourceDeveloper, stored[0].Source)

	_, err = runAdmin(t, dataDir, "upload", "--description", "again", workflowPath)
	require.ErrorIs(t, err, services.ErrDuplicateTemplate)
}

func TestUploadCommand_Errors(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runAdmin(t, dataDir, "upload", "--description", "d")
	require.Error(t, err)

	_, err = runAdmin(t, dataDir, "upload", "--description", "d", filepath.Join(dataDir, "missing.json"))
	require.ErrorContains(t, err, "failed to read workflow file")
}

func TestReviewCommands(t *testing.T) {
	dataDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	submissions := services.NewSubmissions(file.NewPersistence(dataDir).TemplateRepository(), nil, nil, logger, nil, nil)

	submit := func(title, nodeType string) string {
		result, err := submissions.SubmitForReview(context.Background(), services.SubmissionRequest{
			Title:            title,
			Description:      title + " description",
			Workflow:         map[string]any{"nodes": []any{map[string]any{"name": "n", "type": nodeType}}},
			ContributorName:  "Grace Hopper",
			ContributorEmail: "grace@example.com",
		})
		require.NoError(t, err)

		return result.TemplateID
	}

	keepID := submit("Invoice Reminder", "n8n-nodes-base.gmail")
	dropID := submit("Spam Blaster", "n8n-nodes-base.twitter")

	out, err := runAdmin(t, dataDir, "pending")
	require.NoError(t, err)
	assert.Contains(t, out, keepID)
	assert.Contains(t, out, dropID)
	assert.Contains(t, out, "Grace Hopper <grace@example.com>")

	out, err = runAdmin(t, dataDir, "approve", keepID)
	require.NoError(t, err)
	assert.Contains(t, out, "/template/invoice-reminder")

	out, err = runAdmin(t, dataDir, "reject", dropID)
	require.NoError(t, err)
	assert.Contains(t, out, "rejected "+dropID)

	stored := findAll(t, dataDir)
	require.Len(t, stored, 1)
	assert.Equal(t, keepID, stored[0].ID)
	assert.Equal(t, models.TemplateStatusPublished, stored[0].Status)

	_, err = runAdmin(t, dataDir, "approve", keepID)
	require.ErrorIs(t, err, services.ErrTemplateNotPending)

	_, err = runAdmin(t, dataDir, "reject")
	require.ErrorIs(t, err, errMissingID)
}
