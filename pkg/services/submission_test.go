package services

import (
	"errors"
	"testing"
	"time"

	"github.com/n8njson/directory/pkg/events"
	"github.com/n8njson/directory/pkg/mocks"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSubmissions(t *testing.T, store *memory.Persistence, bus *mocks.MockEventBus) *Submissions {
	t.Helper()

	submissions := NewSubmissions(store.TemplateRepository(), bus, nil, testLogger(), nil, nil)
	submissions.now = func() time.Time { return baseTime }

	return submissions
}

func TestSubmissions_SubmitForReview(t *testing.T) {
	store := newStore(t)
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.TemplateSubmitted")).Return(nil)

	submissions := newTestSubmissions(t, store, bus)

	result, err := submissions.SubmitForReview(t.Context(), SubmissionRequest{
		Title:            "Slack to Notion Sync",
		Description:      "Copies starred Slack messages into Notion",
		Workflow:         workflowDoc("Slack to Notion Sync", "n8n-nodes-base.slackTrigger", "n8n-nodes-base.notion"),
		ContributorEmail: " ada@example.com ",
		ContributorName:  "Ada",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.TemplateID)
	assert.Equal(t, models.TemplateStatusPending, result.Status)
	assert.Equal(t, 2, result.NodeCount)

	found, err := store.TemplateRepository().Find(t.Context(), persistence.NewQuery().
		Where(persistence.Eq(persistence.FieldID, result.TemplateID)))
	require.NoError(t, err)
	require.Len(t, found.Templates, 1)

	stored := found.Templates[0]
	assert.Equal(t, SourceCommunity, stored.Source)
	assert.Equal(t, DefaultUseCase, stored.UseCase)
	assert.Equal(t, "ada@example.com", stored.ContributorEmail)
	assert.True(t, stored.HasTriggers)
	assert.NotEmpty(t, stored.WorkflowHash)
	assert.Equal(t, baseTime, stored.CreatedAt)

	bus.AssertCalled(t, "Publish", mock.Anything, result.TemplateID, mock.MatchedBy(func(e events.TemplateSubmitted) bool {
		return e.TemplateID == result.TemplateID && e.WorkflowHash == stored.WorkflowHash
	}))
}

func TestSubmissions_SubmitForReview_PendingIsNotVisible(t *testing.T) {
	store := newStore(t)
	submissions := NewSubmissions(store.TemplateRepository(), nil, nil, testLogger(), nil, nil)

	result, err := submissions.SubmitForReview(t.Context(), SubmissionRequest{
		Title:       "Hidden Flow",
		Description: "Not yet reviewed",
		Workflow:    workflowDoc("Hidden Flow", "n8n-nodes-base.set"),
	})
	require.NoError(t, err)

	resolver := NewResolver(store.TemplateRepository(), testLogger(), nil, nil)

	_, err = resolver.Resolve(t.Context(), result.TemplateID)
	assert.True(t, persistence.IsTemplateNotFound(err))
}

func TestSubmissions_Validation(t *testing.T) {
	submissions := NewSubmissions(newStore(t).TemplateRepository(), nil, nil, testLogger(), nil, nil)

	valid := workflowDoc("Valid", "n8n-nodes-base.set")

	tests := []struct {
		name    string
		request SubmissionRequest
		wantErr error
	}{
		{"missing title", SubmissionRequest{Description: "d", Workflow: valid}, ErrTitleRequired},
		{"blank title", SubmissionRequest{Title: "  ", Description: "d", Workflow: valid}, ErrTitleRequired},
		{"missing description", SubmissionRequest{Title: "t", Workflow: valid}, ErrDescriptionRequired},
		{"missing workflow", SubmissionRequest{Title: "t", Description: "d"}, ErrWorkflowRequired},
		{"no nodes", SubmissionRequest{Title: "t", Description: "d", Workflow: map[string]any{"nodes": []any{}}}, ErrInvalidWorkflow},
		{"node without type", SubmissionRequest{
			Title: "t", Description: "d",
			Workflow: map[string]any{"nodes": []any{map[string]any{"name": "x"}}},
		}, ErrInvalidWorkflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := submissions.SubmitForReview(t.Context(), tt.request)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestSubmissions_ExactDuplicate(t *testing.T) {
	store := newStore(t)
	submissions := NewSubmissions(store.TemplateRepository(), nil, nil, testLogger(), nil, nil)

	doc := workflowDoc("Slack to Notion Sync", "n8n-nodes-base.slack", "n8n-nodes-base.notion")

	_, err := submissions.UploadDeveloper(t.Context(), UploadRequest{
		Title:       "Slack to Notion Sync",
		Description: "Original",
		Workflow:    doc,
	})
	require.NoError(t, err)

	// Same structure with keys in a different order.
	reordered := map[string]any{
		"connections": map[string]any{},
		"nodes":       doc["nodes"],
		"name":        "Slack to Notion Sync",
	}

	_, err = submissions.SubmitForReview(t.Context(), SubmissionRequest{
		Title:       "Another Title",
		Description: "Copy",
		Workflow:    reordered,
	})
	require.Error(t, err)

	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Slack to Notion Sync", dup.ExistingTitle)
	assert.True(t, IsConflictError(err))
	assert.ErrorIs(t, err, ErrDuplicateTemplate)
}

func TestSubmissions_SimilarTemplatesReported(t *testing.T) {
	store := newStore(t)
	submissions := NewSubmissions(store.TemplateRepository(), nil, nil, testLogger(), nil, nil)

	first, err := submissions.UploadDeveloper(t.Context(), UploadRequest{
		Title:       "Slack to Notion Sync",
		Description: "Original",
		Workflow: workflowDoc("Slack to Notion Sync",
			"n8n-nodes-base.slack", "n8n-nodes-base.notion", "n8n-nodes-base.set",
			"n8n-nodes-base.if", "n8n-nodes-base.cron"),
	})
	require.NoError(t, err)

	result, err := submissions.SubmitForReview(t.Context(), SubmissionRequest{
		Title:       "Slack Notion Mirror",
		Description: "Nearly the same",
		Workflow: workflowDoc("Slack Notion Mirror",
			"n8n-nodes-base.slack", "n8n-nodes-base.notion", "n8n-nodes-base.set",
			"n8n-nodes-base.if", "n8n-nodes-base.wait"),
	})
	require.NoError(t, err)

	require.Len(t, result.SimilarTemplates, 1)
	assert.Equal(t, first.TemplateID, result.SimilarTemplates[0].ID)
	assert.InDelta(t, 0.8, result.SimilarTemplates[0].Similarity, 1e-9)
}

func TestSubmissions_UploadDeveloper(t *testing.T) {
	store := newStore(t)
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.AnythingOfType("events.TemplatePublished")).Return(nil)

	submissions := newTestSubmissions(t, store, bus)

	result, err := submissions.UploadDeveloper(t.Context(), UploadRequest{
		Title:       "Gmail & Slack Alerts",
		Description: "Forward labelled mail",
		Workflow:    workflowDoc("Gmail & Slack Alerts", "n8n-nodes-base.gmailTrigger", "n8n-nodes-base.slack"),
		Categories:  []string{"Communication"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TemplateStatusPublished, result.Status)

	resolver := NewResolver(store.TemplateRepository(), testLogger(), nil, nil)

	template, err := resolver.Resolve(t.Context(), "gmail-slack-alerts")
	require.NoError(t, err)
	assert.Equal(t, result.TemplateID, template.ID)
	assert.Equal(t, SourceDeveloper, template.Source)
	assert.Equal(t, DefaultUseCase, template.UseCase)
	assert.Equal(t, []string{"Communication"}, template.Categories)

	bus.AssertExpectations(t)
}

func TestSubmissions_ApproveAndReject(t *testing.T) {
	pending := newTemplate(pendingID, "Pending Invoice Flow", 1, withStatus(models.TemplateStatusPending))
	published := newTemplate(slackNotionID, "Slack to Notion Sync", 2)
	rejected := newTemplate(gmailSlackID, "Spam Flow", 3, withStatus(models.TemplateStatusPending))

	store := newStore(t, pending, published, rejected)
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	submissions := newTestSubmissions(t, store, bus)
	submissions.now = func() time.Time { return baseTime.Add(time.Hour) }

	queue, err := submissions.Pending(t.Context())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, gmailSlackID, queue[0].ID)

	approved, err := submissions.Approve(t.Context(), pendingID)
	require.NoError(t, err)
	assert.Equal(t, models.TemplateStatusPublished, approved.Status)
	assert.Equal(t, baseTime.Add(time.Hour), approved.UpdatedAt)
	assert.Equal(t, "pending-invoice-flow", approved.Slug)

	resolver := NewResolver(store.TemplateRepository(), testLogger(), nil, nil)

	visible, err := resolver.Resolve(t.Context(), "pending-invoice-flow")
	require.NoError(t, err)
	assert.Equal(t, pendingID, visible.ID)

	_, err = submissions.Approve(t.Context(), slackNotionID)
	assert.ErrorIs(t, err, ErrTemplateNotPending)
	assert.True(t, IsConflictError(err))

	require.NoError(t, submissions.Reject(t.Context(), gmailSlackID))

	err = submissions.Reject(t.Context(), gmailSlackID)
	assert.True(t, persistence.IsTemplateNotFound(err))

	queue, err = submissions.Pending(t.Context())
	require.NoError(t, err)
	assert.Empty(t, queue)

	bus.AssertNumberOfCalls(t, "Publish", 2)
}

func TestSubmissions_PublishFailureDoesNotFailSubmission(t *testing.T) {
	store := newStore(t)
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	submissions := newTestSubmissions(t, store, bus)

	_, err := submissions.SubmitForReview(t.Context(), SubmissionRequest{
		Title:       "Resilient Flow",
		Description: "Still stored",
		Workflow:    workflowDoc("Resilient Flow", "n8n-nodes-base.set"),
	})
	require.NoError(t, err)
}

func TestSubmissions_InsertFailure(t *testing.T) {
	repo := &mocks.MockTemplateRepository{}
	repo.On("Find", mock.Anything, mock.Anything).Return(&persistence.FindResult{}, nil)
	repo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	submissions := NewSubmissions(repo, nil, nil, testLogger(), nil, nil)

	_, err := submissions.SubmitForReview(t.Context(), SubmissionRequest{
		Title:       "Doomed Flow",
		Description: "Never stored",
		Workflow:    workflowDoc("Doomed Flow", "n8n-nodes-base.set"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store submission")
	assert.False(t, IsValidationError(err))
	assert.False(t, IsConflictError(err))
}
