package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/n8njson/directory/pkg/cache"
	"github.com/n8njson/directory/pkg/duplicate"
	"github.com/n8njson/directory/pkg/eventbus"
	"github.com/n8njson/directory/pkg/events"
	"github.com/n8njson/directory/pkg/metrics"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/otelhelper"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/slug"
	"github.com/n8njson/directory/pkg/workflowdoc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Provenance labels and defaults for new templates.
const (
	SourceCommunity = "Community Contribution"
	SourceDeveloper = "Developer Upload"
	DefaultUseCase  = "general_automation"
)

const (
	channelCommunity = "community"
	channelDeveloper = "developer"
)

// SubmissionRequest is a community contribution awaiting review.
type SubmissionRequest struct {
	Title              string
	Description        string
	Workflow           map[string]any
	ContributorEmail   string
	ContributorName    string
	ContributorContact string
	ContributorWebsite string
}

// UploadRequest is a developer upload that is published immediately.
type UploadRequest struct {
	Title       string
	Description string
	Workflow    map[string]any
	Source      string
	SourceURL   string
	Categories  []string
	UseCase     string
}

// SubmissionResult describes a stored submission.
type SubmissionResult struct {
	TemplateID       string                      `json:"template_id"`
	Title            string                      `json:"title"`
	NodeCount        int                         `json:"node_count"`
	Status           models.TemplateStatus       `json:"status"`
	SimilarTemplates []duplicate.SimilarTemplate `json:"similar_templates,omitempty"`
}

// Submissions handles template intake and moderation.
type Submissions struct {
	repo      persistence.TemplateRepository
	detector  *duplicate.Detector
	publisher eventbus.EventPublisher
	cache     cache.Cache
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// NewSubmissions creates the submission service. Publisher, cache, tracer and
// metrics may be nil.
func NewSubmissions(
	repo persistence.TemplateRepository,
	publisher eventbus.EventPublisher,
	c cache.Cache,
	logger *slog.Logger,
	tracer trace.Tracer,
	m *metrics.Metrics,
) *Submissions {
	if publisher == nil {
		publisher = eventbus.Noop{}
	}

	if c == nil {
		c = cache.Noop{}
	}

	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Submissions{
		repo:      repo,
		detector:  duplicate.NewDetector(repo, logger),
		publisher: publisher,
		cache:     c,
		logger:    logger.With("module", "submissions"),
		tracer:    tracer,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// SubmitForReview stores a community contribution with pending status.
func (s *Submissions) SubmitForReview(ctx context.Context, req SubmissionRequest) (*SubmissionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "submissions.submit")
	defer span.End()

	template, check, err := s.prepare(ctx, "SubmitForReview", req.Title, req.Description, req.Workflow)
	if err != nil {
		s.fail(ctx, span, channelCommunity, err)

		return nil, err
	}

	template.Status = models.TemplateStatusPending
	template.Source = SourceCommunity
	template.UseCase = DefaultUseCase
	template.ContributorEmail = strings.TrimSpace(req.ContributorEmail)
	template.ContributorName = strings.TrimSpace(req.ContributorName)
	template.ContributorContact = strings.TrimSpace(req.ContributorContact)
	template.ContributorWebsite = strings.TrimSpace(req.ContributorWebsite)

	err = s.repo.Insert(ctx, template)
	if err != nil {
		s.fail(ctx, span, channelCommunity, err)

		return nil, fmt.Errorf("failed to store submission: %w", err)
	}

	similarIDs := make([]string, 0, len(check.SimilarTemplates))
	for _, similar := range check.SimilarTemplates {
		similarIDs = append(similarIDs, similar.ID)
	}

	s.publish(ctx, template.ID, events.TemplateSubmitted{
		BaseEvent:          events.NewBaseEvent(events.TemplateSubmittedEvent, template.ID),
		Title:              template.Title,
		ContributorEmail:   template.ContributorEmail,
		WorkflowHash:       template.WorkflowHash,
		SimilarTemplateIDs: similarIDs,
	})

	s.logger.InfoContext(ctx, "template submitted for review",
		"template_id", template.ID,
		"title", template.Title,
		"similar", len(check.SimilarTemplates))
	s.record(channelCommunity, "accepted")

	return newSubmissionResult(template, check), nil
}

// UploadDeveloper stores a template that is published immediately.
func (s *Submissions) UploadDeveloper(ctx context.Context, req UploadRequest) (*SubmissionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "submissions.upload")
	defer span.End()

	template, check, err := s.prepare(ctx, "UploadDeveloper", req.Title, req.Description, req.Workflow)
	if err != nil {
		s.fail(ctx, span, channelDeveloper, err)

		return nil, err
	}

	template.Status = models.TemplateStatusPublished
	template.Source = cmpOr(req.Source, SourceDeveloper)
	template.SourceURL = req.SourceURL
	if len(req.Categories) > 0 {
		template.Categories = req.Categories
	}
	template.UseCase = cmpOr(req.UseCase, DefaultUseCase)
	template.Slug = slug.Make(template.Title)

	err = s.repo.Insert(ctx, template)
	if err != nil {
		s.fail(ctx, span, channelDeveloper, err)

		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.cacheInvalidate(ctx)
	s.publish(ctx, template.ID, events.TemplatePublished{
		BaseEvent: events.NewBaseEvent(events.TemplatePublishedEvent, template.ID),
		Title:     template.Title,
		Slug:      template.Slug,
		Source:    template.Source,
	})

	s.logger.InfoContext(ctx, "template uploaded", "template_id", template.ID, "title", template.Title)
	s.record(channelDeveloper, "accepted")

	return newSubmissionResult(template, check), nil
}

// prepare validates the shared fields, derives workflow metadata and rejects
// exact duplicates.
func (s *Submissions) prepare(
	ctx context.Context,
	op, title, description string,
	workflow map[string]any,
) (*models.Template, *duplicate.Result, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	switch {
	case title == "":
		return nil, nil, NewValidationError(op, "TITLE_REQUIRED", "title is required", ErrTitleRequired)
	case description == "":
		return nil, nil, NewValidationError(op, "DESCRIPTION_REQUIRED", "description is required", ErrDescriptionRequired)
	case len(workflow) == 0:
		return nil, nil, NewValidationError(op, "WORKFLOW_REQUIRED", "workflow JSON is required", ErrWorkflowRequired)
	}

	err := workflowdoc.Validate(workflow)
	if err != nil {
		return nil, nil, NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidWorkflow)
	}

	meta := workflowdoc.ExtractMetadata(workflow)

	digest, err := duplicate.Hash(workflow)
	if err != nil {
		return nil, nil, NewValidationError(op, "INVALID_WORKFLOW", err.Error(), ErrInvalidWorkflow)
	}

	check, err := s.detector.Check(ctx, digest, title, meta.NodeCount, meta.NodesUsed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}

	if check.IsDuplicate {
		return nil, nil, &DuplicateError{
			Op:            op,
			ExistingID:    check.ExactMatch.ID,
			ExistingTitle: check.ExactMatch.Title,
		}
	}

	now := s.now()

	template := &models.Template{
		ID:           s.newID(),
		Title:        title,
		Description:  description,
		Workflow:     workflow,
		NodeCount:    meta.NodeCount,
		NodesUsed:    meta.NodesUsed,
		Categories:   []string{},
		Complexity:   workflowdoc.DetermineComplexity(meta.NodeCount, meta.NodesUsed),
		HasTriggers:  meta.HasTriggers,
		HasAINodes:   meta.HasAINodes,
		WorkflowHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return template, check, nil
}

// Pending lists templates awaiting review, newest first.
func (s *Submissions) Pending(ctx context.Context) ([]*models.Template, error) {
	result, err := s.repo.Find(ctx, persistence.NewQuery().
		Where(persistence.Eq(persistence.FieldStatus, string(models.TemplateStatusPending))).
		Order(persistence.FieldCreatedAt, true))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending templates: %w", err)
	}

	return result.Templates, nil
}

// Approve publishes a pending template.
func (s *Submissions) Approve(ctx context.Context, id string) (*models.Template, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "submissions.approve",
		attribute.String(otelhelper.TemplateIDKey, id))
	defer span.End()

	stored, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if stored.Status != models.TemplateStatusPending {
		return nil, &ServiceError{
			Op:      "Approve",
			Code:    "TEMPLATE_NOT_PENDING",
			Message: fmt.Sprintf("template %s is not pending review", id),
			Err:     ErrTemplateNotPending,
		}
	}

	approved := *stored
	approved.Status = models.TemplateStatusPublished
	approved.UpdatedAt = s.now()

	if approved.Slug == "" {
		approved.Slug = slug.Make(approved.DisplayTitle())
	}

	err = s.repo.Update(ctx, &approved)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to approve template: %w", err)
	}

	s.cacheInvalidate(ctx)
	s.publish(ctx, approved.ID, events.TemplateApproved{
		BaseEvent: events.NewBaseEvent(events.TemplateApprovedEvent, approved.ID),
		Title:     approved.Title,
		Slug:      approved.Slug,
	})

	s.logger.InfoContext(ctx, "template approved", "template_id", approved.ID)

	return &approved, nil
}

// Reject deletes a template.
func (s *Submissions) Reject(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "submissions.reject",
		attribute.String(otelhelper.TemplateIDKey, id))
	defer span.End()

	stored, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, stored.ID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to reject template: %w", err)
	}

	s.cacheInvalidate(ctx)
	s.publish(ctx, stored.ID, events.TemplateRejected{
		BaseEvent: events.NewBaseEvent(events.TemplateRejectedEvent, stored.ID),
		Title:     stored.Title,
	})

	s.logger.InfoContext(ctx, "template rejected", "template_id", stored.ID)

	return nil
}

func (s *Submissions) get(ctx context.Context, id string) (*models.Template, error) {
	id = strings.ToLower(strings.TrimSpace(id))

	result, err := s.repo.Find(ctx, persistence.NewQuery().
		Where(persistence.Eq(persistence.FieldID, id)).
		Window(0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	if len(result.Templates) == 0 {
		return nil, persistence.NewTemplateError("Get", id, persistence.ErrTemplateNotFound)
	}

	return result.Templates[0], nil
}

func (s *Submissions) publish(ctx context.Context, templateID string, event events.Event) {
	err := s.publisher.Publish(ctx, templateID, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to publish template event", "event_type", event.GetType(), "error", err)
	}
}

func (s *Submissions) cacheInvalidate(ctx context.Context) {
	err := s.cache.Delete(ctx, FilterOptionsKey)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate filter options", "error", err)
	}
}

func (s *Submissions) fail(ctx context.Context, span trace.Span, channel string, err error) {
	var dup *DuplicateError

	switch {
	case errors.As(err, &dup):
		span.SetAttributes(attribute.Bool(otelhelper.IsDuplicateKey, true))
		s.logger.InfoContext(ctx, "duplicate submission rejected", "existing_id", dup.ExistingID)
		s.record(channel, "duplicate")
	case IsValidationError(err):
		s.record(channel, "invalid")
	default:
		otelhelper.SetError(span, err)
		s.logger.ErrorContext(ctx, "submission failed", "error", err)
		s.record(channel, "error")
	}
}

func (s *Submissions) record(channel, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(channel, outcome)
	}
}

func newSubmissionResult(template *models.Template, check *duplicate.Result) *SubmissionResult {
	return &SubmissionResult{
		TemplateID:       template.ID,
		Title:            template.Title,
		NodeCount:        template.NodeCount,
		Status:           template.Status,
		SimilarTemplates: check.SimilarTemplates,
	}
}

func cmpOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}

	return fallback
}
