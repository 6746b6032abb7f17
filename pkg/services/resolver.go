package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/n8njson/directory/pkg/metrics"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/otelhelper"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/slug"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	exactCandidateLimit     = 20
	substringCandidateLimit = 50
	minSlugTokenLength      = 3
)

var templateIDPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// IsTemplateID reports whether s has the 8-4-4-4-12 hexadecimal id shape.
func IsTemplateID(s string) bool {
	return templateIDPattern.MatchString(s)
}

// Resolver maps an id or slug to a single visible template.
type Resolver struct {
	repo    persistence.TemplateRepository
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. Tracer and metrics may be nil.
func NewResolver(repo persistence.TemplateRepository, logger *slog.Logger, tracer trace.Tracer, m *metrics.Metrics) *Resolver {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Resolver{
		repo:    repo,
		logger:  logger.With("module", "resolver"),
		tracer:  tracer,
		metrics: m,
	}
}

// Resolve finds the visible template addressed by idOrSlug. The id form is
// tried first; anything else is treated as a slug.
func (r *Resolver) Resolve(ctx context.Context, idOrSlug string) (*models.Template, error) {
	input := strings.TrimSpace(idOrSlug)

	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "resolver.resolve",
		attribute.String(otelhelper.TemplateSlugKey, input))
	defer span.End()

	form := "slug"
	if IsTemplateID(input) {
		form = "id"
	}

	var (
		template *models.Template
		err      error
	)

	switch {
	case input == "":
		err = persistence.NewTemplateError("Resolve", "", persistence.ErrTemplateNotFound)
	case form == "id":
		template, err = r.byID(ctx, strings.ToLower(input))
	default:
		template, err = r.bySlug(ctx, strings.ToLower(input))
	}

	if err != nil {
		r.record(form, err)

		if !persistence.IsTemplateNotFound(err) {
			otelhelper.SetError(span, err)
		}

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.TemplateIDKey, template.ID))
	r.record(form, nil)

	return template, nil
}

func (r *Resolver) byID(ctx context.Context, id string) (*models.Template, error) {
	query := persistence.NewQuery().
		Where(persistence.Eq(persistence.FieldID, id)).
		Visible().
		Window(0, 1)

	result, err := r.repo.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template: %w", err)
	}

	if len(result.Templates) == 0 {
		return nil, persistence.NewTemplateError("Resolve", id, persistence.ErrTemplateNotFound)
	}

	return result.Templates[0], nil
}

func (r *Resolver) bySlug(ctx context.Context, input string) (*models.Template, error) {
	guess := slug.TitleGuess(input)

	exact := persistence.NewQuery().
		Where(
			persistence.IEq(persistence.FieldTitle, guess),
			persistence.IEq(persistence.FieldAITitle, guess),
			persistence.Eq(persistence.FieldSlug, input),
		).
		Visible().
		Window(0, exactCandidateLimit)

	result, err := r.repo.Find(ctx, exact)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template: %w", err)
	}

	candidates := result.Templates

	if len(candidates) == 0 {
		group := substringConditions(input)
		if len(group) == 0 {
			return nil, persistence.NewTemplateError("Resolve", "", persistence.ErrTemplateNotFound)
		}

		fallback := persistence.NewQuery().
			Where(group...).
			Visible().
			Window(0, substringCandidateLimit)

		result, err = r.repo.Find(ctx, fallback)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve template: %w", err)
		}

		candidates = result.Templates
	}

	for _, candidate := range candidates {
		if slugMatches(candidate, input) {
			return candidate, nil
		}
	}

	r.logger.DebugContext(ctx, "no template matched slug", "slug", input, "candidates", len(candidates))

	return nil, persistence.NewTemplateError("Resolve", "", persistence.ErrTemplateNotFound)
}

func substringConditions(input string) []persistence.Condition {
	var conditions []persistence.Condition

	for token := range strings.SplitSeq(input, "-") {
		if len(token) < minSlugTokenLength {
			continue
		}

		conditions = append(conditions,
			persistence.ILike(persistence.FieldTitle, token),
			persistence.ILike(persistence.FieldAITitle, token),
		)
	}

	return conditions
}

func slugMatches(t *models.Template, input string) bool {
	if t.Slug != "" && t.Slug == input {
		return true
	}

	if slug.Make(t.Title) == input {
		return true
	}

	return t.AITitle != "" && slug.Make(t.AITitle) == input
}

func (r *Resolver) record(form string, err error) {
	if r.metrics == nil {
		return
	}

	result := "found"

	switch {
	case err == nil:
	case persistence.IsTemplateNotFound(err):
		result = "not_found"
	default:
		result = "error"
	}

	r.metrics.RecordLookup(form, result)
}
