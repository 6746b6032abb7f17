package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/n8njson/directory/pkg/metrics"
	"github.com/n8njson/directory/pkg/newsletter"
	"github.com/n8njson/directory/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Subscriber posts an address to the newsletter provider.
type Subscriber interface {
	Subscribe(ctx context.Context, email string) (*newsletter.Response, error)
}

// Newsletter proxies subscriptions and translates provider replies.
type Newsletter struct {
	subscriber Subscriber
	validator  *validator.Validate
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewNewsletter creates the newsletter service. Tracer and metrics may be nil.
func NewNewsletter(subscriber Subscriber, logger *slog.Logger, tracer trace.Tracer, m *metrics.Metrics) *Newsletter {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Newsletter{
		subscriber: subscriber,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
		logger:     logger.With("module", "newsletter"),
		tracer:     tracer,
		metrics:    m,
		now:        time.Now,
	}
}

// Subscribe signs an address up. Rejected addresses return a validation
// error; provider outages return ErrNewsletterUnavailable. Everything the
// provider answers is reported as an outcome.
func (n *Newsletter) Subscribe(ctx context.Context, email string) (newsletter.Outcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, n.tracer, "newsletter.subscribe")
	defer span.End()

	email = strings.TrimSpace(email)

	if email == "" {
		return "", NewValidationError("Subscribe", "EMAIL_REQUIRED", "email address is required", ErrEmailRequired)
	}

	if err := n.validator.Var(email, "email"); err != nil {
		n.record(newsletter.OutcomeInvalidEmail)

		return newsletter.OutcomeInvalidEmail, NewValidationError("Subscribe", "INVALID_EMAIL",
			"please enter a valid email address", ErrInvalidEmail)
	}

	resp, err := n.subscriber.Subscribe(ctx, email)
	if err != nil {
		otelhelper.SetError(span, err)

		if errors.Is(err, newsletter.ErrNotConfigured) {
			n.logger.ErrorContext(ctx, "missing newsletter provider credentials")
		} else {
			n.logger.ErrorContext(ctx, "newsletter subscription failed", "error", err)
		}

		n.record(newsletter.OutcomeProviderError)

		return newsletter.OutcomeProviderError, &ServiceError{
			Op:      "Subscribe",
			Code:    "NEWSLETTER_UNAVAILABLE",
			Message: ErrNewsletterUnavailable.Error(),
			Err:     fmt.Errorf("%w: %w", ErrNewsletterUnavailable, err),
		}
	}

	outcome := newsletter.Classify(resp, n.now())

	span.SetAttributes(attribute.String(otelhelper.NewsletterOutcome, string(outcome)))
	n.record(outcome)
	n.logger.InfoContext(ctx, "newsletter subscription processed", "outcome", outcome, "status", resp.StatusCode)

	return outcome, nil
}

func (n *Newsletter) record(outcome newsletter.Outcome) {
	if n.metrics != nil {
		n.metrics.RecordNewsletter(string(outcome))
	}
}
