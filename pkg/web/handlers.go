// Package web provides HTTP handlers and REST API endpoints for the template directory.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/newsletter"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/seo"
	"github.com/n8njson/directory/pkg/services"
)

const alreadySubscribedMessage = "This email is already subscribed to our newsletter! Check your inbox for previous emails."

type APIHandlers struct {
	resolver    *services.Resolver
	catalog     *services.Catalog
	submissions *services.Submissions
	newsletter  *services.Newsletter
	validator   *validator.Validate
	logger      *slog.Logger
	baseURL     string
}

func NewAPIHandlers(
	resolver *services.Resolver,
	catalog *services.Catalog,
	submissions *services.Submissions,
	newsletter *services.Newsletter,
	validator *validator.Validate,
	logger *slog.Logger,
	baseURL string,
) *APIHandlers {
	return &APIHandlers{
		resolver:    resolver,
		catalog:     catalog,
		submissions: submissions,
		newsletter:  newsletter,
		validator:   validator,
		logger:      logger.With("module", "web"),
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	req, err := parseListTemplatesRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, validationDetail(err))
	}

	result, err := h.catalog.List(c.Context(), req.Filters())
	if err != nil {
		return h.serviceError(c, err)
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = services.SortRecent
	}

	return c.JSON(ListTemplatesResponse{
		Templates: result.Templates,
		Total:     result.Total,
		Pagination: Pagination{
			Limit:  req.Limit,
			Offset: req.Offset,
		},
		SortBy: sortBy,
	})
}

// parseListTemplatesRequest reads the list query parameters.
func parseListTemplatesRequest(c fiber.Ctx) (*ListTemplatesRequest, error) {
	req := &ListTemplatesRequest{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		Industry:   c.Query("industry"),
		Role:       c.Query("role"),
		Complexity: c.Query("complexity"),
		UseCase:    c.Query("use_case"),
		SortBy:     c.Query("sort_by"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, errors.New("limit must be a whole number")
		}

		req.Limit = min(limit, MaxPageSize)
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, errors.New("offset must be a whole number")
		}

		req.Offset = offset
	}

	return req, nil
}

func (h *APIHandlers) GetTemplate(c fiber.Ctx) error {
	idOrSlug := c.Params("idOrSlug")

	template, err := h.resolver.Resolve(c.Context(), idOrSlug)
	if err != nil {
		return h.serviceError(c, err)
	}

	display := models.ToDisplay(template)

	return c.JSON(TemplateResponse{
		Template: display,
		Metadata: seo.TemplateMetadata(h.baseURL, display),
	})
}

func (h *APIHandlers) GetFilterOptions(c fiber.Ctx) error {
	options, err := h.catalog.FilterOptions(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(options)
}

func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	stats, err := h.catalog.Stats(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(stats)
}

// Browse returns a handler serving one taxonomy kind.
func (h *APIHandlers) Browse(kind services.TaxonomyKind) fiber.Handler {
	return func(c fiber.Ctx) error {
		pageSlug := c.Params("slug")

		page := 1
		if pageStr := c.Query("page"); pageStr != "" {
			parsed, err := strconv.Atoi(pageStr)
			if err != nil {
				return badRequest(c, "Invalid page: "+err.Error())
			}

			page = parsed
		}

		result, err := h.catalog.Browse(c.Context(), kind, pageSlug, page)
		if persistence.IsTemplateNotFound(err) {
			return taxonomyNotFound(c, seo.NotFoundMetadata(string(kind)))
		}

		if err != nil {
			return h.serviceError(c, err)
		}

		return c.JSON(BrowseResponse{
			BrowsePage: result,
			Metadata:   seo.BrowseMetadata(h.baseURL, string(kind), pageSlug, result.Total),
		})
	}
}

func (h *APIHandlers) SubmitTemplate(c fiber.Ctx) error {
	var req SubmitTemplateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, validationDetail(err))
	}

	submission, err := services.FromForm(req.Form())
	if err != nil {
		return h.serviceError(c, err)
	}

	result, err := h.submissions.SubmitForReview(c.Context(), submission)
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewSubmitTemplateResponse(result))
}

func (h *APIHandlers) Subscribe(c fiber.Ctx) error {
	var req SubscribeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Please enter a valid email address")
	}

	outcome, err := h.newsletter.Subscribe(c.Context(), req.Email)
	if err != nil {
		return h.serviceError(c, err)
	}

	switch outcome {
	case newsletter.OutcomeSubscribed:
		return c.JSON(SubscribeResponse{
			Message: "Successfully subscribed to newsletter!",
			Outcome: string(outcome),
		})
	case newsletter.OutcomeAlreadySubscribed:
		return problem(c, fiber.StatusConflict, "already_subscribed", alreadySubscribedMessage)
	case newsletter.OutcomeInvalidEmail:
		return badRequest(c, "Invalid email address")
	case newsletter.OutcomeUnreachableEmail:
		return badRequest(c,
			"This email address appears to be invalid or unreachable. Please check the email address and try again.")
	case newsletter.OutcomeAuthFailed:
		return problem(c, fiber.StatusInternalServerError, "newsletter_auth_failed",
			"Newsletter service authentication failed")
	default:
		return problem(c, fiber.StatusInternalServerError, "newsletter_error",
			"Failed to subscribe. Please try again later.")
	}
}

func (h *APIHandlers) Sitemap(c fiber.Ctx) error {
	var taxonomy *seo.Taxonomy

	options, err := h.catalog.FilterOptions(c.Context())
	if err != nil {
		h.logger.WarnContext(c.Context(), "sitemap falls back to static pages", "error", err)
	} else {
		taxonomy = &seo.Taxonomy{
			Categories: options.Categories,
			Industries: options.Industries,
			Roles:      options.Roles,
		}
	}

	body, err := seo.RenderXML(seo.Sitemap(h.baseURL, taxonomy, time.Now()))
	if err != nil {
		return internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)

	return c.Send(body)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.catalog.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Template directory is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Template directory is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) serviceError(c fiber.Ctx, err error) error {
	if !services.IsValidationError(err) && !services.IsConflictError(err) && !persistence.IsTemplateNotFound(err) {
		h.logger.ErrorContext(c.Context(), "request failed", "path", c.Path(), "error", err)
	}

	return handleServiceError(c, err)
}
