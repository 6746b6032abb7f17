package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/seo"
	"github.com/n8njson/directory/pkg/services"
)

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

// fieldLabels names request fields the way the contribution form does.
var fieldLabels = map[string]string{
	"Email":          "email",
	"FullName":       "full name",
	"AutomationJSON": "automation JSON",
	"SortBy":         "sort_by",
	"Limit":          "limit",
	"Offset":         "offset",
}

// validationDetail turns validator output into a readable problem detail.
func validationDetail(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		label, ok := fieldLabels[fe.Field()]
		if !ok {
			label = strings.ToLower(fe.Field())
		}

		switch fe.Tag() {
		case "required":
			messages = append(messages, label+" is required")
		case "email":
			messages = append(messages, label+" must be a valid email address")
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", label,
				strings.ReplaceAll(fe.Param(), " ", ", ")))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", label, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", label, fe.Param()))
		default:
			messages = append(messages, label+" is invalid")
		}
	}

	return strings.Join(messages, "; ")
}

// serviceErrorMessage strips the operation prefix from service errors.
func serviceErrorMessage(err error) string {
	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		return serviceErr.Message
	}

	return err.Error()
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	return problem(c, fiber.StatusNotFound, problemType, detail)
}

// taxonomyNotFound reports a missing category, industry or role page.
func taxonomyNotFound(c fiber.Ctx, metadata seo.Metadata) error {
	p := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("taxonomy_not_found").
		WithDetail(metadata.Description)
	p.Title = metadata.Title

	return c.Status(fiber.StatusNotFound).JSON(p)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var dup *services.DuplicateError

	switch {
	case services.IsValidationError(err):
		return badRequest(c, serviceErrorMessage(err))

	case errors.As(err, &dup):
		return problem(c, fiber.StatusConflict, "duplicate_template",
			"This exact workflow already exists in our database: "+dup.ExistingTitle)

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case errors.Is(err, services.ErrUnknownTaxonomy):
		return notFound(c, "taxonomy_not_found", err.Error())

	case persistence.IsTemplateNotFound(err):
		return notFound(c, "template_not_found", "template not found")

	case errors.Is(err, services.ErrNewsletterUnavailable):
		return problem(c, fiber.StatusInternalServerError, "newsletter_unavailable",
			"Newsletter service is temporarily unavailable")

	default:
		// Unexpected errors keep their details out of the response.
		return problem(c, fiber.StatusInternalServerError, "internal_error",
			"An unexpected error occurred. Please try again later.")
	}
}
