// Package web provides HTTP request and response types for the directory API.
package web

import (
	"fmt"
	"math"

	"github.com/n8njson/directory/pkg/duplicate"
	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/seo"
	"github.com/n8njson/directory/pkg/services"
)

// MaxPageSize caps the limit query parameter.
const MaxPageSize = 100

// ListTemplatesRequest holds the query parameters of GET /templates.
type ListTemplatesRequest struct {
	Search     string
	Category   string
	Industry   string
	Role       string
	Complexity string
	UseCase    string
	SortBy     string `validate:"omitempty,oneof=recent popular alphabetical node_count"`
	Limit      int    `validate:"min=0"`
	Offset     int    `validate:"min=0"`
}

// Filters converts the request into catalog filters.
func (r ListTemplatesRequest) Filters() services.TemplateFilters {
	return services.TemplateFilters{
		Search:     r.Search,
		Category:   r.Category,
		Industry:   r.Industry,
		Role:       r.Role,
		Complexity: r.Complexity,
		UseCase:    r.UseCase,
		SortBy:     r.SortBy,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// ListTemplatesResponse is one page of templates.
type ListTemplatesResponse struct {
	Templates  []models.TemplateDisplay `json:"templates"`
	Total      int64                    `json:"total"`
	Pagination Pagination               `json:"pagination"`
	SortBy     string                   `json:"sort_by"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// TemplateResponse is a template page with its SEO metadata.
type TemplateResponse struct {
	Template models.TemplateDisplay `json:"template"`
	Metadata seo.Metadata           `json:"metadata"`
}

// BrowseResponse is a taxonomy page with its SEO metadata.
type BrowseResponse struct {
	*services.BrowsePage

	Metadata seo.Metadata `json:"metadata"`
}

// SubmitTemplateRequest is the contribution form payload.
type SubmitTemplateRequest struct {
	Email          string `json:"email"           validate:"required"`
	FullName       string `json:"full-name"       validate:"required"`
	ContactInfo    string `json:"contact-info"`
	Website        string `json:"website"`
	AutomationJSON string `json:"automation-json" validate:"required"`
}

// Form converts the request into the service form type.
func (r SubmitTemplateRequest) Form() services.FormSubmission {
	return services.FormSubmission{
		Email:          r.Email,
		FullName:       r.FullName,
		ContactInfo:    r.ContactInfo,
		Website:        r.Website,
		AutomationJSON: r.AutomationJSON,
	}
}

// SimilarTemplateResponse reports a near-duplicate with a percentage score.
type SimilarTemplateResponse struct {
	Title      string `json:"title"`
	Similarity string `json:"similarity"`
}

// SubmitTemplateResponse acknowledges an accepted contribution.
type SubmitTemplateResponse struct {
	Success       bool                      `json:"success"`
	Message       string                    `json:"message"`
	TemplateID    string                    `json:"templateId"`
	WorkflowTitle string                    `json:"workflowTitle"`
	NodeCount     int                       `json:"nodeCount"`
	Warning       string                    `json:"warning,omitempty"`
	Similar       []SimilarTemplateResponse `json:"similar,omitempty"`
}

// NewSubmitTemplateResponse builds the acknowledgement for a stored submission.
func NewSubmitTemplateResponse(result *services.SubmissionResult) SubmitTemplateResponse {
	response := SubmitTemplateResponse{
		Success:       true,
		Message:       "Template submitted successfully! It will be reviewed and published if approved.",
		TemplateID:    result.TemplateID,
		WorkflowTitle: result.Title,
		NodeCount:     result.NodeCount,
	}

	if len(result.SimilarTemplates) > 0 {
		response.Warning = "Similar templates were found, but your submission was accepted for review"
		response.Similar = transformSimilar(result.SimilarTemplates)
	}

	return response
}

func transformSimilar(similar []duplicate.SimilarTemplate) []SimilarTemplateResponse {
	response := make([]SimilarTemplateResponse, 0, len(similar))
	for _, s := range similar {
		response = append(response, SimilarTemplateResponse{
			Title:      s.Title,
			Similarity: fmt.Sprintf("%d%%", int(math.Round(s.Similarity*100))),
		})
	}

	return response
}

// SubscribeRequest is the newsletter signup payload.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SubscribeResponse confirms a new subscription.
type SubscribeResponse struct {
	Message string `json:"message"`
	Outcome string `json:"outcome"`
}
