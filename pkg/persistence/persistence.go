// Package persistence provides the data storage abstraction for workflow templates.
package persistence

import (
	"context"

	"github.com/n8njson/directory/pkg/models"
)

// Persistence is a template store backend.
type Persistence interface {
	TemplateRepository() TemplateRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// TemplateRepository reads and writes template records.
type TemplateRepository interface {
	// Find returns the rows matching the query, in query order.
	Find(ctx context.Context, query *Query) (*FindResult, error)

	// Insert stores a new template. ID and timestamps must already be set.
	Insert(ctx context.Context, template *models.Template) error

	// Update replaces an existing template.
	Update(ctx context.Context, template *models.Template) error

	// Delete removes a template permanently.
	Delete(ctx context.Context, id string) error
}

// FindResult holds the rows of a Find call. TotalCount is only populated when
// the query asked for it and counts every matching row, ignoring the window.
type FindResult struct {
	Templates  []*models.Template
	TotalCount int64
}
