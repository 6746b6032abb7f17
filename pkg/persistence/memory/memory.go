// Package memory provides an in-process template store used by tests and local runs.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
)

// Persistence keeps templates in memory, in insertion order.
type Persistence struct {
	repo *TemplateRepository
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	return &Persistence{repo: NewTemplateRepository()}
}

// TemplateRepository returns the template repository.
func (p *Persistence) TemplateRepository() persistence.TemplateRepository {
	return p.repo
}

// HealthCheck always succeeds.
func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// TemplateRepository is a mutex-guarded slice of templates.
type TemplateRepository struct {
	mu        sync.RWMutex
	templates []*models.Template
}

// NewTemplateRepository creates an empty repository.
func NewTemplateRepository(seed ...*models.Template) *TemplateRepository {
	return &TemplateRepository{templates: slices.Clone(seed)}
}

// Find evaluates the query over the stored templates.
func (r *TemplateRepository) Find(_ context.Context, query *persistence.Query) (*persistence.FindResult, error) {
	r.mu.RLock()
	snapshot := slices.Clone(r.templates)
	r.mu.RUnlock()

	result, err := Apply(snapshot, query)
	if err != nil {
		return nil, persistence.NewTemplateError("Find", "", err)
	}

	return result, nil
}

// Insert appends a template. IDs must be unique.
func (r *TemplateRepository) Insert(_ context.Context, template *models.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(template.ID) >= 0 {
		return persistence.NewTemplateError("Insert", template.ID, persistence.ErrTemplateAlreadyExists)
	}

	r.templates = append(r.templates, template)

	return nil
}

// Update replaces the stored template with the same ID.
func (r *TemplateRepository) Update(_ context.Context, template *models.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(template.ID)
	if idx < 0 {
		return persistence.NewTemplateError("Update", template.ID, persistence.ErrTemplateNotFound)
	}

	r.templates[idx] = template

	return nil
}

// Delete removes the template with the given ID.
func (r *TemplateRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return persistence.NewTemplateError("Delete", id, persistence.ErrTemplateNotFound)
	}

	r.templates = slices.Delete(r.templates, idx, idx+1)

	return nil
}

func (r *TemplateRepository) indexOf(id string) int {
	return slices.IndexFunc(r.templates, func(t *models.Template) bool { return t.ID == id })
}
