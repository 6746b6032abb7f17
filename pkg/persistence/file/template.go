package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/n8njson/directory/pkg/persistence/memory"
)

// TemplateRepository stores one JSON document per template under <root>/templates.
type TemplateRepository struct {
	root string
	mu   sync.RWMutex
}

// NewTemplateRepository creates a new template repository.
func NewTemplateRepository(root string) *TemplateRepository {
	return &TemplateRepository{root: root}
}

// Find loads every template and evaluates the query in memory.
func (tr *TemplateRepository) Find(_ context.Context, query *persistence.Query) (*persistence.FindResult, error) {
	tr.mu.RLock()
	templates, err := tr.loadAll()
	tr.mu.RUnlock()

	if err != nil {
		return nil, persistence.NewTemplateError("Find", "", err)
	}

	result, err := memory.Apply(templates, query)
	if err != nil {
		return nil, persistence.NewTemplateError("Find", "", err)
	}

	return result, nil
}

// Insert writes a new template file.
func (tr *TemplateRepository) Insert(_ context.Context, template *models.Template) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, err := os.Stat(tr.filePath(template.ID)); err == nil {
		return persistence.NewTemplateError("Insert", template.ID, persistence.ErrTemplateAlreadyExists)
	}

	return tr.write(template)
}

// Update overwrites an existing template file.
func (tr *TemplateRepository) Update(_ context.Context, template *models.Template) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if _, err := os.Stat(tr.filePath(template.ID)); errors.Is(err, fs.ErrNotExist) {
		return persistence.NewTemplateError("Update", template.ID, persistence.ErrTemplateNotFound)
	}

	return tr.write(template)
}

// Delete removes a template by its ID.
func (tr *TemplateRepository) Delete(_ context.Context, id string) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	err := os.Remove(tr.filePath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return persistence.NewTemplateError("Delete", id, persistence.ErrTemplateNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}

	return nil
}

func (tr *TemplateRepository) dir() string {
	return path.Join(tr.root, "templates")
}

func (tr *TemplateRepository) filePath(id string) string {
	return filepath.Clean(path.Join(tr.dir(), filepath.Base(id)+".json"))
}

func (tr *TemplateRepository) write(template *models.Template) error {
	err := os.MkdirAll(tr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create templates directory: %w", err)
	}

	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal template %s: %w", template.ID, err)
	}

	return os.WriteFile(tr.filePath(template.ID), data, 0600)
}

// loadAll returns templates ordered by creation time then ID, standing in for insertion order.
func (tr *TemplateRepository) loadAll() ([]*models.Template, error) {
	jsonFiles, err := fs.Glob(os.DirFS(tr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}

	templates := make([]*models.Template, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		body, err := os.ReadFile(path.Join(tr.dir(), name))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		var template models.Template

		err = json.Unmarshal(body, &template)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal template %s: %w", name, err)
		}

		templates = append(templates, &template)
	}

	sort.SliceStable(templates, func(i, j int) bool {
		if !templates[i].CreatedAt.Equal(templates[j].CreatedAt) {
			return templates[i].CreatedAt.Before(templates[j].CreatedAt)
		}

		return templates[i].ID < templates[j].ID
	})

	return templates, nil
}
