package mocks

import (
	"context"

	"github.com/n8njson/directory/pkg/models"
	"github.com/n8njson/directory/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockTemplateRepository is a mock implementation of persistence.TemplateRepository interface.
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Find(ctx context.Context, query *persistence.Query) (*persistence.FindResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.FindResult), args.Error(1)
}

func (m *MockTemplateRepository) Insert(ctx context.Context, template *models.Template) error {
	args := m.Called(ctx, template)

	return args.Error(0)
}

func (m *MockTemplateRepository) Update(ctx context.Context, template *models.Template) error {
	args := m.Called(ctx, template)

	return args.Error(0)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	templateRepo *MockTemplateRepository
}

// NewMockPersistence creates a new MockPersistence with a mock template repository.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		templateRepo: &MockTemplateRepository{},
	}
}

// GetMockTemplateRepository returns the underlying mock repository for setting up expectations.
func (m *MockPersistence) GetMockTemplateRepository() *MockTemplateRepository {
	return m.templateRepo
}

func (m *MockPersistence) TemplateRepository() persistence.TemplateRepository {
	return m.templateRepo
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
