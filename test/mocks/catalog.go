package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
)

// MockTitleGetter is a testify mock for the catalog title lookup used
// by the review context.
type MockTitleGetter struct {
	mock.Mock
}

func (m *MockTitleGetter) GetTitle(ctx context.Context, id uuid.UUID) (*domain.Title, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Title), args.Error(1)
}
