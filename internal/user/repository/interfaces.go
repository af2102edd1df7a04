package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/user/domain"
)

// Repository defines user persistence operations.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, search string, limit, offset int) ([]*domain.User, error)
	CountUsers(ctx context.Context, search string) (int64, error)
}
