package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
)

// TitleFilter narrows title listings. Zero values mean no filtering.
type TitleFilter struct {
	CategorySlug string
	GenreSlug    string
	Name         string
	Year         int
}

// Repository defines catalog persistence operations.
type Repository interface {
	// Categories
	CreateCategory(ctx context.Context, category *domain.Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	DeleteCategoryBySlug(ctx context.Context, slug string) error
	ListCategories(ctx context.Context, search string, limit, offset int) ([]*domain.Category, error)
	CountCategories(ctx context.Context, search string) (int64, error)

	// Genres
	CreateGenre(ctx context.Context, genre *domain.Genre) error
	GetGenresBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error)
	DeleteGenreBySlug(ctx context.Context, slug string) error
	ListGenres(ctx context.Context, search string, limit, offset int) ([]*domain.Genre, error)
	CountGenres(ctx context.Context, search string) (int64, error)

	// Titles
	CreateTitle(ctx context.Context, title *domain.Title) error
	GetTitle(ctx context.Context, id uuid.UUID) (*domain.Title, error)
	UpdateTitle(ctx context.Context, title *domain.Title, genres []domain.Genre) error
	DeleteTitle(ctx context.Context, id uuid.UUID) error
	ListTitles(ctx context.Context, filter TitleFilter, limit, offset int) ([]*domain.Title, error)
	CountTitles(ctx context.Context, filter TitleFilter) (int64, error)
}
