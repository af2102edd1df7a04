package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
	"github.com/tesseramedia/tessera/internal/catalog/repository"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// TitleParams are the fields accepted when creating a title. Writes
// reference the category and genres by slug; responses embed the full
// objects.
type TitleParams struct {
	Name         string
	Year         int
	Description  string
	CategorySlug string
	GenreSlugs   []string
}

// TitleUpdateParams are the patchable title fields. Nil means leave as is.
type TitleUpdateParams struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   []string
}

// CatalogService manages categories, genres and titles.
type CatalogService struct {
	repo     repository.Repository
	eventBus interfaces.EventBus
	logger   interfaces.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	repo repository.Repository,
	eventBus interfaces.EventBus,
	logger interfaces.Logger,
) *CatalogService {
	return &CatalogService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Categories

// CreateCategory creates a category.
func (s *CatalogService) CreateCategory(ctx context.Context, name, slug string) (*domain.Category, error) {
	if err := validateTerm(name, slug); err != nil {
		return nil, err
	}
	category := &domain.Category{Name: name, Slug: slug}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns a page of categories.
func (s *CatalogService) ListCategories(ctx context.Context, search string, params pagination.Params) ([]*domain.Category, int64, error) {
	total, err := s.repo.CountCategories(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	categories, err := s.repo.ListCategories(ctx, search, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// DeleteCategory removes a category; titles keep existing without one.
func (s *CatalogService) DeleteCategory(ctx context.Context, slug string) error {
	return s.repo.DeleteCategoryBySlug(ctx, slug)
}

// Genres

// CreateGenre creates a genre.
func (s *CatalogService) CreateGenre(ctx context.Context, name, slug string) (*domain.Genre, error) {
	if err := validateTerm(name, slug); err != nil {
		return nil, err
	}
	genre := &domain.Genre{Name: name, Slug: slug}
	if err := s.repo.CreateGenre(ctx, genre); err != nil {
		return nil, err
	}
	return genre, nil
}

// ListGenres returns a page of genres.
func (s *CatalogService) ListGenres(ctx context.Context, search string, params pagination.Params) ([]*domain.Genre, int64, error) {
	total, err := s.repo.CountGenres(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	genres, err := s.repo.ListGenres(ctx, search, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return genres, total, nil
}

// DeleteGenre removes a genre and its title associations.
func (s *CatalogService) DeleteGenre(ctx context.Context, slug string) error {
	return s.repo.DeleteGenreBySlug(ctx, slug)
}

func validateTerm(name, slug string) error {
	fields := make(map[string][]string)
	if msgs := domain.ValidateTermName(name); len(msgs) > 0 {
		fields["name"] = msgs
	}
	if msgs := domain.ValidateSlug(slug); len(msgs) > 0 {
		fields["slug"] = msgs
	}
	if len(fields) > 0 {
		return errors.Validation(fields)
	}
	return nil
}

// Titles

// CreateTitle creates a title. The category and at least one genre
// must already exist.
func (s *CatalogService) CreateTitle(ctx context.Context, params TitleParams) (*domain.Title, error) {
	fields := make(map[string][]string)
	if msgs := domain.ValidateTitleName(params.Name); len(msgs) > 0 {
		fields["name"] = msgs
	}
	if msgs := domain.ValidateYear(params.Year); len(msgs) > 0 {
		fields["year"] = msgs
	}
	if params.CategorySlug == "" {
		fields["category"] = []string{"this field is required"}
	}
	if len(params.GenreSlugs) == 0 {
		fields["genre"] = []string{"this field is required"}
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	category, err := s.repo.GetCategoryBySlug(ctx, params.CategorySlug)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.FieldError("category", "category not found")
		}
		return nil, err
	}

	genres, err := s.resolveGenres(ctx, params.GenreSlugs)
	if err != nil {
		return nil, err
	}

	title := &domain.Title{
		Name:        params.Name,
		Year:        params.Year,
		Description: params.Description,
		CategoryID:  &category.ID,
		Genres:      genres,
	}
	if err := s.repo.CreateTitle(ctx, title); err != nil {
		return nil, err
	}
	title.Category = category

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.TitleCreated, map[string]interface{}{
		"title_id": title.ID,
		"name":     title.Name,
	}))

	s.logger.Info("Title created",
		interfaces.String("title_id", title.ID.String()),
		interfaces.String("name", title.Name))

	return title, nil
}

// resolveGenres maps slugs to stored genres, failing on any unknown slug.
func (s *CatalogService) resolveGenres(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	genres, err := s.repo.GetGenresBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(genres) != len(uniqueStrings(slugs)) {
		return nil, errors.FieldError("genre", "genre not found")
	}
	return genres, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GetTitle retrieves a title with its rating annotation.
func (s *CatalogService) GetTitle(ctx context.Context, id uuid.UUID) (*domain.Title, error) {
	return s.repo.GetTitle(ctx, id)
}

// ListTitles returns a page of titles matching the filter.
func (s *CatalogService) ListTitles(ctx context.Context, filter repository.TitleFilter, params pagination.Params) ([]*domain.Title, int64, error) {
	total, err := s.repo.CountTitles(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	titles, err := s.repo.ListTitles(ctx, filter, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// UpdateTitle applies a partial update to a title.
func (s *CatalogService) UpdateTitle(ctx context.Context, id uuid.UUID, params TitleUpdateParams) (*domain.Title, error) {
	title, err := s.repo.GetTitle(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string][]string)
	if params.Name != nil {
		if msgs := domain.ValidateTitleName(*params.Name); len(msgs) > 0 {
			fields["name"] = msgs
		}
	}
	if params.Year != nil {
		if msgs := domain.ValidateYear(*params.Year); len(msgs) > 0 {
			fields["year"] = msgs
		}
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	if params.Name != nil {
		title.Name = *params.Name
	}
	if params.Year != nil {
		title.Year = *params.Year
	}
	if params.Description != nil {
		title.Description = *params.Description
	}
	if params.CategorySlug != nil {
		category, err := s.repo.GetCategoryBySlug(ctx, *params.CategorySlug)
		if err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.FieldError("category", "category not found")
			}
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	var genres []domain.Genre
	if params.GenreSlugs != nil {
		if len(params.GenreSlugs) == 0 {
			return nil, errors.FieldError("genre", "this list may not be empty")
		}
		genres, err = s.resolveGenres(ctx, params.GenreSlugs)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}

	if err := s.repo.UpdateTitle(ctx, title, genres); err != nil {
		return nil, err
	}
	return s.repo.GetTitle(ctx, id)
}

// DeleteTitle removes a title along with its reviews and comments.
func (s *CatalogService) DeleteTitle(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteTitle(ctx, id); err != nil {
		return err
	}

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.TitleDeleted, map[string]interface{}{
		"title_id": id,
	}))

	return nil
}
