package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
	"github.com/tesseramedia/tessera/pkg/errors"
)

// ratingSelect annotates titles with the average review score.
const ratingSelect = "titles.*, (SELECT AVG(score) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM repository
func NewGormRepository(db *gorm.DB) Repository {
	return &GormRepository{db: db}
}

// Categories

func (r *GormRepository) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.FieldError("slug", "category with that slug already exists")
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *GormRepository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var category domain.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("category not found")
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *GormRepository) DeleteCategoryBySlug(ctx context.Context, slug string) error {
	category, err := r.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return err
	}

	// Detach titles first; categories are optional on titles.
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Title{}).
			Where("category_id = ?", category.ID).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (r *GormRepository) ListCategories(ctx context.Context, search string, limit, offset int) ([]*domain.Category, error) {
	var categories []*domain.Category
	query := applyNameSearch(r.db.WithContext(ctx).Model(&domain.Category{}), search).Order("name ASC")
	if err := query.Limit(limit).Offset(offset).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *GormRepository) CountCategories(ctx context.Context, search string) (int64, error) {
	var count int64
	query := applyNameSearch(r.db.WithContext(ctx).Model(&domain.Category{}), search)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// Genres

func (r *GormRepository) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	if err := r.db.WithContext(ctx).Create(genre).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.FieldError("slug", "genre with that slug already exists")
		}
		return fmt.Errorf("failed to create genre: %w", err)
	}
	return nil
}

func (r *GormRepository) GetGenresBySlugs(ctx context.Context, slugs []string) ([]domain.Genre, error) {
	var genres []domain.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	if err := r.db.WithContext(ctx).Find(&genres, "slug IN ?", slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to get genres: %w", err)
	}
	return genres, nil
}

func (r *GormRepository) DeleteGenreBySlug(ctx context.Context, slug string) error {
	var genre domain.Genre
	if err := r.db.WithContext(ctx).First(&genre, "slug = ?", slug).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("genre not found")
		}
		return fmt.Errorf("failed to get genre: %w", err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM title_genres WHERE genre_id = ?", genre.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&genre).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete genre: %w", err)
	}
	return nil
}

func (r *GormRepository) ListGenres(ctx context.Context, search string, limit, offset int) ([]*domain.Genre, error) {
	var genres []*domain.Genre
	query := applyNameSearch(r.db.WithContext(ctx).Model(&domain.Genre{}), search).Order("name ASC")
	if err := query.Limit(limit).Offset(offset).Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	return genres, nil
}

func (r *GormRepository) CountGenres(ctx context.Context, search string) (int64, error) {
	var count int64
	query := applyNameSearch(r.db.WithContext(ctx).Model(&domain.Genre{}), search)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count genres: %w", err)
	}
	return count, nil
}

// Titles

func (r *GormRepository) CreateTitle(ctx context.Context, title *domain.Title) error {
	if err := r.db.WithContext(ctx).Create(title).Error; err != nil {
		return fmt.Errorf("failed to create title: %w", err)
	}
	return nil
}

func (r *GormRepository) GetTitle(ctx context.Context, id uuid.UUID) (*domain.Title, error) {
	var title domain.Title
	err := r.db.WithContext(ctx).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres").
		First(&title, "titles.id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("title not found")
		}
		return nil, fmt.Errorf("failed to get title: %w", err)
	}
	return &title, nil
}

func (r *GormRepository) UpdateTitle(ctx context.Context, title *domain.Title, genres []domain.Genre) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres", "Category").Save(title).Error; err != nil {
			return err
		}
		if genres != nil {
			if err := tx.Model(title).Association("Genres").Replace(genres); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update title: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteTitle(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Select("Genres").Delete(&domain.Title{ID: id})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NotFound("title not found")
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete title: %w", err)
	}
	return nil
}

func (r *GormRepository) ListTitles(ctx context.Context, filter TitleFilter, limit, offset int) ([]*domain.Title, error) {
	var titles []*domain.Title
	query := r.applyTitleFilter(r.db.WithContext(ctx).Model(&domain.Title{}), filter).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres").
		Order("titles.name ASC")
	if err := query.Limit(limit).Offset(offset).Find(&titles).Error; err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	return titles, nil
}

func (r *GormRepository) CountTitles(ctx context.Context, filter TitleFilter) (int64, error) {
	var count int64
	query := r.applyTitleFilter(r.db.WithContext(ctx).Model(&domain.Title{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count titles: %w", err)
	}
	return count, nil
}

func (r *GormRepository) applyTitleFilter(query *gorm.DB, filter TitleFilter) *gorm.DB {
	if filter.Name != "" {
		pattern := "%" + strings.ToLower(filter.Name) + "%"
		query = query.Where("LOWER(titles.name) LIKE ?", pattern)
	}
	if filter.Year != 0 {
		query = query.Where("titles.year = ?", filter.Year)
	}
	if filter.CategorySlug != "" {
		query = query.Joins("JOIN categories ON categories.id = titles.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}
	if filter.GenreSlug != "" {
		query = query.Joins("JOIN title_genres ON title_genres.title_id = titles.id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", filter.GenreSlug)
	}
	return query
}

// applyNameSearch filters by name substring, case-insensitive.
func applyNameSearch(query *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	return query.Where("LOWER(name) LIKE ?", pattern)
}
