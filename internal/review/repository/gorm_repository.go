package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tesseramedia/tessera/internal/review/domain"
	"github.com/tesseramedia/tessera/pkg/errors"
)

// Username annotations for serialization without a second query.
const (
	reviewSelect  = "reviews.*, users.username AS author_username"
	commentSelect = "comments.*, users.username AS author_username"
)

// GormRepository implements Repository using GORM
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new GORM repository
func NewGormRepository(db *gorm.DB) Repository {
	return &GormRepository{db: db}
}

// Reviews

func (r *GormRepository) CreateReview(ctx context.Context, review *domain.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.FieldError("title", "you have already reviewed this title")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *GormRepository) GetReview(ctx context.Context, titleID, reviewID uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.db.WithContext(ctx).
		Select(reviewSelect).
		Joins("JOIN users ON users.id = reviews.author_id").
		First(&review, "reviews.id = ? AND reviews.title_id = ?", reviewID, titleID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("review not found")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (r *GormRepository) UpdateReview(ctx context.Context, review *domain.Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteReview(ctx context.Context, reviewID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Comment{}, "review_id = ?", reviewID).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Review{}, "id = ?", reviewID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NotFound("review not found")
		}
		return nil
	})
	if err != nil {
		if errors.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (r *GormRepository) ListReviews(ctx context.Context, titleID uuid.UUID, limit, offset int) ([]*domain.Review, error) {
	var reviews []*domain.Review
	err := r.db.WithContext(ctx).
		Select(reviewSelect).
		Joins("JOIN users ON users.id = reviews.author_id").
		Where("reviews.title_id = ?", titleID).
		Order("reviews.created_at ASC").
		Limit(limit).Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *GormRepository) CountReviews(ctx context.Context, titleID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("title_id = ?", titleID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

func (r *GormRepository) ReviewExists(ctx context.Context, titleID, authorID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check review existence: %w", err)
	}
	return count > 0, nil
}

// DeleteTitleReviews removes all reviews of a title and their comments.
// Runs when a title is deleted from the catalog.
func (r *GormRepository) DeleteTitleReviews(ctx context.Context, titleID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM comments WHERE review_id IN (SELECT id FROM reviews WHERE title_id = ?)",
			titleID,
		).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Review{}, "title_id = ?", titleID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete title reviews: %w", err)
	}
	return nil
}

// DeleteAuthorData removes everything a user authored: their comments,
// their reviews, and the comments other users left on those reviews.
// Runs when a user account is deleted.
func (r *GormRepository) DeleteAuthorData(ctx context.Context, authorID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.Comment{}, "author_id = ?", authorID).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM comments WHERE review_id IN (SELECT id FROM reviews WHERE author_id = ?)",
			authorID,
		).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Review{}, "author_id = ?", authorID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete author data: %w", err)
	}
	return nil
}

// Comments

func (r *GormRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (r *GormRepository) GetComment(ctx context.Context, reviewID, commentID uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.db.WithContext(ctx).
		Select(commentSelect).
		Joins("JOIN users ON users.id = comments.author_id").
		First(&comment, "comments.id = ? AND comments.review_id = ?", commentID, reviewID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("comment not found")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

func (r *GormRepository) UpdateComment(ctx context.Context, comment *domain.Comment) error {
	if err := r.db.WithContext(ctx).Save(comment).Error; err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", commentID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFound("comment not found")
	}
	return nil
}

func (r *GormRepository) ListComments(ctx context.Context, reviewID uuid.UUID, limit, offset int) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := r.db.WithContext(ctx).
		Select(commentSelect).
		Joins("JOIN users ON users.id = comments.author_id").
		Where("comments.review_id = ?", reviewID).
		Order("comments.created_at ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *GormRepository) CountComments(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Comment{}).
		Where("review_id = ?", reviewID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func (r *GormRepository) DeleteReviewComments(ctx context.Context, reviewID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&domain.Comment{}, "review_id = ?", reviewID).Error; err != nil {
		return fmt.Errorf("failed to delete review comments: %w", err)
	}
	return nil
}
