package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/review/domain"
)

// Repository defines review and comment persistence operations.
type Repository interface {
	// Reviews
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReview(ctx context.Context, titleID, reviewID uuid.UUID) (*domain.Review, error)
	UpdateReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, reviewID uuid.UUID) error
	ListReviews(ctx context.Context, titleID uuid.UUID, limit, offset int) ([]*domain.Review, error)
	CountReviews(ctx context.Context, titleID uuid.UUID) (int64, error)
	ReviewExists(ctx context.Context, titleID, authorID uuid.UUID) (bool, error)
	DeleteTitleReviews(ctx context.Context, titleID uuid.UUID) error
	DeleteAuthorData(ctx context.Context, authorID uuid.UUID) error

	// Comments
	CreateComment(ctx context.Context, comment *domain.Comment) error
	GetComment(ctx context.Context, reviewID, commentID uuid.UUID) (*domain.Comment, error)
	UpdateComment(ctx context.Context, comment *domain.Comment) error
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
	ListComments(ctx context.Context, reviewID uuid.UUID, limit, offset int) ([]*domain.Comment, error)
	CountComments(ctx context.Context, reviewID uuid.UUID) (int64, error)
	DeleteReviewComments(ctx context.Context, reviewID uuid.UUID) error
}
