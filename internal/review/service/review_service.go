package service

import (
	"context"

	"github.com/google/uuid"

	catalogdomain "github.com/tesseramedia/tessera/internal/catalog/domain"
	"github.com/tesseramedia/tessera/internal/review/domain"
	"github.com/tesseramedia/tessera/internal/review/repository"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// TitleGetter resolves titles from the catalog context. Review routes
// are nested under titles, so every operation verifies the title first.
type TitleGetter interface {
	GetTitle(ctx context.Context, id uuid.UUID) (*catalogdomain.Title, error)
}

// ReviewUpdateParams are the patchable review fields. Nil means leave as is.
type ReviewUpdateParams struct {
	Text  *string
	Score *int
}

// ReviewService manages reviews and their comments.
type ReviewService struct {
	repo     repository.Repository
	titles   TitleGetter
	eventBus interfaces.EventBus
	logger   interfaces.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	repo repository.Repository,
	titles TitleGetter,
	eventBus interfaces.EventBus,
	logger interfaces.Logger,
) *ReviewService {
	return &ReviewService{
		repo:     repo,
		titles:   titles,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Reviews

// ListReviews returns a page of reviews for a title.
func (s *ReviewService) ListReviews(ctx context.Context, titleID uuid.UUID, params pagination.Params) ([]*domain.Review, int64, error) {
	if _, err := s.titles.GetTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountReviews(ctx, titleID)
	if err != nil {
		return nil, 0, err
	}
	reviews, err := s.repo.ListReviews(ctx, titleID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// CreateReview posts a review. One review per author per title; the
// existence check fails fast, the unique index is the real guard.
func (s *ReviewService) CreateReview(ctx context.Context, titleID uuid.UUID, author auth.Identity, text string, score int) (*domain.Review, error) {
	if _, err := s.titles.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}

	fields := make(map[string][]string)
	if msgs := domain.ValidateText(text); len(msgs) > 0 {
		fields["text"] = msgs
	}
	if msgs := domain.ValidateScore(score); len(msgs) > 0 {
		fields["score"] = msgs
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	exists, err := s.repo.ReviewExists(ctx, titleID, author.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.FieldError("title", "you have already reviewed this title")
	}

	review := &domain.Review{
		TitleID:  titleID,
		AuthorID: author.UserID,
		Text:     text,
		Score:    score,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	review.AuthorUsername = author.Username

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.ReviewCreated, map[string]interface{}{
		"review_id": review.ID,
		"title_id":  titleID,
		"author_id": author.UserID,
	}))

	s.logger.Info("Review created",
		interfaces.String("review_id", review.ID.String()),
		interfaces.String("title_id", titleID.String()))

	return review, nil
}

// GetReview retrieves a review scoped to its title.
func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID uuid.UUID) (*domain.Review, error) {
	if _, err := s.titles.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.repo.GetReview(ctx, titleID, reviewID)
}

// UpdateReview applies a partial update. Permission checks happen at
// the handler; the service only validates the payload.
func (s *ReviewService) UpdateReview(ctx context.Context, titleID, reviewID uuid.UUID, params ReviewUpdateParams) (*domain.Review, error) {
	review, err := s.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string][]string)
	if params.Text != nil {
		if msgs := domain.ValidateText(*params.Text); len(msgs) > 0 {
			fields["text"] = msgs
		}
	}
	if params.Score != nil {
		if msgs := domain.ValidateScore(*params.Score); len(msgs) > 0 {
			fields["score"] = msgs
		}
	}
	if len(fields) > 0 {
		return nil, errors.Validation(fields)
	}

	if params.Text != nil {
		review.Text = *params.Text
	}
	if params.Score != nil {
		review.Score = *params.Score
	}

	if err := s.repo.UpdateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review and its comments.
func (s *ReviewService) DeleteReview(ctx context.Context, titleID, reviewID uuid.UUID) error {
	review, err := s.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteReview(ctx, review.ID); err != nil {
		return err
	}

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.ReviewDeleted, map[string]interface{}{
		"review_id": review.ID,
		"title_id":  titleID,
	}))

	return nil
}

// Comments

// getReviewScoped verifies the title/review nesting for comment routes.
func (s *ReviewService) getReviewScoped(ctx context.Context, titleID, reviewID uuid.UUID) (*domain.Review, error) {
	if _, err := s.titles.GetTitle(ctx, titleID); err != nil {
		return nil, err
	}
	return s.repo.GetReview(ctx, titleID, reviewID)
}

// ListComments returns a page of comments on a review.
func (s *ReviewService) ListComments(ctx context.Context, titleID, reviewID uuid.UUID, params pagination.Params) ([]*domain.Comment, int64, error) {
	if _, err := s.getReviewScoped(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountComments(ctx, reviewID)
	if err != nil {
		return nil, 0, err
	}
	comments, err := s.repo.ListComments(ctx, reviewID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

// CreateComment posts a comment on a review.
func (s *ReviewService) CreateComment(ctx context.Context, titleID, reviewID uuid.UUID, author auth.Identity, text string) (*domain.Comment, error) {
	if _, err := s.getReviewScoped(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if msgs := domain.ValidateText(text); len(msgs) > 0 {
		return nil, errors.Validation(map[string][]string{"text": msgs})
	}

	comment := &domain.Comment{
		ReviewID: reviewID,
		AuthorID: author.UserID,
		Text:     text,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	comment.AuthorUsername = author.Username

	s.eventBus.PublishAsync(ctx, events.NewEvent(events.CommentCreated, map[string]interface{}{
		"comment_id": comment.ID,
		"review_id":  reviewID,
	}))

	return comment, nil
}

// GetComment retrieves a comment scoped to its review and title.
func (s *ReviewService) GetComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) (*domain.Comment, error) {
	if _, err := s.getReviewScoped(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	return s.repo.GetComment(ctx, reviewID, commentID)
}

// UpdateComment applies a partial update to a comment.
func (s *ReviewService) UpdateComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID, text *string) (*domain.Comment, error) {
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if text != nil {
		if msgs := domain.ValidateText(*text); len(msgs) > 0 {
			return nil, errors.Validation(map[string][]string{"text": msgs})
		}
		comment.Text = *text
	}
	if err := s.repo.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes a comment.
func (s *ReviewService) DeleteComment(ctx context.Context, titleID, reviewID, commentID uuid.UUID) error {
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	return s.repo.DeleteComment(ctx, comment.ID)
}
