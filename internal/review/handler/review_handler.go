package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/review/domain"
	"github.com/tesseramedia/tessera/internal/review/service"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// ReviewHandler serves reviews and their comments, nested under titles.
// Reads are open; posting requires authentication; editing and deleting
// require being the author, a moderator, or an admin.
type ReviewHandler struct {
	svc           *service.ReviewService
	reviewPolicy  auth.AdminModeratorAuthorOrReadOnly
	commentPolicy auth.AdminModeratorAuthorOrReadOnly
	paginator     *pagination.Paginator
	logger        interfaces.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(
	svc *service.ReviewService,
	evaluator *auth.Evaluator,
	paginator *pagination.Paginator,
	logger interfaces.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		svc:           svc,
		reviewPolicy:  evaluator.AdminModeratorAuthorOrReadOnly(auth.ResourceReview),
		commentPolicy: evaluator.AdminModeratorAuthorOrReadOnly(auth.ResourceComment),
		paginator:     paginator,
		logger:        logger,
	}
}

// Routes returns the review route table, mounted under a title. PUT is
// deliberately absent; full replacement answers 405.
func (h *ReviewHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{reviewID}", h.Get)
	r.Patch("/{reviewID}", h.Update)
	r.Delete("/{reviewID}", h.Delete)

	r.Route("/{reviewID}/comments", func(r chi.Router) {
		r.Get("/", h.ListComments)
		r.Post("/", h.CreateComment)
		r.Get("/{commentID}", h.GetComment)
		r.Patch("/{commentID}", h.UpdateComment)
		r.Delete("/{commentID}", h.DeleteComment)
	})
	return r
}

type reviewResponse struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func newReviewResponse(review *domain.Review) reviewResponse {
	return reviewResponse{
		ID:      review.ID,
		Text:    review.Text,
		Author:  review.AuthorUsername,
		Score:   review.Score,
		PubDate: review.CreatedAt,
	}
}

type commentResponse struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func newCommentResponse(comment *domain.Comment) commentResponse {
	return commentResponse{
		ID:      comment.ID,
		Text:    comment.Text,
		Author:  comment.AuthorUsername,
		PubDate: comment.CreatedAt,
	}
}

// pathUUID parses a path parameter, mapping malformed identifiers to a
// missing object.
func pathUUID(r *http.Request, name, notFound string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, errors.NotFound(notFound)
	}
	return id, nil
}

func reviewPath(r *http.Request) (titleID, reviewID uuid.UUID, err error) {
	if titleID, err = pathUUID(r, "titleID", "title not found"); err != nil {
		return
	}
	reviewID, err = pathUUID(r, "reviewID", "review not found")
	return
}

func commentPath(r *http.Request) (titleID, reviewID, commentID uuid.UUID, err error) {
	if titleID, reviewID, err = reviewPath(r); err != nil {
		return
	}
	commentID, err = pathUUID(r, "commentID", "comment not found")
	return
}

// Reviews

// List returns a page of reviews for a title.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	titleID, err := pathUUID(r, "titleID", "title not found")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	params, err := h.paginator.ParseRequest(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	reviews, total, err := h.svc.ListReviews(r.Context(), titleID, params)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	results := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		results = append(results, newReviewResponse(review))
	}

	resp, err := h.paginator.NewListResponse(params, total, results)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type createReviewRequest struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Create posts a review, authenticated users only.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.reviewPolicy.Allows(id, auth.VerbCreate) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	titleID, err := pathUUID(r, "titleID", "title not found")
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var req createReviewRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	review, err := h.svc.CreateReview(r.Context(), titleID, id, req.Text, req.Score)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newReviewResponse(review))
}

// Get returns a single review.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	review, err := h.svc.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newReviewResponse(review))
}

type updateReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

// Update patches a review. The object is fetched first so ownership can
// be checked against the stored author.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	review, err := h.svc.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	id := auth.IdentityFromContext(r.Context())
	if !h.reviewPolicy.AllowsObject(id, auth.VerbUpdate, review.AuthorID) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	var req updateReviewRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	updated, err := h.svc.UpdateReview(r.Context(), titleID, reviewID, service.ReviewUpdateParams{
		Text:  req.Text,
		Score: req.Score,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newReviewResponse(updated))
}

// Delete removes a review and its comments.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	review, err := h.svc.GetReview(r.Context(), titleID, reviewID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	id := auth.IdentityFromContext(r.Context())
	if !h.reviewPolicy.AllowsObject(id, auth.VerbDelete, review.AuthorID) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	if err := h.svc.DeleteReview(r.Context(), titleID, reviewID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// Comments

// ListComments returns a page of comments on a review.
func (h *ReviewHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, err := reviewPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	params, err := h.paginator.ParseRequest(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	comments, total, err := h.svc.ListComments(r.Context(), titleID, reviewID, params)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	results := make([]commentResponse, 0, len(comments))
	for _, comment := range comments {
		results = append(results, newCommentResponse(comment))
	}

	resp, err := h.paginator.NewListResponse(params, total, results)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type commentRequest struct {
	Text string `json:"text"`
}

// CreateComment posts a comment, authenticated users only.
func (h *ReviewHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.commentPolicy.Allows(id, auth.VerbCreate) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	titleID, reviewID, err := reviewPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var req commentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	comment, err := h.svc.CreateComment(r.Context(), titleID, reviewID, id, req.Text)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newCommentResponse(comment))
}

// GetComment returns a single comment.
func (h *ReviewHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, commentID, err := commentPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	comment, err := h.svc.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCommentResponse(comment))
}

type updateCommentRequest struct {
	Text *string `json:"text"`
}

// UpdateComment patches a comment after an ownership check.
func (h *ReviewHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, commentID, err := commentPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	comment, err := h.svc.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	id := auth.IdentityFromContext(r.Context())
	if !h.commentPolicy.AllowsObject(id, auth.VerbUpdate, comment.AuthorID) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	var req updateCommentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	updated, err := h.svc.UpdateComment(r.Context(), titleID, reviewID, commentID, req.Text)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCommentResponse(updated))
}

// DeleteComment removes a comment after an ownership check.
func (h *ReviewHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, commentID, err := commentPath(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	comment, err := h.svc.GetComment(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	id := auth.IdentityFromContext(r.Context())
	if !h.commentPolicy.AllowsObject(id, auth.VerbDelete, comment.AuthorID) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	if err := h.svc.DeleteComment(r.Context(), titleID, reviewID, commentID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}
