package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
	"github.com/tesseramedia/tessera/internal/catalog/service"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// termResponse is the wire shape shared by categories and genres.
type termResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type termRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// CategoryHandler serves the /categories collection. Reads are open,
// writes require admin, and single categories cannot be retrieved or
// edited, only removed.
type CategoryHandler struct {
	svc       *service.CatalogService
	policy    auth.AdminOrReadOnly
	paginator *pagination.Paginator
	logger    interfaces.Logger
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(
	svc *service.CatalogService,
	evaluator *auth.Evaluator,
	paginator *pagination.Paginator,
	logger interfaces.Logger,
) *CategoryHandler {
	return &CategoryHandler{
		svc:       svc,
		policy:    evaluator.AdminOrReadOnly(auth.ResourceCategory),
		paginator: paginator,
		logger:    logger,
	}
}

// Routes returns the /categories route table.
func (h *CategoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{slug}", h.Delete)
	return r
}

// List returns a page of categories, optionally filtered by name search.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := h.paginator.ParseRequest(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	categories, total, err := h.svc.ListCategories(r.Context(), r.URL.Query().Get("search"), params)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	results := make([]termResponse, 0, len(categories))
	for _, c := range categories {
		results = append(results, termResponse{Name: c.Name, Slug: c.Slug})
	}

	resp, err := h.paginator.NewListResponse(params, total, results)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Create adds a category, admin only.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbCreate) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	var req termRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), req.Name, req.Slug)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, termResponse{Name: category.Name, Slug: category.Slug})
}

// Delete removes a category by slug, admin only.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbDelete) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// GenreHandler serves the /genres collection with the same surface as
// categories.
type GenreHandler struct {
	svc       *service.CatalogService
	policy    auth.AdminOrReadOnly
	paginator *pagination.Paginator
	logger    interfaces.Logger
}

// NewGenreHandler creates a new genre handler.
func NewGenreHandler(
	svc *service.CatalogService,
	evaluator *auth.Evaluator,
	paginator *pagination.Paginator,
	logger interfaces.Logger,
) *GenreHandler {
	return &GenreHandler{
		svc:       svc,
		policy:    evaluator.AdminOrReadOnly(auth.ResourceGenre),
		paginator: paginator,
		logger:    logger,
	}
}

// Routes returns the /genres route table.
func (h *GenreHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{slug}", h.Delete)
	return r
}

// List returns a page of genres, optionally filtered by name search.
func (h *GenreHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := h.paginator.ParseRequest(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	genres, total, err := h.svc.ListGenres(r.Context(), r.URL.Query().Get("search"), params)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	results := make([]termResponse, 0, len(genres))
	for _, g := range genres {
		results = append(results, termResponse{Name: g.Name, Slug: g.Slug})
	}

	resp, err := h.paginator.NewListResponse(params, total, results)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Create adds a genre, admin only.
func (h *GenreHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbCreate) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	var req termRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	genre, err := h.svc.CreateGenre(r.Context(), req.Name, req.Slug)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, termResponse{Name: genre.Name, Slug: genre.Slug})
}

// Delete removes a genre by slug, admin only.
func (h *GenreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbDelete) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	if err := h.svc.DeleteGenre(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// newTermResponses is shared by title responses embedding genre lists.
func newTermResponses(genres []domain.Genre) []termResponse {
	out := make([]termResponse, 0, len(genres))
	for _, g := range genres {
		out = append(out, termResponse{Name: g.Name, Slug: g.Slug})
	}
	return out
}
