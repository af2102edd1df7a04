package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
	"github.com/tesseramedia/tessera/internal/catalog/repository"
	"github.com/tesseramedia/tessera/internal/catalog/service"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// TitleHandler serves the /titles collection. Reads are open, writes
// require admin, and responses embed the category and genre objects
// plus the rating annotation.
type TitleHandler struct {
	svc       *service.CatalogService
	policy    auth.AdminOrReadOnly
	paginator *pagination.Paginator
	logger    interfaces.Logger
}

// NewTitleHandler creates a new title handler.
func NewTitleHandler(
	svc *service.CatalogService,
	evaluator *auth.Evaluator,
	paginator *pagination.Paginator,
	logger interfaces.Logger,
) *TitleHandler {
	return &TitleHandler{
		svc:       svc,
		policy:    evaluator.AdminOrReadOnly(auth.ResourceTitle),
		paginator: paginator,
		logger:    logger,
	}
}

// Routes returns the /titles route table. PUT is deliberately absent;
// full replacement answers 405.
func (h *TitleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{titleID}", h.Get)
	r.Patch("/{titleID}", h.Update)
	r.Delete("/{titleID}", h.Delete)
	return r
}

type titleResponse struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Year        int            `json:"year"`
	Rating      *float64       `json:"rating"`
	Description string         `json:"description"`
	Genre       []termResponse `json:"genre"`
	Category    *termResponse  `json:"category"`
}

func newTitleResponse(title *domain.Title) titleResponse {
	resp := titleResponse{
		ID:          title.ID,
		Name:        title.Name,
		Year:        title.Year,
		Rating:      title.Rating,
		Description: title.Description,
		Genre:       newTermResponses(title.Genres),
	}
	if title.Category != nil {
		resp.Category = &termResponse{Name: title.Category.Name, Slug: title.Category.Slug}
	}
	return resp
}

// titleIDParam parses the title path parameter. Malformed identifiers
// read as a title that does not exist.
func titleIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "titleID"))
	if err != nil {
		return uuid.Nil, errors.NotFound("title not found")
	}
	return id, nil
}

func titleFilterFromQuery(r *http.Request) (repository.TitleFilter, error) {
	q := r.URL.Query()
	filter := repository.TitleFilter{
		CategorySlug: q.Get("category"),
		GenreSlug:    q.Get("genre"),
		Name:         q.Get("name"),
	}
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.FieldError("year", "enter a number")
		}
		filter.Year = year
	}
	return filter, nil
}

// List returns a page of titles matching the query filters.
func (h *TitleHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := h.paginator.ParseRequest(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	filter, err := titleFilterFromQuery(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	titles, total, err := h.svc.ListTitles(r.Context(), filter, params)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	results := make([]titleResponse, 0, len(titles))
	for _, title := range titles {
		results = append(results, newTitleResponse(title))
	}

	resp, err := h.paginator.NewListResponse(params, total, results)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type createTitleRequest struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Genre       []string `json:"genre"`
	Category    string   `json:"category"`
}

// Create adds a title, admin only.
func (h *TitleHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbCreate) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	var req createTitleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	title, err := h.svc.CreateTitle(r.Context(), service.TitleParams{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newTitleResponse(title))
}

// Get returns a single title with its rating.
func (h *TitleHandler) Get(w http.ResponseWriter, r *http.Request) {
	titleID, err := titleIDParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	title, err := h.svc.GetTitle(r.Context(), titleID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTitleResponse(title))
}

type updateTitleRequest struct {
	Name        *string  `json:"name"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Genre       []string `json:"genre"`
	Category    *string  `json:"category"`
}

// Update applies a partial update to a title, admin only.
func (h *TitleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbUpdate) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	titleID, err := titleIDParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	var req updateTitleRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	title, err := h.svc.UpdateTitle(r.Context(), titleID, service.TitleUpdateParams{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newTitleResponse(title))
}

// Delete removes a title and, through the deletion event, its reviews.
func (h *TitleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, auth.VerbDelete) {
		httpx.Deny(w, id.IsAuthenticated())
		return
	}

	titleID, err := titleIDParam(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	if err := h.svc.DeleteTitle(r.Context(), titleID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}
