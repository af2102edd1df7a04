package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tesseramedia/tessera/internal/user/domain"
	"github.com/tesseramedia/tessera/internal/user/service"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/httpx"
	"github.com/tesseramedia/tessera/pkg/interfaces"
	"github.com/tesseramedia/tessera/pkg/pagination"
)

// UserHandler serves user management and the /users/me profile.
type UserHandler struct {
	svc       *service.UserService
	policy    auth.AdminOnly
	paginator *pagination.Paginator
	logger    interfaces.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(
	svc *service.UserService,
	evaluator *auth.Evaluator,
	paginator *pagination.Paginator,
	logger interfaces.Logger,
) *UserHandler {
	return &UserHandler{
		svc:       svc,
		policy:    evaluator.AdminOnly(auth.ResourceUser),
		paginator: paginator,
		logger:    logger,
	}
}

// Routes returns the /users route table. PUT is absent everywhere, so
// full replacement lands on the 405 handler.
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(httpx.NotFoundHandler())
	r.MethodNotAllowed(httpx.MethodNotAllowedHandler())
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/me", h.GetMe)
	r.Patch("/me", h.UpdateMe)
	r.Get("/{username}", h.Get)
	r.Patch("/{username}", h.Update)
	r.Delete("/{username}", h.Delete)
	return r
}

type userResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func newUserResponse(user *domain.User) userResponse {
	return userResponse{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Role:      string(user.Role),
	}
}

func newUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(user))
	}
	return out
}

// authorize checks the admin-only policy for management endpoints.
func (h *UserHandler) authorize(w http.ResponseWriter, r *http.Request, verb auth.Verb) (auth.Identity, bool) {
	id := auth.IdentityFromContext(r.Context())
	if !h.policy.Allows(id, verb) {
		httpx.Deny(w, id.IsAuthenticated())
		return id, false
	}
	return id, true
}

// List returns a page of users, admin only.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.VerbList); !ok {
		return
	}

	params, err := h.paginator.ParseRequest(r)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	users, total, err := h.svc.ListUsers(r.Context(), r.URL.Query().Get("search"), params)
	if err != nil {
		httpx.Error(w, err)
		return
	}

	resp, err := h.paginator.NewListResponse(params, total, newUserResponses(users))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

// Create creates a user, admin only. Role may be set in the payload.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.VerbCreate); !ok {
		return
	}

	var req createUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	user, err := h.svc.CreateUser(r.Context(), service.CreateParams{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      auth.Role(req.Role),
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, newUserResponse(user))
}

// Get returns a user by username, admin only.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.VerbRetrieve); !ok {
		return
	}

	user, err := h.svc.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(user))
}

type updateUserRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

func (req updateUserRequest) params() service.UpdateParams {
	params := service.UpdateParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
	}
	if req.Role != nil {
		role := auth.Role(*req.Role)
		params.Role = &role
	}
	return params
}

// Update applies a partial update to a user, admin only.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.VerbUpdate); !ok {
		return
	}

	var req updateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), chi.URLParam(r, "username"), req.params(), true)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(user))
}

// Delete removes a user, admin only.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, auth.VerbDelete); !ok {
		return
	}

	if err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "username")); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.NoContent(w)
}

// GetMe returns the caller's own profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !id.IsAuthenticated() {
		httpx.Deny(w, false)
		return
	}

	user, err := h.svc.GetUserByUsername(r.Context(), id.Username)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(user))
}

// UpdateMe patches the caller's own profile. Non-admins cannot change
// their role; the field is silently ignored.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	if !id.IsAuthenticated() {
		httpx.Deny(w, false)
		return
	}

	var req updateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}

	user, err := h.svc.UpdateUser(r.Context(), id.Username, req.params(), id.IsAdmin())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newUserResponse(user))
}
