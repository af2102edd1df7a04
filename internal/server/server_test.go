package server_test

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	cataloghandler "github.com/tesseramedia/tessera/internal/catalog/handler"
	catalogrepository "github.com/tesseramedia/tessera/internal/catalog/repository"
	catalogservice "github.com/tesseramedia/tessera/internal/catalog/service"
	reviewhandler "github.com/tesseramedia/tessera/internal/review/handler"
	reviewrepository "github.com/tesseramedia/tessera/internal/review/repository"
	reviewservice "github.com/tesseramedia/tessera/internal/review/service"
	"github.com/tesseramedia/tessera/internal/server"
	userdomain "github.com/tesseramedia/tessera/internal/user/domain"
	userhandler "github.com/tesseramedia/tessera/internal/user/handler"
	userrepository "github.com/tesseramedia/tessera/internal/user/repository"
	userservice "github.com/tesseramedia/tessera/internal/user/service"
	"github.com/tesseramedia/tessera/pkg/auth"
	"github.com/tesseramedia/tessera/pkg/config"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/logger"
	"github.com/tesseramedia/tessera/pkg/pagination"
	"github.com/tesseramedia/tessera/pkg/utils"
	"github.com/tesseramedia/tessera/test/mocks"
	"github.com/tesseramedia/tessera/test/testutil"
)

// APITestSuite exercises the HTTP surface end to end against an
// in-memory database: routing, identity resolution, permission checks,
// and the JSON shapes of success and error responses.
type APITestSuite struct {
	suite.Suite

	db         *gorm.DB
	router     http.Handler
	jwtManager *auth.JWTManager
	eventBus   *events.InMemoryEventBus
	mailer     *mocks.MockMailer

	admin     *userdomain.User
	moderator *userdomain.User
	alice     *userdomain.User
	bob       *userdomain.User
}

func (suite *APITestSuite) SetupTest() {
	log := logger.NewNoop()
	suite.db = testutil.NewTestDB(suite.T())

	cfg := config.Defaults()
	cfg.Metrics.Enabled = false

	suite.jwtManager = auth.NewJWTManager("test-secret", "tessera-test", time.Hour)
	evaluator := auth.NewEvaluator(auth.NewRBAC())

	encoder, err := pagination.NewCursorEncoder(bytes.Repeat([]byte("k"), 32))
	suite.Require().NoError(err)
	paginator := pagination.NewPaginator(encoder, cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)

	suite.eventBus = events.NewInMemoryEventBus(log)
	suite.mailer = &mocks.MockMailer{}

	userRepo := userrepository.NewGormRepository(suite.db)
	catalogRepo := catalogrepository.NewGormRepository(suite.db)
	reviewRepo := reviewrepository.NewGormRepository(suite.db)

	authService := userservice.NewAuthService(userRepo, suite.jwtManager, suite.mailer, suite.eventBus, log)
	userService := userservice.NewUserService(userRepo, suite.eventBus, utils.NewInMemoryCache(), log)
	catalogService := catalogservice.NewCatalogService(catalogRepo, suite.eventBus, log)
	reviewService := reviewservice.NewReviewService(reviewRepo, catalogService, suite.eventBus, log)

	suite.Require().NoError(suite.eventBus.Subscribe(
		events.TitleDeleted, reviewservice.NewTitleCleanupHandler(reviewRepo, log)))
	suite.Require().NoError(suite.eventBus.Subscribe(
		events.UserDeleted, reviewservice.NewUserCleanupHandler(reviewRepo, log)))

	suite.router = server.NewRouter(cfg, suite.jwtManager, server.Handlers{
		Auth:       userhandler.NewAuthHandler(authService, log),
		Users:      userhandler.NewUserHandler(userService, evaluator, paginator, log),
		Categories: cataloghandler.NewCategoryHandler(catalogService, evaluator, paginator, log),
		Genres:     cataloghandler.NewGenreHandler(catalogService, evaluator, paginator, log),
		Titles:     cataloghandler.NewTitleHandler(catalogService, evaluator, paginator, log),
		Reviews:    reviewhandler.NewReviewHandler(reviewService, evaluator, paginator, log),
	}, log)

	suite.admin = testutil.CreateTestAdmin("boss")
	suite.moderator = testutil.CreateTestUser("mod", "mod@example.com")
	suite.moderator.Role = auth.RoleModerator
	suite.alice = testutil.CreateTestUser("alice", "alice@example.com")
	suite.bob = testutil.CreateTestUser("bob", "bob@example.com")
	for _, u := range []*userdomain.User{suite.admin, suite.moderator, suite.alice, suite.bob} {
		suite.Require().NoError(suite.db.Create(u).Error)
	}
}

// token mints an access token for a stored user.
func (suite *APITestSuite) token(user *userdomain.User) string {
	token, err := suite.jwtManager.GenerateAccessToken(user.Identity())
	suite.Require().NoError(err)
	return token
}

// request performs an API request and returns the recorded response.
func (suite *APITestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	suite.router.ServeHTTP(rec, req)
	return rec
}

func (suite *APITestSuite) decode(rec *httptest.ResponseRecorder, dst interface{}) {
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst))
}

// liveDelete issues a DELETE through a listening server so the handler
// runs with real net/http request-context semantics: the context is
// cancelled as soon as the handler returns.
func (suite *APITestSuite) liveDelete(ts *httptest.Server, path, token string) int {
	req, err := http.NewRequest(http.MethodDelete, ts.URL+path, nil)
	suite.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Client().Do(req)
	suite.Require().NoError(err)
	suite.Require().NoError(resp.Body.Close())
	return resp.StatusCode
}

// createTitle seeds a category, genre and title through the admin API
// and returns the title ID.
func (suite *APITestSuite) createTitle(name string, year int) string {
	admin := suite.token(suite.admin)
	suite.request(http.MethodPost, "/api/v1/categories", admin,
		map[string]string{"name": "Movies", "slug": "movies"})
	suite.request(http.MethodPost, "/api/v1/genres", admin,
		map[string]string{"name": "Drama", "slug": "drama"})

	rec := suite.request(http.MethodPost, "/api/v1/titles", admin, map[string]interface{}{
		"name":     name,
		"year":     year,
		"category": "movies",
		"genre":    []string{"drama"},
	})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var title struct {
		ID string `json:"id"`
	}
	suite.decode(rec, &title)
	return title.ID
}

func (suite *APITestSuite) TestSignupAndTokenFlow() {
	rec := suite.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "newcomer@example.com",
		"username": "newcomer",
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	code := suite.mailer.LastCode()
	suite.Require().NotEmpty(code)

	rec = suite.request(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username":          "newcomer",
		"confirmation_code": code,
	})
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var tokenResp struct {
		Token string `json:"token"`
	}
	suite.decode(rec, &tokenResp)
	suite.Require().NotEmpty(tokenResp.Token)

	rec = suite.request(http.MethodGet, "/api/v1/users/me", tokenResp.Token, nil)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var me struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	suite.decode(rec, &me)
	suite.Equal("newcomer", me.Username)
	suite.Equal("user", me.Role)
}

func (suite *APITestSuite) TestSignupRejectsReservedUsername() {
	rec := suite.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "me@example.com",
		"username": "me",
	})
	suite.Require().Equal(http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	suite.decode(rec, &fields)
	suite.Contains(fields, "username")
}

func (suite *APITestSuite) TestTokenRejectsWrongCode() {
	suite.request(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "newcomer@example.com",
		"username": "newcomer",
	})

	rec := suite.request(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username":          "newcomer",
		"confirmation_code": "not-the-code",
	})
	suite.Require().Equal(http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	suite.decode(rec, &fields)
	suite.Contains(fields, "confirmation_code")
}

func (suite *APITestSuite) TestCategoryPermissions() {
	rec := suite.request(http.MethodGet, "/api/v1/categories", "", nil)
	suite.Equal(http.StatusOK, rec.Code)

	payload := map[string]string{"name": "Books", "slug": "books"}

	rec = suite.request(http.MethodPost, "/api/v1/categories", "", payload)
	suite.Equal(http.StatusUnauthorized, rec.Code)

	rec = suite.request(http.MethodPost, "/api/v1/categories", suite.token(suite.alice), payload)
	suite.Equal(http.StatusForbidden, rec.Code)

	rec = suite.request(http.MethodPost, "/api/v1/categories", suite.token(suite.admin), payload)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = suite.request(http.MethodDelete, "/api/v1/categories/books", suite.token(suite.admin), nil)
	suite.Equal(http.StatusNoContent, rec.Code)

	rec = suite.request(http.MethodDelete, "/api/v1/categories/books", suite.token(suite.admin), nil)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *APITestSuite) TestDuplicateSlugIsFieldError() {
	admin := suite.token(suite.admin)
	payload := map[string]string{"name": "Books", "slug": "books"}

	rec := suite.request(http.MethodPost, "/api/v1/genres", admin, payload)
	suite.Require().Equal(http.StatusCreated, rec.Code)

	rec = suite.request(http.MethodPost, "/api/v1/genres", admin, payload)
	suite.Require().Equal(http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	suite.decode(rec, &fields)
	suite.Contains(fields, "slug")
}

func (suite *APITestSuite) TestTitleRatingAnnotation() {
	titleID := suite.createTitle("Solaris", 1972)

	rec := suite.request(http.MethodGet, "/api/v1/titles/"+titleID, "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var title struct {
		Rating   *float64 `json:"rating"`
		Category *struct {
			Slug string `json:"slug"`
		} `json:"category"`
		Genre []struct {
			Slug string `json:"slug"`
		} `json:"genre"`
	}
	suite.decode(rec, &title)
	suite.Nil(title.Rating)
	suite.Require().NotNil(title.Category)
	suite.Equal("movies", title.Category.Slug)
	suite.Require().Len(title.Genre, 1)

	reviews := "/api/v1/titles/" + titleID + "/reviews"
	rec = suite.request(http.MethodPost, reviews, suite.token(suite.alice),
		map[string]interface{}{"text": "slow but great", "score": 8})
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	rec = suite.request(http.MethodPost, reviews, suite.token(suite.bob),
		map[string]interface{}{"text": "too slow", "score": 6})
	suite.Require().Equal(http.StatusCreated, rec.Code)

	rec = suite.request(http.MethodGet, "/api/v1/titles/"+titleID, "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.decode(rec, &title)
	suite.Require().NotNil(title.Rating)
	suite.InDelta(7.0, *title.Rating, 0.001)
}

func (suite *APITestSuite) TestTitleYearValidation() {
	admin := suite.token(suite.admin)
	suite.request(http.MethodPost, "/api/v1/categories", admin,
		map[string]string{"name": "Movies", "slug": "movies"})
	suite.request(http.MethodPost, "/api/v1/genres", admin,
		map[string]string{"name": "Drama", "slug": "drama"})

	rec := suite.request(http.MethodPost, "/api/v1/titles", admin, map[string]interface{}{
		"name":     "From the Future",
		"year":     time.Now().Year() + 1,
		"category": "movies",
		"genre":    []string{"drama"},
	})
	suite.Require().Equal(http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	suite.decode(rec, &fields)
	suite.Contains(fields, "year")
}

func (suite *APITestSuite) TestTitleListFilters() {
	suite.createTitle("Solaris", 1972)

	rec := suite.request(http.MethodGet, "/api/v1/titles?genre=drama&year=1972", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var page struct {
		Count   int               `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	suite.decode(rec, &page)
	suite.Equal(1, page.Count)
	suite.Len(page.Results, 1)

	rec = suite.request(http.MethodGet, "/api/v1/titles?genre=comedy", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	suite.decode(rec, &page)
	suite.Equal(0, page.Count)
}

func (suite *APITestSuite) TestPutIsMethodNotAllowed() {
	titleID := suite.createTitle("Solaris", 1972)
	admin := suite.token(suite.admin)

	rec := suite.request(http.MethodPut, "/api/v1/titles/"+titleID, admin,
		map[string]interface{}{"name": "Replaced"})
	suite.Equal(http.StatusMethodNotAllowed, rec.Code)

	rec = suite.request(http.MethodPut, "/api/v1/users/alice", admin,
		map[string]interface{}{"email": "x@example.com"})
	suite.Equal(http.StatusMethodNotAllowed, rec.Code)
}

func (suite *APITestSuite) TestDuplicateReview() {
	titleID := suite.createTitle("Solaris", 1972)
	reviews := "/api/v1/titles/" + titleID + "/reviews"
	alice := suite.token(suite.alice)

	rec := suite.request(http.MethodPost, reviews, alice,
		map[string]interface{}{"text": "first take", "score": 9})
	suite.Require().Equal(http.StatusCreated, rec.Code)

	rec = suite.request(http.MethodPost, reviews, alice,
		map[string]interface{}{"text": "second take", "score": 2})
	suite.Require().Equal(http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	suite.decode(rec, &fields)
	suite.Contains(fields, "title")
}

func (suite *APITestSuite) TestReviewOwnershipRules() {
	titleID := suite.createTitle("Solaris", 1972)
	reviews := "/api/v1/titles/" + titleID + "/reviews"

	rec := suite.request(http.MethodPost, reviews, suite.token(suite.alice),
		map[string]interface{}{"text": "mine", "score": 7})
	suite.Require().Equal(http.StatusCreated, rec.Code)

	var review struct {
		ID     string `json:"id"`
		Author string `json:"author"`
	}
	suite.decode(rec, &review)
	suite.Equal("alice", review.Author)

	reviewPath := reviews + "/" + review.ID

	// Anonymous reads are allowed.
	rec = suite.request(http.MethodGet, reviewPath, "", nil)
	suite.Equal(http.StatusOK, rec.Code)

	// Another regular user cannot edit it.
	rec = suite.request(http.MethodPatch, reviewPath, suite.token(suite.bob),
		map[string]interface{}{"score": 1})
	suite.Equal(http.StatusForbidden, rec.Code)

	// The author can.
	rec = suite.request(http.MethodPatch, reviewPath, suite.token(suite.alice),
		map[string]interface{}{"score": 10})
	suite.Require().Equal(http.StatusOK, rec.Code)

	var updated struct {
		Score int `json:"score"`
	}
	suite.decode(rec, &updated)
	suite.Equal(10, updated.Score)

	// A moderator can remove it.
	rec = suite.request(http.MethodDelete, reviewPath, suite.token(suite.moderator), nil)
	suite.Equal(http.StatusNoContent, rec.Code)

	rec = suite.request(http.MethodGet, reviewPath, "", nil)
	suite.Equal(http.StatusNotFound, rec.Code)
}

func (suite *APITestSuite) TestReviewScoreValidation() {
	titleID := suite.createTitle("Solaris", 1972)

	rec := suite.request(http.MethodPost, "/api/v1/titles/"+titleID+"/reviews",
		suite.token(suite.alice), map[string]interface{}{"text": "off the chart", "score": 11})
	suite.Require().Equal(http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	suite.decode(rec, &fields)
	suite.Contains(fields, "score")
}

func (suite *APITestSuite) TestCommentLifecycle() {
	titleID := suite.createTitle("Solaris", 1972)
	reviews := "/api/v1/titles/" + titleID + "/reviews"

	rec := suite.request(http.MethodPost, reviews, suite.token(suite.alice),
		map[string]interface{}{"text": "mine", "score": 7})
	suite.Require().Equal(http.StatusCreated, rec.Code)
	var review struct {
		ID string `json:"id"`
	}
	suite.decode(rec, &review)

	comments := reviews + "/" + review.ID + "/comments"

	rec = suite.request(http.MethodPost, comments, "", map[string]string{"text": "anon"})
	suite.Equal(http.StatusUnauthorized, rec.Code)

	rec = suite.request(http.MethodPost, comments, suite.token(suite.bob),
		map[string]string{"text": "disagree"})
	suite.Require().Equal(http.StatusCreated, rec.Code)
	var comment struct {
		ID     string `json:"id"`
		Author string `json:"author"`
	}
	suite.decode(rec, &comment)
	suite.Equal("bob", comment.Author)

	rec = suite.request(http.MethodGet, comments, "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var page struct {
		Count int `json:"count"`
	}
	suite.decode(rec, &page)
	suite.Equal(1, page.Count)

	commentPath := comments + "/" + comment.ID

	rec = suite.request(http.MethodPatch, commentPath, suite.token(suite.alice),
		map[string]string{"text": "hijack"})
	suite.Equal(http.StatusForbidden, rec.Code)

	rec = suite.request(http.MethodPatch, commentPath, suite.token(suite.bob),
		map[string]string{"text": "still disagree"})
	suite.Equal(http.StatusOK, rec.Code)

	rec = suite.request(http.MethodDelete, commentPath, suite.token(suite.admin), nil)
	suite.Equal(http.StatusNoContent, rec.Code)
}

func (suite *APITestSuite) TestUserManagementIsAdminOnly() {
	rec := suite.request(http.MethodGet, "/api/v1/users", suite.token(suite.alice), nil)
	suite.Equal(http.StatusForbidden, rec.Code)

	rec = suite.request(http.MethodGet, "/api/v1/users", suite.token(suite.admin), nil)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var page struct {
		Count int `json:"count"`
	}
	suite.decode(rec, &page)
	suite.Equal(4, page.Count)

	rec = suite.request(http.MethodPatch, "/api/v1/users/alice", suite.token(suite.admin),
		map[string]string{"role": "moderator"})
	suite.Require().Equal(http.StatusOK, rec.Code)

	var updated struct {
		Role string `json:"role"`
	}
	suite.decode(rec, &updated)
	suite.Equal("moderator", updated.Role)
}

func (suite *APITestSuite) TestProfileRoleIsReadOnlyForNonAdmins() {
	rec := suite.request(http.MethodPatch, "/api/v1/users/me", suite.token(suite.alice),
		map[string]string{"bio": "reviewer at large", "role": "admin"})
	suite.Require().Equal(http.StatusOK, rec.Code)

	var me struct {
		Bio  string `json:"bio"`
		Role string `json:"role"`
	}
	suite.decode(rec, &me)
	suite.Equal("reviewer at large", me.Bio)
	suite.Equal("user", me.Role)
}

func (suite *APITestSuite) TestDeleteTitleCascadesToReviews() {
	titleID := suite.createTitle("Solaris", 1972)
	reviews := "/api/v1/titles/" + titleID + "/reviews"

	rec := suite.request(http.MethodPost, reviews, suite.token(suite.alice),
		map[string]interface{}{"text": "gone soon", "score": 5})
	suite.Require().Equal(http.StatusCreated, rec.Code)

	// The cleanup runs after the DELETE handler has returned and its
	// request context has been cancelled, so it must still complete.
	ts := httptest.NewServer(suite.router)
	defer ts.Close()

	status := suite.liveDelete(ts, "/api/v1/titles/"+titleID, suite.token(suite.admin))
	suite.Require().Equal(http.StatusNoContent, status)
	suite.Require().NoError(suite.eventBus.Stop())

	var count int64
	suite.Require().NoError(suite.db.Table("reviews").Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *APITestSuite) TestDeleteUserCascadesToAuthoredContent() {
	titleID := suite.createTitle("Solaris", 1972)
	reviews := "/api/v1/titles/" + titleID + "/reviews"

	rec := suite.request(http.MethodPost, reviews, suite.token(suite.alice),
		map[string]interface{}{"text": "mine", "score": 7})
	suite.Require().Equal(http.StatusCreated, rec.Code)

	ts := httptest.NewServer(suite.router)
	defer ts.Close()

	status := suite.liveDelete(ts, "/api/v1/users/alice", suite.token(suite.admin))
	suite.Require().Equal(http.StatusNoContent, status)
	suite.Require().NoError(suite.eventBus.Stop())

	var count int64
	suite.Require().NoError(suite.db.Table("reviews").Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *APITestSuite) TestPaginationEnvelope() {
	admin := suite.token(suite.admin)
	for i := 0; i < 3; i++ {
		rec := suite.request(http.MethodPost, "/api/v1/genres", admin, map[string]string{
			"name": fmt.Sprintf("Genre %d", i),
			"slug": fmt.Sprintf("genre-%d", i),
		})
		suite.Require().Equal(http.StatusCreated, rec.Code)
	}

	rec := suite.request(http.MethodGet, "/api/v1/genres?limit=2", "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var page struct {
		Count   int               `json:"count"`
		Next    string            `json:"next"`
		Results []json.RawMessage `json:"results"`
	}
	suite.decode(rec, &page)
	suite.Equal(3, page.Count)
	suite.Len(page.Results, 2)
	suite.Require().NotEmpty(page.Next)

	rec = suite.request(http.MethodGet, "/api/v1/genres?limit=2&page_token="+page.Next, "", nil)
	suite.Require().Equal(http.StatusOK, rec.Code)

	var lastPage struct {
		Next    string            `json:"next"`
		Results []json.RawMessage `json:"results"`
	}
	suite.decode(rec, &lastPage)
	suite.Len(lastPage.Results, 1)
	suite.Empty(lastPage.Next)
}

func (suite *APITestSuite) TestInvalidTokenIsRejected() {
	rec := suite.request(http.MethodGet, "/api/v1/users/me", "garbage", nil)
	suite.Equal(http.StatusUnauthorized, rec.Code)
}

func (suite *APITestSuite) TestUnknownRouteIsJSONNotFound() {
	rec := suite.request(http.MethodGet, "/api/v1/nope", "", nil)
	suite.Equal(http.StatusNotFound, rec.Code)
	suite.Contains(rec.Header().Get("Content-Type"), "application/json")
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
