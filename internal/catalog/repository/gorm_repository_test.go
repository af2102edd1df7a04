package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/tesseramedia/tessera/internal/catalog/domain"
	"github.com/tesseramedia/tessera/internal/catalog/repository"
	"github.com/tesseramedia/tessera/pkg/errors"
	"github.com/tesseramedia/tessera/test/testutil"
)

type CatalogRepositoryTestSuite struct {
	suite.Suite

	db   *gorm.DB
	repo repository.Repository
	ctx  context.Context
}

func (suite *CatalogRepositoryTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.db = testutil.NewTestDB(suite.T())
	suite.repo = repository.NewGormRepository(suite.db)
}

func (suite *CatalogRepositoryTestSuite) TestCreateCategory_DuplicateSlug() {
	suite.Require().NoError(suite.repo.CreateCategory(suite.ctx, testutil.CreateTestCategory("Movies", "movies")))

	err := suite.repo.CreateCategory(suite.ctx, testutil.CreateTestCategory("Films", "movies"))
	suite.Require().Error(err)
	suite.True(errors.IsBadRequest(err))
}

func (suite *CatalogRepositoryTestSuite) TestGetCategoryBySlug() {
	category := testutil.CreateTestCategory("Movies", "movies")
	suite.Require().NoError(suite.repo.CreateCategory(suite.ctx, category))

	retrieved, err := suite.repo.GetCategoryBySlug(suite.ctx, "movies")
	suite.Require().NoError(err)
	suite.Equal(category.ID, retrieved.ID)

	_, err = suite.repo.GetCategoryBySlug(suite.ctx, "missing")
	suite.True(errors.IsNotFound(err))
}

func (suite *CatalogRepositoryTestSuite) TestDeleteCategory_DetachesTitles() {
	category := testutil.CreateTestCategory("Movies", "movies")
	suite.Require().NoError(suite.repo.CreateCategory(suite.ctx, category))

	title := testutil.CreateTestTitle("The Thing", 1982)
	title.CategoryID = &category.ID
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, title))

	suite.Require().NoError(suite.repo.DeleteCategoryBySlug(suite.ctx, "movies"))

	retrieved, err := suite.repo.GetTitle(suite.ctx, title.ID)
	suite.Require().NoError(err)
	suite.Nil(retrieved.CategoryID)
}

func (suite *CatalogRepositoryTestSuite) TestListCategories_Search() {
	suite.Require().NoError(suite.repo.CreateCategory(suite.ctx, testutil.CreateTestCategory("Movies", "movies")))
	suite.Require().NoError(suite.repo.CreateCategory(suite.ctx, testutil.CreateTestCategory("Books", "books")))

	found, err := suite.repo.ListCategories(suite.ctx, "mov", 10, 0)
	suite.Require().NoError(err)
	suite.Len(found, 1)
	suite.Equal("movies", found[0].Slug)

	count, err := suite.repo.CountCategories(suite.ctx, "")
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *CatalogRepositoryTestSuite) TestGetGenresBySlugs() {
	suite.Require().NoError(suite.repo.CreateGenre(suite.ctx, testutil.CreateTestGenre("Horror", "horror")))
	suite.Require().NoError(suite.repo.CreateGenre(suite.ctx, testutil.CreateTestGenre("Drama", "drama")))

	genres, err := suite.repo.GetGenresBySlugs(suite.ctx, []string{"horror", "drama", "missing"})
	suite.Require().NoError(err)
	suite.Len(genres, 2)

	none, err := suite.repo.GetGenresBySlugs(suite.ctx, nil)
	suite.Require().NoError(err)
	suite.Empty(none)
}

func (suite *CatalogRepositoryTestSuite) TestDeleteGenre_RemovesAssociations() {
	genre := testutil.CreateTestGenre("Horror", "horror")
	suite.Require().NoError(suite.repo.CreateGenre(suite.ctx, genre))

	title := testutil.CreateTestTitle("The Thing", 1982)
	title.Genres = []domain.Genre{*genre}
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, title))

	suite.Require().NoError(suite.repo.DeleteGenreBySlug(suite.ctx, "horror"))

	retrieved, err := suite.repo.GetTitle(suite.ctx, title.ID)
	suite.Require().NoError(err)
	suite.Empty(retrieved.Genres)
}

func (suite *CatalogRepositoryTestSuite) TestGetTitle_WithRating() {
	title := testutil.CreateTestTitle("The Thing", 1982)
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, title))

	retrieved, err := suite.repo.GetTitle(suite.ctx, title.ID)
	suite.Require().NoError(err)
	suite.Nil(retrieved.Rating)

	author1 := testutil.CreateTestUser("one", "one@example.com")
	author2 := testutil.CreateTestUser("two", "two@example.com")
	suite.Require().NoError(suite.db.Create(author1).Error)
	suite.Require().NoError(suite.db.Create(author2).Error)
	suite.Require().NoError(suite.db.Create(testutil.CreateTestReview(title.ID, author1.ID, 6)).Error)
	suite.Require().NoError(suite.db.Create(testutil.CreateTestReview(title.ID, author2.ID, 9)).Error)

	retrieved, err = suite.repo.GetTitle(suite.ctx, title.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(retrieved.Rating)
	suite.InDelta(7.5, *retrieved.Rating, 0.001)
}

func (suite *CatalogRepositoryTestSuite) TestListTitles_Filters() {
	movies := testutil.CreateTestCategory("Movies", "movies")
	suite.Require().NoError(suite.repo.CreateCategory(suite.ctx, movies))
	horror := testutil.CreateTestGenre("Horror", "horror")
	suite.Require().NoError(suite.repo.CreateGenre(suite.ctx, horror))

	thing := testutil.CreateTestTitle("The Thing", 1982)
	thing.CategoryID = &movies.ID
	thing.Genres = []domain.Genre{*horror}
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, thing))

	blade := testutil.CreateTestTitle("Blade Runner", 1982)
	blade.CategoryID = &movies.ID
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, blade))

	other := testutil.CreateTestTitle("Dune", 2021)
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, other))

	byYear, err := suite.repo.ListTitles(suite.ctx, repository.TitleFilter{Year: 1982}, 10, 0)
	suite.Require().NoError(err)
	suite.Len(byYear, 2)

	byGenre, err := suite.repo.ListTitles(suite.ctx, repository.TitleFilter{GenreSlug: "horror"}, 10, 0)
	suite.Require().NoError(err)
	suite.Require().Len(byGenre, 1)
	suite.Equal(thing.ID, byGenre[0].ID)

	byCategory, err := suite.repo.ListTitles(suite.ctx, repository.TitleFilter{CategorySlug: "movies"}, 10, 0)
	suite.Require().NoError(err)
	suite.Len(byCategory, 2)

	byName, err := suite.repo.ListTitles(suite.ctx, repository.TitleFilter{Name: "thing"}, 10, 0)
	suite.Require().NoError(err)
	suite.Require().Len(byName, 1)
	suite.Equal(thing.ID, byName[0].ID)

	count, err := suite.repo.CountTitles(suite.ctx, repository.TitleFilter{Year: 1982})
	suite.Require().NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *CatalogRepositoryTestSuite) TestUpdateTitle_ReplacesGenres() {
	horror := testutil.CreateTestGenre("Horror", "horror")
	drama := testutil.CreateTestGenre("Drama", "drama")
	suite.Require().NoError(suite.repo.CreateGenre(suite.ctx, horror))
	suite.Require().NoError(suite.repo.CreateGenre(suite.ctx, drama))

	title := testutil.CreateTestTitle("The Thing", 1982)
	title.Genres = []domain.Genre{*horror}
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, title))

	title.Name = "The Thing (1982)"
	suite.Require().NoError(suite.repo.UpdateTitle(suite.ctx, title, []domain.Genre{*drama}))

	retrieved, err := suite.repo.GetTitle(suite.ctx, title.ID)
	suite.Require().NoError(err)
	suite.Equal("The Thing (1982)", retrieved.Name)
	suite.Require().Len(retrieved.Genres, 1)
	suite.Equal("drama", retrieved.Genres[0].Slug)
}

func (suite *CatalogRepositoryTestSuite) TestDeleteTitle() {
	title := testutil.CreateTestTitle("The Thing", 1982)
	suite.Require().NoError(suite.repo.CreateTitle(suite.ctx, title))

	suite.Require().NoError(suite.repo.DeleteTitle(suite.ctx, title.ID))

	_, err := suite.repo.GetTitle(suite.ctx, title.ID)
	suite.True(errors.IsNotFound(err))

	suite.True(errors.IsNotFound(suite.repo.DeleteTitle(suite.ctx, uuid.New())))
}

func TestCatalogRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogRepositoryTestSuite))
}
