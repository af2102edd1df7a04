package testutil

import (
	"fmt"

	"github.com/google/uuid"

	catalogdomain "github.com/tesseramedia/tessera/internal/catalog/domain"
	reviewdomain "github.com/tesseramedia/tessera/internal/review/domain"
	userdomain "github.com/tesseramedia/tessera/internal/user/domain"
	"github.com/tesseramedia/tessera/pkg/auth"
)

// CreateTestUser builds an unsaved user with the given username and
// email and the default role.
func CreateTestUser(username, email string) *userdomain.User {
	return &userdomain.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Role:     auth.RoleUser,
	}
}

// CreateTestAdmin builds an unsaved admin user.
func CreateTestAdmin(username string) *userdomain.User {
	return &userdomain.User{
		ID:       uuid.New(),
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     auth.RoleAdmin,
	}
}

// CreateTestCategory builds an unsaved category.
func CreateTestCategory(name, slug string) *catalogdomain.Category {
	return &catalogdomain.Category{
		ID:   uuid.New(),
		Name: name,
		Slug: slug,
	}
}

// CreateTestGenre builds an unsaved genre.
func CreateTestGenre(name, slug string) *catalogdomain.Genre {
	return &catalogdomain.Genre{
		ID:   uuid.New(),
		Name: name,
		Slug: slug,
	}
}

// CreateTestTitle builds an unsaved title without category or genres.
func CreateTestTitle(name string, year int) *catalogdomain.Title {
	return &catalogdomain.Title{
		ID:   uuid.New(),
		Name: name,
		Year: year,
	}
}

// CreateTestReview builds an unsaved review.
func CreateTestReview(titleID, authorID uuid.UUID, score int) *reviewdomain.Review {
	return &reviewdomain.Review{
		ID:       uuid.New(),
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     "test review text",
		Score:    score,
	}
}

// CreateTestComment builds an unsaved comment.
func CreateTestComment(reviewID, authorID uuid.UUID) *reviewdomain.Comment {
	return &reviewdomain.Comment{
		ID:       uuid.New(),
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     "test comment text",
	}
}
