package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MinScore is the lowest allowed review score.
	MinScore = 1
	// MaxScore is the highest allowed review score.
	MaxScore = 10
)

// Review is a single user's review of a title. The composite unique
// index is the authoritative one-review-per-user guard; the service
// layer check only exists to fail fast with a friendlier error.
type Review struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TitleID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_title_author"`
	AuthorID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_title_author"`
	AuthorUsername string    `gorm:"->;-:migration"`
	Text           string    `gorm:"not null"`
	Score          int       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeforeCreate assigns the primary key when unset.
func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Comment is a reply to a review.
type Comment struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReviewID       uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID       uuid.UUID `gorm:"type:uuid;not null"`
	AuthorUsername string    `gorm:"->;-:migration"`
	Text           string    `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BeforeCreate assigns the primary key when unset.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ValidateScore returns field messages for a review score.
func ValidateScore(score int) []string {
	if score < MinScore || score > MaxScore {
		return []string{"score must be between 1 and 10"}
	}
	return nil
}

// ValidateText returns field messages for review or comment text.
func ValidateText(text string) []string {
	if text == "" {
		return []string{"this field is required"}
	}
	return nil
}
