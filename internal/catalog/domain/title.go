package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxTitleNameLength limits title names.
const MaxTitleNameLength = 256

// Title is a reviewable work. Rating is not stored; list and retrieve
// queries annotate it from the average review score.
type Title struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:256;not null"`
	Year        int       `gorm:"not null;index"`
	Description string
	CategoryID  *uuid.UUID `gorm:"type:uuid;index"`
	Category    *Category  `gorm:"constraint:OnDelete:SET NULL"`
	Genres      []Genre    `gorm:"many2many:title_genres;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Rating is the average review score, nil until the first review.
	// Annotated by repository queries, never written to storage.
	Rating *float64 `gorm:"->;-:migration"`
}

// BeforeCreate assigns the primary key when unset.
func (t *Title) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ValidateTitleName returns field messages for a title name.
func ValidateTitleName(name string) []string {
	if name == "" {
		return []string{"this field is required"}
	}
	if len(name) > MaxTitleNameLength {
		return []string{"ensure this field has no more than 256 characters"}
	}
	return nil
}

// ValidateYear returns field messages for a release year. Future years
// are rejected; a work cannot be reviewed before it exists.
func ValidateYear(year int) []string {
	if year <= 0 {
		return []string{"this field is required"}
	}
	if year > time.Now().Year() {
		return []string{"year cannot be in the future"}
	}
	return nil
}
