package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// MaxTermNameLength limits category and genre names.
	MaxTermNameLength = 256
	// MaxSlugLength limits category and genre slugs.
	MaxSlugLength = 50
)

// slugPattern is the allowed slug alphabet.
var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Category is a work classification, one per title.
type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:256;not null"`
	Slug      string    `gorm:"size:50;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns the primary key when unset.
func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Genre is a work genre, many per title.
type Genre struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:256;not null"`
	Slug      string    `gorm:"size:50;uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns the primary key when unset.
func (g *Genre) BeforeCreate(_ *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ValidateTermName returns field messages for a category or genre name.
func ValidateTermName(name string) []string {
	if name == "" {
		return []string{"this field is required"}
	}
	if len(name) > MaxTermNameLength {
		return []string{"ensure this field has no more than 256 characters"}
	}
	return nil
}

// ValidateSlug returns field messages for a category or genre slug.
func ValidateSlug(slug string) []string {
	var msgs []string
	if slug == "" {
		return []string{"this field is required"}
	}
	if len(slug) > MaxSlugLength {
		msgs = append(msgs, "ensure this field has no more than 50 characters")
	}
	if !slugPattern.MatchString(slug) {
		msgs = append(msgs, "enter a valid slug consisting of letters, digits, underscores or hyphens")
	}
	return msgs
}
