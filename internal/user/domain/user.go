package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tesseramedia/tessera/pkg/auth"
)

const (
	// MaxUsernameLength matches the storage column limit.
	MaxUsernameLength = 150
	// MaxEmailLength matches the storage column limit.
	MaxEmailLength = 254
	// MaxNameLength limits first and last name.
	MaxNameLength = 150

	// ReservedUsernameMe is rejected at registration because /users/me
	// routes to the current user's own profile.
	ReservedUsernameMe = "me"
)

// usernamePattern is the allowed username alphabet: word characters
// plus the dot, at sign, plus and minus.
var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// emailPattern is a light sanity check, not full RFC validation.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User is an account in the catalog. Registration stores only a bcrypt
// hash of the confirmation code; there is no password.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username         string    `gorm:"size:150;uniqueIndex;not null"`
	Email            string    `gorm:"size:254;uniqueIndex;not null"`
	FirstName        string    `gorm:"size:150"`
	LastName         string    `gorm:"size:150"`
	Bio              string
	Role             auth.Role `gorm:"size:20;not null;default:'user'"`
	Superuser        bool      `gorm:"not null;default:false"`
	ConfirmationHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BeforeCreate assigns the primary key when unset.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Identity converts the user to a request identity.
func (u *User) Identity() auth.Identity {
	return auth.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Superuser: u.Superuser,
	}
}

// IsAdmin reports whether the user has admin privileges. Superusers are
// always admins regardless of their role field.
func (u *User) IsAdmin() bool {
	return u.Superuser || u.Role == auth.RoleAdmin
}

// ValidateUsername returns field messages for an invalid username.
func ValidateUsername(username string) []string {
	var msgs []string
	if username == "" {
		return []string{"this field is required"}
	}
	if len(username) > MaxUsernameLength {
		msgs = append(msgs, "ensure this field has no more than 150 characters")
	}
	if !usernamePattern.MatchString(username) {
		msgs = append(msgs, "enter a valid username consisting of letters, digits and @/./+/-/_ characters")
	}
	if username == ReservedUsernameMe {
		msgs = append(msgs, `username "me" is reserved`)
	}
	return msgs
}

// ValidateEmail returns field messages for an invalid email.
func ValidateEmail(email string) []string {
	var msgs []string
	if email == "" {
		return []string{"this field is required"}
	}
	if len(email) > MaxEmailLength {
		msgs = append(msgs, "ensure this field has no more than 254 characters")
	}
	if !emailPattern.MatchString(email) {
		msgs = append(msgs, "enter a valid email address")
	}
	return msgs
}

// ValidateName returns field messages for an invalid first or last name.
func ValidateName(name string) []string {
	if len(name) > MaxNameLength {
		return []string{"ensure this field has no more than 150 characters"}
	}
	return nil
}

// ValidateRole returns field messages for an invalid role value.
func ValidateRole(role auth.Role) []string {
	if !role.Valid() {
		return []string{"role must be one of: user, moderator, admin"}
	}
	return nil
}
