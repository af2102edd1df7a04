package auth

// Role is the closed set of user roles.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Resource types for permissions.
const (
	ResourceCategory = "category"
	ResourceGenre    = "genre"
	ResourceTitle    = "title"
	ResourceReview   = "review"
	ResourceComment  = "comment"
	ResourceUser     = "user"
)

// Action types for permissions.
const (
	ActionRead = "read"
	// ActionWrite covers create/update/delete of objects the identity owns.
	ActionWrite = "write"
	// ActionModerate covers editing and deleting other users' objects.
	ActionModerate = "moderate"
	// ActionAdmin covers full management of the resource.
	ActionAdmin = "admin"
)

// Resources returns all permission resources.
func Resources() []string {
	return []string{
		ResourceCategory,
		ResourceGenre,
		ResourceTitle,
		ResourceReview,
		ResourceComment,
		ResourceUser,
	}
}
