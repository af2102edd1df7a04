package auth

// RBACInterface defines the common interface for RBAC implementations.
type RBACInterface interface {
	CheckPermission(role, resource, action string) bool
	GetRolePermissions(role string) map[string][]string
	AddPermission(role, resource, action string)
	RemovePermission(role, resource, action string)
}

// RBAC provides role-based access control via an in-memory
// role -> resource -> actions capability table.
type RBAC struct {
	permissions map[string]map[string][]string
}

// NewRBAC creates a new RBAC instance with default permissions.
func NewRBAC() *RBAC {
	rbac := &RBAC{
		permissions: make(map[string]map[string][]string),
	}
	for role, resources := range defaultCapabilities() {
		for resource, actions := range resources {
			for _, action := range actions {
				rbac.AddPermission(role, resource, action)
			}
		}
	}
	return rbac
}

// defaultCapabilities is the capability table for the closed role set.
// Every role can read everything; writes on the catalog require admin,
// and moderators can manage other users' reviews and comments.
func defaultCapabilities() map[string]map[string][]string {
	readAll := func() map[string][]string {
		perms := make(map[string][]string)
		for _, resource := range Resources() {
			perms[resource] = []string{ActionRead}
		}
		return perms
	}

	user := readAll()
	user[ResourceReview] = []string{ActionRead, ActionWrite}
	user[ResourceComment] = []string{ActionRead, ActionWrite}
	user[ResourceUser] = []string{ActionRead, ActionWrite}

	moderator := readAll()
	moderator[ResourceReview] = []string{ActionRead, ActionWrite, ActionModerate}
	moderator[ResourceComment] = []string{ActionRead, ActionWrite, ActionModerate}
	moderator[ResourceUser] = []string{ActionRead, ActionWrite}

	admin := make(map[string][]string)
	for _, resource := range Resources() {
		admin[resource] = []string{ActionRead, ActionWrite, ActionModerate, ActionAdmin}
	}

	return map[string]map[string][]string{
		string(RoleUser):      user,
		string(RoleModerator): moderator,
		string(RoleAdmin):     admin,
	}
}

// CheckPermission checks if a role has permission to perform an action on a resource.
func (r *RBAC) CheckPermission(role, resource, action string) bool {
	if resourcePerms, ok := r.permissions[role]; ok {
		if actions, ok := resourcePerms[resource]; ok {
			for _, a := range actions {
				if a == action {
					return true
				}
			}
		}
	}
	return false
}

// GetRolePermissions returns all permissions for a role.
func (r *RBAC) GetRolePermissions(role string) map[string][]string {
	if perms, ok := r.permissions[role]; ok {
		// Return a copy to prevent modification
		result := make(map[string][]string)
		for resource, actions := range perms {
			result[resource] = append([]string{}, actions...)
		}
		return result
	}
	return nil
}

// AddPermission adds a permission to a role.
func (r *RBAC) AddPermission(role, resource, action string) {
	if _, ok := r.permissions[role]; !ok {
		r.permissions[role] = make(map[string][]string)
	}

	for _, a := range r.permissions[role][resource] {
		if a == action {
			return
		}
	}

	r.permissions[role][resource] = append(r.permissions[role][resource], action)
}

// RemovePermission removes a permission from a role.
func (r *RBAC) RemovePermission(role, resource, action string) {
	if resourcePerms, ok := r.permissions[role]; ok {
		if actions, ok := resourcePerms[resource]; ok {
			newActions := []string{}
			for _, a := range actions {
				if a != action {
					newActions = append(newActions, a)
				}
			}
			r.permissions[role][resource] = newActions
		}
	}
}
