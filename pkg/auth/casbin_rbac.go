package auth

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tesseramedia/tessera/pkg/interfaces"
)

// defaultCasbinModel is the embedded RBAC model used when no model file
// is supplied.
const defaultCasbinModel = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act`

// CasbinRBAC provides Casbin-based role-based access control.
type CasbinRBAC struct {
	enforcer *casbin.Enforcer
	logger   interfaces.Logger
	mu       sync.RWMutex
}

// NewCasbinRBAC creates a Casbin-backed RBAC seeded with the default
// capability table.
func NewCasbinRBAC(logger interfaces.Logger) (*CasbinRBAC, error) {
	m, err := model.NewModelFromString(defaultCasbinModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	rbac := &CasbinRBAC{
		enforcer: enforcer,
		logger:   logger,
	}

	for role, resources := range defaultCapabilities() {
		for resource, actions := range resources {
			for _, action := range actions {
				rbac.AddPermission(role, resource, action)
			}
		}
	}

	return rbac, nil
}

// CheckPermission checks if a role has permission to perform an action on a resource.
func (r *CasbinRBAC) CheckPermission(role, resource, action string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed, err := r.enforcer.Enforce(role, resource, action)
	if err != nil {
		r.logger.Error("Failed to check permission",
			interfaces.Error(err),
			interfaces.String("role", role),
			interfaces.String("resource", resource),
			interfaces.String("action", action))
		return false
	}

	return allowed
}

// GetRolePermissions returns all permissions for a role.
func (r *CasbinRBAC) GetRolePermissions(role string) map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policies, err := r.enforcer.GetFilteredPolicy(0, role)
	if err != nil {
		r.logger.Error("Failed to get role permissions",
			interfaces.Error(err),
			interfaces.String("role", role))
		return nil
	}

	result := make(map[string][]string)
	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		result[policy[1]] = append(result[policy[1]], policy[2])
	}
	return result
}

// AddPermission adds a permission to a role.
func (r *CasbinRBAC) AddPermission(role, resource, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.enforcer.AddPolicy(role, resource, action); err != nil {
		r.logger.Error("Failed to add permission",
			interfaces.Error(err),
			interfaces.String("role", role),
			interfaces.String("resource", resource),
			interfaces.String("action", action))
	}
}

// RemovePermission removes a permission from a role.
func (r *CasbinRBAC) RemovePermission(role, resource, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.enforcer.RemovePolicy(role, resource, action); err != nil {
		r.logger.Error("Failed to remove permission",
			interfaces.Error(err),
			interfaces.String("role", role),
			interfaces.String("resource", resource),
			interfaces.String("action", action))
	}
}
