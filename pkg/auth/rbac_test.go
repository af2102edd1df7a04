package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseramedia/tessera/pkg/logger"
)

func TestRBAC_DefaultCapabilities(t *testing.T) {
	rbac := NewRBAC()

	// Everyone reads the catalog.
	for _, role := range []Role{RoleUser, RoleModerator, RoleAdmin} {
		for _, resource := range Resources() {
			assert.True(t, rbac.CheckPermission(string(role), resource, ActionRead),
				"role %s should read %s", role, resource)
		}
	}

	// Catalog writes are admin-only.
	assert.False(t, rbac.CheckPermission(string(RoleUser), ResourceTitle, ActionWrite))
	assert.False(t, rbac.CheckPermission(string(RoleModerator), ResourceCategory, ActionWrite))
	assert.True(t, rbac.CheckPermission(string(RoleAdmin), ResourceTitle, ActionWrite))

	// Moderators moderate reviews and comments but not titles.
	assert.True(t, rbac.CheckPermission(string(RoleModerator), ResourceReview, ActionModerate))
	assert.True(t, rbac.CheckPermission(string(RoleModerator), ResourceComment, ActionModerate))
	assert.False(t, rbac.CheckPermission(string(RoleModerator), ResourceTitle, ActionModerate))
	assert.False(t, rbac.CheckPermission(string(RoleUser), ResourceReview, ActionModerate))

	// Only admins hold the admin capability.
	assert.True(t, rbac.CheckPermission(string(RoleAdmin), ResourceUser, ActionAdmin))
	assert.False(t, rbac.CheckPermission(string(RoleModerator), ResourceUser, ActionAdmin))
}

func TestRBAC_AddRemovePermission(t *testing.T) {
	rbac := NewRBAC()

	assert.False(t, rbac.CheckPermission("editor", ResourceTitle, ActionWrite))

	rbac.AddPermission("editor", ResourceTitle, ActionWrite)
	assert.True(t, rbac.CheckPermission("editor", ResourceTitle, ActionWrite))

	rbac.RemovePermission("editor", ResourceTitle, ActionWrite)
	assert.False(t, rbac.CheckPermission("editor", ResourceTitle, ActionWrite))
}

func TestRBAC_GetRolePermissionsReturnsCopy(t *testing.T) {
	rbac := NewRBAC()

	perms := rbac.GetRolePermissions(string(RoleUser))
	require.NotNil(t, perms)
	perms[ResourceTitle] = append(perms[ResourceTitle], ActionAdmin)

	assert.False(t, rbac.CheckPermission(string(RoleUser), ResourceTitle, ActionAdmin))
}

func TestCasbinRBAC_MatchesBuiltinTable(t *testing.T) {
	casbinRBAC, err := NewCasbinRBAC(logger.NewNoop())
	require.NoError(t, err)

	builtin := NewRBAC()
	for _, role := range []Role{RoleUser, RoleModerator, RoleAdmin} {
		for _, resource := range Resources() {
			for _, action := range []string{ActionRead, ActionWrite, ActionModerate, ActionAdmin} {
				assert.Equal(t,
					builtin.CheckPermission(string(role), resource, action),
					casbinRBAC.CheckPermission(string(role), resource, action),
					"role=%s resource=%s action=%s", role, resource, action)
			}
		}
	}
}

func TestNewRBACFromType(t *testing.T) {
	log := logger.NewNoop()

	builtin, err := NewRBACFromType(RBACTypeBuiltin, log)
	require.NoError(t, err)
	assert.IsType(t, &RBAC{}, builtin)

	casbinRBAC, err := NewRBACFromType(RBACTypeCasbin, log)
	require.NoError(t, err)
	assert.IsType(t, &CasbinRBAC{}, casbinRBAC)

	fallback, err := NewRBACFromType("", log)
	require.NoError(t, err)
	assert.IsType(t, &RBAC{}, fallback)

	_, err = NewRBACFromType("bogus", log)
	assert.Error(t, err)
}
