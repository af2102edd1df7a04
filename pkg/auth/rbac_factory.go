package auth

import (
	"fmt"

	"github.com/tesseramedia/tessera/pkg/interfaces"
)

// RBACType defines the type of RBAC implementation.
type RBACType string

const (
	// RBACTypeBuiltin uses the built-in capability table.
	RBACTypeBuiltin RBACType = "builtin"
	// RBACTypeCasbin uses Casbin for RBAC.
	RBACTypeCasbin RBACType = "casbin"
)

// NewRBACFromType creates an RBAC instance of the requested kind. Both
// implementations are seeded with the same capability table, so the
// permission evaluator behaves identically regardless of backend.
func NewRBACFromType(rbacType RBACType, logger interfaces.Logger) (RBACInterface, error) {
	switch rbacType {
	case RBACTypeBuiltin, "":
		return NewRBAC(), nil
	case RBACTypeCasbin:
		return NewCasbinRBAC(logger)
	default:
		return nil, fmt.Errorf("unknown RBAC type: %s", rbacType)
	}
}
