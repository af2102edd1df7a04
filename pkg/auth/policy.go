package auth

import (
	"github.com/google/uuid"
)

// Verb classifies an operation for permission checks.
type Verb string

const (
	VerbList     Verb = "list"
	VerbRetrieve Verb = "retrieve"
	VerbCreate   Verb = "create"
	VerbUpdate   Verb = "update"
	VerbDelete   Verb = "delete"
)

// Safe reports whether the verb is read-only.
func (v Verb) Safe() bool {
	return v == VerbList || v == VerbRetrieve
}

// Policy decides request-level access for an identity and verb.
type Policy interface {
	Allows(id Identity, verb Verb) bool
}

// ObjectPolicy additionally decides object-level access, taking the
// owning user of the target object into account.
type ObjectPolicy interface {
	Policy
	AllowsObject(id Identity, verb Verb, ownerID uuid.UUID) bool
}

// Evaluator builds policies on top of a role capability table. All
// policies are pure predicates over (identity, verb, owner); callers
// must evaluate them before payload validation and persistence.
type Evaluator struct {
	rbac RBACInterface
}

// NewEvaluator creates a policy evaluator backed by the given RBAC table.
func NewEvaluator(rbac RBACInterface) *Evaluator {
	return &Evaluator{rbac: rbac}
}

// isAdmin checks resource admin capability, honoring the superuser flag.
func (e *Evaluator) isAdmin(id Identity, resource string) bool {
	if !id.IsAuthenticated() {
		return false
	}
	return id.Superuser || e.rbac.CheckPermission(string(id.Role), resource, ActionAdmin)
}

// AdminOnly allows only administrators, for any verb.
type AdminOnly struct {
	evaluator *Evaluator
	resource  string
}

// AdminOnly returns the admin-only policy for a resource.
func (e *Evaluator) AdminOnly(resource string) AdminOnly {
	return AdminOnly{evaluator: e, resource: resource}
}

func (p AdminOnly) Allows(id Identity, verb Verb) bool {
	return p.evaluator.isAdmin(id, p.resource)
}

// AdminOrReadOnly allows safe verbs for everyone and mutations for
// administrators only.
type AdminOrReadOnly struct {
	evaluator *Evaluator
	resource  string
}

// AdminOrReadOnly returns the admin-or-read-only policy for a resource.
func (e *Evaluator) AdminOrReadOnly(resource string) AdminOrReadOnly {
	return AdminOrReadOnly{evaluator: e, resource: resource}
}

func (p AdminOrReadOnly) Allows(id Identity, verb Verb) bool {
	return verb.Safe() || p.evaluator.isAdmin(id, p.resource)
}

// AdminModeratorAuthorOrReadOnly allows safe verbs for everyone,
// requires authentication to create, and restricts object mutations to
// the object's author, moderators, and administrators.
type AdminModeratorAuthorOrReadOnly struct {
	evaluator *Evaluator
	resource  string
}

// AdminModeratorAuthorOrReadOnly returns the ownership policy for a resource.
func (e *Evaluator) AdminModeratorAuthorOrReadOnly(resource string) AdminModeratorAuthorOrReadOnly {
	return AdminModeratorAuthorOrReadOnly{evaluator: e, resource: resource}
}

func (p AdminModeratorAuthorOrReadOnly) Allows(id Identity, verb Verb) bool {
	return verb.Safe() || id.IsAuthenticated()
}

func (p AdminModeratorAuthorOrReadOnly) AllowsObject(id Identity, verb Verb, ownerID uuid.UUID) bool {
	if verb.Safe() {
		return true
	}
	if !id.IsAuthenticated() {
		return false
	}
	if id.Superuser || p.evaluator.isAdmin(id, p.resource) {
		return true
	}
	if p.evaluator.rbac.CheckPermission(string(id.Role), p.resource, ActionModerate) {
		return true
	}
	return id.UserID == ownerID
}
