// Package policy is the single authorization surface for expedition
// content. Every entry point builds an Actor and (where a record is
// involved) a Resource, and asks Decide whether the operation may
// proceed. The package does no IO.
package policy

import "fmt"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ParseRole rejects anything outside the three known roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanEditExpeditions reports whether the role may create and manage
// expedition content.
func (r Role) CanEditExpeditions() bool {
	return r == RoleAdmin || r == RoleEditor
}

type Operation int

const (
	OpList Operation = iota
	OpView
	OpCreate
	OpEdit
	OpDelete
)

// Actor is the authenticated caller. A nil *Actor means anonymous.
type Actor struct {
	ID   string
	Role Role
}

// Resource is the policy-relevant slice of an expedition.
type Resource struct {
	OwnerID   string
	Published bool
}

// Scope narrows a list query for callers that are allowed to list but
// not to see everything.
type Scope int

const (
	ScopePublished Scope = iota
	ScopePublishedOrOwn
	ScopeAll
)

type Decision struct {
	Allowed bool
	Reason  string
	Scope   Scope
}

// Denial reasons surfaced to callers.
const (
	ReasonUnpublished     = "not permitted to view unpublished resource"
	ReasonCreateDenied    = "insufficient privilege to create"
	ReasonModifyDenied    = "insufficient privilege to modify this resource"
	ReasonUnknownOp       = "unknown operation"
	ReasonMissingResource = "no resource to decide on"
)

func allow() Decision { return Decision{Allowed: true} }
func allowScope(s Scope) Decision { return Decision{Allowed: true, Scope: s} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// Decide returns whether actor may perform op. View, Edit and Delete
// require a resource; List and Create ignore it. The admin branch is
// always checked first: admin visibility is strictly wider than what
// edit capability alone grants, so it must never be derived from the
// capability path.
func Decide(actor *Actor, res *Resource, op Operation) Decision {
	switch op {
	case OpList:
		if actor != nil && actor.Role == RoleAdmin {
			return allowScope(ScopeAll)
		}
		if actor != nil && actor.Role.CanEditExpeditions() {
			return allowScope(ScopePublishedOrOwn)
		}
		return allowScope(ScopePublished)

	case OpView:
		if res == nil {
			return deny(ReasonMissingResource)
		}
		if res.Published {
			return allow()
		}
		if actor == nil {
			return deny(ReasonUnpublished)
		}
		if actor.Role == RoleAdmin || actor.ID == res.OwnerID {
			return allow()
		}
		return deny(ReasonUnpublished)

	case OpCreate:
		if actor != nil && actor.Role.CanEditExpeditions() {
			return allow()
		}
		return deny(ReasonCreateDenied)

	case OpEdit, OpDelete:
		if res == nil {
			return deny(ReasonMissingResource)
		}
		if actor == nil {
			return deny(ReasonModifyDenied)
		}
		if actor.Role == RoleAdmin {
			return allow()
		}
		if actor.Role.CanEditExpeditions() && actor.ID == res.OwnerID {
			return allow()
		}
		return deny(ReasonModifyDenied)
	}
	return deny(ReasonUnknownOp)
}
