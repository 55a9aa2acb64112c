package user

import (
	"github.com/volatiletech/null/v8"
)

// Role is the single role carried by a user's claims.
type Role string

// Roles
const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleParent     Role = "parent"
	RoleResearcher Role = "researcher" // recognized, not used by any gate
)

var (
	Roles = []Role{RoleAdmin, RoleTeacher, RoleParent, RoleResearcher}

	// SignupRoles are the roles an account can be created with without an invitation.
	SignupRoles = []Role{RoleTeacher, RoleAdmin}

	roleLabels = map[Role]string{
		RoleAdmin:      "Administrator",
		RoleTeacher:    "Teacher",
		RoleParent:     "Parent",
		RoleResearcher: "Researcher",
	}
)

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label is the human readable name of the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// Record is the typed view of the authenticated user, decoded from the session token claims.
type Record struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email,omitempty"`
	Role    Role        `json:"role"`
	ChildID null.String `json:"childId"`
}

func (r Record) HasRole(role Role) bool { return r.Role == role }
func (r Record) IsAdmin() bool          { return r.Role == RoleAdmin }
func (r Record) IsTeacher() bool        { return r.Role == RoleTeacher }
func (r Record) IsParent() bool         { return r.Role == RoleParent }
func (r Record) IsResearcher() bool     { return r.Role == RoleResearcher }

// HasChild reports whether the user is bound to a child record (parents).
func (r Record) HasChild() bool {
	return r.ChildID.Valid && r.ChildID.String != ""
}

// DisplayName is the name used to sign notes and uploads.
func (r Record) DisplayName(fallback string) string {
	if r.Name == "" {
		return fallback
	}
	return r.Name
}

// ChildPath is the child page of a parent. Empty when the user has no child.
func (r Record) ChildPath() string {
	if !r.HasChild() {
		return ""
	}
	return "/data/child/" + r.ChildID.String
}

// LandingPath is where a freshly authenticated user is sent.
func (r Record) LandingPath() string {
	if r.IsParent() && r.HasChild() {
		return r.ChildPath()
	}
	return "/home"
}
