// Package access decides what a guarded view shows for a given session.
//
// Decide and DecideChild are pure: they never navigate. The caller at the HTTP
// boundary turns a Decision into a response (placeholder, redirect or denial).
package access

import (
	"github.com/bainum/dashboard/core/user"
)

// LoginPath is where unauthenticated visitors are sent.
const (
	LoginPath = "/"
	HomePath  = "/home"
)

// Subject is the part of a session the gate looks at.
type Subject struct {
	Loading bool
	User    *user.Record
}

// Requirement is what a guarded view declares about its audience.
type Requirement struct {
	RequiredRole user.Role   // empty: any role
	ExcludeRoles []user.Role // roles that are denied outright
}

func (req Requirement) excludes(role user.Role) bool {
	for _, r := range req.ExcludeRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Decision is one of Loading, Render, Redirect or Deny.
type Decision interface {
	decision()
}

type (
	// Loading asks for a neutral placeholder while the session is being restored.
	Loading struct{}

	// Render lets the guarded view render.
	Render struct{}

	// Redirect navigates elsewhere. Replace means no history entry may be kept for the guarded view.
	Redirect struct {
		To      string
		Replace bool
	}

	// Deny shows an access-denied view with the given navigation actions.
	Deny struct {
		Reason       string
		RequiredRole user.Role
		Actions      []Action
	}

	// Action is a navigation choice offered by a denial view.
	Action struct {
		Label string `json:"label"`
		Href  string `json:"href,omitempty"`
		Back  bool   `json:"back,omitempty"` // history pop
	}
)

func (Loading) decision()  {}
func (Render) decision()   {}
func (Redirect) decision() {}
func (Deny) decision()     {}

const (
	ReasonRoleExcluded = "This page is not available for your role."
	ReasonRoleRequired = "You don't have permission to access this page."
)

var (
	actionBack = Action{Label: "Go Back", Back: true}
	actionHome = Action{Label: "Go Home", Href: HomePath}
)

func childAction(usr user.Record) Action {
	return Action{Label: "Go to Child's Page", Href: usr.ChildPath()}
}

// Decide is the access gate of every generic guarded view. First match wins:
//  1. session loading: Loading
//  2. no user: Redirect to login (replace)
//  3. parent bound to a child, no requirement at all: Redirect to their child page (replace)
//  4. role excluded: Deny
//  5. required role not held: Deny
//  6. otherwise: Render
//
// currentPath is accepted so callers can pass the full navigation context; the
// outcome only depends on the session and the requirement.
func Decide(sess Subject, req Requirement, currentPath string) Decision {
	if sess.Loading {
		return Loading{}
	}
	if sess.User == nil {
		return Redirect{To: LoginPath, Replace: true}
	}
	usr := *sess.User

	if usr.IsParent() && usr.HasChild() && len(req.ExcludeRoles) == 0 && req.RequiredRole == "" {
		return Redirect{To: usr.ChildPath(), Replace: true}
	}

	if len(req.ExcludeRoles) > 0 && req.excludes(usr.Role) {
		deny := Deny{Reason: ReasonRoleExcluded}
		if usr.IsParent() && usr.HasChild() {
			deny.Actions = []Action{childAction(usr)}
		} else {
			deny.Actions = []Action{actionBack}
		}
		return deny
	}

	if req.RequiredRole != "" && usr.Role != req.RequiredRole {
		return Deny{
			Reason:       ReasonRoleRequired,
			RequiredRole: req.RequiredRole,
			Actions:      []Action{actionBack, actionHome},
		}
	}

	return Render{}
}

// DecideChild guards the child detail view, reachable by every authenticated role.
// A parent may only see their own child: any other child redirects (replace) to theirs.
// The parent rule of Decide is not applied here, it would redirect a parent onto the page they are on.
func DecideChild(sess Subject, childID string) Decision {
	if sess.Loading {
		return Loading{}
	}
	if sess.User == nil {
		return Redirect{To: LoginPath, Replace: true}
	}
	usr := *sess.User
	if usr.IsParent() && usr.HasChild() && usr.ChildID.String != childID {
		return Redirect{To: usr.ChildPath(), Replace: true}
	}
	return Render{}
}

// OnForbidden is what a view does when the backend answers 403 on child scoped data:
// parents go back to their own child page, everyone else goes home.
func OnForbidden(usr *user.Record) Redirect {
	if usr != nil && usr.IsParent() && usr.HasChild() {
		return Redirect{To: usr.ChildPath(), Replace: true}
	}
	return Redirect{To: HomePath}
}
