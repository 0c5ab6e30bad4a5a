// Package authgate decides, on every navigation, whether the current
// session may stay on the requested path. It never performs the navigation
// itself; callers act on the returned Decision.
package authgate

import (
	"strings"

	"writely_client/internal/model"
)

// Routes the gate navigates between.
const (
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteForgetPassword = "/forget-password"
	RouteVerifyReset    = "/verify-reset-password"
	RouteHome           = "/home"
	RouteAdmin          = "/admin"
	RouteAdminDashboard = "/admin/dashboard"
)

// publicPrefixes are the routes an anonymous session may stay on. Matched by
// prefix so query strings and sub-paths pass. Signup is not in the set; an
// anonymous visitor on /signup is sent to /login first.
var publicPrefixes = []string{
	RouteLogin,
	RouteForgetPassword,
	RouteVerifyReset,
}

// authOnlyPrefixes are routes that make no sense for a logged-in session.
var authOnlyPrefixes = []string{
	RouteLogin,
	RouteSignup,
}

// Action says what the caller should do with the navigation.
type Action int

const (
	// Allow lets the navigation proceed unchanged.
	Allow Action = iota
	// Redirect sends the user to Decision.Target instead.
	Redirect
)

// Decision is the outcome of evaluating one navigation. Redirects always
// replace the history entry so the back button cannot loop onto a blocked
// page.
type Decision struct {
	Action  Action
	Target  string
	Replace bool
}

func allow() Decision {
	return Decision{Action: Allow}
}

func redirect(target string) Decision {
	return Decision{Action: Redirect, Target: target, Replace: true}
}

// Evaluate resolves whether session may view path. Total over incomplete
// sessions: the zero value behaves as an anonymous visitor with no
// permissions.
func Evaluate(session model.Session, path string) Decision {
	if !session.IsLoggedIn {
		if hasAnyPrefix(path, publicPrefixes) {
			return allow()
		}
		return redirect(RouteLogin)
	}

	if hasAnyPrefix(path, authOnlyPrefixes) {
		return redirect(roleHome(session))
	}

	if path == "/" || path == "" {
		return redirect(roleHome(session))
	}

	if strings.HasPrefix(path, RouteAdmin) {
		if !HasPermission(model.PermAccessDashboard, session.Permissions) {
			return redirect(RouteHome)
		}
		if path == RouteAdmin {
			return redirect(RouteAdminDashboard)
		}
	}

	return allow()
}

// roleHome is where a logged-in user lands by default.
func roleHome(session model.Session) string {
	if session.UserRole == model.RoleAdmin {
		return RouteAdminDashboard
	}
	return RouteHome
}

// HasPermission reports whether perms grants name: some entry matches by
// username and is not soft-deleted. Pure and total; nil and empty sets
// grant nothing.
func HasPermission(name string, perms []model.Permission) bool {
	return model.HasPermission(name, perms)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
