// Package nav guards in-app view transitions. Before a transition commits,
// the guard consults the session: it rehydrates a persisted credential if
// needed, sends unauthenticated visitors of protected views to the login
// view, and keeps authenticated users away from the login and registration
// views.
package nav

// Route describes one navigable view.
type Route struct {
	Name string
	Path string
	// RequiresAuth marks views that only an authenticated session may see.
	RequiresAuth bool
}

// NotFound is where unmatched paths resolve. It requires no authentication.
var NotFound = Route{Name: "NotFound", Path: "/not-found"}

// DefaultRoutes is the application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "Login", Path: "/login"},
		{Name: "Register", Path: "/register"},
		{Name: "Dashboard", Path: "/", RequiresAuth: true},
		{Name: "Transactions", Path: "/transactions", RequiresAuth: true},
		{Name: "Categories", Path: "/categories", RequiresAuth: true},
		{Name: "Groups", Path: "/groups", RequiresAuth: true},
	}
}
