package hangout

// RootRoute is the screen every relationship transition lives under.
const RootRoute = "/hangouts"

// Route is a navigation target.
type Route struct {
	FeatureRoute string `json:"featureRoute"`
	Route        string `json:"route"`
}

// RouteFor returns the screen that reflects state s.
func RouteFor(s State) Route {
	return Route{FeatureRoute: "/" + string(s), Route: RootRoute}
}

// Navigator changes the visible screen.
type Navigator interface {
	Navigate(Route)
}

// NavigatorFunc adapts a plain function to Navigator.
type NavigatorFunc func(Route)

// Navigate calls f(r).
func (f NavigatorFunc) Navigate(r Route) { f(r) }
