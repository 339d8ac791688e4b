package models

import "github.com/a-h/templ"

type NavItem struct {
	Name string
	URL  string
}

type Navigation struct {
	Items []NavItem
}

type LayoutTempl struct {
	Title     string
	User      *UserProfile
	Nav       Navigation
	ActiveNav string
	Content   templ.Component
}

// Banner is an inline message shown above a form.
type Banner struct {
	Kind        string
	Message     string
	Description string
}

const (
	BannerError   = "error"
	BannerSuccess = "success"
)

var MainNav = Navigation{
	Items: []NavItem{
		{Name: "Home", URL: "/"},
		{Name: "AI Services", URL: "/ai-services"},
		{Name: "Dashboard", URL: "/dashboard"},
	},
}

var OfflineNav = Navigation{
	Items: []NavItem{
		{Name: "Home", URL: "/"},
		{Name: "AI Services", URL: "/ai-services"},
		{Name: "Login", URL: "/login"},
		{Name: "Sign Up", URL: "/signup"},
	},
}

// NavFor picks the navigation for a visitor.
func NavFor(user *UserProfile) Navigation {
	if user != nil {
		return MainNav
	}
	return OfflineNav
}
