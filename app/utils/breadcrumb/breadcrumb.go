package breadcrumb

type Breadcrumb struct {
	Name string
	URL  string
}

// Trail prepends the home link to the given crumbs. The last crumb is
// rendered as the active one.
func Trail(crumbs ...Breadcrumb) []Breadcrumb {
	return append([]Breadcrumb{{Name: "Home", URL: "/"}}, crumbs...)
}
