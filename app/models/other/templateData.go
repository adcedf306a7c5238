package other

import (
	"html/template"
	"net/url"

	"github.com/Rakhulsr/go-portal/app/utils/breadcrumb"
)

type UserForTemplate struct {
	ID           uint
	FirstName    string
	LastName     string
	Email        string
	ProfileImage string
	IsSuperuser  bool
}

type BasePageData struct {
	Title         string
	IsLoggedIn    bool
	User          *UserForTemplate
	CSRFField     template.HTML
	CSRFToken     string
	Message       string
	MessageStatus string
	Query         url.Values
	Breadcrumbs   []breadcrumb.Breadcrumb
	CurrentPath   string
	IsAuthPage    bool
}

// Pagination describes one page of a list view.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type SelectOption struct {
	Value    string
	Label    string
	Selected bool
}
