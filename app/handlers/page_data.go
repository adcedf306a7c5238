package handlers

import (
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/models/other"
)

type HomePageData struct {
	other.BasePageData
	RecentPosts []models.BlogPost
	Topics      []models.Topic
}

// AccountPageData backs every authentication page. Values holds the
// submitted form values for re-rendering.
type AccountPageData struct {
	other.BasePageData
	Values  map[string]string
	Errors  map[string]string
	Next    string
	Success bool
	Token   string
}

type ConfirmDeletePageData struct {
	other.BasePageData
	ObjectLabel string
	ObjectName  string
	FormAction  string
	CancelURL   string
}

type TopicForm struct {
	Name        string
	ParentTopic string
}

type TopicListPageData struct {
	other.BasePageData
	Topics     []models.Topic
	Pagination other.Pagination
	Search     string
	Sort       string
	CanCreate  bool
}

type TopicFormPageData struct {
	other.BasePageData
	FormAction    string
	IsEdit        bool
	Form          TopicForm
	Errors        map[string]string
	ParentOptions []other.SelectOption
}

type TopicDetailPageData struct {
	other.BasePageData
	Topic     *models.Topic
	Posts     []models.BlogPost
	CanChange bool
	CanDelete bool
}

type PostForm struct {
	Title    string
	Content  string
	Topic    string
	Previous string
}

type PostListPageData struct {
	other.BasePageData
	Posts        []models.BlogPost
	Pagination   other.Pagination
	Search       string
	Sort         string
	Topic        string
	TopicOptions []other.SelectOption
	CanCreate    bool
}

type PostFormPageData struct {
	other.BasePageData
	FormAction      string
	IsEdit          bool
	Form            PostForm
	Errors          map[string]string
	TopicOptions    []other.SelectOption
	PreviousOptions []other.SelectOption
	ImageURL        string
}

type PostDetailPageData struct {
	other.BasePageData
	Post      *models.BlogPost
	Next      *models.BlogPost
	ImageURL  string
	CanChange bool
	CanDelete bool
	CommentList
}

// CommentList is the data of the comment list fragment, rendered inside
// the post page and on its own after a comment is added or removed.
type CommentList struct {
	PostID       uint
	Comments     []CommentView
	CommentError string
	CanComment   bool
}

type CommentView struct {
	models.Comment
	CanRemove bool
}

type TaskForm struct {
	Title       string
	Description string
	Status      string
	Category    string
}

type TaskListPageData struct {
	other.BasePageData
	Tasks         []models.Task
	Pagination    other.Pagination
	Search        string
	Sort          string
	Status        string
	StatusOptions []other.SelectOption
}

type TaskFormPageData struct {
	other.BasePageData
	FormAction    string
	IsEdit        bool
	Form          TaskForm
	Errors        map[string]string
	StatusOptions []other.SelectOption
}

type TaskDetailPageData struct {
	other.BasePageData
	Task *models.Task
}

type ManufacturerListPageData struct {
	other.BasePageData
	Manufacturers []models.Manufacturer
	Pagination    other.Pagination
	Search        string
	Sort          string
	CanCreate     bool
}

type ManufacturerFormPageData struct {
	other.BasePageData
	FormAction string
	IsEdit     bool
	Name       string
	Errors     map[string]string
}

type ManufacturerDetailPageData struct {
	other.BasePageData
	Manufacturer *models.Manufacturer
	Cars         []models.Car
	CanChange    bool
	CanDelete    bool
}

type CarForm struct {
	Name         string
	Manufacturer string
	Price        string
}

type CarListPageData struct {
	other.BasePageData
	Cars                []models.Car
	Pagination          other.Pagination
	Search              string
	Sort                string
	Manufacturer        string
	ManufacturerOptions []other.SelectOption
	CanCreate           bool
}

type CarFormPageData struct {
	other.BasePageData
	FormAction          string
	IsEdit              bool
	Form                CarForm
	Errors              map[string]string
	ManufacturerOptions []other.SelectOption
}

type CarDetailPageData struct {
	other.BasePageData
	Car       *models.Car
	CanChange bool
	CanDelete bool
}

type CommentListFragmentData struct {
	other.BasePageData
	CommentList
}
