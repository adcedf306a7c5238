package handlers

import (
	"fmt"
	"net/http"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/middlewares"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/Rakhulsr/go-portal/app/utils/breadcrumb"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

const (
	topicListPath    = "/blog/topics"
	topicDefaultSort = "name"
)

// BlogHandler serves the topic, post and comment pages.
type BlogHandler struct {
	render   *render.Render
	blog     *services.BlogService
	pageSize int
}

func NewBlogHandler(r *render.Render, blog *services.BlogService, pageSize int) *BlogHandler {
	return &BlogHandler{render: r, blog: blog, pageSize: pageSize}
}

var topicsCrumb = breadcrumb.Breadcrumb{Name: "Topics", URL: topicListPath}

func (h *BlogHandler) TopicList(w http.ResponseWriter, r *http.Request) {
	lq, page := listRequest(r, h.pageSize, topicDefaultSort, "parent_topic")
	topics, pagination, err := runList(r, lq, page, topicDefaultSort, func(q repositories.ListQuery) ([]models.Topic, int64, error) {
		return h.blog.ListTopics(r.Context(), q)
	})
	if err != nil {
		renderServiceError(h.render, w, r, "TopicList", err)
		return
	}

	user := helpers.UserFromContext(r.Context())
	data := &TopicListPageData{
		BasePageData: helpers.GetBaseData(r, "Topics", topicsCrumb),
		Topics:       topics,
		Pagination:   pagination,
		Search:       lq.Search,
		Sort:         r.URL.Query().Get("sort"),
		CanCreate:    h.blog.CanDo(r.Context(), user, models.CapAddTopic),
	}
	renderList(h.render, w, r, "blog/topic_list", "blog/components/topic_table", data)
}

func (h *BlogHandler) TopicDetail(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	topic, err := h.blog.GetTopic(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "TopicDetail", err)
		return
	}
	posts, _, err := h.blog.ListPosts(r.Context(), repositories.ListQuery{
		Filters: map[string]string{"topic": idString(id)},
		Sort:    "title",
	})
	if err != nil {
		renderServiceError(h.render, w, r, "TopicDetail", err)
		return
	}

	user := helpers.UserFromContext(r.Context())
	data := &TopicDetailPageData{
		BasePageData: helpers.GetBaseData(r, topic.Name, topicsCrumb, breadcrumb.Breadcrumb{Name: topic.Name, URL: r.URL.Path}),
		Topic:        topic,
		Posts:        posts,
		CanChange:    h.blog.CanDo(r.Context(), user, models.CapChangeTopic),
		CanDelete:    h.blog.CanDo(r.Context(), user, models.CapDeleteTopic),
	}
	h.render.HTML(w, http.StatusOK, "blog/topic_detail", data)
}

func (h *BlogHandler) topicFormPage(r *http.Request, title, action string, isEdit bool, form TopicForm, exclude uint) *TopicFormPageData {
	data := &TopicFormPageData{
		BasePageData: helpers.GetBaseData(r, title, topicsCrumb, breadcrumb.Breadcrumb{Name: title, URL: action}),
		FormAction:   action,
		IsEdit:       isEdit,
		Form:         form,
		Errors:       map[string]string{},
	}
	topics, err := h.blog.AllTopics(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("topicFormPage: failed to load topics")
		data.Message = "Could not load the topic list."
		data.MessageStatus = "error"
	}
	data.ParentOptions = topicOptions(topics, form.ParentTopic, exclude)
	return data
}

func (h *BlogHandler) TopicCreateGet(w http.ResponseWriter, r *http.Request) {
	data := h.topicFormPage(r, "New topic", "/blog/topics/create", false, TopicForm{}, 0)
	h.render.HTML(w, http.StatusOK, "blog/topic_form", data)
}

func (h *BlogHandler) TopicCreatePost(w http.ResponseWriter, r *http.Request) {
	h.saveTopic(w, r, 0)
}

func (h *BlogHandler) TopicUpdateGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	topic, err := h.blog.GetTopic(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "TopicUpdateGet", err)
		return
	}
	form := TopicForm{Name: topic.Name, ParentTopic: optionalIDString(topic.ParentTopicID)}
	data := h.topicFormPage(r, "Edit topic", fmt.Sprintf("/blog/topics/update/%d", id), true, form, id)
	h.render.HTML(w, http.StatusOK, "blog/topic_form", data)
}

func (h *BlogHandler) TopicUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	h.saveTopic(w, r, id)
}

// saveTopic creates the topic when id is zero and updates it otherwise.
func (h *BlogHandler) saveTopic(w http.ResponseWriter, r *http.Request, id uint) {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("saveTopic: error parsing form")
		helpers.RedirectWithMessage(w, r, topicListPath, "error", "Could not read the submitted form.")
		return
	}
	form := TopicForm{Name: r.PostFormValue("name"), ParentTopic: r.PostFormValue("parent_topic")}
	title, action := "New topic", "/blog/topics/create"
	if id != 0 {
		title, action = "Edit topic", fmt.Sprintf("/blog/topics/update/%d", id)
	}

	fieldErrs := map[string]string{}
	in := services.TopicInput{Name: form.Name, ParentTopicID: optionalID(form.ParentTopic, "parent_topic", fieldErrs)}
	if len(fieldErrs) == 0 {
		var err error
		if id == 0 {
			_, err = h.blog.CreateTopic(r.Context(), helpers.UserFromContext(r.Context()), in)
		} else {
			_, err = h.blog.UpdateTopic(r.Context(), helpers.UserFromContext(r.Context()), id, in)
		}
		if err == nil {
			http.Redirect(w, r, topicListPath, http.StatusSeeOther)
			return
		}
		var ok bool
		if fieldErrs, ok = formErrors(err); !ok {
			renderServiceError(h.render, w, r, "saveTopic", err)
			return
		}
	}

	data := h.topicFormPage(r, title, action, id != 0, form, id)
	data.Errors = fieldErrs
	h.render.HTML(w, http.StatusOK, "blog/topic_form", data)
}

func (h *BlogHandler) TopicDeleteGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	topic, err := h.blog.GetTopic(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "TopicDeleteGet", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "confirm_delete", &ConfirmDeletePageData{
		BasePageData: helpers.GetBaseData(r, "Delete topic", topicsCrumb, breadcrumb.Breadcrumb{Name: "Delete", URL: r.URL.Path}),
		ObjectLabel:  "topic",
		ObjectName:   topic.Name,
		FormAction:   r.URL.Path,
		CancelURL:    topicListPath,
	})
}

func (h *BlogHandler) TopicDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	if err := h.blog.DeleteTopic(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		renderServiceError(h.render, w, r, "TopicDeletePost", err)
		return
	}
	http.Redirect(w, r, topicListPath, http.StatusSeeOther)
}
