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
)

const (
	postListPath    = "/blog/posts"
	postDefaultSort = "title"
)

var postsCrumb = breadcrumb.Breadcrumb{Name: "Posts", URL: postListPath}

func (h *BlogHandler) PostList(w http.ResponseWriter, r *http.Request) {
	lq, page := listRequest(r, h.pageSize, postDefaultSort, "topic")
	posts, pagination, err := runList(r, lq, page, postDefaultSort, func(q repositories.ListQuery) ([]models.BlogPost, int64, error) {
		return h.blog.ListPosts(r.Context(), q)
	})
	if err != nil {
		renderServiceError(h.render, w, r, "PostList", err)
		return
	}

	user := helpers.UserFromContext(r.Context())
	data := &PostListPageData{
		BasePageData: helpers.GetBaseData(r, "Posts", postsCrumb),
		Posts:        posts,
		Pagination:   pagination,
		Search:       lq.Search,
		Sort:         r.URL.Query().Get("sort"),
		Topic:        lq.Filters["topic"],
		CanCreate:    h.blog.CanDo(r.Context(), user, models.CapAddBlogPost),
	}
	if !helpers.IsPartialRequest(r) {
		topics, err := h.blog.AllTopics(r.Context())
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("PostList: failed to load topics")
		}
		data.TopicOptions = topicOptions(topics, data.Topic, 0)
	}
	renderList(h.render, w, r, "blog/post_list", "blog/components/post_table", data)
}

// commentList builds the comment fragment data for a post.
func (h *BlogHandler) commentList(r *http.Request, postID uint) (CommentList, error) {
	user := helpers.UserFromContext(r.Context())
	comments, err := h.blog.Comments(r.Context(), postID)
	if err != nil {
		return CommentList{}, err
	}
	canDeleteAny := h.blog.CanDo(r.Context(), user, models.CapDeleteComment)
	list := CommentList{PostID: postID, CanComment: user != nil, Comments: make([]CommentView, 0, len(comments))}
	for _, c := range comments {
		list.Comments = append(list.Comments, CommentView{
			Comment:   c,
			CanRemove: user != nil && (canDeleteAny || c.AuthorID == user.ID),
		})
	}
	return list, nil
}

func (h *BlogHandler) PostDetail(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	post, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "PostDetail", err)
		return
	}
	next, err := h.blog.NextPost(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "PostDetail", err)
		return
	}
	comments, err := h.commentList(r, id)
	if err != nil {
		renderServiceError(h.render, w, r, "PostDetail", err)
		return
	}

	user := helpers.UserFromContext(r.Context())
	data := &PostDetailPageData{
		BasePageData: helpers.GetBaseData(r, post.Title, postsCrumb, breadcrumb.Breadcrumb{Name: post.Title, URL: r.URL.Path}),
		Post:         post,
		Next:         next,
		ImageURL:     h.blog.Media().URL(post.Image),
		CanChange:    h.blog.CanDo(r.Context(), user, models.CapChangeBlogPost),
		CanDelete:    h.blog.CanDo(r.Context(), user, models.CapDeleteBlogPost),
		CommentList:  comments,
	}
	h.render.HTML(w, http.StatusOK, "blog/post_detail", data)
}

func (h *BlogHandler) postFormPage(r *http.Request, title, action string, isEdit bool, form PostForm, exclude uint) *PostFormPageData {
	data := &PostFormPageData{
		BasePageData: helpers.GetBaseData(r, title, postsCrumb, breadcrumb.Breadcrumb{Name: title, URL: action}),
		FormAction:   action,
		IsEdit:       isEdit,
		Form:         form,
		Errors:       map[string]string{},
	}
	topics, err := h.blog.AllTopics(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("postFormPage: failed to load topics")
	}
	posts, err := h.blog.AllPosts(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("postFormPage: failed to load posts")
	}
	data.TopicOptions = topicOptions(topics, form.Topic, 0)
	data.PreviousOptions = postOptions(posts, form.Previous, exclude)
	return data
}

func (h *BlogHandler) PostCreateGet(w http.ResponseWriter, r *http.Request) {
	data := h.postFormPage(r, "New post", "/blog/posts/create", false, PostForm{}, 0)
	h.render.HTML(w, http.StatusOK, "blog/post_form", data)
}

func (h *BlogHandler) PostCreatePost(w http.ResponseWriter, r *http.Request) {
	h.savePost(w, r, 0)
}

func (h *BlogHandler) PostUpdateGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	post, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "PostUpdateGet", err)
		return
	}
	form := PostForm{
		Title:    post.Title,
		Content:  post.Content,
		Topic:    optionalIDString(post.TopicID),
		Previous: optionalIDString(post.PreviousID),
	}
	data := h.postFormPage(r, "Edit post", fmt.Sprintf("/blog/posts/update/%d", id), true, form, id)
	data.ImageURL = h.blog.Media().URL(post.Image)
	h.render.HTML(w, http.StatusOK, "blog/post_form", data)
}

func (h *BlogHandler) PostUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	h.savePost(w, r, id)
}

func (h *BlogHandler) savePost(w http.ResponseWriter, r *http.Request, id uint) {
	if err := parseForm(r); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("savePost: error parsing form")
		helpers.RedirectWithMessage(w, r, postListPath, "error", "Could not read the submitted form.")
		return
	}
	form := PostForm{
		Title:    r.PostFormValue("title"),
		Content:  r.PostFormValue("content"),
		Topic:    r.PostFormValue("topic"),
		Previous: r.PostFormValue("previous"),
	}
	title, action := "New post", "/blog/posts/create"
	if id != 0 {
		title, action = "Edit post", fmt.Sprintf("/blog/posts/update/%d", id)
	}

	fieldErrs := map[string]string{}
	in := services.PostInput{
		Title:      form.Title,
		Content:    form.Content,
		TopicID:    optionalID(form.Topic, "topic", fieldErrs),
		PreviousID: optionalID(form.Previous, "previous", fieldErrs),
	}
	up, err := formUpload(r, "image")
	if err != nil {
		if err = uploadError(err, "image", fieldErrs); err != nil {
			renderServiceError(h.render, w, r, "savePost", err)
			return
		}
	}
	in.Image = up

	if len(fieldErrs) == 0 {
		actor := helpers.UserFromContext(r.Context())
		if id == 0 {
			_, err = h.blog.CreatePost(r.Context(), actor, in)
		} else {
			_, err = h.blog.UpdatePost(r.Context(), actor, id, in)
		}
		if err == nil {
			http.Redirect(w, r, postListPath, http.StatusSeeOther)
			return
		}
		var ok bool
		if fieldErrs, ok = formErrors(err); !ok {
			renderServiceError(h.render, w, r, "savePost", err)
			return
		}
	}

	data := h.postFormPage(r, title, action, id != 0, form, id)
	data.Errors = fieldErrs
	h.render.HTML(w, http.StatusOK, "blog/post_form", data)
}

func (h *BlogHandler) PostDeleteGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	post, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		renderServiceError(h.render, w, r, "PostDeleteGet", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "confirm_delete", &ConfirmDeletePageData{
		BasePageData: helpers.GetBaseData(r, "Delete post", postsCrumb, breadcrumb.Breadcrumb{Name: "Delete", URL: r.URL.Path}),
		ObjectLabel:  "post",
		ObjectName:   post.Title,
		FormAction:   r.URL.Path,
		CancelURL:    postListPath,
	})
}

func (h *BlogHandler) PostDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	if err := h.blog.DeletePost(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		renderServiceError(h.render, w, r, "PostDeletePost", err)
		return
	}
	http.Redirect(w, r, postListPath, http.StatusSeeOther)
}
