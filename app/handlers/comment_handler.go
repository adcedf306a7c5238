package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/middlewares"
	"github.com/Rakhulsr/go-portal/app/utils/renderer"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

const commentListFragment = "blog/components/comment_list"

func (h *BlogHandler) renderComments(w http.ResponseWriter, r *http.Request, postID uint, commentErr string) {
	list, err := h.commentList(r, postID)
	if err != nil {
		renderServiceError(h.render, w, r, "renderComments", err)
		return
	}
	list.CommentError = commentErr
	data := &CommentListFragmentData{BasePageData: helpers.GetBaseData(r, ""), CommentList: list}
	h.render.HTML(w, http.StatusOK, commentListFragment, data, render.HTMLOptions{Layout: renderer.PartialLayout})
}

// AddComment stores a comment and answers with the refreshed comment list.
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("AddComment: error parsing form")
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	postID, err := helpers.ParseUint(r.PostFormValue("blog_post"))
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}

	_, err = h.blog.AddComment(r.Context(), helpers.UserFromContext(r.Context()), postID, r.PostFormValue("content"))
	if err != nil {
		if fieldErrs, ok := formErrors(err); ok && fieldErrs["content"] != "" {
			h.renderComments(w, r, postID, fieldErrs["content"])
			return
		}
		renderServiceError(h.render, w, r, "AddComment", err)
		return
	}
	h.renderComments(w, r, postID, "")
}

// RemoveComment deletes a comment and answers with the remaining comments
// of its post.
func (h *BlogHandler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	comment, err := h.blog.RemoveComment(r.Context(), helpers.UserFromContext(r.Context()), id)
	if err != nil {
		renderServiceError(h.render, w, r, "RemoveComment", err)
		return
	}
	h.renderComments(w, r, comment.BlogPostID, "")
}
