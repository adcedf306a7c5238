package handlers

import (
	"net/http"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/rs/zerolog/hlog"
	"github.com/unrolled/render"
)

const homeRecentPosts = 3

type HomeHandler struct {
	render *render.Render
	blog   *services.BlogService
}

func NewHomeHandler(r *render.Render, blog *services.BlogService) *HomeHandler {
	return &HomeHandler{render: r, blog: blog}
}

func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := &HomePageData{BasePageData: helpers.GetBaseData(r, "Home")}

	posts, _, err := h.blog.ListPosts(r.Context(), repositories.ListQuery{Sort: "-created_at", Limit: homeRecentPosts})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Home: failed to load recent posts")
		data.Message = "Could not load recent posts."
		data.MessageStatus = "error"
	}
	data.RecentPosts = posts

	topics, err := h.blog.AllTopics(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Home: failed to load topics")
	}
	data.Topics = topics

	h.render.HTML(w, http.StatusOK, "home", data)
}
