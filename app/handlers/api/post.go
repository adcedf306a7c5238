package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/samber/lo"
)

const multipartMemory = services.MaxUploadSize + 1<<20

type PostOut struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Topic     *string   `json:"topic"`
	Author    *string   `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Previous  *string   `json:"previous"`
	Next      *string   `json:"next"`
	Image     *string   `json:"image"`
}

// postOut resolves the derived next post, which is not stored on the row.
func (h *Handler) postOut(ctx context.Context, p *models.BlogPost) (PostOut, error) {
	out := PostOut{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
	}
	if p.Topic != nil {
		out.Topic = lo.ToPtr(p.Topic.Name)
	}
	if p.Author != nil {
		out.Author = lo.ToPtr(p.Author.Email)
	}
	if p.Previous != nil {
		out.Previous = lo.ToPtr(p.Previous.Title)
	}
	if url := h.blog.Media().URL(p.Image); url != "" {
		out.Image = &url
	}
	next, err := h.blog.NextPost(ctx, p.ID)
	if err != nil {
		return out, err
	}
	if next != nil {
		out.Next = lo.ToPtr(next.Title)
	}
	return out, nil
}

func (h *Handler) writePost(w http.ResponseWriter, r *http.Request, where string, post *models.BlogPost) {
	out, err := h.postOut(r.Context(), post)
	if err != nil {
		h.fail(w, r, where, err)
		return
	}
	h.render.JSON(w, http.StatusOK, out)
}

var postKeys = []string{"title", "topic", "content", "previous"}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	lq, err := h.listQuery(r, map[string]string{"topic": "topic_name"})
	if err != nil {
		h.fail(w, r, "ListPosts", err)
		return
	}
	posts, total, err := h.blog.ListPosts(r.Context(), lq)
	if err != nil {
		h.fail(w, r, "ListPosts", err)
		return
	}
	items := make([]PostOut, 0, len(posts))
	for i := range posts {
		out, err := h.postOut(r.Context(), &posts[i])
		if err != nil {
			h.fail(w, r, "ListPosts", err)
			return
		}
		items = append(items, out)
	}
	h.render.JSON(w, http.StatusOK, Page[PostOut]{Items: items, Count: total})
}

// CreatePost takes a multipart form so that an image can be attached.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		h.fail(w, r, "CreatePost", Details{{Type: "value_error", Loc: formLoc, Msg: "Form data expected"}})
		return
	}

	var details Details
	for _, k := range postKeys {
		if _, ok := r.PostForm[k]; !ok {
			details = append(details, missing(formLoc, k))
		}
	}
	in := services.PostInput{
		Title:   r.PostForm.Get("title"),
		Content: r.PostForm.Get("content"),
	}
	var d *Detail
	if in.TopicID, d = formOptionalID(r, "topic"); d != nil {
		details = append(details, *d)
	}
	if in.PreviousID, d = formOptionalID(r, "previous"); d != nil {
		details = append(details, *d)
	}
	if r.MultipartForm != nil && len(r.MultipartForm.File["image"]) > 0 {
		up, err := services.UploadFromFileHeader(r.MultipartForm.File["image"][0])
		switch {
		case errors.Is(err, services.ErrUploadTooLarge):
			details = append(details, Detail{Type: "value_error", Loc: at(formLoc, "image"), Msg: "The uploaded file is too large."})
		case err != nil:
			h.fail(w, r, "CreatePost", err)
			return
		default:
			in.Image = up
		}
	}
	if len(details) > 0 {
		h.fail(w, r, "CreatePost", details)
		return
	}

	post, err := h.blog.CreatePost(r.Context(), helpers.UserFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, "CreatePost", err, formLoc...)
		return
	}
	h.writePost(w, r, "CreatePost", post)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	post, err := h.blog.GetPost(r.Context(), id)
	if err != nil {
		h.fail(w, r, "GetPost", err)
		return
	}
	h.writePost(w, r, "GetPost", post)
}

// UpdatePost takes JSON; PUT needs every key and PATCH overlays the keys
// it was given. The image is left untouched.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	p, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, "UpdatePost", err)
		return
	}

	var in services.PostInput
	partial := r.Method == http.MethodPatch
	if partial {
		current, err := h.blog.GetPost(r.Context(), id)
		if err != nil {
			h.fail(w, r, "UpdatePost", err)
			return
		}
		in = services.PostInput{
			Title:      current.Title,
			Content:    current.Content,
			TopicID:    current.TopicID,
			PreviousID: current.PreviousID,
		}
	}

	f := newFieldReader(p)
	if !partial {
		f.Require(postKeys...)
	}
	f.String("title", &in.Title)
	f.String("content", &in.Content)
	f.OptionalID("topic", &in.TopicID)
	f.OptionalID("previous", &in.PreviousID)
	if err := f.Err(); err != nil {
		h.fail(w, r, "UpdatePost", err)
		return
	}

	post, err := h.blog.UpdatePost(r.Context(), helpers.UserFromContext(r.Context()), id, in)
	if err != nil {
		h.fail(w, r, "UpdatePost", err, bodyLoc...)
		return
	}
	h.writePost(w, r, "UpdatePost", post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := h.blog.DeletePost(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		h.fail(w, r, "DeletePost", err)
		return
	}
	h.render.JSON(w, http.StatusOK, Success{Success: true})
}
