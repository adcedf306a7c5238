package api

import (
	"net/http"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/samber/lo"
)

type TopicOut struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	ParentTopic *string `json:"parent_topic"`
}

func topicOut(t *models.Topic) TopicOut {
	out := TopicOut{ID: t.ID, Name: t.Name}
	if t.ParentTopic != nil {
		out.ParentTopic = lo.ToPtr(t.ParentTopic.Name)
	}
	return out
}

var topicKeys = []string{"name", "parent_topic"}

func readTopic(p payload, in *services.TopicInput, required bool) error {
	f := newFieldReader(p)
	if required {
		f.Require(topicKeys...)
	}
	f.String("name", &in.Name)
	f.OptionalID("parent_topic", &in.ParentTopicID)
	return f.Err()
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	lq, err := h.listQuery(r, map[string]string{"parent_topic": "parent_topic_name"})
	if err != nil {
		h.fail(w, r, "ListTopics", err)
		return
	}
	topics, total, err := h.blog.ListTopics(r.Context(), lq)
	if err != nil {
		h.fail(w, r, "ListTopics", err)
		return
	}
	items := lo.Map(topics, func(t models.Topic, _ int) TopicOut { return topicOut(&t) })
	h.render.JSON(w, http.StatusOK, Page[TopicOut]{Items: items, Count: total})
}

func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	p, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, "CreateTopic", err)
		return
	}
	var in services.TopicInput
	if err := readTopic(p, &in, true); err != nil {
		h.fail(w, r, "CreateTopic", err)
		return
	}
	topic, err := h.blog.CreateTopic(r.Context(), helpers.UserFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, "CreateTopic", err, bodyLoc...)
		return
	}
	h.render.JSON(w, http.StatusOK, topicOut(topic))
}

func (h *Handler) GetTopic(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	topic, err := h.blog.GetTopic(r.Context(), id)
	if err != nil {
		h.fail(w, r, "GetTopic", err)
		return
	}
	h.render.JSON(w, http.StatusOK, topicOut(topic))
}

// UpdateTopic serves both PUT, where every key is required, and PATCH,
// where absent keys keep their stored value.
func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	p, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, "UpdateTopic", err)
		return
	}

	var in services.TopicInput
	partial := r.Method == http.MethodPatch
	if partial {
		current, err := h.blog.GetTopic(r.Context(), id)
		if err != nil {
			h.fail(w, r, "UpdateTopic", err)
			return
		}
		in = services.TopicInput{Name: current.Name, ParentTopicID: current.ParentTopicID}
	}
	if err := readTopic(p, &in, !partial); err != nil {
		h.fail(w, r, "UpdateTopic", err)
		return
	}

	topic, err := h.blog.UpdateTopic(r.Context(), helpers.UserFromContext(r.Context()), id, in)
	if err != nil {
		h.fail(w, r, "UpdateTopic", err, bodyLoc...)
		return
	}
	h.render.JSON(w, http.StatusOK, topicOut(topic))
}

func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := h.blog.DeleteTopic(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		h.fail(w, r, "DeleteTopic", err)
		return
	}
	h.render.JSON(w, http.StatusOK, Success{Success: true})
}
