package api

import (
	"net/http"
	"time"

	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/services"
	"github.com/samber/lo"
)

type TaskOut struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Category    string    `json:"category"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func taskOut(t *models.Task) TaskOut {
	out := TaskOut{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Category:    t.Category,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.CreatedBy != nil {
		out.CreatedBy = t.CreatedBy.Email
	}
	return out
}

var taskKeys = []string{"title", "description", "status", "category"}

func readTask(p payload, in *services.TaskInput, required ...string) error {
	f := newFieldReader(p)
	f.Require(required...)
	f.String("title", &in.Title)
	f.String("description", &in.Description)
	status := string(in.Status)
	f.String("status", &status)
	in.Status = models.TaskStatus(status)
	f.String("category", &in.Category)
	return f.Err()
}

// ListTasks only ever returns the caller's own tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	lq, err := h.listQuery(r, map[string]string{"status": "status", "category": "category"})
	if err != nil {
		h.fail(w, r, "ListTasks", err)
		return
	}
	tasks, total, err := h.tasks.ListTasks(r.Context(), helpers.UserFromContext(r.Context()), lq)
	if err != nil {
		h.fail(w, r, "ListTasks", err)
		return
	}
	items := lo.Map(tasks, func(t models.Task, _ int) TaskOut { return taskOut(&t) })
	h.render.JSON(w, http.StatusOK, Page[TaskOut]{Items: items, Count: total})
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, "CreateTask", err)
		return
	}
	in := services.TaskInput{Status: models.TaskStatusNew}
	if err := readTask(p, &in, "title"); err != nil {
		h.fail(w, r, "CreateTask", err)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), helpers.UserFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, r, "CreateTask", err, bodyLoc...)
		return
	}
	h.render.JSON(w, http.StatusOK, taskOut(task))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), helpers.UserFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, r, "GetTask", err)
		return
	}
	h.render.JSON(w, http.StatusOK, taskOut(task))
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	p, err := decodePayload(r)
	if err != nil {
		h.fail(w, r, "UpdateTask", err)
		return
	}

	user := helpers.UserFromContext(r.Context())
	var in services.TaskInput
	required := taskKeys
	if r.Method == http.MethodPatch {
		current, err := h.tasks.GetTask(r.Context(), user, id)
		if err != nil {
			h.fail(w, r, "UpdateTask", err)
			return
		}
		in = services.TaskInput{
			Title:       current.Title,
			Description: current.Description,
			Status:      current.Status,
			Category:    current.Category,
		}
		required = nil
	}
	if err := readTask(p, &in, required...); err != nil {
		h.fail(w, r, "UpdateTask", err)
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), user, id, in)
	if err != nil {
		h.fail(w, r, "UpdateTask", err, bodyLoc...)
		return
	}
	h.render.JSON(w, http.StatusOK, taskOut(task))
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		h.fail(w, r, "DeleteTask", err)
		return
	}
	h.render.JSON(w, http.StatusOK, Success{Success: true})
}
