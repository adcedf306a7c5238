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
	taskListPath    = "/todo/tasks"
	taskDefaultSort = "-created_at"
)

var tasksCrumb = breadcrumb.Breadcrumb{Name: "Tasks", URL: taskListPath}

// TaskHandler serves the todo pages. Every page only sees the tasks of
// the logged in user.
type TaskHandler struct {
	render   *render.Render
	tasks    *services.TaskService
	pageSize int
}

func NewTaskHandler(r *render.Render, tasks *services.TaskService, pageSize int) *TaskHandler {
	return &TaskHandler{render: r, tasks: tasks, pageSize: pageSize}
}

func (h *TaskHandler) TaskList(w http.ResponseWriter, r *http.Request) {
	lq, page := listRequest(r, h.pageSize, taskDefaultSort, "status", "category")
	user := helpers.UserFromContext(r.Context())
	tasks, pagination, err := runList(r, lq, page, taskDefaultSort, func(q repositories.ListQuery) ([]models.Task, int64, error) {
		return h.tasks.ListTasks(r.Context(), user, q)
	})
	if err != nil {
		renderServiceError(h.render, w, r, "TaskList", err)
		return
	}

	data := &TaskListPageData{
		BasePageData:  helpers.GetBaseData(r, "Tasks", tasksCrumb),
		Tasks:         tasks,
		Pagination:    pagination,
		Search:        lq.Search,
		Sort:          r.URL.Query().Get("sort"),
		Status:        lq.Filters["status"],
		StatusOptions: statusOptions(lq.Filters["status"]),
	}
	renderList(h.render, w, r, "todo/task_list", "todo/components/task_table", data)
}

func (h *TaskHandler) TaskDetail(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), helpers.UserFromContext(r.Context()), id)
	if err != nil {
		renderServiceError(h.render, w, r, "TaskDetail", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "todo/task_detail", &TaskDetailPageData{
		BasePageData: helpers.GetBaseData(r, task.Title, tasksCrumb, breadcrumb.Breadcrumb{Name: task.Title, URL: r.URL.Path}),
		Task:         task,
	})
}

func (h *TaskHandler) taskFormPage(r *http.Request, title, action string, isEdit bool, form TaskForm) *TaskFormPageData {
	return &TaskFormPageData{
		BasePageData:  helpers.GetBaseData(r, title, tasksCrumb, breadcrumb.Breadcrumb{Name: title, URL: action}),
		FormAction:    action,
		IsEdit:        isEdit,
		Form:          form,
		Errors:        map[string]string{},
		StatusOptions: statusOptions(form.Status),
	}
}

func (h *TaskHandler) TaskCreateGet(w http.ResponseWriter, r *http.Request) {
	form := TaskForm{Status: string(models.TaskStatusNew)}
	h.render.HTML(w, http.StatusOK, "todo/task_form", h.taskFormPage(r, "New task", "/todo/tasks/create", false, form))
}

func (h *TaskHandler) TaskCreatePost(w http.ResponseWriter, r *http.Request) {
	h.saveTask(w, r, 0)
}

func (h *TaskHandler) TaskUpdateGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), helpers.UserFromContext(r.Context()), id)
	if err != nil {
		renderServiceError(h.render, w, r, "TaskUpdateGet", err)
		return
	}
	form := TaskForm{Title: task.Title, Description: task.Description, Status: string(task.Status), Category: task.Category}
	h.render.HTML(w, http.StatusOK, "todo/task_form", h.taskFormPage(r, "Edit task", fmt.Sprintf("/todo/tasks/update/%d", id), true, form))
}

func (h *TaskHandler) TaskUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	h.saveTask(w, r, id)
}

func (h *TaskHandler) saveTask(w http.ResponseWriter, r *http.Request, id uint) {
	if err := r.ParseForm(); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("saveTask: error parsing form")
		helpers.RedirectWithMessage(w, r, taskListPath, "error", "Could not read the submitted form.")
		return
	}
	form := TaskForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Status:      r.PostFormValue("status"),
		Category:    r.PostFormValue("category"),
	}
	in := services.TaskInput{
		Title:       form.Title,
		Description: form.Description,
		Status:      models.TaskStatus(form.Status),
		Category:    form.Category,
	}

	actor := helpers.UserFromContext(r.Context())
	var err error
	if id == 0 {
		_, err = h.tasks.CreateTask(r.Context(), actor, in)
	} else {
		_, err = h.tasks.UpdateTask(r.Context(), actor, id, in)
	}
	if err == nil {
		http.Redirect(w, r, taskListPath, http.StatusSeeOther)
		return
	}
	fieldErrs, ok := formErrors(err)
	if !ok {
		renderServiceError(h.render, w, r, "saveTask", err)
		return
	}

	title, action := "New task", "/todo/tasks/create"
	if id != 0 {
		title, action = "Edit task", fmt.Sprintf("/todo/tasks/update/%d", id)
	}
	data := h.taskFormPage(r, title, action, id != 0, form)
	data.Errors = fieldErrs
	h.render.HTML(w, http.StatusOK, "todo/task_form", data)
}

func (h *TaskHandler) TaskDeleteGet(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	task, err := h.tasks.GetTask(r.Context(), helpers.UserFromContext(r.Context()), id)
	if err != nil {
		renderServiceError(h.render, w, r, "TaskDeleteGet", err)
		return
	}
	h.render.HTML(w, http.StatusOK, "confirm_delete", &ConfirmDeletePageData{
		BasePageData: helpers.GetBaseData(r, "Delete task", tasksCrumb, breadcrumb.Breadcrumb{Name: "Delete", URL: r.URL.Path}),
		ObjectLabel:  "task",
		ObjectName:   task.Title,
		FormAction:   r.URL.Path,
		CancelURL:    taskListPath,
	})
}

func (h *TaskHandler) TaskDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := helpers.ParseIDParam(r)
	if err != nil {
		middlewares.NotFound(h.render, w, r)
		return
	}
	if err := h.tasks.DeleteTask(r.Context(), helpers.UserFromContext(r.Context()), id); err != nil {
		renderServiceError(h.render, w, r, "TaskDeletePost", err)
		return
	}
	http.Redirect(w, r, taskListPath, http.StatusSeeOther)
}
