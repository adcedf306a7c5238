package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/go-playground/validator/v10"
)

type TaskInput struct {
	Title       string            `json:"title" form:"title" validate:"required,max=100"`
	Description string            `json:"description" form:"description"`
	Status      models.TaskStatus `json:"status" form:"status"`
	Category    string            `json:"category" form:"category" validate:"max=50"`
}

// TaskService scopes every read and write to the acting user's own tasks.
type TaskService struct {
	tasks    repositories.TaskRepositoryImpl
	validate *validator.Validate
}

func NewTaskService(tasks repositories.TaskRepositoryImpl, validate *validator.Validate) *TaskService {
	return &TaskService{tasks: tasks, validate: validate}
}

func (s *TaskService) validateTask(in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	if in.Status == "" {
		in.Status = models.TaskStatusNew
	}
	var errs ValidationErrors
	if err := validateStruct(s.validate, in); err != nil {
		verrs, ok := err.(ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, verrs...)
	}
	if !in.Status.Valid() {
		errs = append(errs, FieldError{
			Field:   "status",
			Type:    "enum",
			Message: fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", in.Status),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *TaskService) ListTasks(ctx context.Context, actor *models.User, q repositories.ListQuery) ([]models.Task, int64, error) {
	if actor == nil {
		return nil, 0, ErrPermissionDenied
	}
	return s.tasks.ListOwnedBy(ctx, actor.ID, q)
}

// GetTask reports ErrNotFound for missing tasks and ErrNotOwner for
// tasks of other users.
func (s *TaskService) GetTask(ctx context.Context, actor *models.User, id uint) (*models.Task, error) {
	if actor == nil {
		return nil, ErrPermissionDenied
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.CreatedByID == nil || *task.CreatedByID != actor.ID {
		return nil, ErrNotOwner
	}
	return task, nil
}

func (s *TaskService) CreateTask(ctx context.Context, actor *models.User, in TaskInput) (*models.Task, error) {
	if actor == nil {
		return nil, ErrPermissionDenied
	}
	if err := s.validateTask(&in); err != nil {
		return nil, err
	}
	ownerID := actor.ID
	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Category:    in.Category,
		CreatedByID: &ownerID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, task.ID)
}

func (s *TaskService) UpdateTask(ctx context.Context, actor *models.User, id uint, in TaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateTask(&in); err != nil {
		return nil, err
	}
	task.Title = in.Title
	task.Description = in.Description
	task.Status = in.Status
	task.Category = in.Category
	task.CreatedBy = nil
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) DeleteTask(ctx context.Context, actor *models.User, id uint) error {
	if _, err := s.GetTask(ctx, actor, id); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, id)
}
