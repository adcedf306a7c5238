package repositories

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaskRepositoryImpl interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uint) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uint) error
	// ListOwnedBy only ever returns tasks created by ownerID.
	ListOwnedBy(ctx context.Context, ownerID uint, q ListQuery) ([]models.Task, int64, error)
}

var taskListSpec = listSpec{
	searchColumn: "title",
	sorts: map[string]string{
		"id":         "id",
		"title":      "title",
		"status":     "status",
		"category":   "category",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	defaultSort: "id",
	filters: map[string]filterFunc{
		"status":   equals("status"),
		"category": equals("category"),
	},
	preloads: []string{"CreatedBy"},
}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepositoryImpl {
	return &taskRepository{db}
}

func (r *taskRepository) Create(ctx context.Context, task *models.Task) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error)
}

func (r *taskRepository) GetByID(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Preload("CreatedBy").First(&task, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	err := r.db.WithContext(ctx).Model(task).Omit(clause.Associations).
		Select("title", "description", "status", "category").
		Updates(task).Error
	return translateError(err)
}

func (r *taskRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) ListOwnedBy(ctx context.Context, ownerID uint, q ListQuery) ([]models.Task, int64, error) {
	return list[models.Task](ctx, r.db, q, taskListSpec, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("created_by_id = ?", ownerID)
	})
}
