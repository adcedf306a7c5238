package repositories

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepositoryImpl interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
	ListByPost(ctx context.Context, postID uint) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepositoryImpl {
	return &commentRepository{db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error)
}

// GetByID loads the author, the post and the post's author.
func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("BlogPost.Author").
		First(&comment, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := make([]models.Comment, 0)
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("blog_post_id = ?", postID).
		Order("created_at, id").
		Find(&comments).Error
	return comments, err
}
