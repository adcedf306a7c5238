package repositories

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BlogPostRepositoryImpl interface {
	Create(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id uint) (*models.BlogPost, error)
	// GetNext returns the first post whose previous is id, or nil.
	GetNext(ctx context.Context, id uint) (*models.BlogPost, error)
	Update(ctx context.Context, post *models.BlogPost) error
	SetImage(ctx context.Context, id uint, path string) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q ListQuery) ([]models.BlogPost, int64, error)
	All(ctx context.Context) ([]models.BlogPost, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Images(ctx context.Context) ([]string, error)
}

func subqueryByName(column, table string) filterFunc {
	return func(tx *gorm.DB, value string) *gorm.DB {
		return tx.Where(column+" IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Table(table).Select("id").Where("name = ?", value))
	}
}

var blogPostListSpec = listSpec{
	searchColumn: "title",
	sorts: map[string]string{
		"id":         "id",
		"title":      "title",
		"topic":      "topic_id",
		"author":     "author_id",
		"created_at": "created_at",
	},
	defaultSort: "id",
	filters: map[string]filterFunc{
		"topic":      equalsID("topic_id"),
		"topic_name": subqueryByName("topic_id", "topics"),
		"author":     equalsID("author_id"),
	},
	preloads: []string{"Topic", "Author", "Previous"},
}

type blogPostRepository struct {
	db *gorm.DB
}

func NewBlogPostRepository(db *gorm.DB) BlogPostRepositoryImpl {
	return &blogPostRepository{db}
}

func (r *blogPostRepository) Create(ctx context.Context, post *models.BlogPost) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error)
}

func (r *blogPostRepository) GetByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.WithContext(ctx).
		Preload("Topic").
		Preload("Author").
		Preload("Previous").
		First(&post, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *blogPostRepository) GetNext(ctx context.Context, id uint) (*models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.WithContext(ctx).Where("previous_id = ?", id).Order("id").Limit(1).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

func (r *blogPostRepository) Update(ctx context.Context, post *models.BlogPost) error {
	err := r.db.WithContext(ctx).Model(post).Omit(clause.Associations).
		Select("title", "content", "image", "topic_id", "previous_id").
		Updates(post).Error
	return translateError(err)
}

func (r *blogPostRepository) SetImage(ctx context.Context, id uint, path string) error {
	return r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("id = ?", id).Update("image", path).Error
}

func (r *blogPostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.BlogPost{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *blogPostRepository) List(ctx context.Context, q ListQuery) ([]models.BlogPost, int64, error) {
	return list[models.BlogPost](ctx, r.db, q, blogPostListSpec)
}

func (r *blogPostRepository) All(ctx context.Context) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.WithContext(ctx).Order("id").Find(&posts).Error
	return posts, err
}

func (r *blogPostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *blogPostRepository) Images(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Where("image <> ''").Pluck("image", &paths).Error
	return paths, err
}
