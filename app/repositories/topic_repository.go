package repositories

import (
	"context"

	"github.com/Rakhulsr/go-portal/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TopicRepositoryImpl interface {
	Create(ctx context.Context, topic *models.Topic) error
	GetByID(ctx context.Context, id uint) (*models.Topic, error)
	GetByName(ctx context.Context, name string) (*models.Topic, error)
	NameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	Update(ctx context.Context, topic *models.Topic) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, q ListQuery) ([]models.Topic, int64, error)
	All(ctx context.Context) ([]models.Topic, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

var topicListSpec = listSpec{
	searchColumn: "name",
	sorts: map[string]string{
		"id":           "id",
		"name":         "name",
		"parent_topic": "parent_topic_id",
		"created_at":   "created_at",
	},
	defaultSort: "id",
	filters: map[string]filterFunc{
		"parent_topic":      equalsID("parent_topic_id"),
		"parent_topic_name": subqueryByName("parent_topic_id", "topics"),
	},
	preloads: []string{"ParentTopic"},
}

type topicRepository struct {
	db *gorm.DB
}

func NewTopicRepository(db *gorm.DB) TopicRepositoryImpl {
	return &topicRepository{db}
}

func (r *topicRepository) Create(ctx context.Context, topic *models.Topic) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(topic).Error)
}

func (r *topicRepository) GetByID(ctx context.Context, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).Preload("ParentTopic").First(&topic, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &topic, nil
}

func (r *topicRepository) GetByName(ctx context.Context, name string) (*models.Topic, error) {
	var topic models.Topic
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&topic).Error; err != nil {
		return nil, translateError(err)
	}
	return &topic, nil
}

func (r *topicRepository) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Topic{}).
		Where("name = ? AND id <> ?", name, exceptID).
		Count(&count).Error
	return count > 0, err
}

func (r *topicRepository) Update(ctx context.Context, topic *models.Topic) error {
	err := r.db.WithContext(ctx).Model(topic).Omit(clause.Associations).
		Select("name", "parent_topic_id").
		Updates(topic).Error
	return translateError(err)
}

func (r *topicRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Topic{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *topicRepository) List(ctx context.Context, q ListQuery) ([]models.Topic, int64, error) {
	return list[models.Topic](ctx, r.db, q, topicListSpec)
}

func (r *topicRepository) All(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).Order("name").Find(&topics).Error
	return topics, err
}

func (r *topicRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Topic{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
