package services

import (
	"context"
	"errors"
	"strings"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

type TopicInput struct {
	Name          string `json:"name" form:"name" validate:"required,max=50"`
	ParentTopicID *uint  `json:"parent_topic" form:"parent_topic"`
}

type PostInput struct {
	Title      string  `json:"title" form:"title" validate:"required,max=200"`
	Content    string  `json:"content" form:"content" validate:"required"`
	TopicID    *uint   `json:"topic" form:"topic"`
	PreviousID *uint   `json:"previous" form:"previous"`
	Image      *Upload `json:"-" form:"-"`
}

type BlogService struct {
	topics   repositories.TopicRepositoryImpl
	posts    repositories.BlogPostRepositoryImpl
	comments repositories.CommentRepositoryImpl
	perms    repositories.PermissionRepositoryImpl
	media    *MediaStore
	jobs     JobQueue
	validate *validator.Validate
}

func NewBlogService(
	topics repositories.TopicRepositoryImpl,
	posts repositories.BlogPostRepositoryImpl,
	comments repositories.CommentRepositoryImpl,
	perms repositories.PermissionRepositoryImpl,
	media *MediaStore,
	jobs JobQueue,
	validate *validator.Validate,
) *BlogService {
	return &BlogService{
		topics:   topics,
		posts:    posts,
		comments: comments,
		perms:    perms,
		media:    media,
		jobs:     jobs,
		validate: validate,
	}
}

func (s *BlogService) Media() *MediaStore {
	return s.media
}

func (s *BlogService) GetTopic(ctx context.Context, id uint) (*models.Topic, error) {
	return s.topics.GetByID(ctx, id)
}

func (s *BlogService) ListTopics(ctx context.Context, q repositories.ListQuery) ([]models.Topic, int64, error) {
	return s.topics.List(ctx, q)
}

func (s *BlogService) AllTopics(ctx context.Context) ([]models.Topic, error) {
	return s.topics.All(ctx)
}

func (s *BlogService) validateTopic(ctx context.Context, id uint, in *TopicInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}
	if id != 0 && in.ParentTopicID != nil && *in.ParentTopicID == id {
		return invalid("parent_topic", "value_error", "A topic cannot be its own parent.")
	}
	taken, err := s.topics.NameTaken(ctx, in.Name, id)
	if err != nil {
		return err
	}
	if taken {
		return invalid("name", "unique", "Topic with this Name already exists.")
	}
	return checkReference(ctx, "parent_topic", in.ParentTopicID, s.topics.Exists)
}

func (s *BlogService) CreateTopic(ctx context.Context, actor *models.User, in TopicInput) (*models.Topic, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapAddTopic); err != nil {
		return nil, err
	}
	if err := s.validateTopic(ctx, 0, &in); err != nil {
		return nil, err
	}
	topic := &models.Topic{Name: in.Name, ParentTopicID: in.ParentTopicID}
	if err := s.topics.Create(ctx, topic); err != nil {
		return nil, topicWriteError(err)
	}
	return s.topics.GetByID(ctx, topic.ID)
}

func (s *BlogService) UpdateTopic(ctx context.Context, actor *models.User, id uint, in TopicInput) (*models.Topic, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapChangeTopic); err != nil {
		return nil, err
	}
	topic, err := s.topics.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateTopic(ctx, id, &in); err != nil {
		return nil, err
	}
	topic.Name = in.Name
	topic.ParentTopicID = in.ParentTopicID
	topic.ParentTopic = nil
	if err := s.topics.Update(ctx, topic); err != nil {
		return nil, topicWriteError(err)
	}
	return s.topics.GetByID(ctx, id)
}

func (s *BlogService) DeleteTopic(ctx context.Context, actor *models.User, id uint) error {
	if err := requireCapability(ctx, s.perms, actor, models.CapDeleteTopic); err != nil {
		return err
	}
	return s.topics.Delete(ctx, id)
}

// topicWriteError turns a unique violation lost to a race into the same
// field error the pre-check produces.
func topicWriteError(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return invalid("name", "unique", "Topic with this Name already exists.")
	}
	return err
}

func (s *BlogService) GetPost(ctx context.Context, id uint) (*models.BlogPost, error) {
	return s.posts.GetByID(ctx, id)
}

// NextPost returns the post that names id as its previous, or nil.
func (s *BlogService) NextPost(ctx context.Context, id uint) (*models.BlogPost, error) {
	return s.posts.GetNext(ctx, id)
}

func (s *BlogService) ListPosts(ctx context.Context, q repositories.ListQuery) ([]models.BlogPost, int64, error) {
	return s.posts.List(ctx, q)
}

func (s *BlogService) AllPosts(ctx context.Context) ([]models.BlogPost, error) {
	return s.posts.All(ctx)
}

func (s *BlogService) validatePost(ctx context.Context, id uint, in *PostInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(s.validate, in); err != nil {
		return err
	}
	if id != 0 && in.PreviousID != nil && *in.PreviousID == id {
		return invalid("previous", "value_error", "A post cannot follow itself.")
	}
	if in.Image != nil {
		if msg := s.media.ValidateImage(in.Image); msg != "" {
			return invalid("image", "invalid_image", msg)
		}
	}
	if err := checkReference(ctx, "topic", in.TopicID, s.topics.Exists); err != nil {
		return err
	}
	return checkReference(ctx, "previous", in.PreviousID, s.posts.Exists)
}

func (s *BlogService) CreatePost(ctx context.Context, actor *models.User, in PostInput) (*models.BlogPost, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapAddBlogPost); err != nil {
		return nil, err
	}
	if err := s.validatePost(ctx, 0, &in); err != nil {
		return nil, err
	}
	authorID := actor.ID
	post := &models.BlogPost{
		Title:      in.Title,
		Content:    in.Content,
		TopicID:    in.TopicID,
		PreviousID: in.PreviousID,
		AuthorID:   &authorID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	if in.Image != nil {
		if err := s.storePostImage(ctx, post, in.Image); err != nil {
			return nil, err
		}
	}
	return s.posts.GetByID(ctx, post.ID)
}

func (s *BlogService) UpdatePost(ctx context.Context, actor *models.User, id uint, in PostInput) (*models.BlogPost, error) {
	if err := requireCapability(ctx, s.perms, actor, models.CapChangeBlogPost); err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validatePost(ctx, id, &in); err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Content = in.Content
	post.TopicID = in.TopicID
	post.PreviousID = in.PreviousID
	post.Topic, post.Previous, post.Author = nil, nil, nil
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	if in.Image != nil {
		if err := s.storePostImage(ctx, post, in.Image); err != nil {
			return nil, err
		}
	}
	return s.posts.GetByID(ctx, id)
}

func (s *BlogService) storePostImage(ctx context.Context, post *models.BlogPost, up *Upload) error {
	rel, err := s.media.Save(MediaAreaBlog, "post", post.ID, up)
	if err != nil {
		return err
	}
	if post.Image != "" && post.Image != rel {
		if err := s.media.Remove(post.Image); err != nil {
			log.Warn().Err(err).Str("file", post.Image).Msg("failed to remove replaced post image")
		}
	}
	post.Image = rel
	return s.posts.SetImage(ctx, post.ID, rel)
}

func (s *BlogService) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if err := requireCapability(ctx, s.perms, actor, models.CapDeleteBlogPost); err != nil {
		return err
	}
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.media.Remove(post.Image); err != nil {
		log.Warn().Err(err).Str("file", post.Image).Msg("failed to remove post image")
	}
	return nil
}

// CanDo is used by templates to decide which actions to show.
func (s *BlogService) CanDo(ctx context.Context, actor *models.User, capability models.Capability) bool {
	return requireCapability(ctx, s.perms, actor, capability) == nil
}
