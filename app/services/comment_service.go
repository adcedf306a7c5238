package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/rs/zerolog/log"
)

type CommentEmailPayload struct {
	CommentID uint `json:"comment_id"`
}

func (s *BlogService) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

// AddComment stores the comment and queues the notification email. A
// failure to queue does not fail the comment.
func (s *BlogService) AddComment(ctx context.Context, actor *models.User, postID uint, content string) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrPermissionDenied
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("content", "missing", "Content is required.")
	}
	if err := checkReference(ctx, "blog_post", &postID, s.posts.Exists); err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, BlogPostID: postID, AuthorID: actor.ID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if s.jobs != nil {
		if err := s.jobs.Enqueue(ctx, JobCommentEmail, CommentEmailPayload{CommentID: comment.ID}); err != nil {
			log.Warn().Err(err).Uint("comment_id", comment.ID).Msg("failed to queue comment email")
		}
	}
	return comment, nil
}

// RemoveComment lets the comment author, or holders of the delete
// capability, remove a comment. It returns the removed comment.
func (s *BlogService) RemoveComment(ctx context.Context, actor *models.User, id uint) (*models.Comment, error) {
	if actor == nil {
		return nil, ErrPermissionDenied
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actor.ID {
		if err := requireCapability(ctx, s.perms, actor, models.CapDeleteComment); err != nil {
			return nil, err
		}
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return nil, err
	}
	return comment, nil
}

// NewCommentEmailJob mails the post author about a new comment. When
// notifyEmail is set every notification goes there instead.
func NewCommentEmailJob(comments repositories.CommentRepositoryImpl, sender EmailSender, notifyEmail, appURL string) JobHandler {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload CommentEmailPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return fmt.Errorf("decode comment email payload: %w", err)
		}
		comment, err := comments.GetByID(ctx, payload.CommentID)
		if err != nil {
			return fmt.Errorf("load comment %d: %w", payload.CommentID, err)
		}
		post := comment.BlogPost
		if post == nil {
			return nil
		}

		to := notifyEmail
		if to == "" && post.Author != nil {
			to = post.Author.Email
		}
		if to == "" {
			log.Debug().Uint("post_id", post.ID).Msg("post has no author, skipping comment email")
			return nil
		}

		commenter := "Someone"
		if comment.Author != nil {
			commenter = comment.Author.FullName()
		}
		postURL := fmt.Sprintf("%s/blog/posts/detail/%d", strings.TrimRight(appURL, "/"), post.ID)
		body := BuildCommentEmailBody(post.Title, commenter, comment.Content, postURL)
		return sender.SendHTMLEmail(to, "New comment on "+post.Title, body)
	}
}
