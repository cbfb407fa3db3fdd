package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"zenith/internal/access"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/notifications"
	"zenith/internal/repository"
)

const maxCommentLength = 5000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	events      notifications.Publisher
}

type CreateCommentInput struct {
	PostID  uint
	Content string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, events notifications.Publisher) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		events:      events,
	}
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", models.NewValidationError("content must not exceed 5000 characters")
	}
	return content, nil
}

// Create adds a PENDING comment to a post the caller can see.
func (s *CommentService) Create(ctx context.Context, actor *access.Identity, in CreateCommentInput) (*models.Comment, error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return nil, err
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	if in.PostID == 0 {
		return nil, models.NewValidationError("postId is required")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewPost(actor, post).Err(); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  content,
		Status:   models.CommentStatusPending,
		PostID:   post.ID,
		AuthorID: actor.UserID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		err := s.events.Publish(ctx, notifications.Event{
			Type: notifications.EventCommentPending,
			Payload: map[string]any{
				"commentId": created.ID,
				"postId":    post.ID,
				"postTitle": post.Title,
				"author":    actor.Username,
				"excerpt":   Excerpt(created.Content),
			},
		})
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish moderation event", slog.String("error", err.Error()))
		}
	}
	return created, nil
}

// Update replaces the content; the moderation status is left as is.
func (s *CommentService) Update(ctx context.Context, actor *access.Identity, id uint, content string) (*models.Comment, error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanModify(actor, comment.AuthorID).Err(); err != nil {
		return nil, err
	}
	content, err = validateCommentContent(content)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, id)
}

func (s *CommentService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanModify(actor, comment.AuthorID).Err(); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, id)
}

func (s *CommentService) Approve(ctx context.Context, actor *access.Identity, id uint) (*models.Comment, error) {
	return s.setStatus(ctx, actor, id, models.CommentStatusApproved)
}

func (s *CommentService) MarkSpam(ctx context.Context, actor *access.Identity, id uint) (*models.Comment, error) {
	return s.setStatus(ctx, actor, id, models.CommentStatusSpam)
}

func (s *CommentService) Archive(ctx context.Context, actor *access.Identity, id uint) (*models.Comment, error) {
	return s.setStatus(ctx, actor, id, models.CommentStatusArchived)
}

func (s *CommentService) setStatus(ctx context.Context, actor *access.Identity, id uint, status models.CommentStatus) (*models.Comment, error) {
	if err := access.CanModerate(actor).Err(); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.Status == status {
		return comment, nil
	}
	if err := s.commentRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "comment moderated",
		slog.Uint64("comment_id", uint64(id)), slog.String("from", string(comment.Status)), slog.String("to", string(status)))
	comment.Status = status
	return comment, nil
}

// ListApprovedForPost is the public comment thread of a visible post.
func (s *CommentService) ListApprovedForPost(ctx context.Context, actor *access.Identity, postID uint, page models.PageRequest) (models.Page[models.Comment], error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	if err := access.CanViewPost(actor, post).Err(); err != nil {
		return models.Page[models.Comment]{}, err
	}
	return s.list(ctx, models.CommentFilter{PostID: postID, Status: models.CommentStatusApproved}, page)
}

// ListMine lists the caller's comments, optionally of one status.
func (s *CommentService) ListMine(ctx context.Context, actor *access.Identity, status models.CommentStatus, page models.PageRequest) (models.Page[models.Comment], error) {
	if err := access.RequireAuthenticated(actor).Err(); err != nil {
		return models.Page[models.Comment]{}, err
	}
	return s.list(ctx, models.CommentFilter{AuthorID: actor.UserID, Status: status}, page)
}

// ListByStatus is the moderation queue; it defaults to PENDING.
func (s *CommentService) ListByStatus(ctx context.Context, actor *access.Identity, status models.CommentStatus, page models.PageRequest) (models.Page[models.Comment], error) {
	if err := access.CanModerate(actor).Err(); err != nil {
		return models.Page[models.Comment]{}, err
	}
	if status == "" {
		status = models.CommentStatusPending
	}
	return s.list(ctx, models.CommentFilter{Status: status}, page)
}

func (s *CommentService) list(ctx context.Context, filter models.CommentFilter, page models.PageRequest) (models.Page[models.Comment], error) {
	comments, total, err := s.commentRepo.List(ctx, filter, page)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	return models.NewPage(comments, page, total), nil
}
