package server

import (
	"context"

	"zenith/internal/access"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPostsByStatus handles GET /api/v1/moderator/posts?status=
func (s *Server) ListPostsByStatus(c *fiber.Ctx) error {
	status, err := s.postStatusQuery(c)
	if err != nil {
		return nil
	}
	page, err := s.parsePage(c, service.PostSortFields)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListByStatus(c.UserContext(), middleware.IdentityFrom(c), status, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(posts, toPostResponse))
}

// UpdatePostStatus handles PATCH /api/v1/moderator/posts/:id/status
// @Summary Set a post's status
// @Tags moderation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body statusRequest true "DRAFT, PUBLISHED or ARCHIVED"
// @Success 200 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /moderator/posts/{id}/status [patch]
func (s *Server) UpdatePostStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req statusRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	status, ok := models.ParsePostStatus(req.Status)
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid post status: "+req.Status))
	}
	post, err := s.postService.UpdateStatus(c.UserContext(), middleware.IdentityFrom(c), id, status)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(toPostResponse(*post))
}

type postTransition func(ctx context.Context, actor *access.Identity, id uint) (*models.Post, error)

func (s *Server) postTransitionHandler(fn postTransition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		post, err := fn(c.UserContext(), middleware.IdentityFrom(c), id)
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(toPostResponse(*post))
	}
}

// PublishPost handles PATCH /api/v1/moderator/posts/:id/publish
func (s *Server) PublishPost(c *fiber.Ctx) error {
	return s.postTransitionHandler(s.postService.Publish)(c)
}

// ArchivePost handles PATCH /api/v1/moderator/posts/:id/archive
func (s *Server) ArchivePost(c *fiber.Ctx) error {
	return s.postTransitionHandler(s.postService.Archive)(c)
}

// ListCommentsByStatus handles GET /api/v1/moderator/comments?status=; the
// queue defaults to PENDING.
func (s *Server) ListCommentsByStatus(c *fiber.Ctx) error {
	status, err := s.commentStatusQuery(c)
	if err != nil {
		return nil
	}
	page, err := s.parsePage(c, service.CommentSortFields)
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListByStatus(c.UserContext(), middleware.IdentityFrom(c), status, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(comments, toCommentResponse))
}

type commentTransition func(ctx context.Context, actor *access.Identity, id uint) (*models.Comment, error)

func (s *Server) commentTransitionHandler(fn commentTransition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		comment, err := fn(c.UserContext(), middleware.IdentityFrom(c), id)
		if err != nil {
			return s.respondError(c, err)
		}
		return c.JSON(toCommentResponse(*comment))
	}
}

// ApproveComment handles PATCH /api/v1/moderator/comments/:id/approve
func (s *Server) ApproveComment(c *fiber.Ctx) error {
	return s.commentTransitionHandler(s.commentService.Approve)(c)
}

// MarkCommentSpam handles PATCH /api/v1/moderator/comments/:id/spam
func (s *Server) MarkCommentSpam(c *fiber.Ctx) error {
	return s.commentTransitionHandler(s.commentService.MarkSpam)(c)
}

// ArchiveComment handles PATCH /api/v1/moderator/comments/:id/archive
func (s *Server) ArchiveComment(c *fiber.Ctx) error {
	return s.commentTransitionHandler(s.commentService.Archive)(c)
}
