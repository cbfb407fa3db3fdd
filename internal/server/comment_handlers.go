package server

import (
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/v1/comments
// @Summary Comment on a post
// @Description New comments start PENDING and are pushed to the moderation feed
// @Tags comments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} CommentResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.Create(c.UserContext(), middleware.IdentityFrom(c), service.CreateCommentInput{
		PostID:  req.PostID,
		Content: req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCommentResponse(*comment))
}

// ListMyComments handles GET /api/v1/comments/me
func (s *Server) ListMyComments(c *fiber.Ctx) error {
	status, err := s.commentStatusQuery(c)
	if err != nil {
		return nil
	}
	page, err := s.parsePage(c, service.CommentSortFields)
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListMine(c.UserContext(), middleware.IdentityFrom(c), status, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(comments, toCommentResponse))
}

// UpdateComment handles PUT /api/v1/comments/:id
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updateCommentRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.Update(c.UserContext(), middleware.IdentityFrom(c), id, req.Content)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(toCommentResponse(*comment))
}

// DeleteComment handles DELETE /api/v1/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.commentService.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
