package server

import (
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/v1/users/me
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.Me(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe handles PUT /api/v1/users/me
// @Summary Update profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	user, err := s.userService.UpdateProfile(c.UserContext(), middleware.IdentityFrom(c), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles PUT /api/v1/users/me/password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	err := s.userService.ChangePassword(c.UserContext(), middleware.IdentityFrom(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUser handles GET /api/v1/users/:id. Email is only shown to the user
// themselves and to admins.
func (s *Server) GetUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	caller := middleware.IdentityFrom(c)
	if caller != nil && (caller.UserID == user.ID || caller.IsAdmin()) {
		return c.JSON(user)
	}
	return c.JSON(user.Public())
}

// GetUserPosts handles GET /api/v1/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.parsePage(c, service.PostSortFields)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListByAuthor(c.UserContext(), id, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(posts, toPostResponse))
}

// ListUsers handles GET /api/v1/admin/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	page, err := s.parsePage(c, service.UserSortFields)
	if err != nil {
		return nil
	}
	users, err := s.userService.List(c.UserContext(), middleware.IdentityFrom(c), page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(users)
}

// UpdateUserRole handles PATCH /api/v1/admin/users/:id/role
// @Summary Change a user's role
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body roleRequest true "New role"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users/{id}/role [patch]
func (s *Server) UpdateUserRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req roleRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	user, err := s.userService.UpdateRole(c.UserContext(), middleware.IdentityFrom(c), id, models.Role(req.Role))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/v1/admin/users/:id
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
