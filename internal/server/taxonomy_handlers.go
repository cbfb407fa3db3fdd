package server

import (
	"zenith/internal/middleware"
	"zenith/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/v1/categories
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} models.Page[models.Category]
// @Router /categories [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	page, err := s.parsePage(c, service.TaxonomySortFields)
	if err != nil {
		return nil
	}
	categories, err := s.categoryService.List(c.UserContext(), page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(categories)
}

// GetCategory handles GET /api/v1/categories/:id
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.categoryService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// CreateCategory handles POST /api/v1/admin/categories
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.categoryService.Create(c.UserContext(), middleware.IdentityFrom(c),
		service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// UpdateCategory handles PUT /api/v1/admin/categories/:id
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.categoryService.Update(c.UserContext(), middleware.IdentityFrom(c), id,
		service.CategoryInput{Name: req.Name, Description: req.Description})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(category)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/:id
// @Summary Delete a category
// @Description Fails with 409 HAS_DEPENDENTS while posts still reference the category
// @Tags admin
// @Security BearerAuth
// @Param id path int true "Category ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /admin/categories/{id} [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.categoryService.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListTags handles GET /api/v1/tags
func (s *Server) ListTags(c *fiber.Ctx) error {
	page, err := s.parsePage(c, service.TaxonomySortFields)
	if err != nil {
		return nil
	}
	tags, err := s.tagService.List(c.UserContext(), page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tags)
}

// GetTag handles GET /api/v1/tags/:id
func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.tagService.Get(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tag)
}

// CreateTag handles POST /api/v1/admin/tags
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req tagRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.tagService.Create(c.UserContext(), middleware.IdentityFrom(c), req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// UpdateTag handles PUT /api/v1/admin/tags/:id
func (s *Server) UpdateTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req tagRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.tagService.Update(c.UserContext(), middleware.IdentityFrom(c), id, req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tag)
}

// DeleteTag handles DELETE /api/v1/admin/tags/:id
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.tagService.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RunCleanup handles POST /api/v1/admin/cleanup
// @Summary Purge old archived content now
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.CleanupResult
// @Router /admin/cleanup [post]
func (s *Server) RunCleanup(c *fiber.Ctx) error {
	result, err := s.cleanupService.Run(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}
