package server

import (
	"strings"

	"zenith/internal/featureflags"
	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPublishedPosts handles GET /api/v1/posts/published
// @Summary List published posts
// @Description Public listing with optional category, tag and text filters
// @Tags posts
// @Produce json
// @Param categoryId query int false "Category ID"
// @Param tag query string false "Tag name"
// @Param q query string false "Search in title and content"
// @Param page query int false "Page (0-based)"
// @Param size query int false "Page size (max 100)"
// @Param sortBy query string false "createdAt, updatedAt, publishedAt, title, status, readingTime"
// @Param sortDirection query string false "asc or desc"
// @Success 200 {object} models.Page[PostResponse]
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/published [get]
func (s *Server) ListPublishedPosts(c *fiber.Ctx) error {
	page, err := s.parsePage(c, service.PostSortFields)
	if err != nil {
		return nil
	}
	categoryID, err := s.queryID(c, "categoryId")
	if err != nil {
		return nil
	}

	filter := models.PostFilter{
		CategoryID: categoryID,
		Tag:        strings.TrimSpace(c.Query("tag")),
	}
	if s.featureEnabled(c, featureflags.PostSearch) {
		filter.Query = strings.TrimSpace(c.Query("q"))
	}

	posts, err := s.postService.ListPublished(c.UserContext(), filter, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(posts, toPostResponse))
}

// ListMyPosts handles GET /api/v1/posts/me
func (s *Server) ListMyPosts(c *fiber.Ctx) error {
	status, err := s.postStatusQuery(c)
	if err != nil {
		return nil
	}
	page, err := s.parsePage(c, service.PostSortFields)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListMine(c.UserContext(), middleware.IdentityFrom(c), status, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(posts, toPostResponse))
}

// GetPost handles GET /api/v1/posts/:id
// @Summary Get a post
// @Description Published posts are public; drafts and archived posts need the author or a moderator
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Get(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(toPostResponse(*post))
}

// GetPostBySlug handles GET /api/v1/posts/slug/:slug
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.postService.GetBySlug(c.UserContext(), middleware.IdentityFrom(c), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(toPostResponse(*post))
}

// CreatePost handles POST /api/v1/posts
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} PostResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), middleware.IdentityFrom(c), service.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
		TagNames:   req.TagNames,
		Status:     models.PostStatus(req.Status),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPostResponse(*post))
}

// UpdatePost handles PUT /api/v1/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Update(c.UserContext(), middleware.IdentityFrom(c), id, service.UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		TagIDs:     req.TagIDs,
		TagNames:   req.TagNames,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(toPostResponse(*post))
}

// DeletePost handles DELETE /api/v1/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPostComments handles GET /api/v1/posts/:id/comments; only APPROVED comments are listed.
func (s *Server) ListPostComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.parsePage(c, service.CommentSortFields)
	if err != nil {
		return nil
	}
	comments, err := s.commentService.ListApprovedForPost(c.UserContext(), middleware.IdentityFrom(c), id, page)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(models.MapPage(comments, toCommentResponse))
}
