package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"zenith/internal/middleware"
	"zenith/internal/models"
	"zenith/internal/service"
	"zenith/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondError renders err with the status its AppError code maps to.
// Anything that is not an AppError becomes a 500 and is logged.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	appErr := models.AsAppError(err)
	status := appErr.HTTPStatus()
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, appErr)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parseBody decodes the JSON body into req and runs its validate tags.
// On failure it writes a 400 and returns errResponseWritten.
func (s *Server) parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	if err := validation.Struct(req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
		return errResponseWritten
	}
	return nil
}

// parsePage reads page, size, sortBy and sortDirection and resolves them
// against the resource's sort allow-list.
func (s *Server) parsePage(c *fiber.Ctx, fields service.SortFields) (models.PageRequest, error) {
	number, ok := s.queryInt(c, "page", 0)
	if !ok {
		return models.PageRequest{}, errResponseWritten
	}
	size, ok := s.queryInt(c, "size", service.DefaultPageSize)
	if !ok {
		return models.PageRequest{}, errResponseWritten
	}
	page, err := service.ResolvePage(service.PageInput{
		Page:          number,
		Size:          size,
		SortBy:        c.Query("sortBy"),
		SortDirection: c.Query("sortDirection"),
	}, fields)
	if err != nil {
		_ = s.respondError(c, err)
		return models.PageRequest{}, errResponseWritten
	}
	return page, nil
}

// queryInt reads an optional integer query parameter. Non-numeric values get
// a 400 instead of silently falling back to def.
func (s *Server) queryInt(c *fiber.Ctx, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(humanizeParam(key)+" must be an integer"))
		return 0, false
	}
	return n, true
}

// queryID reads an optional positive numeric query parameter; 0 means absent.
func (s *Server) queryID(c *fiber.Ctx, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	id := c.QueryInt(key, -1)
	if id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(key)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

func (s *Server) postStatusQuery(c *fiber.Ctx) (models.PostStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return "", nil
	}
	status, ok := models.ParsePostStatus(raw)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid post status: "+raw))
		return "", errResponseWritten
	}
	return status, nil
}

func (s *Server) commentStatusQuery(c *fiber.Ctx) (models.CommentStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return "", nil
	}
	status, ok := models.ParseCommentStatus(raw)
	if !ok {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("invalid comment status: "+raw))
		return "", errResponseWritten
	}
	return status, nil
}
