package server

import (
	"zenith/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/v1/features
// @Summary Feature flags
// @Description Configured flag values and their evaluation for the caller
// @Tags features
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	var userID uint
	if id := middleware.IdentityFrom(c); id != nil {
		userID = id.UserID
	}
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

func (s *Server) featureEnabled(c *fiber.Ctx, name string) bool {
	var userID uint
	if id := middleware.IdentityFrom(c); id != nil {
		userID = id.UserID
	}
	return s.featureFlags.Enabled(name, userID)
}
