package server

import (
	"log/slog"

	"zenith/internal/access"
	"zenith/internal/featureflags"
	"zenith/internal/middleware"
	"zenith/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const identityWSLocal = "ws_identity"

// ModerationFeed handles GET /api/v1/moderator/ws. Moderators receive every
// moderation event as a JSON text frame. Browsers that cannot set headers
// pass the token as ?token=.
func (s *Server) ModerationFeed() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		id, _ := conn.Locals(identityWSLocal).(*access.Identity)
		if id == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(id.UserID, conn)
		if err != nil {
			middleware.Logger.Warn("moderation feed rejected connection",
				slog.Uint64("user_id", uint64(id.UserID)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		middleware.Logger.Info("moderator connected to feed", slog.Uint64("user_id", uint64(id.UserID)))

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !s.featureEnabled(c, featureflags.ModerationFeed) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				&models.AppError{Code: models.CodeNotFound, Message: "moderation feed is disabled"})
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		c.Locals(identityWSLocal, middleware.IdentityFrom(c))
		return upgrade(c)
	}
}
