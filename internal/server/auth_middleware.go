package server

import (
	"errors"

	"zenith/internal/middleware"
	"zenith/internal/models"

	"github.com/gofiber/fiber/v2"
)

const tokenLocal = "token"

// Authenticate resolves the bearer token, when present, to the caller's
// identity. Requests without credentials continue anonymously; a malformed
// header or a bad token is rejected with 401.
func (s *Server) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.BearerToken(c)
		if errors.Is(err, middleware.ErrNoToken) {
			return c.Next()
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		identity, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return s.respondError(c, err)
		}
		middleware.SetIdentity(c, identity)
		c.Locals(tokenLocal, token)
		return c.Next()
	}
}

// AuthRequired rejects anonymous callers with 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if middleware.IdentityFrom(c) == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		return c.Next()
	}
}

// RoleRequired rejects anonymous callers with 401 and callers holding none
// of roles with 403.
func (s *Server) RoleRequired(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := middleware.IdentityFrom(c)
		if id == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		if !id.HasRole(roles...) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Insufficient role"))
		}
		return c.Next()
	}
}
