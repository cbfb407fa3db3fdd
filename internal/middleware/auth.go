// Package middleware provides request-scoped HTTP middleware: logging, rate
// limiting, tracing, metrics and bearer-token plumbing.
package middleware

import (
	"context"
	"errors"
	"strings"

	"zenith/internal/access"

	"github.com/gofiber/fiber/v2"
)

// identityLocal is the Fiber locals key holding the *access.Identity.
const identityLocal = "identity"

var (
	// ErrNoToken means the request carried no credentials at all.
	ErrNoToken = errors.New("no bearer token")
	// ErrMalformedHeader means an Authorization header was present but unusable.
	ErrMalformedHeader = errors.New("invalid authorization header format")
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
// WebSocket upgrades may pass it as the "token" query parameter instead.
func BearerToken(c *fiber.Ctx) (string, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		if token := c.Query("token"); token != "" && isWebSocketUpgrade(c) {
			return token, nil
		}
		return "", ErrNoToken
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}

func isWebSocketUpgrade(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket")
}

// SetIdentity stores the caller on the request and tags the context logger with the user ID.
func SetIdentity(c *fiber.Ctx, id *access.Identity) {
	if id == nil {
		return
	}
	c.Locals(identityLocal, id)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, id.UserID))
}

// IdentityFrom returns the caller, or nil for anonymous requests.
func IdentityFrom(c *fiber.Ctx) *access.Identity {
	id, _ := c.Locals(identityLocal).(*access.Identity)
	return id
}
