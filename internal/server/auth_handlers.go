package server

import (
	"zenith/internal/service"

	"github.com/gofiber/fiber/v2"
)

func toAuthResponse(r *service.AuthResult) AuthResponse {
	return AuthResponse{Token: r.Token, TokenType: r.TokenType, ExpiresAt: r.ExpiresAt, User: r.User}
}

// Register handles POST /api/v1/auth/register
// @Summary Register
// @Description Create a USER account and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAuthResponse(result))
}

// Login handles POST /api/v1/auth/login
// @Summary Login
// @Description Authenticate with username or email and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := s.parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(toAuthResponse(result))
}

// Logout handles POST /api/v1/auth/logout
// @Summary Logout
// @Description Revoke the current access token
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals(tokenLocal).(string)
	if err := s.authService.Logout(c.UserContext(), token); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
