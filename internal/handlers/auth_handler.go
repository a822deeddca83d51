package handlers

import (
	"blog/internal/middleware"
	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the authentication routes. limiters run in front of
// the credential-guessing endpoints (login and both reset steps).
func (h *AuthHandler) RegisterRoutes(router fiber.Router, limiters ...fiber.Handler) {
	guarded := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, limiters...), handler)
	}

	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", guarded(h.HandleLogin)...)
	authRoutes.Get("/me", h.HandleMe)
	authRoutes.Post("/forgot-password", guarded(h.HandleForgotPassword)...)
	authRoutes.Post("/reset-password/:token", guarded(h.HandleResetPassword)...)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	result, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles user login and issues a session token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	result, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// HandleMe returns the profile of the bearer of the session token.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	token, err := middleware.BearerToken(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.UserContext(), token)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// HandleForgotPassword starts a password reset.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	result, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ResetPasswordRequest is the body of POST /auth/reset-password/:token.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// HandleResetPassword completes a password reset with the emailed secret.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return errBadBody
	}

	result, err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
