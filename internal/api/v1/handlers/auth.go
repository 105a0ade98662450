package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/pkg/logger"
)

// Login exchanges credentials for an access/refresh token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.ErrorLogger.Error("Bad request in login", zap.Error(err))
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := h.validate.Struct(req); err != nil {
		return failField(c, "credentials", "Must include username and password")
	}

	user, err := h.users.GetUserByUsername(c.Context(), req.Username)
	if err != nil {
		logger.SecurityLogger.Warn("Login for unknown user", zap.String("username", req.Username))
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("username", req.Username))
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}
	if !user.Active {
		logger.SecurityLogger.Warn("Login for disabled account", zap.String("username", req.Username))
		return fail(c, fiber.StatusUnauthorized, "User account is disabled")
	}

	access, refresh, err := h.tokens.IssuePair(user)
	if err != nil {
		logger.ErrorLogger.Error("Error generating tokens", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error generating tokens")
	}

	logger.AuditLogger.Info("Login success",
		zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	return ok(c, "Login success", fiber.Map{
		"data": fiber.Map{
			"access_token":  access,
			"refresh_token": refresh,
			"token_type":    "Bearer",
			"expires_in":    h.tokens.AccessTTLSeconds(),
			"user":          user,
		},
	})
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	type RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := h.validate.Struct(req); err != nil {
		return failField(c, "refresh_token", "Refresh token is required")
	}

	claims, err := h.tokens.ValidateRefresh(req.RefreshToken)
	if err != nil {
		logger.SecurityLogger.Warn("Invalid refresh token", zap.Error(err))
		return fail(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}

	user, err := h.users.GetUser(c.Context(), claims.UserID)
	if err != nil || !user.Active {
		logger.SecurityLogger.Warn("Refresh for missing or inactive account",
			zap.Int("user_id", claims.UserID))
		return fail(c, fiber.StatusUnauthorized, "Invalid refresh token")
	}

	access, refresh, err := h.tokens.IssuePair(user)
	if err != nil {
		logger.ErrorLogger.Error("Error generating tokens", zap.Error(err))
		return fail(c, fiber.StatusInternalServerError, "Error generating tokens")
	}

	return ok(c, "Token refreshed", fiber.Map{
		"data": fiber.Map{
			"access_token":  access,
			"refresh_token": refresh,
			"token_type":    "Bearer",
			"expires_in":    h.tokens.AccessTTLSeconds(),
		},
	})
}
