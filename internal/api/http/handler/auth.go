package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/EternisAI/dockpanel/internal/api/http/dto"
	"github.com/EternisAI/dockpanel/internal/apierror"
	"github.com/EternisAI/dockpanel/internal/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	guard *auth.Guard
}

func NewAuthHandler(guard *auth.Guard) *AuthHandler {
	return &AuthHandler{guard: guard}
}

// Login exchanges the operator's username and password for a token. Only a
// body that is not JSON is a 400; empty fields are a bad pair like any other.
// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Debug("Login body rejected", "error", err, "client_ip", c.ClientIP())
		respondError(c, apierror.BadRequest("invalid request body"))
		return
	}

	cred, err := h.guard.Issue(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			slog.Debug("Login rejected", "username", req.Username, "client_ip", c.ClientIP())
			respondError(c, apierror.Unauthorized())
			return
		}
		slog.Error("Failed to issue token", "error", err)
		respondError(c, &apierror.APIError{Status: http.StatusInternalServerError, Description: "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token:     cred.Token,
		Message:   "Login successful",
		ExpiresAt: cred.ExpiresAt.Unix(),
	})
}
