package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-catalog/internal/auth"
	"pharma-catalog/internal/logger"
)

type AuthHandler struct {
	manager *auth.Manager
	log     *logger.Logger
}

func NewAuthHandler(manager *auth.Manager, log *logger.Logger) *AuthHandler {
	return &AuthHandler{manager: manager, log: log}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password is required", nil)
		return
	}

	token, expires, err := h.manager.Login(req.Password)
	switch {
	case errors.Is(err, auth.ErrDisabled):
		respondError(c, http.StatusServiceUnavailable, ErrorResponse{
			Error: "admin login is not configured",
			Hint:  "set JWT_SECRET and ADMIN_PASSWORD",
		})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.log.Warn("admin login rejected", "ip", c.ClientIP())
		respondError(c, http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	case err != nil:
		respondError(c, http.StatusInternalServerError, ErrorResponse{Error: "failed to issue token", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expires})
}
