package handler

import (
	"net/http"
	"time"

	"github.com/gdugdh24/speeddate-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/speeddate-backend/internal/domain"
	"github.com/gdugdh24/speeddate-backend/internal/usecase/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	tokens       *auth.TokenService
	allowDevAuth bool
}

func NewAuthHandler(tokens *auth.TokenService, allowDevAuth bool) *AuthHandler {
	return &AuthHandler{
		tokens:       tokens,
		allowDevAuth: allowDevAuth,
	}
}

// AuthResponse is the response structure
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt int64     `json:"expires_at"`
	UserID    uuid.UUID `json:"user_id"`
}

// DevTokenRequest represents test authentication request
type DevTokenRequest struct {
	UserID string `json:"user_id" binding:"omitempty,uuid"`
	Email  string `json:"email" binding:"omitempty,email"`
}

// DevToken issues a token without the identity provider (for development/testing only)
// @Summary Development token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body DevTokenRequest true "Optional user id and email"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/dev-token [post]
func (h *AuthHandler) DevToken(c *gin.Context) {
	if !h.allowDevAuth {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}

	var req DevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	userID := uuid.New()
	if req.UserID != "" {
		userID = uuid.MustParse(req.UserID)
	}

	token, expiresAt, err := h.tokens.IssueToken(userID, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		UserID:    userID,
	})
}

// Me returns the authenticated identity
// @Summary Current identity
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} auth.Identity
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := c.Get(middleware.IdentityKey)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Logout revokes the current token until it expires
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.tokens.Logout(c.Request.Context(), c.GetString(middleware.TokenKey)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "logged out",
		"revoked_at": time.Now().UTC(),
	})
}
