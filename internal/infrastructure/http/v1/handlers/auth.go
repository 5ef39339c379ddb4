package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy/internal/core/apperror"
	appctx "pharmacy/internal/core/context"
	"pharmacy/internal/core/id"
	"pharmacy/internal/domain/auth"
	"pharmacy/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Register handles POST /auth/register (admins only).
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromUser(user))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Tokens: dto.FromTokenPair(tokens),
		User:   dto.FromUser(user),
	})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromTokenPair(tokens))
}

// Logout handles POST /auth/logout and revokes every refresh token of the user.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromUser(user))
}

func (h *AuthHandler) currentUserID(c *gin.Context) (id.ID, bool) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return id.Nil(), false
	}
	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid user id"))
		return id.Nil(), false
	}
	return userID, true
}
