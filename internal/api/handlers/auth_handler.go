package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/erpsync/internal/api/middleware"
	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/service"
)

// AccountService is implemented by service.AuthService.
type AccountService interface {
	middleware.TokenParser
	Register(ctx context.Context, name, email, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Me(ctx context.Context, userID int64) (*domain.User, error)
}

type AuthHandler struct {
	service AccountService
}

func NewAuthHandler(service AccountService) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name, email and password are required")
		return
	}

	session, err := h.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondErr(c, err, "failed to register user")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "token": session.Token, "expires_at": session.ExpiresAt, "user": session.User})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid login payload")
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondErr(c, err, "failed to log in")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": session.Token, "expires_at": session.ExpiresAt, "user": session.User})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "missing token")
		return
	}

	user, err := h.service.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		respondErr(c, err, "failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}
