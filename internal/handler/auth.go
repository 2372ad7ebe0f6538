package handler

import (
	"net/http"

	"clan-hub/internal/logger"
	"clan-hub/internal/middleware"
	"clan-hub/internal/model"
	"clan-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth   *service.AuthService
	tokens *middleware.Tokens
}

func NewAuthHandler(auth *service.AuthService, tokens *middleware.Tokens) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens}
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warn("login.failed", "username", req.Username, "err", err)
		writeError(c, err)
		return
	}

	token, err := h.tokens.Issue(m.ID, m.Nick, m.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("login.ok", "uid", m.ID, "nick", m.Nick)

	c.JSON(http.StatusOK, model.LoginResponse{
		Token: token,
		User:  model.User{ID: m.ID, Nick: m.Nick, Role: m.Role, GameClass: m.GameClass},
	})
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	m, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("register.ok", "uid", m.ID, "username", m.Username)
	c.JSON(http.StatusCreated, gin.H{"member": m})
}
