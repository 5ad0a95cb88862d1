package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rifas/internal/models"
)

// Login - POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		handleServiceError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register - POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), tenantID(c), &req)
	if err != nil {
		handleServiceError(c, err, "register user")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Me - GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	resp, err := h.auth.Me(c.Request.Context(), actor(c))
	if err != nil {
		handleServiceError(c, err, "load current user")
		return
	}
	c.JSON(http.StatusOK, resp)
}
