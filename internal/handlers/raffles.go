package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rifas/internal/middleware"
)

// ListRaffles - GET /api/v1/rifas/
func (h *Handlers) ListRaffles(c *gin.Context) {
	raffles, err := h.raffles.List(c.Request.Context(), tenantID(c), c.Query("status"), c.Query("q"))
	if err != nil {
		handleServiceError(c, err, "list raffles")
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// GetRaffle - GET /api/v1/rifas/:id
func (h *Handlers) GetRaffle(c *gin.Context) {
	raffle, err := h.raffles.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "get raffle")
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// ListNumbers - GET /api/v1/rifas/:id/numeros
// Anonymous callers see the inventory without ownership details.
func (h *Handlers) ListNumbers(c *gin.Context) {
	var userID string
	if a, ok := middleware.CurrentActor(c); ok {
		userID = a.ID
	}

	numbers, err := h.raffles.Numbers(c.Request.Context(), tenantID(c), userID, c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "list numbers")
		return
	}
	c.JSON(http.StatusOK, numbers)
}

// MyRaffles - GET /api/v1/rifas/user/minhas-rifas
func (h *Handlers) MyRaffles(c *gin.Context) {
	raffles, err := h.raffles.MyRaffles(c.Request.Context(), actor(c))
	if err != nil {
		handleServiceError(c, err, "list purchases")
		return
	}
	c.JSON(http.StatusOK, raffles)
}

// RecentWinners - GET /api/v1/rifas/recent-winners
func (h *Handlers) RecentWinners(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		badRequest(c, err)
		return
	}

	winners, err := h.raffles.RecentWinners(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		handleServiceError(c, err, "list recent winners")
		return
	}
	c.JSON(http.StatusOK, winners)
}
