package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rifas/internal/logger"
	"rifas/internal/models"
	"rifas/internal/validation"
)

// ReserveNumber - POST /api/v1/rifas/:id/numeros/:numero/reservar
func (h *Handlers) ReserveNumber(c *gin.Context) {
	var params validation.NumeroParam
	if err := c.ShouldBindUri(&params); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.reservations.Reserve(c.Request.Context(), actor(c), params.RifaID, params.Numero)
	if err != nil {
		handleServiceError(c, err, "reserve number")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePix - POST /api/v1/pagamentos/pix
func (h *Handlers) CreatePix(c *gin.Context) {
	var req models.PixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.payments.CreatePix(c.Request.Context(), actor(c), req.PaymentID)
	if err != nil {
		handleServiceError(c, err, "create pix charge")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PixWebhook - POST /api/v1/webhooks/pix
// Unknown payments are acknowledged so the provider stops retrying.
func (h *Handlers) PixWebhook(c *gin.Context) {
	var payload models.PixWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil || payload.PaymentID == "" {
		badRequest(c, err)
		return
	}

	logger.WithContext(c.Request.Context()).Info("PIX webhook received",
		"payment_id", payload.PaymentID, "status", payload.Status)

	if err := h.payments.HandleWebhook(c.Request.Context(), &payload); err != nil {
		handleServiceError(c, err, "handle pix webhook")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "ok"})
}
