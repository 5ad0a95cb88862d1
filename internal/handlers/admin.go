package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rifas/internal/models"
	"rifas/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CreateRaffle - POST /api/v1/admin/rifas
func (h *Handlers) CreateRaffle(c *gin.Context) {
	var req models.CreateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	raffle, err := h.raffles.Create(c.Request.Context(), actor(c), &req)
	if err != nil {
		handleServiceError(c, err, "create raffle")
		return
	}
	c.JSON(http.StatusCreated, raffle)
}

// UpdateRaffle - PUT /api/v1/admin/rifas/:id
func (h *Handlers) UpdateRaffle(c *gin.Context) {
	var req models.UpdateRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	raffle, err := h.raffles.Update(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err, "update raffle")
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// UpdateRaffleStatus - PATCH /api/v1/admin/rifas/:id/status
func (h *Handlers) UpdateRaffleStatus(c *gin.Context) {
	var req models.UpdateRaffleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	raffle, err := h.raffles.UpdateStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		handleServiceError(c, err, "update raffle status")
		return
	}
	c.JSON(http.StatusOK, raffle)
}

// CancelNumber - POST /api/v1/admin/rifas/:id/numeros/:numero/cancelar
func (h *Handlers) CancelNumber(c *gin.Context) {
	var params validation.NumeroParam
	if err := c.ShouldBindUri(&params); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.reservations.AdminCancel(c.Request.Context(), actor(c), params.RifaID, params.Numero)
	if err != nil {
		handleServiceError(c, err, "cancel number")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarkNumberPaid - POST /api/v1/admin/rifas/:id/numeros/:numero/pagar
// The body is optional.
func (h *Handlers) MarkNumberPaid(c *gin.Context) {
	var params validation.NumeroParam
	if err := c.ShouldBindUri(&params); err != nil {
		badRequest(c, err)
		return
	}

	var req models.MarkPaidRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	resp, err := h.reservations.AdminMarkPaid(c.Request.Context(), actor(c), params.RifaID, params.Numero, req.Metodo)
	if err != nil {
		handleServiceError(c, err, "mark number paid")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordResult - POST /api/v1/admin/rifas/:id/resultado
func (h *Handlers) RecordResult(c *gin.Context) {
	var req models.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.results.Record(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err, "record result")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Apurar - POST /api/v1/admin/rifas/:id/apurar
func (h *Handlers) Apurar(c *gin.Context) {
	resp, err := h.results.Apurar(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "compute winners")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Winners - GET /api/v1/admin/rifas/:id/ganhadores
func (h *Handlers) Winners(c *gin.Context) {
	resp, err := h.results.Winners(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "list winners")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary - GET /api/v1/admin/rifas/:id/resumo
func (h *Handlers) Summary(c *gin.Context) {
	resp, err := h.results.Summary(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "summarize raffle")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentsReport - GET /api/v1/admin/rifas/:id/relatorio.xlsx
func (h *Handlers) PaymentsReport(c *gin.Context) {
	data, filename, err := h.reports.PaymentsWorkbook(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "export payments")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GetSettings - GET /api/v1/admin/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), tenantID(c))
	if err != nil {
		handleServiceError(c, err, "get settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings - PUT /api/v1/admin/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), actor(c), &req)
	if err != nil {
		handleServiceError(c, err, "update settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}
