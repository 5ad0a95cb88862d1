package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rifas/internal/models"
)

// ListSorteios - GET /api/v1/sorteios?only_active=true
// Only active sorteios unless only_active=false.
func (h *Handlers) ListSorteios(c *gin.Context) {
	h.listSorteios(c, true)
}

// AdminListSorteios - GET /api/v1/admin/sorteios?only_active=false
// Every sorteio unless only_active=true.
func (h *Handlers) AdminListSorteios(c *gin.Context) {
	h.listSorteios(c, false)
}

func (h *Handlers) listSorteios(c *gin.Context, defaultOnlyActive bool) {
	onlyActive := defaultOnlyActive
	if raw := c.Query("only_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		onlyActive = v
	}

	sorteios, err := h.sorteios.List(c.Request.Context(), tenantID(c), onlyActive)
	if err != nil {
		handleServiceError(c, err, "list sorteios")
		return
	}
	c.JSON(http.StatusOK, sorteios)
}

// CreateSorteio - POST /api/v1/admin/sorteios
func (h *Handlers) CreateSorteio(c *gin.Context) {
	var req models.CreateSorteioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sorteio, err := h.sorteios.Create(c.Request.Context(), actor(c), &req)
	if err != nil {
		handleServiceError(c, err, "create sorteio")
		return
	}
	c.JSON(http.StatusCreated, sorteio)
}

// UpdateSorteio - PUT /api/v1/admin/sorteios/:id
func (h *Handlers) UpdateSorteio(c *gin.Context) {
	var req models.UpdateSorteioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sorteio, err := h.sorteios.Update(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err, "update sorteio")
		return
	}
	c.JSON(http.StatusOK, sorteio)
}

// DeleteSorteio - DELETE /api/v1/admin/sorteios/:id
func (h *Handlers) DeleteSorteio(c *gin.Context) {
	if err := h.sorteios.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		handleServiceError(c, err, "delete sorteio")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListUsers - GET /api/v1/admin/users?limit=&offset=
func (h *Handlers) ListUsers(c *gin.Context) {
	var page models.Page
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	users, err := h.admin.ListUsers(c.Request.Context(), tenantID(c), page)
	if err != nil {
		handleServiceError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser - GET /api/v1/admin/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.admin.GetUser(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateUser - PUT /api/v1/admin/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.admin.UpdateUser(c.Request.Context(), actor(c), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// AuditLogs - GET /api/v1/admin/auditoria
func (h *Handlers) AuditLogs(c *gin.Context) {
	var q models.AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.admin.Audit(c.Request.Context(), tenantID(c), q)
	if err != nil {
		handleServiceError(c, err, "list audit logs")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Finance - GET /api/v1/admin/financeiro?start_date=&end_date=
func (h *Handlers) Finance(c *gin.Context) {
	var q models.FinanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	report, err := h.admin.Finance(c.Request.Context(), tenantID(c), q)
	if err != nil {
		handleServiceError(c, err, "finance report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// RaffleFinance - GET /api/v1/admin/financeiro/rifas/:id
func (h *Handlers) RaffleFinance(c *gin.Context) {
	report, err := h.admin.RaffleFinance(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "raffle finance report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// Dashboard - GET /api/v1/admin/dashboard/resumo
func (h *Handlers) Dashboard(c *gin.Context) {
	summary, err := h.admin.Dashboard(c.Request.Context(), tenantID(c))
	if err != nil {
		handleServiceError(c, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}
