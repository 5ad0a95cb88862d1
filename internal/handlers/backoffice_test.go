package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rifas/internal/errors"
	"rifas/internal/models"
)

type fakeSorteios struct {
	onlyActive *bool
	created    *models.CreateSorteioRequest
	deleted    string
}

func (f *fakeSorteios) List(_ context.Context, _ string, onlyActive bool) ([]models.Sorteio, error) {
	f.onlyActive = &onlyActive
	return []models.Sorteio{{ID: "s1", Nome: "Loteria Federal", Horario: "19:00", Ativo: true}}, nil
}

func (f *fakeSorteios) Create(_ context.Context, _ models.Actor, req *models.CreateSorteioRequest) (*models.Sorteio, error) {
	f.created = req
	return &models.Sorteio{ID: "s2", Nome: req.Nome, Horario: req.Horario, Ativo: true}, nil
}

func (f *fakeSorteios) Update(_ context.Context, _ models.Actor, id string, req *models.UpdateSorteioRequest) (*models.Sorteio, error) {
	if id == "missing" {
		return nil, fmt.Errorf("sorteio %s: %w", id, apperrors.ErrNotFound)
	}
	s := &models.Sorteio{ID: id, Nome: "PT Rio", Horario: "14:00", Ativo: true}
	if req.Ativo != nil {
		s.Ativo = req.Ativo.Bool()
	}
	return s, nil
}

func (f *fakeSorteios) Delete(_ context.Context, _ models.Actor, id string) error {
	f.deleted = id
	return nil
}

type fakeAdmin struct {
	AdminAPI
	page    models.Page
	audit   models.AuditQuery
	finance models.FinanceQuery
	update  *models.UpdateUserRequest
}

func (f *fakeAdmin) ListUsers(_ context.Context, _ string, page models.Page) (*models.UserList, error) {
	f.page = page
	return &models.UserList{Users: []models.User{{ID: "u1", Email: "a@rifas.dev", IsActive: true}}, Total: 1, Limit: page.Limit}, nil
}

func (f *fakeAdmin) UpdateUser(_ context.Context, a models.Actor, userID string, req *models.UpdateUserRequest) (*models.User, error) {
	f.update = req
	if a.ID == userID && req.IsActive != nil && !req.IsActive.Bool() {
		return nil, fmt.Errorf("%w: cannot deactivate your own account", apperrors.ErrValidation)
	}
	return &models.User{ID: userID, IsActive: req.IsActive == nil || req.IsActive.Bool()}, nil
}

func (f *fakeAdmin) Audit(_ context.Context, _ string, q models.AuditQuery) (*models.AuditPage, error) {
	f.audit = q
	return &models.AuditPage{Logs: []models.AuditLog{}, Total: 0, Limit: q.Limit, Offset: q.Offset}, nil
}

func (f *fakeAdmin) Finance(_ context.Context, _ string, q models.FinanceQuery) (*models.FinanceReport, error) {
	f.finance = q
	return &models.FinanceReport{TotalArrecadado: 1500, Logs: []models.PaymentLog{}}, nil
}

func (f *fakeAdmin) RaffleFinance(_ context.Context, _, rifaID string) (*models.FinanceReport, error) {
	if rifaID == "missing" {
		return nil, fmt.Errorf("raffle %s: %w", rifaID, apperrors.ErrNotFound)
	}
	return &models.FinanceReport{RifaID: rifaID, Rifa: "Rifa 1", TotalArrecadado: 500, Logs: []models.PaymentLog{}}, nil
}

func (f *fakeAdmin) Dashboard(_ context.Context, _ string) (*models.DashboardSummary, error) {
	return &models.DashboardSummary{TotalArrecadado: 2500, TotalPagoCount: 5, RifasAtivas: 2, TaxaConversao: 62.5}, nil
}

var adminActor = models.Actor{ID: "a1", Role: models.RoleAdmin, TenantID: "t1"}

func newBackofficeRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(withActor(&adminActor))
	r.GET("/sorteios", h.ListSorteios)
	r.GET("/admin/sorteios", h.AdminListSorteios)
	r.POST("/admin/sorteios", h.CreateSorteio)
	r.PUT("/admin/sorteios/:id", h.UpdateSorteio)
	r.DELETE("/admin/sorteios/:id", h.DeleteSorteio)
	r.GET("/admin/users", h.ListUsers)
	r.PUT("/admin/users/:id", h.UpdateUser)
	r.GET("/admin/auditoria", h.AuditLogs)
	r.GET("/admin/financeiro", h.Finance)
	r.GET("/admin/financeiro/rifas/:id", h.RaffleFinance)
	r.GET("/admin/dashboard/resumo", h.Dashboard)
	return r
}

func TestListSorteiosOnlyActive(t *testing.T) {
	sorteios := &fakeSorteios{}
	r := newBackofficeRouter(NewHandlers(Deps{Sorteios: sorteios}))

	w := perform(r, http.MethodGet, "/sorteios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sorteios.onlyActive)
	assert.True(t, *sorteios.onlyActive)
	assert.Contains(t, w.Body.String(), `"nome":"Loteria Federal"`)

	perform(r, http.MethodGet, "/sorteios?only_active=false", nil)
	assert.False(t, *sorteios.onlyActive)

	perform(r, http.MethodGet, "/admin/sorteios", nil)
	assert.False(t, *sorteios.onlyActive)

	w = perform(r, http.MethodGet, "/sorteios?only_active=talvez", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSorteioCRUD(t *testing.T) {
	sorteios := &fakeSorteios{}
	r := newBackofficeRouter(NewHandlers(Deps{Sorteios: sorteios}))

	w := perform(r, http.MethodPost, "/admin/sorteios", map[string]any{"nome": "PT Rio", "horario": "14:00"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, sorteios.created)
	assert.Equal(t, "PT Rio", sorteios.created.Nome)

	w = perform(r, http.MethodPost, "/admin/sorteios", map[string]any{"horario": "14:00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPut, "/admin/sorteios/s2", map[string]any{"ativo": "false"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ativo":false`)

	w = perform(r, http.MethodPut, "/admin/sorteios/missing", map[string]any{"ativo": true})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodDelete, "/admin/sorteios/s2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s2", sorteios.deleted)
}

func TestAdminUsers(t *testing.T) {
	fake := &fakeAdmin{}
	r := newBackofficeRouter(NewHandlers(Deps{Admin: fake}))

	w := perform(r, http.MethodGet, "/admin/users?limit=20&offset=40", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Page{Limit: 20, Offset: 40}, fake.page)

	w = perform(r, http.MethodGet, "/admin/users?limit=0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/admin/users?limit=9999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPut, "/admin/users/u9", map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_active":false`)

	w = perform(r, http.MethodPut, "/admin/users/a1", map[string]any{"is_active": false})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, _ := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", code)

	w = perform(r, http.MethodPut, "/admin/users/u9", map[string]any{"role": "root"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditAndFinance(t *testing.T) {
	fake := &fakeAdmin{}
	r := newBackofficeRouter(NewHandlers(Deps{Admin: fake}))

	w := perform(r, http.MethodGet, "/admin/auditoria?action=RESERVE_NUMBER&entity_type=rifa&limit=10&offset=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RESERVE_NUMBER", fake.audit.Action)
	assert.Equal(t, "rifa", fake.audit.EntityType)
	assert.Equal(t, 10, fake.audit.Limit)
	assert.Equal(t, 5, fake.audit.Offset)

	w = perform(r, http.MethodGet, "/admin/financeiro?start_date=2026-01-01&end_date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, fake.finance.StartDate)
	require.NotNil(t, fake.finance.EndDate)
	assert.Equal(t, time.January, fake.finance.StartDate.Month())
	assert.Equal(t, 31, fake.finance.EndDate.Day())

	var report models.FinanceReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "15.00", report.TotalArrecadado.String())

	w = perform(r, http.MethodGet, "/admin/financeiro?start_date=ontem", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/admin/financeiro/rifas/r1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rifa":"Rifa 1"`)

	w = perform(r, http.MethodGet, "/admin/financeiro/rifas/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard(t *testing.T) {
	r := newBackofficeRouter(NewHandlers(Deps{Admin: &fakeAdmin{}}))

	w := perform(r, http.MethodGet, "/admin/dashboard/resumo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, models.Money(2500), summary.TotalArrecadado)
	assert.Equal(t, 5, summary.TotalPagoCount)
	assert.Equal(t, 62.5, summary.TaxaConversao)
}
