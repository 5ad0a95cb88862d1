package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rifas/internal/database"
	apperrors "rifas/internal/errors"
	"rifas/internal/middleware"
	"rifas/internal/models"
	"rifas/internal/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeReservations struct {
	ReservationAPI
	reserve func(actor models.Actor, rifaID, numero string) (*models.ReserveResponse, error)
	metodo  string
}

func (f *fakeReservations) Reserve(_ context.Context, actor models.Actor, rifaID, numero string) (*models.ReserveResponse, error) {
	return f.reserve(actor, rifaID, numero)
}

func (f *fakeReservations) AdminMarkPaid(_ context.Context, _ models.Actor, _, numero, metodo string) (*models.MessageResponse, error) {
	f.metodo = metodo
	return &models.MessageResponse{Message: "Número " + numero + " marcado como pago"}, nil
}

type fakePayments struct {
	PaymentAPI
	err      error
	received *models.PixWebhookPayload
}

func (f *fakePayments) CreatePix(_ context.Context, _ models.Actor, paymentID string) (*models.PixResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.PixResponse{PaymentID: paymentID, QRCode: "qr", PixCode: "000201"}, nil
}

func (f *fakePayments) HandleWebhook(_ context.Context, payload *models.PixWebhookPayload) error {
	f.received = payload
	return f.err
}

type fakeResults struct {
	ResultAPI
	err error
}

func (f *fakeResults) Apurar(_ context.Context, _ models.Actor, rifaID string) (*models.ApurarResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ApurarResponse{RifaID: rifaID, Status: models.RaffleSettled, Vencedor: "1234", Ganhadores: 1}, nil
}

type fakeRaffles struct {
	RaffleAPI
	userID string
}

func (f *fakeRaffles) Numbers(_ context.Context, _, userID, _ string) ([]models.NumberView, error) {
	f.userID = userID
	return []models.NumberView{{Numero: "00", Status: models.NumberFree}}, nil
}

type fakeReports struct {
	ReportAPI
}

func (fakeReports) PaymentsWorkbook(_ context.Context, _, rifaID string) ([]byte, string, error) {
	if rifaID == "missing" {
		return nil, "", fmt.Errorf("failed to get raffle: %w", apperrors.ErrNotFound)
	}
	return []byte("PK"), "rifa-" + rifaID + ".xlsx", nil
}

type fakeDB struct{ err error }

func (f fakeDB) CheckHealth(context.Context) database.Health {
	if f.err != nil {
		return database.Health{Status: database.StatusUnhealthy, Error: f.err.Error()}
	}
	return database.Health{Status: database.StatusHealthy, Stats: database.PoolStats{MaxOpenConns: 25, Idle: 2}}
}

var player = models.Actor{ID: "u1", Role: models.RolePlayer, TenantID: "t1"}

// withActor stands in for the tenant and auth middleware
func withActor(a *models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetTenant(c, &models.Tenant{ID: "t1", Slug: "demo"})
		if a != nil {
			middleware.SetActor(c, *a)
		}
		c.Next()
	}
}

func newTestRouter(h *Handlers, a *models.Actor) *gin.Engine {
	r := gin.New()
	r.Use(withActor(a))
	r.GET("/health", h.Health)
	r.GET("/rifas/:id/numeros", h.ListNumbers)
	r.POST("/rifas/:id/numeros/:numero/reservar", h.ReserveNumber)
	r.POST("/pagamentos/pix", h.CreatePix)
	r.POST("/webhooks/pix", h.PixWebhook)
	r.POST("/admin/rifas/:id/numeros/:numero/pagar", h.MarkNumberPaid)
	r.POST("/admin/rifas/:id/apurar", h.Apurar)
	r.GET("/admin/rifas/:id/relatorio.xlsx", h.PaymentsReport)
	return r
}

func perform(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (string, string) {
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["code"], body["error"]
}

func TestReserveNumber(t *testing.T) {
	expires := time.Now().Add(20 * time.Minute).UTC().Truncate(time.Second)
	res := &fakeReservations{reserve: func(a models.Actor, rifaID, numero string) (*models.ReserveResponse, error) {
		assert.Equal(t, "u1", a.ID)
		assert.Equal(t, "r1", rifaID)
		return &models.ReserveResponse{Message: "ok", Numero: numero, PaymentID: "p1", ExpiresAt: expires}, nil
	}}
	r := newTestRouter(NewHandlers(Deps{Reservations: res}), &player)

	w := perform(r, http.MethodPost, "/rifas/r1/numeros/1234/reservar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "1234", resp.Numero)
	assert.Equal(t, "p1", resp.PaymentID)
	assert.True(t, resp.ExpiresAt.Equal(expires))
}

func TestReserveNumberTakenByAnotherUser(t *testing.T) {
	res := &fakeReservations{reserve: func(models.Actor, string, string) (*models.ReserveResponse, error) {
		return nil, fmt.Errorf("failed to reserve: %w", apperrors.ErrNumberUnavailable)
	}}
	r := newTestRouter(NewHandlers(Deps{Reservations: res}), &player)

	w := perform(r, http.MethodPost, "/rifas/r1/numeros/1234/reservar", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	code, msg := decodeError(t, w)
	assert.Equal(t, "NUMBER_UNAVAILABLE", code)
	assert.Equal(t, "Número indisponível", msg)
	assert.NotContains(t, w.Body.String(), "payment_id")
}

func TestReserveNumberRejectsMalformedNumero(t *testing.T) {
	called := false
	res := &fakeReservations{reserve: func(models.Actor, string, string) (*models.ReserveResponse, error) {
		called = true
		return nil, nil
	}}
	r := newTestRouter(NewHandlers(Deps{Reservations: res}), &player)

	w := perform(r, http.MethodPost, "/rifas/r1/numeros/12a/reservar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{fmt.Errorf("blocked: %w", apperrors.ErrForbidden), http.StatusForbidden, "ACCESS_DENIED"},
		{apperrors.ErrRaffleNotActive, http.StatusBadRequest, "RAFFLE_NOT_ACTIVE"},
		{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			res := &fakeReservations{reserve: func(models.Actor, string, string) (*models.ReserveResponse, error) {
				return nil, tt.err
			}}
			r := newTestRouter(NewHandlers(Deps{Reservations: res}), &player)

			w := perform(r, http.MethodPost, "/rifas/r1/numeros/07/reservar", nil)
			assert.Equal(t, tt.status, w.Code)
			code, _ := decodeError(t, w)
			assert.Equal(t, tt.code, code)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestCreatePix(t *testing.T) {
	r := newTestRouter(NewHandlers(Deps{Payments: &fakePayments{}}), &player)

	w := perform(r, http.MethodPost, "/pagamentos/pix", map[string]string{"payment_id": "p1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pix_code":"000201"`)

	w = perform(r, http.MethodPost, "/pagamentos/pix", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePixAfterExpiry(t *testing.T) {
	payments := &fakePayments{err: apperrors.ErrReservationExpired}
	r := newTestRouter(NewHandlers(Deps{Payments: payments}), &player)

	w := perform(r, http.MethodPost, "/pagamentos/pix", map[string]string{"payment_id": "p1"})
	assert.Equal(t, http.StatusGone, w.Code)
	code, msg := decodeError(t, w)
	assert.Equal(t, "RESERVATION_EXPIRED", code)
	assert.Equal(t, "Reserva expirada", msg)
}

func TestPixWebhook(t *testing.T) {
	payments := &fakePayments{}
	r := newTestRouter(NewHandlers(Deps{Payments: payments}), nil)

	w := perform(r, http.MethodPost, "/webhooks/pix", map[string]string{"payment_id": "p1", "status": "paid"})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, payments.received)
	assert.Equal(t, "paid", payments.received.Status)

	payments.err = fmt.Errorf("unknown status: %w", apperrors.ErrValidation)
	w = perform(r, http.MethodPost, "/webhooks/pix", map[string]string{"payment_id": "p1", "status": "weird"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkNumberPaidBody(t *testing.T) {
	res := &fakeReservations{}
	admin := models.Actor{ID: "a1", Role: models.RoleAdmin, TenantID: "t1"}
	r := newTestRouter(NewHandlers(Deps{Reservations: res}), &admin)

	w := perform(r, http.MethodPost, "/admin/rifas/r1/numeros/0001/pagar", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, res.metodo)

	w = perform(r, http.MethodPost, "/admin/rifas/r1/numeros/0001/pagar", map[string]string{"metodo": "debito"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "debito", res.metodo)

	w = perform(r, http.MethodPost, "/admin/rifas/r1/numeros/0001/pagar", map[string]string{"metodo": "boleto"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApurarWithoutResult(t *testing.T) {
	admin := models.Actor{ID: "a1", Role: models.RoleAdmin, TenantID: "t1"}
	r := newTestRouter(NewHandlers(Deps{Results: &fakeResults{err: apperrors.ErrResultRequired}}), &admin)

	w := perform(r, http.MethodPost, "/admin/rifas/r1/apurar", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	code, msg := decodeError(t, w)
	assert.Equal(t, "RESULT_REQUIRED", code)
	assert.Equal(t, "Resultado ainda não lançado", msg)

	r = newTestRouter(NewHandlers(Deps{Results: &fakeResults{}}), &admin)
	w = perform(r, http.MethodPost, "/admin/rifas/r1/apurar", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"numero_vencedor":"1234"`)
}

func TestListNumbersAnonymous(t *testing.T) {
	raffles := &fakeRaffles{}
	r := newTestRouter(NewHandlers(Deps{Raffles: raffles}), nil)

	w := perform(r, http.MethodGet, "/rifas/r1/numeros", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, raffles.userID)

	r = newTestRouter(NewHandlers(Deps{Raffles: raffles}), &player)
	perform(r, http.MethodGet, "/rifas/r1/numeros", nil)
	assert.Equal(t, "u1", raffles.userID)
}

func TestPaymentsReport(t *testing.T) {
	admin := models.Actor{ID: "a1", Role: models.RoleAdmin, TenantID: "t1"}
	r := newTestRouter(NewHandlers(Deps{Reports: fakeReports{}}), &admin)

	w := perform(r, http.MethodGet, "/admin/rifas/r1/relatorio.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "rifa-r1.xlsx")

	w = perform(r, http.MethodGet, "/admin/rifas/missing/relatorio.xlsx", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(NewHandlers(Deps{DB: fakeDB{}, Version: "1.2.3"}), nil)
	w := perform(r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, w.Body.String(), `"max_open_connections":25`)

	r = newTestRouter(NewHandlers(Deps{DB: fakeDB{err: errors.New("down")}}), nil)
	w = perform(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"unavailable"`)
}
