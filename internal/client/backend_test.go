package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"rifas/internal/auth"
	"rifas/internal/models"
	"rifas/internal/numbering"
)

const (
	testTenant = "demo"
	testRifaID = "rifa-1"
	testSecret = "test-secret"
)

var testTokens = auth.NewTokenService(testSecret, "rifas", time.Hour)

func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := testTokens.GenerateToken(userID, "tenant-1", userID+"@rifas.dev", "User "+userID, role)
	require.NoError(t, err)
	return token
}

// fakeBackend mimics the parts of the API the client relies on. Reservations
// past their expiry are released on the next catalog read, like the worker
// job does.
type fakeBackend struct {
	mu sync.Mutex

	raffle   models.Raffle
	numbers  map[string]*models.Number
	order    []string
	ttl      time.Duration
	requests map[string]int

	result  *models.ResultView
	winners map[string]bool
	me      *models.MeResponse

	now func() time.Time
	// beforePix runs before the PIX answer is written
	beforePix func()
}

// testClock is a settable clock shared by the fake backend and a watchdog
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newFakeBackend(tipo numbering.Tipo, ttl time.Duration) *fakeBackend {
	b := &fakeBackend{
		raffle: models.Raffle{
			ID:          testRifaID,
			Titulo:      "Rifa de teste",
			PrecoNumero: 500,
			TipoRifa:    tipo,
			Status:      models.RaffleActive,
		},
		numbers:  make(map[string]*models.Number),
		ttl:      ttl,
		requests: make(map[string]int),
		winners:  make(map[string]bool),
		now:      time.Now,
	}
	for _, n := range numbering.Generate(tipo) {
		b.numbers[n] = &models.Number{ID: "n-" + n, RifaID: testRifaID, Numero: n, Status: models.NumberFree}
		b.order = append(b.order, n)
	}
	return b
}

func (b *fakeBackend) calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[route]
}

func (b *fakeBackend) setStatus(numero string, status models.NumberStatus, userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.numbers[numero]
	n.Status = status
	n.UserID = &userID
}

func (b *fakeBackend) userID(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	claims, err := testTokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}

func (b *fakeBackend) count(c *gin.Context) {
	b.mu.Lock()
	b.requests[c.FullPath()]++
	b.mu.Unlock()
}

func (b *fakeBackend) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(b.count)

	v1 := r.Group("/api/v1")
	v1.GET("/auth/me", func(c *gin.Context) {
		userID, ok := b.userID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sessão expirada", "code": "TOKEN_EXPIRED"})
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		me := models.MeResponse{ID: userID, Email: userID + "@rifas.dev", Name: "User " + userID, Role: models.RolePlayer, TenantID: "tenant-1"}
		if b.me != nil {
			me = *b.me
		}
		c.JSON(http.StatusOK, me)
	})
	v1.GET("/rifas/:id", func(c *gin.Context) {
		b.mu.Lock()
		defer b.mu.Unlock()
		c.JSON(http.StatusOK, b.raffle)
	})
	v1.GET("/rifas/:id/numeros", b.catalog)
	v1.POST("/rifas/:id/numeros/:numero/reservar", b.reserve)
	v1.POST("/pagamentos/pix", b.pix)
	v1.POST("/admin/rifas/:id/resultado", b.recordResult)
	v1.POST("/admin/rifas/:id/apurar", b.apurar)
	v1.GET("/admin/rifas/:id/ganhadores", b.listWinners)
	return r
}

func (b *fakeBackend) catalog(c *gin.Context) {
	userID, _ := b.userID(c)
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	views := make([]models.NumberView, 0, len(b.order))
	for _, numero := range b.order {
		n := b.numbers[numero]
		if n.Status == models.NumberReserved && n.ReservedUntil != nil && n.ReservedUntil.Before(now) {
			n.Status = models.NumberFree
			n.UserID = nil
			n.PaymentID = nil
			n.ReservedUntil = nil
		}
		views = append(views, n.ViewFor(userID))
	}
	c.JSON(http.StatusOK, views)
}

func (b *fakeBackend) reserve(c *gin.Context) {
	userID, ok := b.userID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Não autenticado", "code": "UNAUTHORIZED"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	n, found := b.numbers[c.Param("numero")]
	if !found {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "code": "VALIDATION_ERROR"})
		return
	}
	if !n.Status.Claimable() {
		c.JSON(http.StatusConflict, gin.H{"error": "Número indisponível", "code": "NUMBER_UNAVAILABLE"})
		return
	}

	until := b.now().Add(b.ttl)
	paymentID := "pay-" + n.Numero
	n.Status = models.NumberReserved
	n.UserID = &userID
	n.PaymentID = &paymentID
	n.ReservedUntil = &until
	c.JSON(http.StatusOK, models.ReserveResponse{Message: "ok", Numero: n.Numero, PaymentID: paymentID, ExpiresAt: until})
}

func (b *fakeBackend) pix(c *gin.Context) {
	var req models.PixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "code": "VALIDATION_ERROR"})
		return
	}
	if b.beforePix != nil {
		b.beforePix()
	}
	if req.PaymentID == "pay-broken" {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Erro no pagamento", "code": "PAYMENT_ERROR"})
		return
	}
	c.JSON(http.StatusOK, models.PixResponse{
		PaymentID: req.PaymentID,
		QRCode:    "data:image/png;base64,iVBORw0KGgo=",
		PixCode:   "00020126360014BR.GOV.BCB.PIX",
		ExpiresAt: b.now().Add(b.ttl),
	})
}

func (b *fakeBackend) recordResult(c *gin.Context) {
	var req models.RecordResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dados inválidos", "code": "VALIDATION_ERROR"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.result = &models.ResultView{Valor: req.Resultado, LocalSorteio: req.LocalSorteio, DataResultado: req.DataResultado}
	c.JSON(http.StatusOK, models.Result{RifaID: c.Param("id"), Resultado: req.Resultado})
}

func (b *fakeBackend) apurar(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Resultado ainda não lançado", "code": "RESULT_REQUIRED"})
		return
	}

	vencedor, _ := numbering.Normalize(b.raffle.TipoRifa, b.result.Valor)
	b.winners = make(map[string]bool)
	for _, numero := range b.order {
		n := b.numbers[numero]
		if n.Status == models.NumberPaid && n.Numero == vencedor {
			b.winners[n.Numero] = true
		}
	}
	b.result.Apurado = true
	b.raffle.Status = models.RaffleSettled
	c.JSON(http.StatusOK, models.ApurarResponse{
		RifaID:     c.Param("id"),
		Status:     models.RaffleSettled,
		Vencedor:   vencedor,
		Ganhadores: len(b.winners),
	})
}

func (b *fakeBackend) listWinners(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	resp := models.WinnersResponse{RifaID: c.Param("id"), Resultado: b.result, Ganhadores: []models.WinnerView{}}
	for _, numero := range b.order {
		if b.winners[numero] {
			resp.Ganhadores = append(resp.Ganhadores, models.WinnerView{Numero: numero, TipoRifa: b.raffle.TipoRifa})
		}
	}
	c.JSON(http.StatusOK, resp)
}

// newTestClient starts the backend and returns a client signed in as userID
func newTestClient(t *testing.T, b *fakeBackend, userID, role string) *Client {
	t.Helper()
	srv := httptest.NewServer(b.router())
	t.Cleanup(srv.Close)

	c := New(srv.URL, NewSession(), WithTenant(testTenant))
	if userID != "" {
		_, err := c.Session().SetToken(tokenFor(t, userID, role))
		require.NoError(t, err)
	}
	return c
}
