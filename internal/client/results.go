package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"rifas/internal/models"
	"rifas/internal/numbering"
)

// ResultInput is an official draw result as typed by an admin
type ResultInput struct {
	Resultado     string
	LocalSorteio  string
	DataResultado time.Time
}

// ResultReader records draw results and triggers apuração. It remembers
// which raffles have a known result so Compute can refuse early.
type ResultReader struct {
	client *Client

	mu    sync.Mutex
	known map[string]bool
}

func NewResultReader(c *Client) *ResultReader {
	return &ResultReader{client: c, known: make(map[string]bool)}
}

// Draft cleans what the admin typed for the raffle type
func (r *ResultReader) Draft(tipo numbering.Tipo, input string) string {
	return numbering.Sanitize(tipo, input)
}

func (r *ResultReader) Submit(ctx context.Context, rifaID string, in ResultInput) (*models.Result, error) {
	resultado := strings.TrimSpace(in.Resultado)
	if resultado == "" || strings.TrimSpace(in.LocalSorteio) == "" || in.DataResultado.IsZero() {
		return nil, ErrValidation
	}

	res, err := r.client.RecordResult(ctx, rifaID, models.RecordResultRequest{
		Resultado:     resultado,
		LocalSorteio:  strings.TrimSpace(in.LocalSorteio),
		DataResultado: in.DataResultado,
	})
	if err != nil {
		return nil, err
	}
	r.setKnown(rifaID, true)
	return res, nil
}

func (r *ResultReader) CanCompute(rifaID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.known[rifaID]
}

// Load fetches the recorded result and winners of a raffle
func (r *ResultReader) Load(ctx context.Context, rifaID string) (*models.WinnersResponse, error) {
	resp, err := r.client.Winners(ctx, rifaID)
	if err != nil {
		return nil, err
	}
	r.setKnown(rifaID, resp.Resultado != nil && resp.Resultado.Valor != "")
	return resp, nil
}

// Compute runs apuração. Without a known result it fails with
// ErrResultRequired and never reaches the server.
func (r *ResultReader) Compute(ctx context.Context, rifaID string) (*models.ApurarResponse, error) {
	if !r.CanCompute(rifaID) {
		return nil, ErrResultRequired
	}

	resp, err := r.client.Apurar(ctx, rifaID)
	if err != nil {
		if errors.Is(err, ErrResultRequired) {
			r.setKnown(rifaID, false)
		}
		return nil, err
	}
	return resp, nil
}

func (r *ResultReader) setKnown(rifaID string, known bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if known {
		r.known[rifaID] = true
		return
	}
	delete(r.known, rifaID)
}
