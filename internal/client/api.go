package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"rifas/internal/models"
)

// Reservation is the active hold of one number by the signed-in user
type Reservation struct {
	RifaID    string
	Numero    string
	PaymentID string
	ExpiresAt time.Time
}

// PaymentInstrument is what the user needs to pay a reservation
type PaymentInstrument struct {
	PaymentID string
	QRCode    string
	PixCode   string
	ExpiresAt time.Time
}

func rafflePath(rifaID string, rest ...string) string {
	p := "/rifas/" + url.PathEscape(rifaID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func adminRafflePath(rifaID string, rest ...string) string {
	return "/admin" + rafflePath(rifaID, rest...)
}

// Login exchanges credentials for a token. The session is not touched;
// callers hand the token to AppState or Session.SetToken.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp models.TokenResponse
	req := models.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	var resp models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

func (c *Client) Me(ctx context.Context) (*models.MeResponse, error) {
	var resp models.MeResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	c.session.Refresh(resp)
	return &resp, nil
}

// Raffles lists the tenant's raffles, optionally filtered by status and text
func (c *Client) Raffles(ctx context.Context, status, query string) ([]models.Raffle, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if query != "" {
		q.Set("q", query)
	}
	path := "/rifas/"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp []models.Raffle
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Raffle(ctx context.Context, rifaID string) (*models.Raffle, error) {
	var resp models.Raffle
	if err := c.do(ctx, http.MethodGet, rafflePath(rifaID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Catalog returns the number inventory of a raffle. Unknown statuses fail
// the decoding.
func (c *Client) Catalog(ctx context.Context, rifaID string) ([]models.NumberView, error) {
	var resp []models.NumberView
	if err := c.do(ctx, http.MethodGet, rafflePath(rifaID, "numeros"), nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Reserve holds a number for the signed-in user. Any 409 is reported as
// ErrNumberUnavailable.
func (c *Client) Reserve(ctx context.Context, rifaID, numero string) (*Reservation, error) {
	if !c.session.Authenticated() {
		return nil, ErrUnauthenticated
	}

	var resp models.ReserveResponse
	err := c.do(ctx, http.MethodPost, rafflePath(rifaID, "numeros", numero, "reservar"), nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			return nil, fmt.Errorf("%w: %s", ErrNumberUnavailable, apiErr.Detail)
		}
		return nil, err
	}

	numeroOut := resp.Numero
	if numeroOut == "" {
		numeroOut = numero
	}
	return &Reservation{
		RifaID:    rifaID,
		Numero:    numeroOut,
		PaymentID: resp.PaymentID,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// RequestPix asks for the PIX instrument of a reservation. Failures other
// than a lost session are reported as ErrPayment.
func (c *Client) RequestPix(ctx context.Context, paymentID string) (*PaymentInstrument, error) {
	var resp models.PixResponse
	err := c.do(ctx, http.MethodPost, "/pagamentos/pix", models.PixRequest{PaymentID: paymentID}, &resp)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrPayment, err)
	}
	return &PaymentInstrument{
		PaymentID: resp.PaymentID,
		QRCode:    resp.QRCode,
		PixCode:   resp.PixCode,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

func (c *Client) MyRaffles(ctx context.Context) ([]models.MyRaffle, error) {
	var resp []models.MyRaffle
	if err := c.do(ctx, http.MethodGet, "/rifas/user/minhas-rifas", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) RecentWinners(ctx context.Context, limit int) ([]models.RecentWinner, error) {
	var resp []models.RecentWinner
	path := "/rifas/recent-winners?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Admin

func (c *Client) CreateRaffle(ctx context.Context, req models.CreateRaffleRequest) (*models.Raffle, error) {
	var resp models.Raffle
	if err := c.do(ctx, http.MethodPost, "/admin/rifas", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateRaffleStatus(ctx context.Context, rifaID string, status models.RaffleStatus) (*models.Raffle, error) {
	var resp models.Raffle
	req := models.UpdateRaffleStatusRequest{Status: string(status)}
	if err := c.do(ctx, http.MethodPatch, adminRafflePath(rifaID, "status"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RecordResult(ctx context.Context, rifaID string, req models.RecordResultRequest) (*models.Result, error) {
	var resp models.Result
	if err := c.do(ctx, http.MethodPost, adminRafflePath(rifaID, "resultado"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Apurar(ctx context.Context, rifaID string) (*models.ApurarResponse, error) {
	var resp models.ApurarResponse
	if err := c.do(ctx, http.MethodPost, adminRafflePath(rifaID, "apurar"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Winners(ctx context.Context, rifaID string) (*models.WinnersResponse, error) {
	var resp models.WinnersResponse
	if err := c.do(ctx, http.MethodGet, adminRafflePath(rifaID, "ganhadores"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Summary(ctx context.Context, rifaID string) (*models.RaffleSummary, error) {
	var resp models.RaffleSummary
	if err := c.do(ctx, http.MethodGet, adminRafflePath(rifaID, "resumo"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
