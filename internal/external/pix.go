package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"rifas/internal/models"
)

type PixConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	PostbackURL  string
	MerchantName string
	MerchantCity string
	Timeout      time.Duration
}

// Enabled reports whether a provider is configured. Without one the
// service falls back to a static copia e cola payload.
func (c PixConfig) Enabled() bool {
	return c.BaseURL != ""
}

// PixClient talks to the PIX provider. Its http client attaches and
// renews the OAuth2 client credentials token.
type PixClient struct {
	cfg        PixConfig
	httpClient *http.Client
}

type PixChargeRequest struct {
	ExternalID string       `json:"external_id"`
	Amount     models.Money `json:"amount"`
	PayerName  string       `json:"payer_name,omitempty"`
	PayerEmail string       `json:"payer_email,omitempty"`
	ExpiresIn  int          `json:"expires_in"`
	Postback   string       `json:"postback_url,omitempty"`
}

type PixCharge struct {
	TxID          string `json:"txid"`
	QRCode        string `json:"qrcode"`
	PixCopiaECola string `json:"pix_copia_e_cola"`
	ExpiresAt     string `json:"expires_at"`
}

func NewPixClient(cfg PixConfig) *PixClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     strings.TrimRight(cfg.BaseURL, "/") + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// token requests reuse the base client and its timeout
	base := &http.Client{Timeout: cfg.Timeout}
	httpClient := creds.Client(context.WithValue(context.Background(), oauth2.HTTPClient, base))
	httpClient.Timeout = cfg.Timeout

	return &PixClient{
		cfg:        cfg,
		httpClient: httpClient,
	}
}

// CreateCharge asks the provider for a QR code and a copia e cola code
func (pc *PixClient) CreateCharge(ctx context.Context, charge PixChargeRequest) (*PixCharge, error) {
	if charge.Postback == "" {
		charge.Postback = pc.cfg.PostbackURL
	}

	jsonBody, err := json.Marshal(charge)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.cfg.BaseURL+"/pix/qrcode", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create pix charge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var result PixCharge
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.PixCopiaECola == "" {
		return nil, fmt.Errorf("provider returned an empty pix code")
	}

	return &result, nil
}
