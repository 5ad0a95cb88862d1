package external

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type WhatsAppConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	FromNumber string
	Timeout    time.Duration
}

func (c WhatsAppConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// WhatsAppClient sends text messages through the Twilio Messages API
type WhatsAppClient struct {
	cfg  WhatsAppConfig
	rest *twilio.RestClient
}

func NewWhatsAppClient(cfg WhatsAppConfig) *WhatsAppClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" {
		if target, err := url.Parse(cfg.BaseURL); err == nil {
			httpClient.Transport = rebaseTransport{target: target, base: http.DefaultTransport}
		}
	}

	restClient := &client.Client{
		Credentials: client.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	restClient.SetAccountSid(cfg.AccountSID)

	return &WhatsAppClient{
		cfg:  cfg,
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: restClient}),
	}
}

// SendText delivers body to a phone number and returns the message sid
func (wc *WhatsAppClient) SendText(ctx context.Context, phone, body string) (string, error) {
	to, err := WhatsAppAddress(phone)
	if err != nil {
		return "", err
	}
	from := wc.cfg.FromNumber
	if !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := wc.rest.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("provider returned no message sid")
	}
	return *resp.Sid, nil
}

// rebaseTransport points the SDK's fixed api.twilio.com host at another
// server, such as a regional proxy.
type rebaseTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (t rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return t.base.RoundTrip(out)
}

// WhatsAppAddress formats a Brazilian phone as whatsapp:+55... Numbers with
// 10 or 11 digits (DDD plus number) get the 55 country code.
func WhatsAppAddress(phone string) (string, error) {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone, nil
	}

	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	clean := digits.String()
	if clean == "" {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	if len(clean) == 10 || len(clean) == 11 {
		clean = "55" + clean
	}
	return "whatsapp:+" + clean, nil
}
