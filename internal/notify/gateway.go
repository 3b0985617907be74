package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Gateway delivers SMS and email through the clinic's messaging relay,
// a small internal service fronting the carrier integrations.
type Gateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewGateway creates a messaging-relay client. token is optional; when
// set it is sent as a bearer token.
func NewGateway(baseURL, token string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS posts one SMS to the relay.
func (g *Gateway) SendSMS(ctx context.Context, to, body string) error {
	return g.post(ctx, "/v1/sms", map[string]string{"to": to, "body": body})
}

// SendEmail posts one email to the relay.
func (g *Gateway) SendEmail(ctx context.Context, to, subject, body string) error {
	return g.post(ctx, "/v1/email", map[string]string{"to": to, "subject": subject, "body": body})
}

func (g *Gateway) post(ctx context.Context, path string, payload any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: encode gateway payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("notify: build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: gateway request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notify: gateway returned %s for %s", resp.Status, path)
	}
	return nil
}

var _ SMSSender = (*Gateway)(nil)
var _ EmailSender = (*Gateway)(nil)
