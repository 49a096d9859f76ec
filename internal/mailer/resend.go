package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured is returned when no API key is present. Delivery attempts
// still produce an email log row.
var ErrNotConfigured = errors.New("mailer: email service not configured")

// ResendClient wraps the Resend transactional email API.
type ResendClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewResendClient constructs a new client.
func NewResendClient(apiKey string) *ResendClient {
	return &ResendClient{
		baseURL: "https://api.resend.com",
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send submits one message for delivery.
func (c *ResendClient) Send(ctx context.Context, from, to, subject, html string) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendRequest{From: from, To: []string{to}, Subject: subject, HTML: html})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/emails", c.baseURL), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mailer: resend returned status %d", resp.StatusCode)
	}
	return nil
}
