package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendClient delivers email through the Resend HTTP API.
type ResendClient struct {
	client  *resend.Client
	from    string
	timeout time.Duration
}

// NewResendClient creates a Resend client. An empty baseURL keeps the public API endpoint.
func NewResendClient(apiKey, from, baseURL string, timeout time.Duration) (*ResendClient, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resend.NewCustomClient(&http.Client{Timeout: timeout}, apiKey)
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse resend base url: %w", err)
		}
		client.BaseURL = u
	}

	return &ResendClient{client: client, from: from, timeout: timeout}, nil
}

// Send delivers an HTML message via Resend.
func (c *ResendClient) Send(ctx context.Context, to, subject, htmlBody string) error {
	if c.client.ApiKey == "" {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	}

	if _, err := c.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email via Resend: %w", err)
	}

	return nil
}
