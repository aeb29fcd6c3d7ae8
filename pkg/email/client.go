// Package email sends HTML reminder emails over SMTP or the Resend API.
package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

// DefaultTimeout bounds a single delivery attempt.
const DefaultTimeout = 30 * time.Second

var ErrNotConfigured = errors.New("email credentials not configured")

type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Client delivers email through an SMTP server using STARTTLS.
type Client struct {
	dialer  dialer
	from    string
	timeout time.Duration
	ready   bool
}

// NewClient creates an SMTP client. A zero timeout uses DefaultTimeout.
func NewClient(smtpHost string, smtpPort int, username, password, from string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if from == "" {
		from = username
	}

	d := mail.NewDialer(smtpHost, smtpPort, username, password)
	d.Timeout = timeout
	d.StartTLSPolicy = mail.MandatoryStartTLS

	return &Client{
		dialer:  d,
		from:    from,
		timeout: timeout,
		ready:   username != "" && password != "",
	}
}

// Send delivers an HTML message. It returns when the server accepted the
// message, the timeout elapsed or ctx was cancelled.
//
// The SMTP exchange cannot be interrupted: after a timeout it keeps running
// in the background and the message may still be delivered.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !c.ready {
		return ErrNotConfigured
	}

	message := mail.NewMessage()

	message.SetHeader("From", c.from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)

	message.SetBody("text/html", htmlBody)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.dialer.DialAndSend(message)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
