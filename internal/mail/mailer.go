// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyGate Contributors

// Package mail dispatches notification email for KeyGate.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	gomail "github.com/wneessen/go-mail"
)

// Delivery retry tuning. Transient SMTP failures are retried with
// exponential backoff before the send is reported as failed.
const (
	maxSendRetries   = 3
	initialRetryWait = 500 * time.Millisecond
)

// Config holds SMTP transport settings and the public base URL used to
// build reset links.
type Config struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	ResetBaseURL string
}

// SMTPMailer sends password-reset email over SMTP.
type SMTPMailer struct {
	client       *gomail.Client
	from         string
	resetBaseURL string
}

// NewSMTPMailer creates an SMTPMailer from the given configuration.
func NewSMTPMailer(cfg Config) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("sender address is required")
	}
	if cfg.ResetBaseURL == "" {
		return nil, oops.Code("MAIL_CONFIG_INVALID").Errorf("reset base URL is required")
	}
	if _, err := url.Parse(cfg.ResetBaseURL); err != nil {
		return nil, oops.Code("MAIL_CONFIG_INVALID").
			With("reset_base_url", cfg.ResetBaseURL).
			Wrap(err)
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, oops.Code("MAIL_CLIENT_FAILED").
			With("host", cfg.Host).
			Wrap(err)
	}

	return &SMTPMailer{
		client:       client,
		from:         cfg.From,
		resetBaseURL: cfg.ResetBaseURL,
	}, nil
}

// SendPasswordReset delivers the reset-link message for the given token.
// Transient failures are retried with exponential backoff.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return oops.Code("MAIL_BUILD_FAILED").With("operation", "set from").Wrap(err)
	}
	if err := msg.To(email); err != nil {
		return oops.Code("MAIL_BUILD_FAILED").With("operation", "set to").Wrap(err)
	}
	msg.Subject("Password Reset Request")
	msg.SetBodyString(gomail.TypeTextHTML, resetBody(m.resetBaseURL, token))

	backoff := retry.WithMaxRetries(maxSendRetries, retry.NewExponential(initialRetryWait))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("MAIL_SEND_FAILED").
			With("operation", "send password reset").
			Wrap(err)
	}
	return nil
}

// resetBody renders the reset-link message body.
func resetBody(baseURL, token string) string {
	link := fmt.Sprintf("%s?token=%s", baseURL, url.QueryEscape(token))
	return fmt.Sprintf(
		"<p>You requested a password reset. Click the link below to reset your password:</p>"+
			"<p><a href=%q>Reset Password</a></p>",
		link,
	)
}
