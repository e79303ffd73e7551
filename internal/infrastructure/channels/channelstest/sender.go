// Package channelstest provides a recording sender for notifier tests.
package channelstest

import (
	"context"
	"sync"

	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
)

// Sender records the last webhook and email it was asked to send and
// returns Err for every call.
type Sender struct {
	mu sync.Mutex

	Webhook channels.SendWebhookSettings
	Email   channels.SendEmailSettings
	Err     error

	webhookCalls int
	emailCalls   int
}

// NewSender returns a Sender that succeeds.
func NewSender() *Sender {
	return &Sender{}
}

// SendWebhook implements channels.WebhookSender.
func (s *Sender) SendWebhook(ctx context.Context, cmd *channels.SendWebhookSettings) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewTransportError("webhook request canceled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Webhook = *cmd
	s.webhookCalls++
	return s.Err
}

// SendEmail implements channels.EmailSender.
func (s *Sender) SendEmail(ctx context.Context, cmd *channels.SendEmailSettings) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewTransportError("email send canceled", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Email = *cmd
	s.emailCalls++
	return s.Err
}

// WebhookCalls returns how many webhooks were sent.
func (s *Sender) WebhookCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webhookCalls
}

// EmailCalls returns how many emails were sent.
func (s *Sender) EmailCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emailCalls
}

// SetErr scripts the error returned by later calls.
func (s *Sender) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}
