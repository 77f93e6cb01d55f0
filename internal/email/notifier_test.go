package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"reelworks/studio/internal/config"
)

type captureSender struct {
	to      []string
	subject string
	raw     []byte
}

func (s *captureSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	s.to = to
	s.subject = subject
	s.raw = rawMessage
	return nil
}

func TestEmailNotifier_SendReminder(t *testing.T) {
	cfg := &config.Config{AppName: "ReelWorks", SmtpFromAddress: "billing@reelworks.example.com"}
	sender := &captureSender{}
	n := NewEmailNotifier(cfg, sender)

	err := n.SendReminder(context.Background(), "client@example.com", "Amal")
	assert.NoError(t, err)

	assert.Equal(t, []string{"client@example.com"}, sender.to)
	assert.Equal(t, "ReelWorks: Overdue Invoice Reminder", sender.subject)
	raw := string(sender.raw)
	assert.Contains(t, raw, "To: client@example.com\r\n")
	assert.Contains(t, raw, "From: billing@reelworks.example.com\r\n")
	assert.Contains(t, raw, "Hi Amal,")
}

func TestEmailNotifier_SendSuspensionWarning(t *testing.T) {
	cfg := &config.Config{AppName: "ReelWorks", SmtpFromAddress: "billing@reelworks.example.com"}
	sender := &captureSender{}
	n := NewEmailNotifier(cfg, sender)

	err := n.SendSuspensionWarning(context.Background(), "client@example.com", "Amal")
	assert.NoError(t, err)

	assert.Equal(t, "ReelWorks: Account Suspension - Overdue Invoice", sender.subject)
	assert.Contains(t, string(sender.raw), "suspended")
}

func TestClassifySubject(t *testing.T) {
	assert.Equal(t, "invoice_reminder", classifySubject("ReelWorks: Overdue Invoice Reminder"))
	assert.Equal(t, "suspension_warning", classifySubject("ReelWorks: Account Suspension - Overdue Invoice"))
	assert.Equal(t, "invoice_issued", classifySubject("ReelWorks: Invoice #3"))
	assert.Equal(t, "unknown", classifySubject("Welcome aboard"))
}
