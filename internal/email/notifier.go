package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"reelworks/studio/internal/config"
)

// Notifier is the escalation engine's view of outbound notifications.
// Implementations must return an error rather than panic; callers treat
// delivery as best-effort.
type Notifier interface {
	SendReminder(ctx context.Context, toAddress, name string) error
	SendSuspensionWarning(ctx context.Context, toAddress, name string) error
}

// EmailNotifier composes the escalation emails and hands them to a Sender.
type EmailNotifier struct {
	cfg    *config.Config
	sender Sender
}

// NewEmailNotifier creates a Notifier that delivers over the given sender.
func NewEmailNotifier(cfg *config.Config, sender Sender) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sender: sender}
}

// compose builds a complete plain-text email message including headers.
func (n *EmailNotifier) compose(to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", n.cfg.SmtpFromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// SendReminder delivers the 3-day overdue reminder.
func (n *EmailNotifier) SendReminder(ctx context.Context, toAddress, name string) error {
	subject := fmt.Sprintf("%s: Overdue Invoice Reminder", n.cfg.AppName)
	body := fmt.Sprintf(
		"Hi %s,\n\nYou have an invoice past its due date. Please settle it from your "+
			"invoices page to keep your account in good standing.\n\n%s Billing",
		name, n.cfg.AppName)
	return n.sender.Send(ctx, []string{toAddress}, subject, n.compose(toAddress, subject, body))
}

// SendSuspensionWarning delivers the 7-day suspension notice.
func (n *EmailNotifier) SendSuspensionWarning(ctx context.Context, toAddress, name string) error {
	subject := fmt.Sprintf("%s: Account Suspension - Overdue Invoice", n.cfg.AppName)
	body := fmt.Sprintf(
		"Hi %s,\n\nAn invoice on your account has been overdue for an extended period "+
			"and your account has been suspended. Access is restored automatically as soon "+
			"as payment is received.\n\n%s Billing",
		name, n.cfg.AppName)
	return n.sender.Send(ctx, []string{toAddress}, subject, n.compose(toAddress, subject, body))
}
