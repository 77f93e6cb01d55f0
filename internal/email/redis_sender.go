package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"reelworks/studio/internal/config"
)

// RedisSender implements the Sender interface by storing emails in
// Redis instead of delivering them. Integration tests and dev
// environments read the "inbox" back out by recipient and kind.
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender.
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{client: client, cfg: cfg}
}

// classifySubject maps a subject line to a notification kind for the
// mock inbox key. Heuristic, but the notifier owns all subject lines so
// the mapping stays in sync.
func classifySubject(subject string) string {
	switch {
	case strings.Contains(subject, "Overdue Invoice Reminder"):
		return "invoice_reminder"
	case strings.Contains(subject, "Account Suspension"):
		return "suspension_warning"
	case strings.Contains(subject, "Invoice"):
		return "invoice_issued"
	}
	return "unknown"
}

// Send stores a representation of the email in Redis under a key the
// test harness can poll.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}
	kind := classifySubject(subject)

	emailData := map[string]interface{}{
		"to":      strings.Join(to, ", "),
		"from":    s.cfg.SmtpFromAddress,
		"subject": subject,
		"body":    string(rawMessage),
		"sent_at": time.Now().UTC().Format(time.RFC3339Nano),
		"kind":    kind,
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, kind)
	if err := s.client.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (To: %s, Subject: %s)", key, primaryTo, subject)
	return nil
}
