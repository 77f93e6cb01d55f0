package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"reelworks/studio/internal/cache"
	"reelworks/studio/internal/config"
	"reelworks/studio/internal/email"
	"reelworks/studio/internal/models"
)

// IEscalationService drives overdue consequences for unpaid invoices:
// a reminder email once an invoice is 3 days overdue, and a suspension
// warning plus account suspension at 7 days. Each threshold fires at
// most once per invoice, guarded by markers in the marker store.
type IEscalationService interface {
	ScanClient(ctx context.Context, client *models.User, invoices []models.Invoice) error
	ScanAllClients(ctx context.Context) error
}

// escalationService implements IEscalationService.
type escalationService struct {
	cfg      *config.Config
	markers  cache.MarkerStore
	notifier email.Notifier
	users    IUserService
	billing  IBillingService
}

// NewEscalationService creates a new EscalationService.
func NewEscalationService(cfg *config.Config, markers cache.MarkerStore, notifier email.Notifier, users IUserService, billing IBillingService) IEscalationService {
	return &escalationService{
		cfg:      cfg,
		markers:  markers,
		notifier: notifier,
		users:    users,
		billing:  billing,
	}
}

// ScanClient evaluates every invoice of one client against the overdue
// thresholds. Safe to invoke concurrently for the same client (e.g.
// two simultaneous page loads): the marker store's atomic set decides a
// single winner per (invoice, threshold).
//
// The suspension threshold takes priority: an invoice first scanned at
// 9 days overdue fires only the suspension action, never a retroactive
// reminder.
func (s *escalationService) ScanClient(ctx context.Context, client *models.User, invoices []models.Invoice) error {
	now := time.Now().UTC()

	for i := range invoices {
		inv := &invoices[i]
		status := inv.EffectiveStatus(now)
		if status == models.InvoicePaid || status == models.InvoiceCancelled {
			continue // paid invoices leave the state machine for good
		}

		daysOverdue := inv.DaysOverdue(now)
		switch {
		case daysOverdue >= s.cfg.SuspendAfterDays:
			if err := s.fireSuspension(ctx, client, inv); err != nil {
				return err
			}
		case daysOverdue >= s.cfg.ReminderAfterDays:
			if err := s.fireReminder(ctx, client, inv); err != nil {
				return err
			}
		}
	}
	return nil
}

// fireSuspension sets the 7-day marker, suspends the account, and sends
// the warning. The marker is claimed first so a racing scan cannot
// double-send; notification delivery is best-effort and a failure does
// not roll the marker back (a permanently failing channel must not
// cause a resend storm).
func (s *escalationService) fireSuspension(ctx context.Context, client *models.User, inv *models.Invoice) error {
	won, err := s.markers.MarkOnce(ctx, inv.ReferenceID, s.cfg.SuspendAfterDays)
	if err != nil {
		return fmt.Errorf("marker store failure for invoice %s: %w", inv.ReferenceID, err)
	}
	if !won {
		return nil
	}

	reason := fmt.Sprintf("invoice %s overdue %d+ days", inv.ReferenceID, s.cfg.SuspendAfterDays)
	suspended, err := s.users.Suspend(ctx, client.ID, reason)
	if err != nil {
		return fmt.Errorf("failed to suspend user %s for invoice %s: %w", client.ID, inv.ReferenceID, err)
	}
	if suspended {
		log.Printf("Escalation: suspended client %s over invoice %s", client.ID, inv.ReferenceID)
	}

	if err := s.notifier.SendSuspensionWarning(ctx, client.Email, client.Name); err != nil {
		log.Printf("Escalation: suspension warning to %s failed (marker kept): %v", client.Email, err)
	}
	return nil
}

// fireReminder sets the 3-day marker and sends the reminder. No account
// restriction happens at this stage.
func (s *escalationService) fireReminder(ctx context.Context, client *models.User, inv *models.Invoice) error {
	won, err := s.markers.MarkOnce(ctx, inv.ReferenceID, s.cfg.ReminderAfterDays)
	if err != nil {
		return fmt.Errorf("marker store failure for invoice %s: %w", inv.ReferenceID, err)
	}
	if !won {
		return nil
	}

	if err := s.notifier.SendReminder(ctx, client.Email, client.Name); err != nil {
		log.Printf("Escalation: reminder to %s failed (marker kept): %v", client.Email, err)
	}
	return nil
}

// ScanAllClients runs the escalation pass over every client account.
// Invoked from the periodic background task; per-client failures are
// logged and do not abort the sweep.
func (s *escalationService) ScanAllClients(ctx context.Context) error {
	clientIDs, err := s.users.GetAllClientIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list clients for escalation scan: %w", err)
	}

	for _, clientID := range clientIDs {
		client, err := s.users.FindByID(ctx, clientID)
		if err != nil {
			log.Printf("Escalation scan: skipping client %s: %v", clientID, err)
			continue
		}

		invoices, err := s.billing.ListInvoices(ctx, clientID)
		if err != nil {
			log.Printf("Escalation scan: failed to build invoices for client %s: %v", clientID, err)
			continue
		}

		if err := s.ScanClient(ctx, client, invoices); err != nil {
			log.Printf("Escalation scan: client %s: %v", clientID, err)
		}
	}
	return nil
}
