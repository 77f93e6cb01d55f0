package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"reelworks/studio/internal/config"
	"reelworks/studio/internal/models"
)

func escalationFixture() (*config.Config, *memoryMarkerStore, *mockNotifier, *mockUserService, *models.User) {
	cfg := &config.Config{ReminderAfterDays: 3, SuspendAfterDays: 7}
	markers := newMemoryMarkerStore()
	notifier := &mockNotifier{}
	client := &models.User{
		Base:  models.Base{ID: "c1"},
		Name:  "Test Client",
		Email: "client@example.com",
		Role:  models.RoleClient,
	}
	users := newMockUserService(client)
	return cfg, markers, notifier, users, client
}

func overdueInvoice(ref string, daysOverdue int) models.Invoice {
	due := time.Now().UTC().Add(-time.Duration(daysOverdue) * 24 * time.Hour)
	return models.Invoice{
		ReferenceID: ref,
		ClientID:    "c1",
		DueDate:     due,
		Status:      models.InvoiceOverdue,
		GrandTotal:  108,
	}
}

func TestScanClient_TwoDaysOverdueIsNoop(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{overdueInvoice("invoice_1_x", 2)}
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))

	assert.Empty(t, notifier.reminders)
	assert.Empty(t, notifier.warnings)
	assert.Equal(t, 0, users.suspendCalls)
}

func TestScanClient_ReminderFiresOnce(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{overdueInvoice("invoice_1_x", 4)}
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))

	assert.Equal(t, []string{"client@example.com"}, notifier.reminders)
	assert.Empty(t, notifier.warnings)
	assert.Equal(t, 0, users.suspendCalls)
	assert.False(t, client.Suspended)
}

func TestScanClient_SuspensionAtSevenDays(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{overdueInvoice("invoice_1_x", 7)}
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))

	assert.Equal(t, []string{"client@example.com"}, notifier.warnings)
	assert.True(t, client.Suspended)
}

func TestScanClient_TenDaysFirstScanFiresOnlySuspension(t *testing.T) {
	// An invoice first seen deep in overdue territory gets the highest
	// threshold action only, no retroactive reminder.
	cfg, markers, notifier, users, client := escalationFixture()
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{overdueInvoice("invoice_1_x", 10)}
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))

	assert.Empty(t, notifier.reminders)
	assert.Equal(t, []string{"client@example.com"}, notifier.warnings)
	assert.True(t, client.Suspended)
}

func TestScanClient_PaidInvoicesAreSkipped(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	inv := overdueInvoice("invoice_1_x", 10)
	inv.Status = models.InvoicePaid
	assert.NoError(t, svc.ScanClient(context.Background(), client, []models.Invoice{inv}))

	assert.Empty(t, notifier.reminders)
	assert.Empty(t, notifier.warnings)
	assert.False(t, client.Suspended)
}

func TestScanClient_NotificationFailureKeepsMarker(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	notifier.reminderErr = errors.New("smtp down")
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{overdueInvoice("invoice_1_x", 4)}
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))

	has, err := markers.HasMarker(context.Background(), "invoice_1_x", cfg.ReminderAfterDays)
	assert.NoError(t, err)
	assert.True(t, has)

	// Even after the channel recovers the reminder is not resent.
	notifier.reminderErr = nil
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))
	assert.Empty(t, notifier.reminders)
}

func TestScanClient_MarkerStoreFailureIsFatal(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	markers.err = errors.New("redis down")
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{overdueInvoice("invoice_1_x", 4)}
	assert.Error(t, svc.ScanClient(context.Background(), client, invoices))
	assert.Empty(t, notifier.reminders)
}

func TestScanClient_MultipleInvoicesIndependentThresholds(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	svc := NewEscalationService(cfg, markers, notifier, users, newMockBillingService())

	invoices := []models.Invoice{
		overdueInvoice("invoice_1_x", 4),
		overdueInvoice("invoice_2_x", 8),
		overdueInvoice("invoice_3_x", 1),
	}
	assert.NoError(t, svc.ScanClient(context.Background(), client, invoices))

	assert.Equal(t, []string{"client@example.com"}, notifier.reminders)
	assert.Equal(t, []string{"client@example.com"}, notifier.warnings)
	assert.True(t, client.Suspended)
}

func TestScanAllClients(t *testing.T) {
	cfg, markers, notifier, users, client := escalationFixture()
	billing := newMockBillingService()
	billing.derived = []models.Invoice{overdueInvoice("invoice_1_x", 5)}
	svc := NewEscalationService(cfg, markers, notifier, users, billing)

	assert.NoError(t, svc.ScanAllClients(context.Background()))
	assert.Equal(t, []string{client.Email}, notifier.reminders)
}
