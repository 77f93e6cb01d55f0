package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/db"
	"reelworks/studio/internal/models"
)

// ErrBadReference is returned for capture callbacks whose reference id
// does not follow the invoice_<id> convention.
var ErrBadReference = errors.New("malformed payment reference id")

// ErrAlreadyPaid is returned when an order is requested for an invoice
// that has already been settled.
var ErrAlreadyPaid = errors.New("invoice already paid")

// ErrNothingToCharge is returned when an order is requested for an
// invoice whose billable total is still zero (all items pending).
var ErrNothingToCharge = errors.New("invoice has no billable amount yet")

// PaymentOrder is the order handed to the external payment processor.
type PaymentOrder struct {
	ReferenceID  string  `json:"reference_id"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
}

// CaptureResult reports what a capture reconciliation actually did.
type CaptureResult struct {
	Invoice           *models.Invoice
	AlreadyPaid       bool
	SuspensionCleared bool
}

// IPaymentService implements the receiving half of the payment
// integration: creating orders from derived invoices and reconciling
// confirmed captures into durable PAID rows.
type IPaymentService interface {
	CreateOrder(ctx context.Context, clientID, referenceID string) (*PaymentOrder, error)
	ReconcileCapture(ctx context.Context, clientID, referenceID, transactionID string, amount float64, method string) (*CaptureResult, error)
}

// paymentService implements IPaymentService.
type paymentService struct {
	billing IBillingService
	users   IUserService
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(billing IBillingService, users IUserService) IPaymentService {
	return &paymentService{billing: billing, users: users}
}

// CreateOrder validates that the reference names one of the client's
// invoices and returns the amount to charge. Amounts are USD with
// 2-decimal precision, which the derived grand total already carries.
func (s *paymentService) CreateOrder(ctx context.Context, clientID, referenceID string) (*PaymentOrder, error) {
	if !strings.HasPrefix(referenceID, models.PaymentRefPrefix) {
		return nil, ErrBadReference
	}

	invoices, err := s.billing.ListInvoices(ctx, clientID)
	if err != nil {
		return nil, err
	}
	for i := range invoices {
		inv := &invoices[i]
		if inv.ReferenceID != referenceID {
			continue
		}
		if inv.Status == models.InvoicePaid {
			return nil, ErrAlreadyPaid
		}
		if inv.GrandTotal <= 0 {
			return nil, ErrNothingToCharge
		}
		return &PaymentOrder{
			ReferenceID:  referenceID,
			Amount:       inv.GrandTotal,
			CurrencyCode: "USD",
		}, nil
	}
	return nil, mongo.ErrNoDocuments
}

// ReconcileCapture records a confirmed payment capture against the
// referenced invoice. Idempotent by reference id: a retried callback
// finds the PAID row and changes nothing, and suspension is cleared
// only by the call that performs the PENDING-to-PAID transition.
func (s *paymentService) ReconcileCapture(ctx context.Context, clientID, referenceID, transactionID string, amount float64, method string) (*CaptureResult, error) {
	if !strings.HasPrefix(referenceID, models.PaymentRefPrefix) {
		return nil, ErrBadReference
	}

	existing, err := s.billing.FindPersistedByReference(ctx, referenceID)
	if err == nil {
		if existing.Status == models.InvoicePaid {
			return &CaptureResult{Invoice: existing, AlreadyPaid: true}, nil
		}
		return s.settle(ctx, clientID, referenceID, transactionID, method)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// First capture for this reference: snapshot the derived invoice
	// into a durable row. From here on the row is authoritative.
	inv := s.snapshotDerived(ctx, clientID, referenceID, amount)
	now := time.Now().UTC()
	inv.Status = models.InvoicePaid
	inv.PaidAt = &now
	inv.PaymentMethod = method
	inv.TransactionRef = transactionID

	if err := s.billing.InsertPersisted(ctx, inv); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			// Lost a race with a concurrent callback; the winner's row
			// is the durable one.
			stored, findErr := s.billing.FindPersistedByReference(ctx, referenceID)
			if findErr != nil {
				return nil, findErr
			}
			return &CaptureResult{Invoice: stored, AlreadyPaid: true}, nil
		}
		return nil, fmt.Errorf("failed to persist invoice %s: %w", referenceID, err)
	}

	cleared, err := s.clearSuspension(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{Invoice: inv, SuspensionCleared: cleared}, nil
}

// settle transitions an existing durable row to PAID.
func (s *paymentService) settle(ctx context.Context, clientID, referenceID, transactionID, method string) (*CaptureResult, error) {
	transitioned, err := s.billing.MarkPersistedPaid(ctx, referenceID, method, transactionID)
	if err != nil {
		return nil, err
	}

	stored, err := s.billing.FindPersistedByReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return &CaptureResult{Invoice: stored, AlreadyPaid: true}, nil
	}

	cleared, err := s.clearSuspension(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &CaptureResult{Invoice: stored, SuspensionCleared: cleared}, nil
}

// snapshotDerived copies the matching derived invoice, falling back to
// a bare row carrying the captured amount when project state has moved
// on and the reference no longer derives.
func (s *paymentService) snapshotDerived(ctx context.Context, clientID, referenceID string, amount float64) *models.Invoice {
	derived, err := s.billing.BuildInvoicesForClient(ctx, clientID)
	if err != nil {
		log.Printf("Capture %s: failed to derive invoices for snapshot: %v", referenceID, err)
	} else {
		for i := range derived {
			if derived[i].ReferenceID == referenceID {
				inv := derived[i]
				return &inv
			}
		}
	}

	now := time.Now().UTC()
	return &models.Invoice{
		ClientID:    clientID,
		ReferenceID: referenceID,
		StartDate:   now,
		DueDate:     now,
		GrandTotal:  amount,
	}
}

// clearSuspension lifts any suspension on the paying client. Deliberately
// global: any paid invoice restores the account, not just the one that
// triggered suspension.
func (s *paymentService) clearSuspension(ctx context.Context, clientID string) (bool, error) {
	cleared, err := s.users.ClearSuspension(ctx, clientID)
	if err != nil {
		return false, fmt.Errorf("failed to clear suspension for client %s: %w", clientID, err)
	}
	if cleared {
		log.Printf("Payment: suspension cleared for client %s", clientID)
	}
	return cleared, nil
}
