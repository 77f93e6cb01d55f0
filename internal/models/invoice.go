package models

import (
	"fmt"
	"time"
)

// InvoiceStatus is the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "PENDING"
	InvoicePaid      InvoiceStatus = "PAID"
	InvoiceOverdue   InvoiceStatus = "OVERDUE"
	InvoiceCancelled InvoiceStatus = "CANCELLED"
)

// InvoiceSource distinguishes invoices recomputed from project state on
// every read (derived) from durable rows created when a payment is
// captured (persisted). Callers always see one unified list; the tag is
// internal bookkeeping.
type InvoiceSource string

const (
	SourceDerived   InvoiceSource = "derived"
	SourcePersisted InvoiceSource = "persisted"
)

// PaymentRefPrefix is the reference id prefix the payment processor
// sends back on capture callbacks.
const PaymentRefPrefix = "invoice_"

// InvoiceLineItem is a single priced entry on an invoice. It is derived
// from project state and persisted only as part of its invoice.
type InvoiceLineItem struct {
	ProjectID       string  `bson:"project_id" json:"project_id"`
	WorkDescription string  `bson:"work_description" json:"work_description"`
	UnitPrice       float64 `bson:"unit_price" json:"unit_price"`
	Quantity        float64 `bson:"quantity" json:"quantity"`
	Total           float64 `bson:"total" json:"total"`
	Pending         bool    `bson:"pending" json:"pending"` // zero-priced placeholder awaiting duration or completion
}

// Invoice is a bill for one project's work. Derived invoices are views
// over current project state; once any payment is captured a persisted
// row exists and is authoritative for that reference id.
type Invoice struct {
	Base           `bson:",inline"`
	ClientID       string            `bson:"client_id" json:"client_id"`
	ProjectID      string            `bson:"project_id,omitempty" json:"project_id,omitempty"`
	Index          int               `bson:"index" json:"index"`
	ReferenceID    string            `bson:"reference_id" json:"reference_id"`
	StartDate      time.Time         `bson:"start_date" json:"start_date"`
	DueDate        time.Time         `bson:"due_date" json:"due_date"`
	Items          []InvoiceLineItem `bson:"items" json:"items"`
	GrandTotal     float64           `bson:"grand_total" json:"grand_total"`
	Status         InvoiceStatus     `bson:"status" json:"status"`
	Source         InvoiceSource     `bson:"source" json:"source"`
	PaidAt         *time.Time        `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	PaymentMethod  string            `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
	TransactionRef string            `bson:"transaction_ref,omitempty" json:"transaction_ref,omitempty"`
	Deleted        bool              `bson:"deleted" json:"-"`
}

// DerivedReferenceID builds the deterministic identity of a derived
// invoice: its sequence index plus the ISO date of its due date.
func DerivedReferenceID(index int, dueDate time.Time) string {
	return fmt.Sprintf("%s%d_%s", PaymentRefPrefix, index, dueDate.UTC().Format("2006-01-02"))
}

// DaysOverdue returns whole days elapsed since the due date, negative
// while the invoice is still current.
func (inv *Invoice) DaysOverdue(now time.Time) int {
	return int(now.Sub(inv.DueDate).Hours() / 24)
}

// EffectiveStatus returns the status as of now. Persisted statuses are
// authoritative; derived invoices flip from PENDING to OVERDUE purely by
// elapsed time.
func (inv *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if inv.Status == InvoicePaid || inv.Status == InvoiceCancelled {
		return inv.Status
	}
	if now.After(inv.DueDate) {
		return InvoiceOverdue
	}
	return InvoicePending
}
