package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/config"
	"reelworks/studio/internal/models"
)

// IBillingService derives invoices from project state and owns the
// durable invoice collection created by payment capture.
type IBillingService interface {
	BuildLineItems(p *models.Project) []models.InvoiceLineItem
	BuildInvoicesForClient(ctx context.Context, clientID string) ([]models.Invoice, error)
	ListInvoices(ctx context.Context, clientID string) ([]models.Invoice, error)
	FindPersistedByReference(ctx context.Context, referenceID string) (*models.Invoice, error)
	InsertPersisted(ctx context.Context, inv *models.Invoice) error
	MarkPersistedPaid(ctx context.Context, referenceID, method, transactionRef string) (bool, error)
}

const invoicesCollection = "invoices"

// billingService implements IBillingService.
type billingService struct {
	db             *mongo.Database
	cfg            *config.Config
	projectService IProjectService
}

// NewBillingService creates a new BillingService.
func NewBillingService(database *mongo.Database, cfg *config.Config, projectService IProjectService) IBillingService {
	return &billingService{
		db:             database,
		cfg:            cfg,
		projectService: projectService,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// describeStreams renders the progressed work streams named in include
// as a human-readable fragment, e.g. "editing completed, review completed".
func describeStreams(c WorkClassification, include ...string) string {
	var parts []string
	for _, label := range c.Labels {
		for _, name := range include {
			if label.Stream == name {
				state := "in progress"
				if label.State == models.WorkCompleted {
					state = "completed"
				}
				parts = append(parts, fmt.Sprintf("%s %s", label.Stream, state))
			}
		}
	}
	return strings.Join(parts, ", ")
}

func pendingItem(projectID, description string) models.InvoiceLineItem {
	return models.InvoiceLineItem{
		ProjectID:       projectID,
		WorkDescription: description,
		UnitPrice:       0,
		Quantity:        0,
		Total:           0,
		Pending:         true,
	}
}

// buildVideoItem prices the video work stream of a non-design project.
func (s *billingService) buildVideoItem(p *models.Project, c WorkClassification) models.InvoiceLineItem {
	rate := RateForProject(p)
	streams := describeStreams(c, "filming", "editing", "review")
	if streams == "" {
		streams = "video work"
	}

	if minutes, ok := BillableMinutes(p.VideoDuration); ok {
		quantity := float64(minutes)
		return models.InvoiceLineItem{
			ProjectID: p.ID,
			WorkDescription: fmt.Sprintf("%s (%d min @ %.0f/%s)",
				streams, minutes, rate.RatePerUnit, rate.Unit),
			UnitPrice: rate.RatePerUnit,
			Quantity:  quantity,
			Total:     round2(rate.RatePerUnit * quantity),
		}
	}

	if p.Editing() == models.WorkCompleted {
		return pendingItem(p.ID, streams+" (awaiting duration from editor)")
	}
	return pendingItem(p.ID, streams+" (work in progress, final invoice awaits completion)")
}

// buildDesignItem prices design work at the flat per-design fee.
// Design is charged as soon as any design activity is detected,
// regardless of whether it has finished; this asymmetry with video
// pricing is deliberate.
func (s *billingService) buildDesignItem(p *models.Project, c WorkClassification) models.InvoiceLineItem {
	rate := RateForKind(models.KindDesign)
	desc := describeStreams(c, "design")
	if desc == "" {
		desc = "design"
	}
	return models.InvoiceLineItem{
		ProjectID:       p.ID,
		WorkDescription: fmt.Sprintf("%s (flat fee per %s)", desc, rate.Unit),
		UnitPrice:       rate.RatePerUnit,
		Quantity:        1,
		Total:           rate.RatePerUnit,
	}
}

// buildFallbackItem covers billable projects with neither detected
// video nor design work (e.g. included only via delivered file links),
// using the project's own type-based pricing.
func (s *billingService) buildFallbackItem(p *models.Project) models.InvoiceLineItem {
	rate := RateForProject(p)

	if rate.Unit == UnitDesign {
		return models.InvoiceLineItem{
			ProjectID:       p.ID,
			WorkDescription: fmt.Sprintf("%s (flat fee per design)", p.Title),
			UnitPrice:       rate.RatePerUnit,
			Quantity:        1,
			Total:           rate.RatePerUnit,
		}
	}

	if minutes, ok := BillableMinutes(p.VideoDuration); ok {
		quantity := float64(minutes)
		return models.InvoiceLineItem{
			ProjectID: p.ID,
			WorkDescription: fmt.Sprintf("%s (%d min @ %.0f/minute)",
				p.Title, minutes, rate.RatePerUnit),
			UnitPrice: rate.RatePerUnit,
			Quantity:  quantity,
			Total:     round2(rate.RatePerUnit * quantity),
		}
	}
	return pendingItem(p.ID, p.Title+" (awaiting recorded duration)")
}

// BuildLineItems produces the priced line items for one billable
// project: a video item and/or a design item, or a generic fallback
// when neither work stream is detected. Pending items carry zero price,
// zero quantity, zero total.
func (s *billingService) BuildLineItems(p *models.Project) []models.InvoiceLineItem {
	c := ClassifyWork(p)

	var items []models.InvoiceLineItem
	if HasVideoWork(p) {
		items = append(items, s.buildVideoItem(p, c))
	}
	if HasDesignWork(p) {
		items = append(items, s.buildDesignItem(p, c))
	}
	if len(items) == 0 {
		items = append(items, s.buildFallbackItem(p))
	}
	return items
}

// BuildInvoicesForClient recomputes the client's derived invoices from
// current project state: one invoice per billable project, most recent
// first, due date = last update + the grace window. Projects without an
// update timestamp are excluded rather than invoiced with an invalid
// due date.
func (s *billingService) BuildInvoicesForClient(ctx context.Context, clientID string) ([]models.Invoice, error) {
	projects, err := s.projectService.FindBillableByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load billable projects for client %s: %w", clientID, err)
	}

	dated := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if p.UpdatedAt != nil {
			dated = append(dated, p)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].UpdatedAt.After(*dated[j].UpdatedAt)
	})

	now := time.Now().UTC()
	grace := time.Duration(s.cfg.InvoiceGraceDays) * 24 * time.Hour

	invoices := make([]models.Invoice, 0, len(dated))
	for i := range dated {
		p := &dated[i]
		items := s.BuildLineItems(p)

		grandTotal := 0.0
		for _, item := range items {
			grandTotal += item.Total
		}

		startDate := p.UpdatedAt.UTC()
		dueDate := startDate.Add(grace)
		index := i + 1

		inv := models.Invoice{
			ClientID:    clientID,
			ProjectID:   p.ID,
			Index:       index,
			ReferenceID: models.DerivedReferenceID(index, dueDate),
			StartDate:   startDate,
			DueDate:     dueDate,
			Items:       items,
			GrandTotal:  round2(grandTotal),
			Source:      models.SourceDerived,
		}
		inv.Status = inv.EffectiveStatus(now)
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

// ListInvoices returns the client's unified invoice list: derived
// invoices recomputed from project state, with persisted rows (created
// on payment capture) taking precedence for matching reference ids.
// Persisted invoices with no current derived counterpart are appended.
func (s *billingService) ListInvoices(ctx context.Context, clientID string) ([]models.Invoice, error) {
	derived, err := s.BuildInvoicesForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	persisted, err := s.findPersistedByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	byRef := make(map[string]models.Invoice, len(persisted))
	for _, inv := range persisted {
		byRef[inv.ReferenceID] = inv
	}

	unified := make([]models.Invoice, 0, len(derived)+len(persisted))
	for _, inv := range derived {
		if stored, ok := byRef[inv.ReferenceID]; ok {
			unified = append(unified, stored)
			delete(byRef, inv.ReferenceID)
			continue
		}
		unified = append(unified, inv)
	}
	for _, inv := range persisted {
		if _, remaining := byRef[inv.ReferenceID]; remaining {
			unified = append(unified, inv)
		}
	}
	return unified, nil
}

func (s *billingService) findPersistedByClient(ctx context.Context, clientID string) ([]models.Invoice, error) {
	collection := s.db.Collection(invoicesCollection)
	cursor, err := collection.Find(ctx, bson.M{"client_id": clientID, "deleted": false})
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	var invoices []models.Invoice
	if err = cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices for client %s: %w", clientID, err)
	}
	return invoices, nil
}

// FindPersistedByReference looks up a durable invoice by its payment
// reference id. Returns mongo.ErrNoDocuments when none exists yet.
func (s *billingService) FindPersistedByReference(ctx context.Context, referenceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	collection := s.db.Collection(invoicesCollection)
	err := collection.FindOne(ctx, bson.M{"reference_id": referenceID, "deleted": false}).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding invoice by reference %s: %w", referenceID, err)
	}
	return &invoice, nil
}

// InsertPersisted stores a durable invoice row. The unique index on
// reference_id makes concurrent inserts for the same reference resolve
// to exactly one row; callers handle the duplicate-key error by
// re-reading.
func (s *billingService) InsertPersisted(ctx context.Context, inv *models.Invoice) error {
	inv.GenIDIfEmpty()
	inv.Source = models.SourcePersisted
	if _, err := s.db.Collection(invoicesCollection).InsertOne(ctx, inv); err != nil {
		return err
	}
	return nil
}

// MarkPersistedPaid transitions a durable invoice to PAID, recording
// the payment method and processor transaction reference. The filter
// excludes already-paid rows, so a repeated capture callback reports
// false and changes nothing.
func (s *billingService) MarkPersistedPaid(ctx context.Context, referenceID, method, transactionRef string) (bool, error) {
	collection := s.db.Collection(invoicesCollection)
	now := time.Now().UTC()
	filter := bson.M{
		"reference_id": referenceID,
		"deleted":      false,
		"status":       bson.M{"$ne": models.InvoicePaid},
	}
	update := bson.M{"$set": bson.M{
		"status":          models.InvoicePaid,
		"paid_at":         now,
		"payment_method":  method,
		"transaction_ref": transactionRef,
	}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("db error marking invoice %s paid: %w", referenceID, err)
	}
	return result.MatchedCount > 0, nil
}
