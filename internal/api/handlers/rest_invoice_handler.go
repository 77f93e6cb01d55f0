package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"reelworks/studio/internal/api/middleware"
	"reelworks/studio/internal/models"
	"reelworks/studio/internal/services"
)

// RestInvoiceHandler serves the client billing view.
type RestInvoiceHandler struct {
	billingService    services.IBillingService
	userService       services.IUserService
	escalationService services.IEscalationService
}

// NewRestInvoiceHandler creates a new RestInvoiceHandler.
func NewRestInvoiceHandler(billingService services.IBillingService, userService services.IUserService, escalationService services.IEscalationService) *RestInvoiceHandler {
	return &RestInvoiceHandler{
		billingService:    billingService,
		userService:       userService,
		escalationService: escalationService,
	}
}

// InvoiceListResponse is the body of GET /v1/invoice.
type InvoiceListResponse struct {
	Invoices  []models.Invoice `json:"invoices"`
	TotalDue  float64          `json:"total_due"`
	AsOf      time.Time        `json:"as_of"`
	Suspended bool             `json:"suspended"`
}

// ListInvoices handles GET /v1/invoice. Invoices are recomputed from
// the client's project records on every call, so the list is current
// without any background recalculation job. Loading the page also runs
// the overdue scan for this client; the periodic worker provides the
// same coverage for clients who never log in.
func (h *RestInvoiceHandler) ListInvoices(c *gin.Context) {
	clientID := c.GetString(middleware.ContextKeyUserID)

	user, err := h.userService.FindByID(c.Request.Context(), clientID)
	if err != nil {
		log.Printf("ListInvoices: failed to load client %s: %v", clientID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoices"})
		return
	}

	invoices, err := h.billingService.ListInvoices(c.Request.Context(), clientID)
	if err != nil {
		log.Printf("ListInvoices: failed to build invoices for client %s: %v", clientID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve invoices"})
		return
	}

	// Best effort: escalation failures must not break the billing view.
	if err := h.escalationService.ScanClient(c.Request.Context(), user, invoices); err != nil {
		log.Printf("ListInvoices: overdue scan failed for client %s: %v", clientID, err)
	}

	var totalDue float64
	for _, inv := range invoices {
		if inv.Status != models.InvoicePaid && inv.Status != models.InvoiceCancelled {
			totalDue += inv.GrandTotal
		}
	}

	c.JSON(http.StatusOK, InvoiceListResponse{
		Invoices:  invoices,
		TotalDue:  totalDue,
		AsOf:      time.Now().UTC(),
		Suspended: user.Suspended,
	})
}
