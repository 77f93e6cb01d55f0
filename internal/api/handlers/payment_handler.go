package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"reelworks/studio/internal/api/middleware"
	"reelworks/studio/internal/services"
)

// PaymentHandler receives order creation requests and capture callbacks
// from the payment integration.
type PaymentHandler struct {
	paymentService services.IPaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService services.IPaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreateOrderRequest is the body of POST /v1/payment/order.
type CreateOrderRequest struct {
	ReferenceID string `json:"reference_id" binding:"required"`
}

// CaptureRequest is the body of POST /v1/payment/capture, reported by
// the frontend after the processor confirms the charge.
type CaptureRequest struct {
	ReferenceID   string  `json:"reference_id" binding:"required"`
	TransactionID string  `json:"transaction_id" binding:"required"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status" binding:"required"`
}

// CreateOrder handles POST /v1/payment/order.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	clientID := c.GetString(middleware.ContextKeyUserID)
	order, err := h.paymentService.CreateOrder(c.Request.Context(), clientID, req.ReferenceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invoice reference"})
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, services.ErrAlreadyPaid):
			c.JSON(http.StatusConflict, gin.H{"error": "Invoice already paid"})
		case errors.Is(err, services.ErrNothingToCharge):
			c.JSON(http.StatusConflict, gin.H{"error": "Invoice has no billable amount yet"})
		default:
			log.Printf("CreateOrder: client %s reference %s: %v", clientID, req.ReferenceID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment order"})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// Capture handles POST /v1/payment/capture. The capture already
// happened on the processor's side, so this endpoint acknowledges the
// payment even when local bookkeeping cannot be completed. A reference
// id that does not match any invoice is logged and acknowledged without
// bookkeeping rather than rejected.
func (h *PaymentHandler) Capture(c *gin.Context) {
	var req CaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	clientID := c.GetString(middleware.ContextKeyUserID)

	if req.Status != "COMPLETED" {
		log.Printf("Capture: client %s reported non-completed capture %s for %s, ignoring", clientID, req.Status, req.ReferenceID)
		c.JSON(http.StatusOK, gin.H{"status": req.Status, "recorded": false})
		return
	}

	result, err := h.paymentService.ReconcileCapture(c.Request.Context(), clientID, req.ReferenceID, req.TransactionID, req.Amount, req.Method)
	if err != nil {
		if errors.Is(err, services.ErrBadReference) {
			log.Printf("Capture: client %s sent malformed reference %q, skipping bookkeeping", clientID, req.ReferenceID)
			c.JSON(http.StatusOK, gin.H{"status": req.Status, "recorded": false})
			return
		}
		log.Printf("Capture: reconciliation failed for client %s reference %s: %v", clientID, req.ReferenceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment received but could not be recorded"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             req.Status,
		"recorded":           true,
		"already_paid":       result.AlreadyPaid,
		"suspension_cleared": result.SuspensionCleared,
		"invoice":            result.Invoice,
	})
}
