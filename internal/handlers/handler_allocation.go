package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/core/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// allocationHandler handles HTTP requests for payment allocation and invoices.
type allocationHandler struct {
	allocationService portssvc.AllocationSvcFacade
	exponent          int32
}

// newAllocationHandler creates a new allocationHandler.
func newAllocationHandler(as portssvc.AllocationSvcFacade, exponent int32) *allocationHandler {
	return &allocationHandler{
		allocationService: as,
		exponent:          exponent,
	}
}

// registerAllocationRoutes registers routes for payments and invoices.
func registerAllocationRoutes(rg *gin.RouterGroup, as portssvc.AllocationSvcFacade, exponent int32, writeLimit gin.HandlerFunc) {
	h := newAllocationHandler(as, exponent)

	payments := rg.Group("/payments")
	{
		payments.POST("/allocate", writeLimit, h.allocateBulk)
		payments.POST("/allocate-invoice", writeLimit, h.allocateSingle)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("/unpaid", h.listUnpaidInvoices)
	}
}

// allocateBulk godoc
// @Summary Allocate a payment across a party's invoices
// @Description Distributes the payment oldest-invoice-first. Overpayment is
// @Description reported as excess, never rejected.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   request body dto.AllocateBulkRequest true "Payment details"
// @Success 201 {object} dto.AllocationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Payment reference already allocated or session not open"
// @Failure 422 {object} map[string]string "Candidate invoice not allocatable"
// @Failure 500 {object} map[string]string "Failed to allocate payment"
// @Security BearerAuth
// @Router /payments/allocate [post]
func (h *allocationHandler) allocateBulk(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AllocateBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.allocationService.AllocateBulk(c.Request.Context(), req, userID)
	if err != nil {
		h.respondAllocationError(c, logger, err)
		return
	}

	logger.Info("Payment allocated",
		slog.String("allocation_id", result.AllocationID),
		slog.String("party_id", string(result.PartyID)),
		slog.Int("invoices_paid", len(result.InvoicesPaid)),
		slog.Int64("excess", int64(result.ExcessPayment)))
	c.JSON(http.StatusCreated, dto.ToAllocationResponse(result, h.exponent))
}

// allocateSingle godoc
// @Summary Pay one specific invoice
// @Description Applies a payment to a single invoice; amount defaults to its full outstanding balance
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   request body dto.AllocateSingleRequest true "Payment details"
// @Success 201 {object} dto.AllocationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Payment reference already allocated or session not open"
// @Failure 422 {object} map[string]string "Invoice not allocatable"
// @Failure 500 {object} map[string]string "Failed to allocate payment"
// @Security BearerAuth
// @Router /payments/allocate-invoice [post]
func (h *allocationHandler) allocateSingle(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AllocateSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.allocationService.AllocateSingle(c.Request.Context(), req, userID)
	if err != nil {
		h.respondAllocationError(c, logger, err)
		return
	}

	logger.Info("Invoice payment allocated", slog.String("allocation_id", result.AllocationID), slog.String("invoice_id", req.InvoiceID))
	c.JSON(http.StatusCreated, dto.ToAllocationResponse(result, h.exponent))
}

// respondAllocationError maps allocation failures onto HTTP statuses.
func (h *allocationHandler) respondAllocationError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrDuplicatePosting), errors.Is(err, services.ErrSessionNotOpen):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvoiceNotFound), errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvoiceNotAllocatable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPaymentAmount), errors.Is(err, services.ErrInvoiceWrongParty), errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to allocate payment", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to allocate payment"})
	}
}

// createInvoiceRequest is the payload for registering an invoice.
type createInvoiceRequest struct {
	InvoiceID string          `json:"invoiceID,omitempty"`
	PartyID   string          `json:"partyID" binding:"required"`
	Kind      string          `json:"kind" binding:"required,oneof=SALE PURCHASE"`
	Reference string          `json:"reference" binding:"required"`
	Total     decimal.Decimal `json:"total" binding:"required"`
	IssuedAt  *time.Time      `json:"issuedAt,omitempty"`
}

// createInvoice godoc
// @Summary Register an invoice
// @Description Registers an invoice as a unit of payment allocation
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body createInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Invoice already exists"
// @Failure 500 {object} map[string]string "Failed to create invoice"
// @Security BearerAuth
// @Router /invoices [post]
func (h *allocationHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	total, err := domain.AmountFromDecimal(req.Total, h.exponent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice := domain.Invoice{
		InvoiceID: domain.InvoiceID(req.InvoiceID),
		PartyID:   domain.PartyID(req.PartyID),
		Kind:      domain.InvoiceKind(req.Kind),
		Reference: req.Reference,
		Total:     total,
	}
	if req.IssuedAt != nil {
		invoice.IssuedAt = *req.IssuedAt
	}

	created, err := h.allocationService.CreateInvoice(c.Request.Context(), invoice, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			c.JSON(http.StatusConflict, gin.H{"error": "Invoice already exists"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create invoice", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invoice"})
		}
		return
	}

	logger.Info("Invoice created", slog.String("invoice_id", string(created.InvoiceID)))
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(created, h.exponent))
}

// listUnpaidInvoices godoc
// @Summary List a party's unpaid invoices
// @Description Returns unpaid and partially-paid invoices, oldest first
// @Tags invoices
// @Produce  json
// @Param   partyID query string true "Party ID"
// @Param   kind query string false "Invoice kind (SALE or PURCHASE, default SALE)"
// @Success 200 {array} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Missing partyID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list invoices"
// @Security BearerAuth
// @Router /invoices/unpaid [get]
func (h *allocationHandler) listUnpaidInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := c.Query("partyID")
	if partyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "partyID query parameter is required"})
		return
	}

	kind := domain.InvoiceKind(c.DefaultQuery("kind", string(domain.SalesInvoice)))

	invoices, err := h.allocationService.ListUnpaidInvoices(c.Request.Context(), domain.PartyID(partyID), kind)
	if err != nil {
		logger.Error("Failed to list unpaid invoices", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceResponses(invoices, h.exponent))
}
