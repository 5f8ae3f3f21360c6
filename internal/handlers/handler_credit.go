package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/core/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// creditHandler handles HTTP requests for credit policy and credit sales.
type creditHandler struct {
	creditService portssvc.CreditSvcFacade
	exponent      int32
}

// newCreditHandler creates a new creditHandler.
func newCreditHandler(cs portssvc.CreditSvcFacade, exponent int32) *creditHandler {
	return &creditHandler{
		creditService: cs,
		exponent:      exponent,
	}
}

// registerCreditRoutes registers routes related to party credit.
func registerCreditRoutes(rg *gin.RouterGroup, cs portssvc.CreditSvcFacade, exponent int32, writeLimit gin.HandlerFunc) {
	h := newCreditHandler(cs, exponent)

	credit := rg.Group("/parties/:partyID/credit")
	{
		credit.GET("", h.getCreditSummary)
		credit.POST("/validate", h.validateCredit)
		credit.PUT("/approval", middleware.RequireRole(middleware.RoleSupervisor), h.approveCredit)
		credit.PUT("/limit", middleware.RequireRole(middleware.RoleSupervisor), h.updateCreditLimit)
		credit.PUT("/freeze", middleware.RequireRole(middleware.RoleSupervisor), h.setCreditFreeze)
	}

	sales := rg.Group("/credit-sales")
	{
		sales.POST("", writeLimit, h.recordCreditSale)
	}
}

// getCreditSummary godoc
// @Summary Get a party's credit position
// @Description Returns the policy plus the ledger-derived outstanding and available amounts
// @Tags credit
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Success 200 {object} dto.CreditSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No credit profile for party"
// @Failure 500 {object} map[string]string "Failed to derive credit summary"
// @Security BearerAuth
// @Router /parties/{partyID}/credit [get]
func (h *creditHandler) getCreditSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := domain.PartyID(c.Param("partyID"))

	summary, err := h.creditService.Summary(c.Request.Context(), partyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, services.ErrCreditProfileMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No credit profile for party"})
		} else {
			logger.Error("Failed to derive credit summary", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to derive credit summary"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCreditSummaryResponse(summary, h.exponent))
}

// validateCredit godoc
// @Summary Validate a prospective credit transaction
// @Description Checks amount against policy and fresh outstanding balance; advisory only
// @Tags credit
// @Accept  json
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Param   request body dto.ValidateCreditRequest true "Prospective amount"
// @Success 200 {object} dto.CreditValidationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to validate credit"
// @Security BearerAuth
// @Router /parties/{partyID}/credit/validate [post]
func (h *creditHandler) validateCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := domain.PartyID(c.Param("partyID"))

	var req dto.ValidateCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	amount, err := domain.AmountFromDecimal(req.Amount, h.exponent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	validation, err := h.creditService.Validate(c.Request.Context(), partyID, amount)
	if err != nil {
		logger.Error("Failed to validate credit", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate credit"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCreditValidationResponse(validation))
}

// approveCredit godoc
// @Summary Approve or revoke a party's credit facility
// @Tags credit
// @Accept  json
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Param   request body dto.ApproveCreditRequest true "Approval details"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to update approval"
// @Security BearerAuth
// @Router /parties/{partyID}/credit/approval [put]
func (h *creditHandler) approveCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := domain.PartyID(c.Param("partyID"))

	var req dto.ApproveCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.creditService.Approve(c.Request.Context(), partyID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update credit approval", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update approval"})
		}
		return
	}

	logger.Info("Credit approval updated", slog.String("party_id", string(partyID)), slog.Bool("approved", profile.Approved))
	c.JSON(http.StatusOK, gin.H{"partyID": string(profile.PartyID), "approved": profile.Approved})
}

// updateCreditLimit godoc
// @Summary Change a party's credit limit
// @Tags credit
// @Accept  json
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Param   request body dto.UpdateCreditLimitRequest true "New limit"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No credit profile for party"
// @Failure 500 {object} map[string]string "Failed to update limit"
// @Security BearerAuth
// @Router /parties/{partyID}/credit/limit [put]
func (h *creditHandler) updateCreditLimit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := domain.PartyID(c.Param("partyID"))

	var req dto.UpdateCreditLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.creditService.UpdateLimit(c.Request.Context(), partyID, req, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, services.ErrCreditProfileMissing):
			c.JSON(http.StatusNotFound, gin.H{"error": "No credit profile for party"})
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to update credit limit", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update limit"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"partyID": string(profile.PartyID), "creditLimit": profile.CreditLimit.Decimal(h.exponent)})
}

// setCreditFreeze godoc
// @Summary Freeze or unfreeze a party's credit
// @Description Freezing blocks new credit issuance but never repayments
// @Tags credit
// @Accept  json
// @Produce  json
// @Param   partyID path string true "Party ID"
// @Param   request body dto.SetCreditFreezeRequest true "Freeze flag"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No credit profile for party"
// @Failure 500 {object} map[string]string "Failed to update freeze state"
// @Security BearerAuth
// @Router /parties/{partyID}/credit/freeze [put]
func (h *creditHandler) setCreditFreeze(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	partyID := domain.PartyID(c.Param("partyID"))

	var req dto.SetCreditFreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.creditService.SetFrozen(c.Request.Context(), partyID, req.Frozen, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, services.ErrCreditProfileMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No credit profile for party"})
		} else {
			logger.Error("Failed to update freeze state", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update freeze state"})
		}
		return
	}

	logger.Info("Credit freeze updated", slog.String("party_id", string(partyID)), slog.Bool("frozen", profile.Frozen))
	c.JSON(http.StatusOK, gin.H{"partyID": string(profile.PartyID), "frozen": profile.Frozen})
}

// recordCreditSale godoc
// @Summary Record a credit sale
// @Description Runs the limit check and posts the receivable/sales entry in one
// @Description per-party-serialized operation
// @Tags credit
// @Accept  json
// @Produce  json
// @Param   sale body dto.RecordCreditSaleRequest true "Credit sale details"
// @Success 201 {object} dto.EntryResponse
// @Success 200 {object} dto.EntryResponse "Duplicate; prior entry returned"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Credit not approved or frozen"
// @Failure 409 {object} map[string]string "Session not open, or duplicate whose prior entry is unavailable"
// @Failure 422 {object} map[string]string "Credit limit exceeded"
// @Failure 500 {object} map[string]string "Failed to record credit sale"
// @Security BearerAuth
// @Router /credit-sales [post]
func (h *creditHandler) recordCreditSale(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordCreditSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.creditService.RecordCreditSale(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicatePosting):
			logger.Info("Duplicate credit sale detected", slog.String("source_id", req.SourceID))
			if entry == nil {
				// The prior entry could not be retrieved; the client can
				// refetch it by source.
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, dto.ToEntryResponse(entry, h.exponent))
		case errors.Is(err, services.ErrSessionNotOpen):
			logger.Warn("Credit sale against a non-open session refused", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCreditNotApproved), errors.Is(err, services.ErrCreditFrozen), errors.Is(err, services.ErrCreditProfileMissing):
			logger.Warn("Credit sale refused", slog.String("party_id", req.PartyID), slog.String("error", err.Error()))
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrCreditLimitExceeded):
			logger.Warn("Credit limit exceeded", slog.String("party_id", req.PartyID))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrInvalidCreditAmount), errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to record credit sale", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record credit sale"})
		}
		return
	}

	logger.Info("Credit sale recorded", slog.String("entry_id", entry.EntryID), slog.String("party_id", req.PartyID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry, h.exponent))
}
