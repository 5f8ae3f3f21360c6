package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/core/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// sessionHandler handles HTTP requests for cashier sessions.
type sessionHandler struct {
	sessionService portssvc.SessionSvcFacade
	exponent       int32
}

// newSessionHandler creates a new sessionHandler.
func newSessionHandler(ss portssvc.SessionSvcFacade, exponent int32) *sessionHandler {
	return &sessionHandler{
		sessionService: ss,
		exponent:       exponent,
	}
}

// registerSessionRoutes registers routes related to cashier sessions.
func registerSessionRoutes(rg *gin.RouterGroup, ss portssvc.SessionSvcFacade, exponent int32) {
	h := newSessionHandler(ss, exponent)

	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.openSession)
		sessions.GET("", h.listSessions)
		sessions.GET("/:id", h.getSession)
		sessions.POST("/:id/close", h.closeSession)
		sessions.POST("/:id/reconcile", middleware.RequireRole(middleware.RoleSupervisor), h.reconcileSession)
		sessions.POST("/:id/cash-counts", h.recordCashCount)
		sessions.GET("/:id/cash-counts", h.listCashCounts)
		sessions.POST("/:id/mobile-money/verify", middleware.RequireRole(middleware.RoleSupervisor), h.verifyMobileMoney)
		sessions.GET("/:id/mobile-money", h.listMobileMoneyChecks)
		sessions.GET("/:id/reconciliations", h.listReconciliations)
	}

	counts := rg.Group("/cash-counts")
	{
		counts.PUT("/:countID/review", middleware.RequireRole(middleware.RoleSupervisor), h.reviewCashCount)
	}

	recs := rg.Group("/reconciliations")
	{
		recs.POST("", h.createReconciliation)
	}
}

// openSession godoc
// @Summary Open a cashier session
// @Description Opens a session; at most one Open session per (channel, cashier)
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   session body dto.OpenSessionRequest true "Session details"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Open session already exists"
// @Failure 500 {object} map[string]string "Failed to open session"
// @Security BearerAuth
// @Router /sessions [post]
func (h *sessionHandler) openSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	cashierID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	session, err := h.sessionService.OpenSession(c.Request.Context(), req, cashierID)
	if err != nil {
		if errors.Is(err, services.ErrSessionAlreadyOpen) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to open session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open session"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToSessionResponse(session))
}

// listSessions godoc
// @Summary List recent sessions for the logged-in cashier
// @Tags sessions
// @Produce  json
// @Param   limit query int false "Max sessions to return (default 20)"
// @Success 200 {array} dto.SessionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list sessions"
// @Security BearerAuth
// @Router /sessions [get]
func (h *sessionHandler) listSessions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	cashierID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	sessions, err := h.sessionService.ListSessions(c.Request.Context(), cashierID, limit)
	if err != nil {
		logger.Error("Failed to list sessions", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponses(sessions))
}

// getSession godoc
// @Summary Get a cashier session
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to retrieve session"
// @Security BearerAuth
// @Router /sessions/{id} [get]
func (h *sessionHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	session, err := h.sessionService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to get session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// closeSessionResponse bundles the closed session with its final counts.
type closeSessionResponse struct {
	Session     dto.SessionResponse     `json:"session"`
	FinalCounts []dto.CashCountResponse `json:"finalCounts"`
}

// closeSession godoc
// @Summary Close a cashier session
// @Description Records a final count per declared account and transitions the session to Closed
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   request body dto.CloseSessionRequest true "Declared closing balances"
// @Success 200 {object} closeSessionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Session is not open"
// @Failure 500 {object} map[string]string "Failed to close session"
// @Security BearerAuth
// @Router /sessions/{id}/close [post]
func (h *sessionHandler) closeSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	var req dto.CloseSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	session, finalCounts, err := h.sessionService.CloseSession(c.Request.Context(), sessionID, req, userID)
	if err != nil {
		h.respondSessionError(c, logger, err, "Failed to close session")
		return
	}

	logger.Info("Session closed", slog.String("session_id", sessionID))
	c.JSON(http.StatusOK, closeSessionResponse{
		Session:     dto.ToSessionResponse(session),
		FinalCounts: dto.ToCashCountResponses(finalCounts, h.exponent),
	})
}

// reconcileSession godoc
// @Summary Reconcile a closed session
// @Description Transitions Closed to Reconciled once every flagged count is
// @Description explained and mobile-money takings are verified
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Session not closed, or unresolved variances remain"
// @Failure 500 {object} map[string]string "Failed to reconcile session"
// @Security BearerAuth
// @Router /sessions/{id}/reconcile [post]
func (h *sessionHandler) reconcileSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	session, err := h.sessionService.ReconcileSession(c.Request.Context(), sessionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, services.ErrInvalidSessionTransition),
			errors.Is(err, services.ErrUnreviewedVariance),
			errors.Is(err, services.ErrUnverifiedMobileMoney),
			errors.Is(err, services.ErrNoReconciliation):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reconcile session", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reconcile session"})
		}
		return
	}

	logger.Info("Session reconciled", slog.String("session_id", sessionID))
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// recordCashCount godoc
// @Summary Record a cash count
// @Description Snapshots declared vs ledger-expected for one account during an Open session
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   count body dto.RecordCashCountRequest true "Count details"
// @Success 201 {object} dto.CashCountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session or account not found"
// @Failure 409 {object} map[string]string "Session is not open"
// @Failure 500 {object} map[string]string "Failed to record cash count"
// @Security BearerAuth
// @Router /sessions/{id}/cash-counts [post]
func (h *sessionHandler) recordCashCount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	var req dto.RecordCashCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := h.sessionService.RecordCashCount(c.Request.Context(), sessionID, req, userID)
	if err != nil {
		h.respondSessionError(c, logger, err, "Failed to record cash count")
		return
	}

	c.JSON(http.StatusCreated, dto.ToCashCountResponse(count, h.exponent))
}

// listCashCounts godoc
// @Summary List a session's cash counts
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {array} dto.CashCountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to list cash counts"
// @Security BearerAuth
// @Router /sessions/{id}/cash-counts [get]
func (h *sessionHandler) listCashCounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	counts, err := h.sessionService.ListCashCounts(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to list cash counts", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cash counts"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCashCountResponses(counts, h.exponent))
}

// reviewCashCount godoc
// @Summary Review a flagged cash count
// @Description Attaches a supervisor review record to the count
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   countID path string true "Cash count ID"
// @Param   review body dto.ReviewCashCountRequest true "Review notes"
// @Success 200 {object} dto.CashCountResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Cash count not found"
// @Failure 500 {object} map[string]string "Failed to review cash count"
// @Security BearerAuth
// @Router /cash-counts/{countID}/review [put]
func (h *sessionHandler) reviewCashCount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	countID := c.Param("countID")

	var req dto.ReviewCashCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	reviewerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	count, err := h.sessionService.ReviewCashCount(c.Request.Context(), countID, req, reviewerID)
	if err != nil {
		if errors.Is(err, services.ErrCountNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cash count not found"})
		} else {
			logger.Error("Failed to review cash count", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review cash count"})
		}
		return
	}

	logger.Info("Cash count reviewed", slog.String("count_id", countID))
	c.JSON(http.StatusOK, dto.ToCashCountResponse(count, h.exponent))
}

// verifyMobileMoney godoc
// @Summary Verify a session's mobile-money transactions
// @Description Marks provider transaction refs confirmed or flagged
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   id path string true "Session ID"
// @Param   request body dto.VerifyMobileMoneyRequest true "Checks"
// @Success 200 {object} dto.MobileMoneyVerificationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 409 {object} map[string]string "Session already reconciled"
// @Failure 500 {object} map[string]string "Failed to verify mobile money"
// @Security BearerAuth
// @Router /sessions/{id}/mobile-money/verify [post]
func (h *sessionHandler) verifyMobileMoney(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	var req dto.VerifyMobileMoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	verifierID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	checks, err := h.sessionService.VerifyMobileMoney(c.Request.Context(), sessionID, req, verifierID)
	if err != nil {
		h.respondSessionError(c, logger, err, "Failed to verify mobile money")
		return
	}

	c.JSON(http.StatusOK, dto.ToMobileMoneyVerificationResponse(sessionID, checks))
}

// listMobileMoneyChecks godoc
// @Summary List a session's mobile-money verification records
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {object} dto.MobileMoneyVerificationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to list mobile money checks"
// @Security BearerAuth
// @Router /sessions/{id}/mobile-money [get]
func (h *sessionHandler) listMobileMoneyChecks(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	checks, err := h.sessionService.ListMobileMoneyChecks(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to list mobile money checks", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list mobile money checks"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToMobileMoneyVerificationResponse(sessionID, checks))
}

// createReconciliation godoc
// @Summary Create a reconciliation snapshot
// @Description Compares declared vs ledger-expected per account, for a session or arbitrary scope
// @Tags sessions
// @Accept  json
// @Produce  json
// @Param   request body dto.CreateReconciliationRequest true "Reconciliation details"
// @Success 201 {object} dto.ReconciliationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session or account not found"
// @Failure 409 {object} map[string]string "Session already reconciled"
// @Failure 500 {object} map[string]string "Failed to create reconciliation"
// @Security BearerAuth
// @Router /reconciliations [post]
func (h *sessionHandler) createReconciliation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rec, err := h.sessionService.CreateReconciliation(c.Request.Context(), req, userID)
	if err != nil {
		h.respondSessionError(c, logger, err, "Failed to create reconciliation")
		return
	}

	logger.Info("Reconciliation created", slog.String("reconciliation_id", rec.ReconciliationID))
	c.JSON(http.StatusCreated, dto.ToReconciliationResponse(rec, h.exponent))
}

// listReconciliations godoc
// @Summary List a session's reconciliation snapshots
// @Tags sessions
// @Produce  json
// @Param   id path string true "Session ID"
// @Success 200 {array} dto.ReconciliationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Session not found"
// @Failure 500 {object} map[string]string "Failed to list reconciliations"
// @Security BearerAuth
// @Router /sessions/{id}/reconciliations [get]
func (h *sessionHandler) listReconciliations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sessionID := c.Param("id")

	recs, err := h.sessionService.ListReconciliations(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			logger.Error("Failed to list reconciliations", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reconciliations"})
		}
		return
	}

	responses := make([]dto.ReconciliationResponse, len(recs))
	for i := range recs {
		responses[i] = dto.ToReconciliationResponse(&recs[i], h.exponent)
	}
	c.JSON(http.StatusOK, responses)
}

// respondSessionError maps common session failures onto HTTP statuses.
func (h *sessionHandler) respondSessionError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotOpen), errors.Is(err, services.ErrInvalidSessionTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
