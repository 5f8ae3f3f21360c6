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

// ledgerHandler handles HTTP requests for journal entries.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
	exponent      int32
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade, exponent int32) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
		exponent:      exponent,
	}
}

// registerLedgerRoutes registers routes related to journal entries.
func registerLedgerRoutes(rg *gin.RouterGroup, ls portssvc.LedgerSvcFacade, exponent int32, writeLimit gin.HandlerFunc) {
	h := newLedgerHandler(ls, exponent)

	entries := rg.Group("/entries")
	{
		entries.POST("", writeLimit, h.postEntry)
		entries.GET("/:id", h.getEntry)
		entries.POST("/:id/reverse", writeLimit, h.reverseEntry)
		entries.GET("/by-source/:sourceType/:sourceID", h.getEntriesBySource)
	}
}

// postEntry godoc
// @Summary Post a journal entry
// @Description Validates and durably posts a balanced journal entry. A retried
// @Description idempotency key returns the previously posted entry instead of double-posting.
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.PostEntryRequest true "Entry details"
// @Success 201 {object} dto.EntryResponse
// @Success 200 {object} dto.EntryResponse "Duplicate posting; prior entry returned"
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Session not open, or duplicate whose prior entry is unavailable"
// @Failure 422 {object} map[string]string "Unbalanced entry or invalid lines"
// @Failure 500 {object} map[string]string "Failed to post entry"
// @Security BearerAuth
// @Router /entries [post]
func (h *ledgerHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), req, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicatePosting):
			logger.Info("Duplicate posting detected", slog.String("source_id", req.SourceID), slog.String("idempotency_key", req.IdempotencyKey))
			if entry == nil {
				// The prior entry could not be retrieved; the client can
				// refetch it by source.
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			// The prior entry is returned so retries are harmless.
			c.JSON(http.StatusOK, dto.ToEntryResponse(entry, h.exponent))
		case errors.Is(err, services.ErrSessionNotOpen):
			logger.Warn("Rejected posting against a non-open session", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnbalancedEntry), errors.Is(err, services.ErrEntryMinLines):
			logger.Warn("Rejected unbalanced entry", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAccountNotFound), errors.Is(err, services.ErrAccountInactive), errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to post entry", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post entry"})
		}
		return
	}

	logger.Info("Entry posted", slog.String("entry_id", entry.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry, h.exponent))
}

// getEntry godoc
// @Summary Get a journal entry
// @Description Retrieves an entry together with its lines
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entry"
// @Security BearerAuth
// @Router /entries/{id} [get]
func (h *ledgerHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	entry, err := h.ledgerService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else {
			logger.Error("Failed to get entry", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve entry"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry, h.exponent))
}

// reverseEntry godoc
// @Summary Reverse a journal entry
// @Description Posts the offsetting entry and links the pair. The original is
// @Description never mutated; this is the only form of correction.
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 201 {object} dto.EntryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry already reversed"
// @Failure 422 {object} map[string]string "Entry cannot be reversed"
// @Failure 500 {object} map[string]string "Failed to reverse entry"
// @Security BearerAuth
// @Router /entries/{id}/reverse [post]
func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversing, err := h.ledgerService.ReverseEntry(c.Request.Context(), entryID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		case errors.Is(err, services.ErrEntryNotPosted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrAlreadyReversal):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to reverse entry", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse entry"})
		}
		return
	}

	logger.Info("Entry reversed", slog.String("entry_id", entryID), slog.String("reversing_entry_id", reversing.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversing, h.exponent))
}

// getEntriesBySource godoc
// @Summary List entries for a business event
// @Description Reconstructs everything a source (sale, allocation, ...) posted
// @Tags entries
// @Produce  json
// @Param   sourceType path string true "Source type (SALE, ALLOCATION, ...)"
// @Param   sourceID path string true "Source ID"
// @Success 200 {array} dto.EntryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to retrieve entries"
// @Security BearerAuth
// @Router /entries/by-source/{sourceType}/{sourceID} [get]
func (h *ledgerHandler) getEntriesBySource(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sourceType := domain.SourceType(c.Param("sourceType"))
	sourceID := c.Param("sourceID")

	entries, err := h.ledgerService.EntriesForSource(c.Request.Context(), sourceType, sourceID)
	if err != nil {
		logger.Error("Failed to get entries by source", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve entries"})
		return
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToEntryResponse(&entries[i], h.exponent)
	}
	c.JSON(http.StatusOK, responses)
}
