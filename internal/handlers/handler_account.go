package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukapos/pos_ledger_app/internal/apperrors"
	"github.com/dukapos/pos_ledger_app/internal/core/domain"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/dto"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	ledgerService  portssvc.LedgerSvcFacade
	exponent       int32
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(as portssvc.AccountSvcFacade, ls portssvc.LedgerSvcFacade, exponent int32) *accountHandler {
	return &accountHandler{
		accountService: as,
		ledgerService:  ls,
		exponent:       exponent,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountSvcFacade, ls portssvc.LedgerSvcFacade, exponent int32) {
	h := newAccountHandler(as, ls, exponent)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:code", h.getAccount)
		accounts.GET("/:code/balance", h.getAccountBalance)
		accounts.GET("/:code/statement", h.getAccountStatement)
		accounts.DELETE("/:code", h.deactivateAccount)
	}
}

// createAccount godoc
// @Summary Create a new ledger account
// @Description Adds an account to the chart of accounts
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Account code already exists"
// @Failure 500 {object} map[string]string "Failed to create account"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Validation error creating account", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Account code already exists"})
		} else {
			logger.Error("Failed to create account", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		}
		return
	}

	logger.Info("Account created", slog.String("account_code", string(account.Code)))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(account, 0, h.exponent))
}

// listAccounts godoc
// @Summary List ledger accounts
// @Description Lists the chart of accounts, optionally only active accounts
// @Tags accounts
// @Produce  json
// @Param   activeOnly query bool false "Only active accounts"
// @Success 200 {array} dto.AccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list accounts"
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	activeOnly := c.Query("activeOnly") == "true"

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), activeOnly)
	if err != nil {
		logger.Error("Failed to list accounts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
		return
	}

	responses := make([]dto.AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = dto.ToAccountResponse(&accounts[i], 0, h.exponent)
	}
	c.JSON(http.StatusOK, responses)
}

// getAccount godoc
// @Summary Get an account by code
// @Description Retrieves a single account with its derived balance
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve account"
// @Security BearerAuth
// @Router /accounts/{code} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))

	account, err := h.accountService.GetAccountByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to get account", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve account"})
		}
		return
	}

	balance, err := h.ledgerService.AccountBalance(c.Request.Context(), code, nil)
	if err != nil {
		logger.Error("Failed to derive account balance", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to derive account balance"})
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account, balance, h.exponent))
}

// getAccountBalance godoc
// @Summary Get a derived account balance
// @Description Sums the signed postings against the account, optionally as of a point in time
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Param   asOf query string false "RFC3339 timestamp"
// @Success 200 {object} dto.BalanceResponse
// @Failure 400 {object} map[string]string "Invalid asOf timestamp"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to derive balance"
// @Security BearerAuth
// @Router /accounts/{code}/balance [get]
func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))

	var asOf *time.Time
	if asOfStr := c.Query("asOf"); asOfStr != "" {
		t, err := time.Parse(time.RFC3339, asOfStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf timestamp: " + err.Error()})
			return
		}
		asOf = &t
	}

	balance, err := h.ledgerService.AccountBalance(c.Request.Context(), code, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to derive balance", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to derive balance"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountCode: string(code),
		Balance:     balance.Decimal(h.exponent),
		AsOf:        asOf,
	})
}

// getAccountStatement godoc
// @Summary Get a paginated account statement
// @Description Lists the account's journal lines, newest first
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Pagination token"
// @Success 200 {object} dto.AccountStatementResponse
// @Failure 400 {object} map[string]string "Invalid pagination token"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to retrieve statement"
// @Security BearerAuth
// @Router /accounts/{code}/statement [get]
func (h *accountHandler) getAccountStatement(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))

	var params dto.ListLinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	statement, err := h.ledgerService.AccountStatement(c.Request.Context(), code, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to retrieve statement", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statement"})
		}
		return
	}

	c.JSON(http.StatusOK, statement)
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Marks an account inactive; existing postings are untouched
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Failed to deactivate account"
// @Security BearerAuth
// @Router /accounts/{code} [delete]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), code, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else {
			logger.Error("Failed to deactivate account", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate account"})
		}
		return
	}

	logger.Info("Account deactivated", slog.String("account_code", string(code)))
	c.Status(http.StatusNoContent)
}
