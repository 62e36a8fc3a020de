package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/core/services"
	"github.com/kabusim/kabusim_backend/internal/dto"
	"github.com/kabusim/kabusim_backend/internal/middleware"
)

// tradingHandler handles the ledger mutations and history of one portfolio.
type tradingHandler struct {
	tradingService portssvc.TradingSvcFacade
}

// newTradingHandler creates a new tradingHandler.
func newTradingHandler(ts portssvc.TradingSvcFacade) *tradingHandler {
	return &tradingHandler{
		tradingService: ts,
	}
}

// registerTradingRoutes registers the trade and cash routes nested under a
// portfolio.
func registerTradingRoutes(portfolios *gin.RouterGroup, tradingService portssvc.TradingSvcFacade) {
	h := newTradingHandler(tradingService)

	portfolios.POST("/:id/deposits", h.deposit)
	portfolios.POST("/:id/withdrawals", h.withdraw)
	portfolios.POST("/:id/trades/buy", h.buy)
	portfolios.POST("/:id/trades/sell", h.sell)
	portfolios.GET("/:id/ledger", h.listLedger)
	portfolios.POST("/:id/ledger/verify", h.verifyLedger)
}

// respondTradingError maps the trading error taxonomy onto HTTP statuses.
// Business rejections are 422 so clients can distinguish them from malformed
// requests.
func respondTradingError(c *gin.Context, logger *slog.Logger, err error, operation string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
	case errors.Is(err, apperrors.ErrInvalidAmount), errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInsufficientShares),
		errors.Is(err, apperrors.ErrUnknownSymbol):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": "Portfolio was modified concurrently, please retry"})
	case errors.Is(err, services.ErrPriceLookupTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		logger.Error("Trading operation failed", slog.String("operation", operation), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + operation})
	}
}

// recordCashEntry binds a CashRequest and runs the given mutation (deposit or
// withdrawal) against the portfolio from the path.
func (h *tradingHandler) recordCashEntry(
	c *gin.Context,
	operation string,
	op func(ctx context.Context, userID string, portfolioID string, req dto.CashRequest) (*domain.LedgerEntry, error),
) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	var req dto.CashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for cash entry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := op(c.Request.Context(), userID, portfolioID, req)
	if err != nil {
		respondTradingError(c, logger, err, operation)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLedgerEntryResponse(entry))
}

// recordTradeEntry binds a TradeRequest and runs the given mutation (buy or
// sell) against the portfolio from the path.
func (h *tradingHandler) recordTradeEntry(
	c *gin.Context,
	operation string,
	op func(ctx context.Context, userID string, portfolioID string, req dto.TradeRequest) (*domain.LedgerEntry, error),
) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	var req dto.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for trade entry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := op(c.Request.Context(), userID, portfolioID, req)
	if err != nil {
		respondTradingError(c, logger, err, operation)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLedgerEntryResponse(entry))
}

// deposit godoc
// @Summary Deposit cash into a portfolio
// @Description Appends a deposit entry and raises the cash balance
// @Tags trading
// @Accept  json
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Param   deposit body dto.CashRequest true "Deposit details"
// @Success 201 {object} dto.LedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or non-positive amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 500 {object} map[string]string "Failed to record deposit"
// @Security BearerAuth
// @Router /portfolios/{id}/deposits [post]
func (h *tradingHandler) deposit(c *gin.Context) {
	h.recordCashEntry(c, "record deposit", h.tradingService.Deposit)
}

// withdraw godoc
// @Summary Withdraw cash from a portfolio
// @Description Appends a withdrawal entry; withdrawing beyond the balance is rejected
// @Tags trading
// @Accept  json
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Param   withdrawal body dto.CashRequest true "Withdrawal details"
// @Success 201 {object} dto.LedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or non-positive amount"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Failure 500 {object} map[string]string "Failed to record withdrawal"
// @Security BearerAuth
// @Router /portfolios/{id}/withdrawals [post]
func (h *tradingHandler) withdraw(c *gin.Context) {
	h.recordCashEntry(c, "record withdrawal", h.tradingService.Withdraw)
}

// buy godoc
// @Summary Buy shares
// @Description Appends a buy entry at the given price, or the latest stored close when omitted
// @Tags trading
// @Accept  json
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Param   trade body dto.TradeRequest true "Trade details"
// @Success 201 {object} dto.LedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or non-positive price/quantity"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 422 {object} map[string]string "Insufficient funds or unknown symbol"
// @Failure 504 {object} map[string]string "Price lookup timed out"
// @Failure 500 {object} map[string]string "Failed to record buy"
// @Security BearerAuth
// @Router /portfolios/{id}/trades/buy [post]
func (h *tradingHandler) buy(c *gin.Context) {
	h.recordTradeEntry(c, "record buy", h.tradingService.Buy)
}

// sell godoc
// @Summary Sell shares
// @Description Appends a sell entry; the realized profit against the average cost is fixed on the entry
// @Tags trading
// @Accept  json
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Param   trade body dto.TradeRequest true "Trade details"
// @Success 201 {object} dto.LedgerEntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or non-positive price/quantity"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 422 {object} map[string]string "Insufficient shares or unknown symbol"
// @Failure 504 {object} map[string]string "Price lookup timed out"
// @Failure 500 {object} map[string]string "Failed to record sell"
// @Security BearerAuth
// @Router /portfolios/{id}/trades/sell [post]
func (h *tradingHandler) sell(c *gin.Context) {
	h.recordTradeEntry(c, "record sell", h.tradingService.Sell)
}

// listLedger godoc
// @Summary List a portfolio's transaction history
// @Description Returns ledger entries ordered by occurrence time, with filters and token pagination
// @Tags trading
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Param   startDate query string false "Inclusive start date (YYYY-MM-DD)"
// @Param   endDate query string false "Inclusive end date (YYYY-MM-DD)"
// @Param   symbol query string false "Filter by symbol"
// @Param   kind query string false "Filter by entry kind" Enums(DEPOSIT, WITHDRAWAL, BUY, SELL)
// @Param   limit query int false "Page size (default 100, max 1000)"
// @Param   nextToken query string false "Opaque page token"
// @Param   order query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} dto.ListLedgerResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 500 {object} map[string]string "Failed to list ledger"
// @Security BearerAuth
// @Router /portfolios/{id}/ledger [get]
func (h *tradingHandler) listLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	var params dto.ListLedgerParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListLedger", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	res, err := h.tradingService.ListLedger(c.Request.Context(), userID, portfolioID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list ledger", slog.String("portfolio_id", portfolioID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ledger"})
		}
		return
	}

	c.JSON(http.StatusOK, res)
}

// verifyLedger godoc
// @Summary Verify a portfolio's cached state against its ledger
// @Description Replays the full ledger and checks the cached cash balance and positions agree
// @Tags trading
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 409 {object} map[string]string "Cached state diverges from the ledger"
// @Failure 500 {object} map[string]string "Failed to verify ledger"
// @Security BearerAuth
// @Router /portfolios/{id}/ledger/verify [post]
func (h *tradingHandler) verifyLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.tradingService.VerifyLedger(c.Request.Context(), userID, portfolioID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		} else if errors.Is(err, services.ErrLedgerMismatch) {
			logger.Error("Ledger verification failed", slog.String("portfolio_id", portfolioID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConcurrentModification) {
			c.JSON(http.StatusConflict, gin.H{"error": "Portfolio was modified concurrently, please retry"})
		} else {
			logger.Error("Failed to verify ledger", slog.String("portfolio_id", portfolioID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify ledger"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "consistent"})
}
