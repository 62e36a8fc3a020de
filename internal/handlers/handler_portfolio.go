package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/dto"
	"github.com/kabusim/kabusim_backend/internal/middleware"
	"github.com/kabusim/kabusim_backend/internal/utils"
)

// portfolioHandler handles HTTP requests related to portfolios.
type portfolioHandler struct {
	portfolioService portssvc.PortfolioSvcFacade
}

// newPortfolioHandler creates a new portfolioHandler.
func newPortfolioHandler(ps portssvc.PortfolioSvcFacade) *portfolioHandler {
	return &portfolioHandler{
		portfolioService: ps,
	}
}

// registerPortfolioRoutes registers routes related to portfolios.
func registerPortfolioRoutes(rg *gin.RouterGroup, portfolioService portssvc.PortfolioSvcFacade, tradingService portssvc.TradingSvcFacade) {
	h := newPortfolioHandler(portfolioService)

	portfolios := rg.Group("/portfolios")
	{
		portfolios.POST("", h.createPortfolio)
		portfolios.GET("", h.listPortfolios)
		portfolios.GET("/:id", h.getPortfolioDetail)
		portfolios.PUT("/:id", h.updatePortfolio)
		portfolios.DELETE("/:id", h.deletePortfolio)

		registerTradingRoutes(portfolios, tradingService)
	}

	rg.GET("/dashboard/summary", h.getDashboardSummary)
}

// createPortfolio godoc
// @Summary Create a new portfolio
// @Description Creates a simulation portfolio for the logged-in user. Initial capital defaults to 1,000,000 JPY.
// @Tags portfolios
// @Accept  json
// @Produce  json
// @Param   portfolio body dto.CreatePortfolioRequest true "Portfolio details"
// @Success 201 {object} dto.PortfolioResponse
// @Failure 400 {object} map[string]string "Invalid input format or portfolio limit reached"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create portfolio"
// @Security BearerAuth
// @Router /portfolios [post]
func (h *portfolioHandler) createPortfolio(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePortfolio", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(c.Request.Context(), req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrInvalidAmount) {
			logger.Warn("Validation error creating portfolio", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create portfolio in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portfolio"})
		}
		return
	}

	logger.Info("Portfolio created successfully",
		slog.String("portfolio_id", portfolio.PortfolioID),
		slog.String("initial_capital", utils.FormatJPY(portfolio.InitialCapital)))
	c.JSON(http.StatusCreated, dto.ToPortfolioResponse(portfolio))
}

// listPortfolios godoc
// @Summary List the user's portfolios
// @Description Lists every portfolio of the logged-in user with valuation headline numbers
// @Tags portfolios
// @Produce  json
// @Success 200 {array} dto.PortfolioSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list portfolios"
// @Security BearerAuth
// @Router /portfolios [get]
func (h *portfolioHandler) listPortfolios(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summaries, err := h.portfolioService.ListPortfolios(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Failed to list portfolios", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list portfolios"})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// getPortfolioDetail godoc
// @Summary Get a portfolio with valued positions
// @Description Retrieves one portfolio with its positions valued at the latest stored prices
// @Tags portfolios
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Success 200 {object} dto.PortfolioDetailResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 500 {object} map[string]string "Failed to retrieve portfolio"
// @Security BearerAuth
// @Router /portfolios/{id} [get]
func (h *portfolioHandler) getPortfolioDetail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	detail, err := h.portfolioService.GetPortfolioDetail(c.Request.Context(), portfolioID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		} else {
			logger.Error("Failed to get portfolio detail", slog.String("portfolio_id", portfolioID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve portfolio"})
		}
		return
	}

	c.JSON(http.StatusOK, detail)
}

// updatePortfolio godoc
// @Summary Update a portfolio
// @Description Updates name, description or initial capital of a portfolio
// @Tags portfolios
// @Accept  json
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Param   portfolio body dto.UpdatePortfolioRequest true "Fields to update"
// @Success 200 {object} dto.PortfolioResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 500 {object} map[string]string "Failed to update portfolio"
// @Security BearerAuth
// @Router /portfolios/{id} [put]
func (h *portfolioHandler) updatePortfolio(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	var req dto.UpdatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdatePortfolio", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(c.Request.Context(), portfolioID, req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		} else if errors.Is(err, apperrors.ErrInvalidAmount) || errors.Is(err, apperrors.ErrInsufficientFunds) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to update portfolio", slog.String("portfolio_id", portfolioID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update portfolio"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPortfolioResponse(portfolio))
}

// deletePortfolio godoc
// @Summary Delete a portfolio
// @Description Deletes a portfolio together with its positions and ledger entries
// @Tags portfolios
// @Produce  json
// @Param   id path string true "Portfolio ID"
// @Success 204 "No Content"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Portfolio not found"
// @Failure 500 {object} map[string]string "Failed to delete portfolio"
// @Security BearerAuth
// @Router /portfolios/{id} [delete]
func (h *portfolioHandler) deletePortfolio(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	portfolioID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.portfolioService.DeletePortfolio(c.Request.Context(), portfolioID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Portfolio not found"})
		} else {
			logger.Error("Failed to delete portfolio", slog.String("portfolio_id", portfolioID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete portfolio"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// getDashboardSummary godoc
// @Summary Get the dashboard summary
// @Description Aggregates positions count and profit/loss across every portfolio of the user
// @Tags dashboard
// @Produce  json
// @Success 200 {object} dto.DashboardSummaryResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to compute summary"
// @Security BearerAuth
// @Router /dashboard/summary [get]
func (h *portfolioHandler) getDashboardSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c.Request.Context())
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summary, err := h.portfolioService.GetDashboardSummary(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Failed to compute dashboard summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	logger.Debug("Dashboard summary computed",
		slog.String("total_profit_loss", utils.FormatJPY(summary.TotalProfitLoss)))
	c.JSON(http.StatusOK, summary)
}
