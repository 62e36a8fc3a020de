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
)

// companyHandler handles HTTP requests against the company master.
type companyHandler struct {
	companyService portssvc.CompanySvcFacade
	priceService   portssvc.PriceSvcFacade
}

// newCompanyHandler creates a new companyHandler.
func newCompanyHandler(cs portssvc.CompanySvcFacade, ps portssvc.PriceSvcFacade) *companyHandler {
	return &companyHandler{
		companyService: cs,
		priceService:   ps,
	}
}

// registerCompanyRoutes registers routes related to listed companies.
func registerCompanyRoutes(rg *gin.RouterGroup, companyService portssvc.CompanySvcFacade, priceService portssvc.PriceSvcFacade) {
	h := newCompanyHandler(companyService, priceService)

	companies := rg.Group("/companies")
	{
		companies.GET("", h.searchCompanies)
		companies.GET("/:symbol", h.getCompany)
		companies.GET("/:symbol/price", h.getCurrentPrice)
	}
}

// searchCompanies godoc
// @Summary Search listed companies
// @Description Matches the query against symbol prefix and company name substring
// @Tags companies
// @Produce  json
// @Param   q query string true "Search query"
// @Param   limit query int false "Max results (default 20, max 100)"
// @Success 200 {array} dto.CompanyResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to search companies"
// @Security BearerAuth
// @Router /companies [get]
func (h *companyHandler) searchCompanies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListCompaniesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	companies, err := h.companyService.SearchCompanies(c.Request.Context(), params.Query, params.Limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to search companies", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search companies"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToListCompanyResponse(companies))
}

// getCompany godoc
// @Summary Get one listed company
// @Description Retrieves the company master row for a symbol
// @Tags companies
// @Produce  json
// @Param   symbol path string true "Stock symbol"
// @Success 200 {object} dto.CompanyResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Symbol not listed"
// @Failure 500 {object} map[string]string "Failed to retrieve company"
// @Security BearerAuth
// @Router /companies/{symbol} [get]
func (h *companyHandler) getCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	symbol := c.Param("symbol")

	company, err := h.companyService.GetCompany(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownSymbol) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Symbol not listed"})
		} else {
			logger.Error("Failed to retrieve company", slog.String("symbol", symbol), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve company"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyResponse(company))
}

// getCurrentPrice godoc
// @Summary Get the current price of a symbol
// @Description Returns the latest stored daily close for the symbol
// @Tags companies
// @Produce  json
// @Param   symbol path string true "Stock symbol"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "No price data for symbol"
// @Failure 500 {object} map[string]string "Failed to retrieve price"
// @Security BearerAuth
// @Router /companies/{symbol}/price [get]
func (h *companyHandler) getCurrentPrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	symbol := c.Param("symbol")

	price, err := h.priceService.CurrentPrice(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrUnknownSymbol) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No price data for symbol"})
		} else {
			logger.Error("Failed to retrieve price", slog.String("symbol", symbol), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve price"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price.String()})
}
