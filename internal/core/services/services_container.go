package services

import (
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/platform/config"
)

// NewServiceContainer wires every service with its repositories in dependency
// order.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, cfg *config.Config) *portssvc.ServiceContainer {
	priceSvc := NewPriceService(repos.PriceRepo)
	companySvc := NewCompanyService(repos.CompanyRepo)
	valuationSvc := NewValuationService(repos.PortfolioRepo, repos.LedgerRepo, priceSvc, companySvc)
	portfolioSvc := NewPortfolioService(repos.PortfolioRepo, valuationSvc)
	tradingSvc := NewTradingService(repos.LedgerRepo, repos.PortfolioRepo, portfolioSvc, priceSvc, companySvc, cfg.PriceLookupTimeout)

	return &portssvc.ServiceContainer{
		User:        NewUserService(repos.UserRepo),
		Token:       NewTokenService(cfg),
		GoogleOAuth: NewGoogleOAuthService(cfg),
		Portfolio:   portfolioSvc,
		Trading:     tradingSvc,
		Valuation:   valuationSvc,
		Price:       priceSvc,
		Company:     companySvc,
	}
}
