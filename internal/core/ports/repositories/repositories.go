package repositories

// RepositoryProvider bundles every repository the service layer needs.
type RepositoryProvider struct {
	PortfolioRepo PortfolioRepositoryFacade
	LedgerRepo    LedgerRepositoryWithTx
	CompanyRepo   CompanyRepositoryFacade
	PriceRepo     StockPriceRepositoryFacade
	UserRepo      UserRepositoryFacade
}
