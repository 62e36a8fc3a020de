package services

// ServiceContainer bundles every service the handler layer needs.
type ServiceContainer struct {
	User        UserSvcFacade
	Token       TokenSvcFacade
	GoogleOAuth GoogleOAuthSvcFacade
	Portfolio   PortfolioSvcFacade
	Trading     TradingSvcFacade
	Valuation   ValuationSvcFacade
	Price       PriceSvcFacade
	Company     CompanySvcFacade
}
