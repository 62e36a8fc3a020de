package dto

import (
	"github.com/kabusim/kabusim_backend/internal/core/domain"
)

// CompanyResponse mirrors domain.Company for API output.
type CompanyResponse struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Market   string `json:"market"`
	Industry string `json:"industry"`
}

// ListCompaniesParams defines query parameters for company search.
type ListCompaniesParams struct {
	Query string `form:"q"`
	Limit int    `form:"limit,default=20" binding:"omitempty,gt=0,lte=100"`
}

// ToCompanyResponse converts a domain.Company to CompanyResponse.
func ToCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		Symbol:   c.Symbol,
		Name:     c.Name,
		Market:   c.Market,
		Industry: c.Industry,
	}
}

// ToListCompanyResponse converts a slice of companies.
func ToListCompanyResponse(companies []domain.Company) []CompanyResponse {
	res := make([]CompanyResponse, len(companies))
	for i := range companies {
		res[i] = ToCompanyResponse(&companies[i])
	}
	return res
}
