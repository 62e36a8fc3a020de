package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
)

const defaultCompanySearchLimit = 20

type companyService struct {
	companyRepo portsrepo.CompanyRepositoryFacade
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo portsrepo.CompanyRepositoryFacade) portssvc.CompanySvcFacade {
	return &companyService{companyRepo: companyRepo}
}

var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// GetCompany returns the company master row for a symbol.
func (s *companyService) GetCompany(ctx context.Context, symbol string) (*domain.Company, error) {
	company, err := s.companyRepo.FindCompanyBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("symbol %s not listed: %w", symbol, apperrors.ErrUnknownSymbol)
		}
		return nil, fmt.Errorf("failed to look up company %s: %w", symbol, err)
	}
	return company, nil
}

// SearchCompanies matches the query against symbols and company names.
func (s *companyService) SearchCompanies(ctx context.Context, query string, limit int) ([]domain.Company, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty: %w", apperrors.ErrValidation)
	}
	if limit <= 0 || limit > 100 {
		limit = defaultCompanySearchLimit
	}

	companies, err := s.companyRepo.SearchCompanies(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	return companies, nil
}

// CompanyNames resolves display names for a set of symbols. Unknown symbols
// are omitted.
func (s *companyService) CompanyNames(ctx context.Context, symbols []string) (map[string]string, error) {
	if len(symbols) == 0 {
		return map[string]string{}, nil
	}

	rows, err := s.companyRepo.FindCompaniesBySymbols(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve company names: %w", err)
	}

	names := make(map[string]string, len(rows))
	for symbol, company := range rows {
		names[symbol] = company.Name
	}
	return names, nil
}
