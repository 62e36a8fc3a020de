package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/core/services"
	"github.com/kabusim/kabusim_backend/internal/dto"
)

// MockValuationSvc is a mock type for the ValuationSvcFacade interface
type MockValuationSvc struct {
	mock.Mock
}

func (m *MockValuationSvc) ValuePortfolio(ctx context.Context, portfolio domain.Portfolio) (*domain.PortfolioValuation, error) {
	args := m.Called(ctx, portfolio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortfolioValuation), args.Error(1)
}

type PortfolioServiceTestSuite struct {
	suite.Suite
	mockRepo         *MockPortfolioRepository
	mockValuationSvc *MockValuationSvc
	service          portssvc.PortfolioSvcFacade

	userID string
}

func (suite *PortfolioServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockPortfolioRepository)
	suite.mockValuationSvc = new(MockValuationSvc)
	suite.service = services.NewPortfolioService(suite.mockRepo, suite.mockValuationSvc)
	suite.userID = "user-1"
}

func (suite *PortfolioServiceTestSuite) TestCreatePortfolio_Success() {
	ctx := context.Background()
	capital := d("500000")
	req := dto.CreatePortfolioRequest{Name: "Growth", InitialCapital: &capital}

	suite.mockRepo.On("CountPortfoliosByUser", ctx, suite.userID).Return(0, nil).Once()

	var saved domain.Portfolio
	suite.mockRepo.On("SavePortfolio", ctx, mock.AnythingOfType("domain.Portfolio")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.Portfolio)
		}).
		Return(nil).Once()
	suite.mockRepo.On("FindPortfolioByID", ctx, mock.AnythingOfType("string")).
		Return(&domain.Portfolio{PortfolioID: "pf-created", UserID: suite.userID, Name: "Growth"}, nil).Once()

	created, err := suite.service.CreatePortfolio(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.NotEmpty(saved.PortfolioID)
	suite.True(saved.InitialCapital.Equal(capital))
	// Cash starts equal to initial capital.
	suite.True(saved.CashBalance.Equal(capital))
	suite.Equal(suite.userID, saved.CreatedBy)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *PortfolioServiceTestSuite) TestCreatePortfolio_DefaultCapital() {
	ctx := context.Background()
	req := dto.CreatePortfolioRequest{Name: "Default"}

	suite.mockRepo.On("CountPortfoliosByUser", ctx, suite.userID).Return(3, nil).Once()

	var saved domain.Portfolio
	suite.mockRepo.On("SavePortfolio", ctx, mock.AnythingOfType("domain.Portfolio")).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(domain.Portfolio)
		}).
		Return(nil).Once()
	suite.mockRepo.On("FindPortfolioByID", ctx, mock.AnythingOfType("string")).
		Return(&domain.Portfolio{PortfolioID: "pf-created"}, nil).Once()

	_, err := suite.service.CreatePortfolio(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(saved.InitialCapital.Equal(d("1000000")))
	suite.True(saved.CashBalance.Equal(d("1000000")))
}

func (suite *PortfolioServiceTestSuite) TestCreatePortfolio_LimitReached() {
	ctx := context.Background()
	req := dto.CreatePortfolioRequest{Name: "Eleventh"}

	suite.mockRepo.On("CountPortfoliosByUser", ctx, suite.userID).Return(10, nil).Once()

	_, err := suite.service.CreatePortfolio(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPortfolioLimitReached)
	suite.mockRepo.AssertNotCalled(suite.T(), "SavePortfolio", mock.Anything, mock.Anything)
}

func (suite *PortfolioServiceTestSuite) TestCreatePortfolio_NegativeCapital() {
	ctx := context.Background()
	capital := d("-1")
	req := dto.CreatePortfolioRequest{Name: "Bad", InitialCapital: &capital}

	suite.mockRepo.On("CountPortfoliosByUser", ctx, suite.userID).Return(0, nil).Once()

	_, err := suite.service.CreatePortfolio(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
}

func (suite *PortfolioServiceTestSuite) TestAuthorizePortfolioAccess_Owner() {
	ctx := context.Background()
	portfolio := &domain.Portfolio{PortfolioID: "pf-1", UserID: suite.userID}
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-1").Return(portfolio, nil).Once()

	got, err := suite.service.AuthorizePortfolioAccess(ctx, suite.userID, "pf-1")

	suite.Require().NoError(err)
	suite.Equal(portfolio, got)
}

func (suite *PortfolioServiceTestSuite) TestAuthorizePortfolioAccess_ForeignPortfolio() {
	ctx := context.Background()
	portfolio := &domain.Portfolio{PortfolioID: "pf-1", UserID: "someone-else"}
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-1").Return(portfolio, nil).Once()

	_, err := suite.service.AuthorizePortfolioAccess(ctx, suite.userID, "pf-1")

	// Foreign ownership reads the same as a missing portfolio.
	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPortfolioNotFound)
}

func (suite *PortfolioServiceTestSuite) TestAuthorizePortfolioAccess_Missing() {
	ctx := context.Background()
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.AuthorizePortfolioAccess(ctx, suite.userID, "pf-missing")

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPortfolioNotFound)
}

func (suite *PortfolioServiceTestSuite) TestUpdatePortfolio_CapitalDeltaShiftsCash() {
	ctx := context.Background()
	portfolio := &domain.Portfolio{
		PortfolioID:    "pf-1",
		UserID:         suite.userID,
		Name:           "Before",
		InitialCapital: d("1000000"),
		CashBalance:    d("400000"),
	}
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-1").Return(portfolio, nil).Once()

	var updated domain.Portfolio
	suite.mockRepo.On("UpdatePortfolio", ctx, mock.AnythingOfType("domain.Portfolio")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(domain.Portfolio)
		}).
		Return(nil).Once()
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-1").
		Return(&domain.Portfolio{PortfolioID: "pf-1", UserID: suite.userID}, nil).Once()

	newCapital := d("1200000")
	_, err := suite.service.UpdatePortfolio(ctx, "pf-1", dto.UpdatePortfolioRequest{InitialCapital: &newCapital}, suite.userID)

	suite.Require().NoError(err)
	suite.True(updated.InitialCapital.Equal(d("1200000")))
	// Cash shifts by the capital delta, +200000 here.
	suite.True(updated.CashBalance.Equal(d("600000")))
}

func (suite *PortfolioServiceTestSuite) TestUpdatePortfolio_ReduceBelowSpentCash() {
	ctx := context.Background()
	portfolio := &domain.Portfolio{
		PortfolioID:    "pf-1",
		UserID:         suite.userID,
		InitialCapital: d("1000000"),
		CashBalance:    d("100000"),
	}
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-1").Return(portfolio, nil).Once()

	newCapital := d("500000")
	_, err := suite.service.UpdatePortfolio(ctx, "pf-1", dto.UpdatePortfolioRequest{InitialCapital: &newCapital}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdatePortfolio", mock.Anything, mock.Anything)
}

func (suite *PortfolioServiceTestSuite) TestListPortfolios_ValuationFailureFallsBackToCash() {
	ctx := context.Background()
	portfolios := []domain.Portfolio{
		{PortfolioID: "pf-1", UserID: suite.userID, Name: "A", InitialCapital: d("1000000"), CashBalance: d("900000")},
		{PortfolioID: "pf-2", UserID: suite.userID, Name: "B", InitialCapital: d("1000000"), CashBalance: d("500000")},
	}
	suite.mockRepo.On("ListPortfoliosByUser", ctx, suite.userID).Return(portfolios, nil).Once()

	suite.mockValuationSvc.On("ValuePortfolio", ctx, portfolios[0]).
		Return(&domain.PortfolioValuation{
			PortfolioID:     "pf-1",
			TotalValue:      d("1100000"),
			TotalProfitLoss: d("100000"),
			Positions:       []domain.PositionValuation{{}},
		}, nil).Once()
	suite.mockValuationSvc.On("ValuePortfolio", ctx, portfolios[1]).
		Return(nil, apperrors.ErrPersistence).Once()

	summaries, err := suite.service.ListPortfolios(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Require().Len(summaries, 2)
	suite.True(summaries[0].TotalValue.Equal(d("1100000")))
	suite.Equal(1, summaries[0].PositionsCount)
	// The failed valuation degrades to cash-only numbers.
	suite.True(summaries[1].TotalValue.Equal(d("500000")))
	suite.True(summaries[1].TotalProfitLoss.IsZero())
}

func (suite *PortfolioServiceTestSuite) TestGetDashboardSummary_WeightedRate() {
	ctx := context.Background()
	portfolios := []domain.Portfolio{
		{PortfolioID: "pf-1", UserID: suite.userID},
		{PortfolioID: "pf-2", UserID: suite.userID},
	}
	suite.mockRepo.On("ListPortfoliosByUser", ctx, suite.userID).Return(portfolios, nil).Once()

	suite.mockValuationSvc.On("ValuePortfolio", ctx, portfolios[0]).
		Return(&domain.PortfolioValuation{
			TotalProfitLoss: d("100000"),
			InvestmentBase:  d("1000000"),
			Positions:       []domain.PositionValuation{{}, {}},
		}, nil).Once()
	suite.mockValuationSvc.On("ValuePortfolio", ctx, portfolios[1]).
		Return(&domain.PortfolioValuation{
			TotalProfitLoss: d("-50000"),
			InvestmentBase:  d("3000000"),
			Positions:       []domain.PositionValuation{{}},
		}, nil).Once()

	summary, err := suite.service.GetDashboardSummary(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.True(summary.HasPortfolio)
	suite.Equal(3, summary.PositionsCount)
	suite.True(summary.TotalProfitLoss.Equal(d("50000")))
	// 50000 / 4000000 * 100
	suite.True(summary.TotalProfitLossRate.Equal(d("1.25")))
}

func (suite *PortfolioServiceTestSuite) TestGetDashboardSummary_NoPortfolios() {
	ctx := context.Background()
	suite.mockRepo.On("ListPortfoliosByUser", ctx, suite.userID).Return([]domain.Portfolio{}, nil).Once()

	summary, err := suite.service.GetDashboardSummary(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.False(summary.HasPortfolio)
	suite.Equal(0, summary.PositionsCount)
}

func (suite *PortfolioServiceTestSuite) TestDeletePortfolio_Success() {
	ctx := context.Background()
	portfolio := &domain.Portfolio{PortfolioID: "pf-1", UserID: suite.userID}
	suite.mockRepo.On("FindPortfolioByID", ctx, "pf-1").Return(portfolio, nil).Once()
	suite.mockRepo.On("DeletePortfolio", ctx, "pf-1").Return(nil).Once()

	err := suite.service.DeletePortfolio(ctx, "pf-1", suite.userID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestPortfolioServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PortfolioServiceTestSuite))
}
