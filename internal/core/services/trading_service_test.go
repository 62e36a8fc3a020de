package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/kabusim/kabusim_backend/internal/apperrors"
	"github.com/kabusim/kabusim_backend/internal/core/domain"
	portsrepo "github.com/kabusim/kabusim_backend/internal/core/ports/repositories"
	portssvc "github.com/kabusim/kabusim_backend/internal/core/ports/services"
	"github.com/kabusim/kabusim_backend/internal/core/services"
	"github.com/kabusim/kabusim_backend/internal/dto"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CommitEntry(ctx context.Context, entry domain.LedgerEntry, portfolio domain.Portfolio, position *domain.Position) (*domain.LedgerEntry, error) {
	args := m.Called(ctx, entry, portfolio, position)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) ListEntries(ctx context.Context, portfolioID string, filter portsrepo.LedgerFilter) ([]domain.LedgerEntry, *string, error) {
	args := m.Called(ctx, portfolioID, filter)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return args.Get(0).([]domain.LedgerEntry), token, args.Error(2)
}

func (m *MockLedgerRepository) ReplayEntries(ctx context.Context, portfolioID string) ([]domain.LedgerEntry, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerEntry), args.Error(1)
}

// MockPortfolioRepository is a mock type for the PortfolioRepositoryFacade interface
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) FindPortfolioByID(ctx context.Context, portfolioID string) (*domain.Portfolio, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) ListPortfoliosByUser(ctx context.Context, userID string) ([]domain.Portfolio, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Portfolio), args.Error(1)
}

func (m *MockPortfolioRepository) CountPortfoliosByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockPortfolioRepository) FindPositions(ctx context.Context, portfolioID string) ([]domain.Position, error) {
	args := m.Called(ctx, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Position), args.Error(1)
}

func (m *MockPortfolioRepository) FindPosition(ctx context.Context, portfolioID string, symbol string) (*domain.Position, error) {
	args := m.Called(ctx, portfolioID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Position), args.Error(1)
}

func (m *MockPortfolioRepository) CountActivePositions(ctx context.Context, portfolioID string) (int, error) {
	args := m.Called(ctx, portfolioID)
	return args.Int(0), args.Error(1)
}

func (m *MockPortfolioRepository) SavePortfolio(ctx context.Context, portfolio domain.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *MockPortfolioRepository) UpdatePortfolio(ctx context.Context, portfolio domain.Portfolio) error {
	args := m.Called(ctx, portfolio)
	return args.Error(0)
}

func (m *MockPortfolioRepository) DeletePortfolio(ctx context.Context, portfolioID string) error {
	args := m.Called(ctx, portfolioID)
	return args.Error(0)
}

// MockAuthorizer is a mock type for the PortfolioAuthorizerSvc interface
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) AuthorizePortfolioAccess(ctx context.Context, userID string, portfolioID string) (*domain.Portfolio, error) {
	args := m.Called(ctx, userID, portfolioID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Portfolio), args.Error(1)
}

// MockPriceSvc is a mock type for the PriceSvcFacade interface
type MockPriceSvc struct {
	mock.Mock
}

func (m *MockPriceSvc) CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPriceSvc) CurrentPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]decimal.Decimal), args.Error(1)
}

// MockCompanySvc is a mock type for the CompanySvcFacade interface
type MockCompanySvc struct {
	mock.Mock
}

func (m *MockCompanySvc) GetCompany(ctx context.Context, symbol string) (*domain.Company, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanySvc) SearchCompanies(ctx context.Context, query string, limit int) ([]domain.Company, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Company), args.Error(1)
}

func (m *MockCompanySvc) CompanyNames(ctx context.Context, symbols []string) (map[string]string, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// --- Test Suite Setup ---

type TradingServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo    *MockLedgerRepository
	mockPortfolioRepo *MockPortfolioRepository
	mockAuthorizer    *MockAuthorizer
	mockPriceSvc      *MockPriceSvc
	mockCompanySvc    *MockCompanySvc
	service           portssvc.TradingSvcFacade

	userID      string
	portfolioID string
}

func (suite *TradingServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockPortfolioRepo = new(MockPortfolioRepository)
	suite.mockAuthorizer = new(MockAuthorizer)
	suite.mockPriceSvc = new(MockPriceSvc)
	suite.mockCompanySvc = new(MockCompanySvc)
	suite.service = services.NewTradingService(
		suite.mockLedgerRepo,
		suite.mockPortfolioRepo,
		suite.mockAuthorizer,
		suite.mockPriceSvc,
		suite.mockCompanySvc,
		time.Second,
	)
	suite.userID = "user-1"
	suite.portfolioID = "pf-1"
}

func (suite *TradingServiceTestSuite) portfolio(cash string) *domain.Portfolio {
	return &domain.Portfolio{
		PortfolioID:    suite.portfolioID,
		UserID:         suite.userID,
		Name:           "Test Portfolio",
		InitialCapital: d("1000000"),
		CashBalance:    d(cash),
		Version:        1,
	}
}

func (suite *TradingServiceTestSuite) expectAuthorized(cash string) {
	suite.mockAuthorizer.On("AuthorizePortfolioAccess", mock.Anything, suite.userID, suite.portfolioID).
		Return(suite.portfolio(cash), nil).Once()
}

// --- Test Cases ---

func (suite *TradingServiceTestSuite) TestDeposit_Success() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	var committedEntry domain.LedgerEntry
	var committedPortfolio domain.Portfolio
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), (*domain.Position)(nil)).
		Run(func(args mock.Arguments) {
			committedEntry = args.Get(1).(domain.LedgerEntry)
			committedPortfolio = args.Get(2).(domain.Portfolio)
		}).
		Return(&domain.LedgerEntry{EntryID: 7, Kind: domain.EntryDeposit, CashAmount: d("50000")}, nil).Once()

	entry, err := suite.service.Deposit(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("50000")})

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.Equal(int64(7), entry.EntryID)
	suite.Equal(domain.EntryDeposit, committedEntry.Kind)
	suite.True(committedEntry.CashAmount.Equal(d("50000")))
	suite.True(committedPortfolio.CashBalance.Equal(d("1050000")))
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *TradingServiceTestSuite) TestDeposit_NonPositiveAmount() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	_, err := suite.service.Deposit(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("0")})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CommitEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TradingServiceTestSuite) TestWithdraw_Success() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	var committedEntry domain.LedgerEntry
	var committedPortfolio domain.Portfolio
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), (*domain.Position)(nil)).
		Run(func(args mock.Arguments) {
			committedEntry = args.Get(1).(domain.LedgerEntry)
			committedPortfolio = args.Get(2).(domain.Portfolio)
		}).
		Return(&domain.LedgerEntry{EntryID: 8, Kind: domain.EntryWithdrawal, CashAmount: d("-300000")}, nil).Once()

	_, err := suite.service.Withdraw(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("300000")})

	suite.Require().NoError(err)
	// Withdrawals persist as a negative cash amount.
	suite.True(committedEntry.CashAmount.Equal(d("-300000")))
	suite.True(committedPortfolio.CashBalance.Equal(d("700000")))
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *TradingServiceTestSuite) TestWithdraw_InsufficientFunds() {
	ctx := context.Background()
	suite.expectAuthorized("1000")

	_, err := suite.service.Withdraw(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("5000")})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	// A rejected operation writes nothing.
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CommitEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TradingServiceTestSuite) TestBuy_NewPosition() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")
	suite.mockPortfolioRepo.On("FindPosition", ctx, suite.portfolioID, "7203").
		Return(nil, apperrors.ErrNotFound).Once()

	var committedEntry domain.LedgerEntry
	var committedPortfolio domain.Portfolio
	var committedPosition *domain.Position
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), mock.AnythingOfType("*domain.Position")).
		Run(func(args mock.Arguments) {
			committedEntry = args.Get(1).(domain.LedgerEntry)
			committedPortfolio = args.Get(2).(domain.Portfolio)
			committedPosition = args.Get(3).(*domain.Position)
		}).
		Return(&domain.LedgerEntry{EntryID: 9, Kind: domain.EntryBuy}, nil).Once()

	price := d("1000")
	_, err := suite.service.Buy(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:    "7203",
		Quantity:  100,
		UnitPrice: &price,
	})

	suite.Require().NoError(err)
	suite.True(committedEntry.CashAmount.Equal(d("-100000")))
	suite.True(committedPortfolio.CashBalance.Equal(d("900000")))
	suite.Require().NotNil(committedPosition)
	suite.NotEmpty(committedPosition.PositionID)
	suite.Equal(int64(100), committedPosition.Quantity)
	suite.True(committedPosition.AverageCost.Equal(d("1000")))
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *TradingServiceTestSuite) TestBuy_WeightedAverageCost() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")
	suite.mockPortfolioRepo.On("FindPosition", ctx, suite.portfolioID, "7203").
		Return(&domain.Position{
			PositionID:  "pos-1",
			PortfolioID: suite.portfolioID,
			Symbol:      "7203",
			Quantity:    100,
			AverageCost: d("1000"),
		}, nil).Once()

	var committedPosition *domain.Position
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), mock.AnythingOfType("*domain.Position")).
		Run(func(args mock.Arguments) {
			committedPosition = args.Get(3).(*domain.Position)
		}).
		Return(&domain.LedgerEntry{EntryID: 10, Kind: domain.EntryBuy}, nil).Once()

	price := d("1200")
	_, err := suite.service.Buy(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:    "7203",
		Quantity:  50,
		UnitPrice: &price,
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(committedPosition)
	// (100*1000 + 50*1200) / 150
	suite.Equal(int64(150), committedPosition.Quantity)
	suite.True(committedPosition.AverageCost.Equal(d("160000").Div(d("150"))))
	suite.Equal("pos-1", committedPosition.PositionID)
}

func (suite *TradingServiceTestSuite) TestBuy_InsufficientFunds() {
	ctx := context.Background()
	suite.expectAuthorized("50000")

	price := d("1000")
	_, err := suite.service.Buy(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:    "7203",
		Quantity:  100,
		UnitPrice: &price,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CommitEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TradingServiceTestSuite) TestBuy_ResolvesStoredPrice() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")
	suite.mockPriceSvc.On("CurrentPrice", mock.Anything, "7203").Return(d("2500"), nil).Once()
	suite.mockPortfolioRepo.On("FindPosition", ctx, suite.portfolioID, "7203").
		Return(nil, apperrors.ErrNotFound).Once()

	var committedEntry domain.LedgerEntry
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), mock.AnythingOfType("*domain.Position")).
		Run(func(args mock.Arguments) {
			committedEntry = args.Get(1).(domain.LedgerEntry)
		}).
		Return(&domain.LedgerEntry{EntryID: 11, Kind: domain.EntryBuy}, nil).Once()

	_, err := suite.service.Buy(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:   "7203",
		Quantity: 10,
	})

	suite.Require().NoError(err)
	suite.True(committedEntry.UnitPrice.Equal(d("2500")))
	suite.True(committedEntry.CashAmount.Equal(d("-25000")))
	suite.mockPriceSvc.AssertExpectations(suite.T())
}

func (suite *TradingServiceTestSuite) TestBuy_PriceLookupTimeout() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")
	suite.mockPriceSvc.On("CurrentPrice", mock.Anything, "7203").
		Return(decimal.Zero, context.DeadlineExceeded).Once()

	_, err := suite.service.Buy(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:   "7203",
		Quantity: 10,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPriceLookupTimeout)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CommitEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TradingServiceTestSuite) TestSell_RealizedProfit() {
	ctx := context.Background()
	suite.expectAuthorized("100000")
	suite.mockPortfolioRepo.On("FindPosition", ctx, suite.portfolioID, "7203").
		Return(&domain.Position{
			PositionID:  "pos-1",
			PortfolioID: suite.portfolioID,
			Symbol:      "7203",
			Quantity:    100,
			AverageCost: d("1000"),
		}, nil).Once()

	var committedEntry domain.LedgerEntry
	var committedPortfolio domain.Portfolio
	var committedPosition *domain.Position
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), mock.AnythingOfType("*domain.Position")).
		Run(func(args mock.Arguments) {
			committedEntry = args.Get(1).(domain.LedgerEntry)
			committedPortfolio = args.Get(2).(domain.Portfolio)
			committedPosition = args.Get(3).(*domain.Position)
		}).
		Return(&domain.LedgerEntry{EntryID: 12, Kind: domain.EntrySell}, nil).Once()

	price := d("1300")
	_, err := suite.service.Sell(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:    "7203",
		Quantity:  80,
		UnitPrice: &price,
	})

	suite.Require().NoError(err)
	suite.True(committedEntry.CashAmount.Equal(d("104000")))
	suite.Require().NotNil(committedEntry.RealizedProfit)
	// 80 * (1300 - 1000)
	suite.True(committedEntry.RealizedProfit.Equal(d("24000")))
	suite.True(committedPortfolio.CashBalance.Equal(d("204000")))
	suite.Require().NotNil(committedPosition)
	suite.Equal(int64(20), committedPosition.Quantity)
	// Sells never move the average cost.
	suite.True(committedPosition.AverageCost.Equal(d("1000")))
}

func (suite *TradingServiceTestSuite) TestSell_InsufficientShares() {
	ctx := context.Background()
	suite.expectAuthorized("100000")
	suite.mockPortfolioRepo.On("FindPosition", ctx, suite.portfolioID, "7203").
		Return(&domain.Position{
			PositionID:  "pos-1",
			PortfolioID: suite.portfolioID,
			Symbol:      "7203",
			Quantity:    50,
			AverageCost: d("1000"),
		}, nil).Once()

	price := d("1300")
	_, err := suite.service.Sell(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:    "7203",
		Quantity:  80,
		UnitPrice: &price,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientShares)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "CommitEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TradingServiceTestSuite) TestSell_NeverHeldSymbol() {
	ctx := context.Background()
	suite.expectAuthorized("100000")
	suite.mockPortfolioRepo.On("FindPosition", ctx, suite.portfolioID, "9984").
		Return(nil, apperrors.ErrNotFound).Once()

	price := d("5000")
	_, err := suite.service.Sell(ctx, suite.userID, suite.portfolioID, dto.TradeRequest{
		Symbol:    "9984",
		Quantity:  1,
		UnitPrice: &price,
	})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientShares)
}

func (suite *TradingServiceTestSuite) TestDeposit_RetriesOnConflict() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	// First commit loses the race, second succeeds against re-read state.
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), (*domain.Position)(nil)).
		Return(nil, apperrors.ErrConcurrentModification).Once()
	refreshed := suite.portfolio("1200000")
	refreshed.Version = 2
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(refreshed, nil).Once()

	var committedPortfolio domain.Portfolio
	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), (*domain.Position)(nil)).
		Run(func(args mock.Arguments) {
			committedPortfolio = args.Get(2).(domain.Portfolio)
		}).
		Return(&domain.LedgerEntry{EntryID: 13, Kind: domain.EntryDeposit}, nil).Once()

	_, err := suite.service.Deposit(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("100")})

	suite.Require().NoError(err)
	suite.Equal(int64(2), committedPortfolio.Version)
	suite.True(committedPortfolio.CashBalance.Equal(d("1200100")))
	suite.mockPortfolioRepo.AssertExpectations(suite.T())
}

func (suite *TradingServiceTestSuite) TestDeposit_RetriesExhausted() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), (*domain.Position)(nil)).
		Return(nil, apperrors.ErrConcurrentModification)
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(suite.portfolio("1000000"), nil)

	_, err := suite.service.Deposit(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("100")})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConcurrentModification)
}

func (suite *TradingServiceTestSuite) TestDeposit_PersistenceErrorNotRetried() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	suite.mockLedgerRepo.On("CommitEntry", ctx, mock.AnythingOfType("domain.LedgerEntry"), mock.AnythingOfType("domain.Portfolio"), (*domain.Position)(nil)).
		Return(nil, apperrors.ErrPersistence).Once()

	_, err := suite.service.Deposit(ctx, suite.userID, suite.portfolioID, dto.CashRequest{Amount: d("100")})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrPersistence)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
	suite.mockPortfolioRepo.AssertNotCalled(suite.T(), "FindPortfolioByID", mock.Anything, mock.Anything)
}

func (suite *TradingServiceTestSuite) TestListLedger_DecoratesCompanyNames() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	entries := []domain.LedgerEntry{
		{EntryID: 1, PortfolioID: suite.portfolioID, Kind: domain.EntryDeposit, CashAmount: d("1000000")},
		{EntryID: 2, PortfolioID: suite.portfolioID, Kind: domain.EntryBuy, Symbol: "7203", Quantity: 100, UnitPrice: d("1000"), CashAmount: d("-100000")},
	}
	suite.mockLedgerRepo.On("ListEntries", ctx, suite.portfolioID, mock.AnythingOfType("repositories.LedgerFilter")).
		Return(entries, nil, nil).Once()
	suite.mockCompanySvc.On("CompanyNames", ctx, []string{"7203"}).
		Return(map[string]string{"7203": "Toyota Motor"}, nil).Once()

	res, err := suite.service.ListLedger(ctx, suite.userID, suite.portfolioID, dto.ListLedgerParams{Limit: 100})

	suite.Require().NoError(err)
	suite.Require().Len(res.Entries, 2)
	suite.Empty(res.Entries[0].CompanyName)
	suite.Equal("Toyota Motor", res.Entries[1].CompanyName)
}

func (suite *TradingServiceTestSuite) TestVerifyLedger_Consistent() {
	ctx := context.Background()
	portfolio := suite.portfolio("944000")
	suite.mockAuthorizer.On("AuthorizePortfolioAccess", mock.Anything, suite.userID, suite.portfolioID).
		Return(portfolio, nil).Once()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.LedgerEntry{
		{EntryID: 1, Kind: domain.EntryBuy, Symbol: "7203", Quantity: 100, UnitPrice: d("1000"), CashAmount: d("-100000"), OccurredAt: base},
		{EntryID: 2, Kind: domain.EntryBuy, Symbol: "7203", Quantity: 50, UnitPrice: d("1200"), CashAmount: d("-60000"), OccurredAt: base.Add(time.Hour)},
		{EntryID: 3, Kind: domain.EntrySell, Symbol: "7203", Quantity: 80, UnitPrice: d("1300"), CashAmount: d("104000"), OccurredAt: base.Add(2 * time.Hour)},
	}
	suite.mockLedgerRepo.On("ReplayEntries", ctx, suite.portfolioID).Return(entries, nil).Once()
	suite.mockPortfolioRepo.On("FindPositions", ctx, suite.portfolioID).
		Return([]domain.Position{
			{PositionID: "pos-1", PortfolioID: suite.portfolioID, Symbol: "7203", Quantity: 70, AverageCost: d("160000").Div(d("150"))},
		}, nil).Once()
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(suite.portfolio("944000"), nil).Once()

	err := suite.service.VerifyLedger(ctx, suite.userID, suite.portfolioID)

	suite.Require().NoError(err)
}

// A withdrawal backdated before the deposit that funded it is a legal ledger
// and must verify clean: validation ran in commit order, so the fold does too.
func (suite *TradingServiceTestSuite) TestVerifyLedger_BackdatedWithdrawal() {
	ctx := context.Background()
	portfolio := suite.portfolio("1050000")
	suite.mockAuthorizer.On("AuthorizePortfolioAccess", mock.Anything, suite.userID, suite.portfolioID).
		Return(portfolio, nil).Once()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.LedgerEntry{
		{EntryID: 1, Kind: domain.EntryDeposit, CashAmount: d("100000"), OccurredAt: base.Add(time.Hour)},
		{EntryID: 2, Kind: domain.EntryWithdrawal, CashAmount: d("-50000"), OccurredAt: base},
	}
	suite.mockLedgerRepo.On("ReplayEntries", ctx, suite.portfolioID).Return(entries, nil).Once()
	suite.mockPortfolioRepo.On("FindPositions", ctx, suite.portfolioID).
		Return([]domain.Position{}, nil).Once()
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(suite.portfolio("1050000"), nil).Once()

	err := suite.service.VerifyLedger(ctx, suite.userID, suite.portfolioID)

	suite.Require().NoError(err)
}

func (suite *TradingServiceTestSuite) TestVerifyLedger_CashMismatch() {
	ctx := context.Background()
	portfolio := suite.portfolio("999999")
	suite.mockAuthorizer.On("AuthorizePortfolioAccess", mock.Anything, suite.userID, suite.portfolioID).
		Return(portfolio, nil).Once()
	suite.mockLedgerRepo.On("ReplayEntries", ctx, suite.portfolioID).
		Return([]domain.LedgerEntry{}, nil).Once()
	suite.mockPortfolioRepo.On("FindPositions", ctx, suite.portfolioID).
		Return([]domain.Position{}, nil).Once()
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(suite.portfolio("999999"), nil).Once()

	err := suite.service.VerifyLedger(ctx, suite.userID, suite.portfolioID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrLedgerMismatch)
}

// A deposit committing between the ledger read and the version re-read must
// trigger a fresh pass, not a spurious mismatch.
func (suite *TradingServiceTestSuite) TestVerifyLedger_RetriesOnConcurrentCommit() {
	ctx := context.Background()
	suite.expectAuthorized("1000000")

	// First pass reads the pre-deposit ledger but the version has moved on.
	suite.mockLedgerRepo.On("ReplayEntries", ctx, suite.portfolioID).
		Return([]domain.LedgerEntry{}, nil).Once()
	suite.mockPortfolioRepo.On("FindPositions", ctx, suite.portfolioID).
		Return([]domain.Position{}, nil).Once()
	fresh := suite.portfolio("1200000")
	fresh.Version = 2
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(fresh, nil).Once()

	// Second pass sees the deposit and a stable version; the fold agrees.
	suite.mockLedgerRepo.On("ReplayEntries", ctx, suite.portfolioID).
		Return([]domain.LedgerEntry{
			{EntryID: 1, Kind: domain.EntryDeposit, CashAmount: d("200000")},
		}, nil).Once()
	suite.mockPortfolioRepo.On("FindPositions", ctx, suite.portfolioID).
		Return([]domain.Position{}, nil).Once()
	suite.mockPortfolioRepo.On("FindPortfolioByID", ctx, suite.portfolioID).
		Return(fresh, nil).Once()

	err := suite.service.VerifyLedger(ctx, suite.userID, suite.portfolioID)

	suite.Require().NoError(err)
	suite.mockPortfolioRepo.AssertExpectations(suite.T())
}

func TestTradingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TradingServiceTestSuite))
}
