package trading

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
	"github.com/ksred/trade-ledger/internal/types"
	"github.com/ksred/trade-ledger/pkg/response"
)

// tradeUnit is the fixed number of shares moved by every buy and sell
const tradeUnit = 1

// QuantityCalculator derives the raw available quantity of a portfolio/symbol pair
type QuantityCalculator interface {
	AvailableQuantity(ctx context.Context, portfolioID uint, symbol string) (int64, error)
}

// Service validates buy and sell requests and appends them to the ledger
type Service struct {
	db       *Database
	holdings QuantityCalculator
	now      func() time.Time
}

// NewService creates a new trading service with the given database connection
// and holdings calculator
func NewService(gormDB *gorm.DB, holdings QuantityCalculator) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		holdings: holdings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Buy appends a one-share BUY trade priced at the share's current reference price
func (s *Service) Buy(ctx context.Context, portfolioID uint, symbol string) (*types.Trade, error) {
	logger := tradeLogger(types.TradeTypeBuy, portfolioID, symbol)

	share, err := s.resolve(ctx, portfolioID, symbol)
	if err != nil {
		logger.Info().Err(err).Msg("buy rejected")
		return nil, err
	}

	trade := &types.Trade{
		Type:         types.TradeTypeBuy,
		PortfolioID:  portfolioID,
		ShareSymbol:  share.Symbol,
		Price:        share.Price,
		SharesBought: tradeUnit,
		SharesSold:   0,
		TradeDate:    s.now(),
	}

	if err := s.db.CreateTrade(ctx, trade); err != nil {
		if apperrors.IsBusiness(err) {
			return nil, err
		}
		return nil, apperrors.Storage("create buy trade", err)
	}

	logger.Info().
		Uint("trade_id", trade.ID).
		Str("price", trade.Price.StringFixed(2)).
		Msg("buy recorded")

	return trade, nil
}

// Sell appends a one-share SELL trade if the portfolio still holds the symbol
func (s *Service) Sell(ctx context.Context, portfolioID uint, symbol string) (*types.Trade, error) {
	logger := tradeLogger(types.TradeTypeSell, portfolioID, symbol)

	share, err := s.resolve(ctx, portfolioID, symbol)
	if err != nil {
		logger.Info().Err(err).Msg("sell rejected")
		return nil, err
	}

	available, err := s.holdings.AvailableQuantity(ctx, portfolioID, share.Symbol)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		logger.Info().
			Int64("available_quantity", available).
			Msg("sell rejected: insufficient shares")
		return nil, apperrors.ErrInsufficientShares
	}

	trade := &types.Trade{
		Type:         types.TradeTypeSell,
		PortfolioID:  portfolioID,
		ShareSymbol:  share.Symbol,
		Price:        share.Price,
		SharesBought: 0,
		SharesSold:   tradeUnit,
		TradeDate:    s.now(),
	}

	inserted, err := s.db.CreateSellIfAvailable(ctx, trade)
	if err != nil {
		if apperrors.IsBusiness(err) {
			return nil, err
		}
		return nil, apperrors.Storage("create sell trade", err)
	}
	if !inserted {
		// another sell spent the shares between the check and the insert
		logger.Warn().
			Int64("available_quantity", available).
			Msg("sell rejected: holdings changed concurrently")
		return nil, apperrors.ErrInsufficientShares
	}

	logger.Info().
		Uint("trade_id", trade.ID).
		Str("price", trade.Price.StringFixed(2)).
		Int64("remaining_quantity", available-tradeUnit).
		Msg("sell recorded")

	return trade, nil
}

// ListTrades returns a portfolio's ledger
func (s *Service) ListTrades(ctx context.Context, portfolioID uint) ([]types.Trade, error) {
	portfolio, err := s.db.FindPortfolioByID(ctx, portfolioID)
	if err != nil {
		return nil, apperrors.Storage("find portfolio", err)
	}
	if portfolio == nil {
		return nil, apperrors.ErrUnknownPortfolio
	}

	trades, err := s.db.ListTrades(ctx, portfolioID)
	if err != nil {
		return nil, apperrors.Storage("list trades", err)
	}
	return trades, nil
}

// resolve checks that both the share and the portfolio exist, symbol first
func (s *Service) resolve(ctx context.Context, portfolioID uint, symbol string) (*types.Share, error) {
	share, err := s.db.FindShareBySymbol(ctx, symbol)
	if err != nil {
		return nil, apperrors.Storage("find share", err)
	}
	if share == nil {
		return nil, apperrors.ErrUnknownSymbol
	}

	portfolio, err := s.db.FindPortfolioByID(ctx, portfolioID)
	if err != nil {
		return nil, apperrors.Storage("find portfolio", err)
	}
	if portfolio == nil {
		return nil, apperrors.ErrUnknownPortfolio
	}

	return share, nil
}

func tradeLogger(side types.TradeType, portfolioID uint, symbol string) zerolog.Logger {
	return log.With().
		Str("service", "trading").
		Str("side", string(side)).
		Uint("portfolio_id", portfolioID).
		Str("symbol", symbol).
		Logger()
}

// GinHandlers contains HTTP handlers for trading endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trading endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// BuyHandler handles POST /trades/buy
func (h *GinHandlers) BuyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.TradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.Buy(c.Request.Context(), req.PortfolioID, req.ShareSymbol)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, types.TradeResponse{
			Message: "Buy operation successful",
			Trade:   trade,
		})
	}
}

// SellHandler handles POST /trades/sell
func (h *GinHandlers) SellHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.TradeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.Sell(c.Request.Context(), req.PortfolioID, req.ShareSymbol)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, types.TradeResponse{
			Message: "Sell operation successful",
			Trade:   trade,
		})
	}
}

// ListTradesHandler handles GET /portfolios/:portfolio_id/trades
func (h *GinHandlers) ListTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		portfolioID, err := strconv.ParseUint(c.Param("portfolio_id"), 10, 32)
		if err != nil || portfolioID == 0 {
			response.BadRequest(c, "portfolio_id must be a positive integer")
			return
		}

		trades, err := h.service.ListTrades(c.Request.Context(), uint(portfolioID))
		if trades == nil && err == nil {
			trades = []types.Trade{}
		}
		response.Handle(c, trades, err)
	}
}
