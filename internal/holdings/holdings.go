package holdings

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
	"github.com/ksred/trade-ledger/internal/types"
	"github.com/ksred/trade-ledger/pkg/response"
)

// Service derives quantities from the trade ledger. Nothing is cached: every
// read sums the full history of the requested key.
type Service struct {
	db *Database
}

// NewService creates a new holdings service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// AvailableQuantity returns Σ sharesBought − Σ sharesSold for the pair. The
// value is not clamped; sell eligibility compares it against zero directly.
func (s *Service) AvailableQuantity(ctx context.Context, portfolioID uint, symbol string) (int64, error) {
	filter := TradeFilter{PortfolioID: portfolioID, ShareSymbol: symbol}

	bought, err := s.db.SumTradeField(ctx, FieldSharesBought, filter)
	if err != nil {
		return 0, apperrors.Storage("sum shares bought", err)
	}
	sold, err := s.db.SumTradeField(ctx, FieldSharesSold, filter)
	if err != nil {
		return 0, apperrors.Storage("sum shares sold", err)
	}

	log.Debug().
		Str("service", "holdings").
		Uint("portfolio_id", portfolioID).
		Str("symbol", symbol).
		Int64("bought", bought).
		Int64("sold", sold).
		Msg("computed available quantity")

	return bought - sold, nil
}

// ReportedQuantity is the display variant of AvailableQuantity: the symbol
// must be a registered share and the result never goes below zero.
func (s *Service) ReportedQuantity(ctx context.Context, symbol string, portfolioID uint) (int64, error) {
	exists, err := s.db.ShareExists(ctx, symbol)
	if err != nil {
		return 0, apperrors.Storage("find share", err)
	}
	if !exists {
		return 0, apperrors.ErrUnknownSymbol
	}

	quantity, err := s.AvailableQuantity(ctx, portfolioID, symbol)
	if err != nil {
		return 0, err
	}
	return clamp(quantity), nil
}

// GroupedHoldings returns the net quantity of every symbol that has at least
// one trade, across all portfolios, ordered by symbol
func (s *Service) GroupedHoldings(ctx context.Context) ([]types.Holding, error) {
	holdings, err := s.db.ListTradesGroupedBySymbol(ctx, TradeFilter{})
	if err != nil {
		return nil, apperrors.Storage("group trades by symbol", err)
	}
	return holdings, nil
}

// PortfolioHoldings is GroupedHoldings restricted to a single portfolio
func (s *Service) PortfolioHoldings(ctx context.Context, portfolioID uint) ([]types.Holding, error) {
	exists, err := s.db.PortfolioExists(ctx, portfolioID)
	if err != nil {
		return nil, apperrors.Storage("find portfolio", err)
	}
	if !exists {
		return nil, apperrors.ErrUnknownPortfolio
	}

	holdings, err := s.db.ListTradesGroupedBySymbol(ctx, TradeFilter{PortfolioID: portfolioID})
	if err != nil {
		return nil, apperrors.Storage("group portfolio trades by symbol", err)
	}
	return holdings, nil
}

func clamp(quantity int64) int64 {
	if quantity < 0 {
		return 0
	}
	return quantity
}

// GinHandlers contains HTTP handlers for holdings endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for holdings endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// QuantityHandler handles GET /shares/:symbol/quantity?portfolio_id=
func (h *GinHandlers) QuantityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := c.Param("symbol")

		portfolioID, err := parseID(c.Query("portfolio_id"))
		if err != nil {
			response.BadRequest(c, "portfolio_id query parameter must be a positive integer")
			return
		}

		quantity, err := h.service.ReportedQuantity(c.Request.Context(), symbol, portfolioID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, types.QuantityResponse{
			ShareSymbol:       symbol,
			PortfolioID:       portfolioID,
			AvailableQuantity: quantity,
		})
	}
}

// GroupedHoldingsHandler handles GET /holdings
func (h *GinHandlers) GroupedHoldingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		holdings, err := h.service.GroupedHoldings(c.Request.Context())
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, types.HoldingsResponse{
			Holdings: nonNil(holdings),
			AsOf:     time.Now().UTC(),
		})
	}
}

// PortfolioHoldingsHandler handles GET /portfolios/:portfolio_id/holdings
func (h *GinHandlers) PortfolioHoldingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		portfolioID, err := parseID(c.Param("portfolio_id"))
		if err != nil {
			response.BadRequest(c, "portfolio_id must be a positive integer")
			return
		}

		holdings, err := h.service.PortfolioHoldings(c.Request.Context(), portfolioID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, types.HoldingsResponse{
			PortfolioID: &portfolioID,
			Holdings:    nonNil(holdings),
			AsOf:        time.Now().UTC(),
		})
	}
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.Invalid("invalid id %q", raw)
	}
	return uint(id), nil
}

func nonNil(holdings []types.Holding) []types.Holding {
	if holdings == nil {
		return []types.Holding{}
	}
	return holdings
}
