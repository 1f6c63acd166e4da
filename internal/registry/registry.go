package registry

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
	"github.com/ksred/trade-ledger/internal/types"
	"github.com/ksred/trade-ledger/pkg/response"
)

// Service registers the clients, portfolios and shares that trades refer to.
// Clients and portfolios are immutable once created; a share's reference
// price is the only field that changes.
type Service struct {
	db *Database
}

// NewService creates a new registry service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

func (s *Service) CreateClient(ctx context.Context, name, email string) (*types.Client, error) {
	count, err := s.db.CountClientsByEmail(ctx, email)
	if err != nil {
		return nil, storageErr("count clients", err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicate
	}

	client := &types.Client{Name: name, Email: email}
	if err := s.db.CreateClient(ctx, client); err != nil {
		return nil, storageErr("create client", err)
	}

	log.Info().
		Str("service", "registry").
		Uint("client_id", client.ID).
		Msg("client registered")
	return client, nil
}

func (s *Service) GetClient(ctx context.Context, clientID uint) (*types.Client, error) {
	client, err := s.db.GetClient(ctx, clientID)
	if err != nil {
		return nil, storageErr("get client", err)
	}
	return client, nil
}

// ClientPortfolios lists the portfolios owned by an existing client
func (s *Service) ClientPortfolios(ctx context.Context, clientID uint) ([]types.Portfolio, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}
	portfolios, err := s.db.GetClientPortfolios(ctx, clientID)
	if err != nil {
		return nil, storageErr("list portfolios", err)
	}
	return portfolios, nil
}

// CreatePortfolio opens a portfolio for an existing client
func (s *Service) CreatePortfolio(ctx context.Context, name string, clientID uint) (*types.Portfolio, error) {
	if _, err := s.db.GetClient(ctx, clientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnknownClient
		}
		return nil, storageErr("get client", err)
	}

	portfolio := &types.Portfolio{Name: name, ClientID: clientID}
	if err := s.db.CreatePortfolio(ctx, portfolio); err != nil {
		return nil, storageErr("create portfolio", err)
	}

	log.Info().
		Str("service", "registry").
		Uint("client_id", clientID).
		Uint("portfolio_id", portfolio.ID).
		Msg("portfolio registered")
	return portfolio, nil
}

func (s *Service) GetPortfolio(ctx context.Context, portfolioID uint) (*types.Portfolio, error) {
	portfolio, err := s.db.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, storageErr("get portfolio", err)
	}
	return portfolio, nil
}

// CreateShare lists a new tradable symbol
func (s *Service) CreateShare(ctx context.Context, symbol string, price decimal.Decimal, companyName string) (*types.Share, error) {
	if _, err := s.db.GetShare(ctx, symbol); err == nil {
		return nil, apperrors.ErrDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storageErr("get share", err)
	}

	share := &types.Share{Symbol: symbol, Price: price, CompanyName: companyName}
	if err := s.db.CreateShare(ctx, share); err != nil {
		return nil, storageErr("create share", err)
	}

	log.Info().
		Str("service", "registry").
		Str("symbol", share.Symbol).
		Str("price", share.Price.StringFixed(2)).
		Msg("share listed")
	return share, nil
}

func (s *Service) GetShare(ctx context.Context, symbol string) (*types.Share, error) {
	share, err := s.db.GetShare(ctx, symbol)
	if err != nil {
		return nil, storageErr("get share", err)
	}
	return share, nil
}

func (s *Service) ListShares(ctx context.Context) ([]types.Share, error) {
	shares, err := s.db.ListShares(ctx)
	if err != nil {
		return nil, storageErr("list shares", err)
	}
	return shares, nil
}

// UpdateSharePrice replaces the current reference price. Trades already in
// the ledger keep the price they were recorded at.
func (s *Service) UpdateSharePrice(ctx context.Context, symbol string, price decimal.Decimal) (*types.Share, error) {
	share, err := s.GetShare(ctx, symbol)
	if err != nil {
		return nil, err
	}

	previous := share.Price
	share.Price = price
	if err := s.db.SaveShare(ctx, share); err != nil {
		return nil, storageErr("save share", err)
	}

	log.Info().
		Str("service", "registry").
		Str("symbol", symbol).
		Str("previous_price", previous.StringFixed(2)).
		Str("price", price.StringFixed(2)).
		Msg("share price updated")
	return share, nil
}

// storageErr passes business and not-found errors through and marks the rest
// as storage failures
func storageErr(op string, err error) error {
	switch {
	case apperrors.IsBusiness(err), errors.Is(err, gorm.ErrRecordNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicate
	}
	return apperrors.Storage(op, err)
}

// GinHandlers contains HTTP handlers for registry endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for registry endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

func (h *GinHandlers) CreateClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateClientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		client, err := h.service.CreateClient(c.Request.Context(), req.Name, req.Email)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Created(c, client)
	}
}

func (h *GinHandlers) GetClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, ok := idParam(c, "client_id")
		if !ok {
			return
		}
		client, err := h.service.GetClient(c.Request.Context(), clientID)
		response.Handle(c, client, err)
	}
}

func (h *GinHandlers) ClientPortfoliosHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, ok := idParam(c, "client_id")
		if !ok {
			return
		}
		portfolios, err := h.service.ClientPortfolios(c.Request.Context(), clientID)
		if portfolios == nil && err == nil {
			portfolios = []types.Portfolio{}
		}
		response.Handle(c, portfolios, err)
	}
}

func (h *GinHandlers) CreatePortfolioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreatePortfolioRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		portfolio, err := h.service.CreatePortfolio(c.Request.Context(), req.Name, req.ClientID)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Created(c, portfolio)
	}
}

func (h *GinHandlers) GetPortfolioHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		portfolioID, ok := idParam(c, "portfolio_id")
		if !ok {
			return
		}
		portfolio, err := h.service.GetPortfolio(c.Request.Context(), portfolioID)
		response.Handle(c, portfolio, err)
	}
}

func (h *GinHandlers) CreateShareHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.CreateShareRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		share, err := h.service.CreateShare(c.Request.Context(), req.Symbol, req.Price, req.CompanyName)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Created(c, share)
	}
}

func (h *GinHandlers) GetShareHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		share, err := h.service.GetShare(c.Request.Context(), c.Param("symbol"))
		response.Handle(c, share, err)
	}
}

func (h *GinHandlers) ListSharesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shares, err := h.service.ListShares(c.Request.Context())
		if shares == nil && err == nil {
			shares = []types.Share{}
		}
		response.Handle(c, shares, err)
	}
}

func (h *GinHandlers) UpdateSharePriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.UpdatePriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		share, err := h.service.UpdateSharePrice(c.Request.Context(), c.Param("symbol"), req.Price)
		response.Handle(c, share, err)
	}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
