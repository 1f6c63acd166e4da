package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRequest is the body accepted by the buy and sell endpoints
type TradeRequest struct {
	PortfolioID uint   `json:"portfolio_id" binding:"required"`
	ShareSymbol string `json:"share_symbol" binding:"required"`
}

// TradeResponse acknowledges a recorded trade
type TradeResponse struct {
	Message string `json:"message"`
	Trade   *Trade `json:"trade"`
}

// Holding is the net quantity of one symbol, derived from the ledger
type Holding struct {
	ShareSymbol string `json:"share_symbol"`
	NetQuantity int64  `json:"net_quantity"`
}

// QuantityResponse reports the available quantity of a symbol in a portfolio
type QuantityResponse struct {
	ShareSymbol       string `json:"share_symbol"`
	PortfolioID       uint   `json:"portfolio_id"`
	AvailableQuantity int64  `json:"available_quantity"`
}

// HoldingsResponse lists net quantities per symbol
type HoldingsResponse struct {
	PortfolioID *uint     `json:"portfolio_id,omitempty"`
	Holdings    []Holding `json:"holdings"`
	AsOf        time.Time `json:"as_of"`
}

type CreateClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type CreatePortfolioRequest struct {
	Name     string `json:"name" binding:"required"`
	ClientID uint   `json:"client_id" binding:"required"`
}

type CreateShareRequest struct {
	Symbol      string          `json:"symbol" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	CompanyName string          `json:"company_name" binding:"required"`
}

type UpdatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}
