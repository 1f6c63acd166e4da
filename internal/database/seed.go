package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/types"
)

type seedTrade struct {
	tradeType types.TradeType
	portfolio int // index into the seeded portfolios
	symbol    string
	bought    int64
	sold      int64
}

var (
	seedClients = []types.Client{
		{Name: "Client 1", Email: "client1@example.com"},
		{Name: "Client 2", Email: "client2@example.com"},
		{Name: "Client 3", Email: "client3@example.com"},
		{Name: "Client 4", Email: "client4@example.com"},
		{Name: "Client 5", Email: "client5@example.com"},
	}

	seedShares = []types.Share{
		{Symbol: "APP", Price: decimal.RequireFromString("150.50"), CompanyName: "Apple Inc."},
		{Symbol: "GOG", Price: decimal.RequireFromString("2500.75"), CompanyName: "Alphabet Inc."},
		{Symbol: "IBM", Price: decimal.RequireFromString("210.45"), CompanyName: "IBM Inc."},
		{Symbol: "TSL", Price: decimal.RequireFromString("269.15"), CompanyName: "Tesla Inc."},
		{Symbol: "NAS", Price: decimal.RequireFromString("300.55"), CompanyName: "NASA Inc."},
	}

	seedTrades = []seedTrade{
		{types.TradeTypeBuy, 0, "APP", 10, 0},
		{types.TradeTypeSell, 1, "GOG", 0, 5},
		{types.TradeTypeBuy, 2, "IBM", 2, 0},
		{types.TradeTypeSell, 3, "TSL", 0, 4},
		{types.TradeTypeBuy, 4, "NAS", 2, 0},
		{types.TradeTypeBuy, 1, "GOG", 6, 0},
		{types.TradeTypeBuy, 3, "TSL", 7, 0},
	}
)

// Seed loads the demo clients, portfolios, shares and trades when the client
// table is empty. It reports whether anything was written.
func Seed(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&types.Client{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count clients: %w", err)
	}
	if count > 0 {
		log.Info().Int64("clients", count).Msg("data exists, skipping seed")
		return false, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		clients := make([]types.Client, len(seedClients))
		copy(clients, seedClients)
		if err := tx.Create(&clients).Error; err != nil {
			return fmt.Errorf("seed clients: %w", err)
		}

		portfolios := make([]types.Portfolio, len(clients))
		for i, client := range clients {
			portfolios[i] = types.Portfolio{
				Name:     fmt.Sprintf("Portfolio %d", i+1),
				ClientID: client.ID,
			}
		}
		if err := tx.Create(&portfolios).Error; err != nil {
			return fmt.Errorf("seed portfolios: %w", err)
		}

		shares := make([]types.Share, len(seedShares))
		copy(shares, seedShares)
		if err := tx.Create(&shares).Error; err != nil {
			return fmt.Errorf("seed shares: %w", err)
		}
		prices := make(map[string]decimal.Decimal, len(shares))
		for _, share := range shares {
			prices[share.Symbol] = share.Price
		}

		now := time.Now().UTC()
		trades := make([]types.Trade, len(seedTrades))
		for i, st := range seedTrades {
			trades[i] = types.Trade{
				Type:         st.tradeType,
				PortfolioID:  portfolios[st.portfolio].ID,
				ShareSymbol:  st.symbol,
				Price:        prices[st.symbol],
				SharesBought: st.bought,
				SharesSold:   st.sold,
				TradeDate:    now,
			}
		}
		if err := tx.Create(&trades).Error; err != nil {
			return fmt.Errorf("seed trades: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Info().
		Int("clients", len(seedClients)).
		Int("shares", len(seedShares)).
		Int("trades", len(seedTrades)).
		Msg("initial data created in the database")
	return true, nil
}
