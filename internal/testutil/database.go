package testutil

import (
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/database"
	"github.com/ksred/trade-ledger/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)
}

// SetupTestDB opens a migrated in-memory database that is closed when the
// test completes.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.MemoryDSN)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func CreateClient(t *testing.T, db *gorm.DB, name, email string) *types.Client {
	t.Helper()

	client := &types.Client{Name: name, Email: email}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

// CreatePortfolio creates a portfolio together with a fresh owning client
func CreatePortfolio(t *testing.T, db *gorm.DB, name string) *types.Portfolio {
	t.Helper()

	var count int64
	db.Model(&types.Client{}).Count(&count)
	client := CreateClient(t, db, "Owner of "+name, "owner"+strconv.FormatInt(count+1, 10)+"@example.com")

	portfolio := &types.Portfolio{Name: name, ClientID: client.ID}
	if err := db.Create(portfolio).Error; err != nil {
		t.Fatalf("Failed to create portfolio: %v", err)
	}
	return portfolio
}

func CreateShare(t *testing.T, db *gorm.DB, symbol, price, companyName string) *types.Share {
	t.Helper()

	share := &types.Share{
		Symbol:      symbol,
		Price:       decimal.RequireFromString(price),
		CompanyName: companyName,
	}
	if err := db.Create(share).Error; err != nil {
		t.Fatalf("Failed to create share: %v", err)
	}
	return share
}

// CreateTrade writes a ledger row directly, bypassing the sell precondition
func CreateTrade(t *testing.T, db *gorm.DB, tradeType types.TradeType, portfolioID uint, symbol string, bought, sold int64) *types.Trade {
	t.Helper()

	trade := &types.Trade{
		Type:         tradeType,
		PortfolioID:  portfolioID,
		ShareSymbol:  symbol,
		Price:        decimal.RequireFromString("10.00"),
		SharesBought: bought,
		SharesSold:   sold,
	}
	if err := db.Create(trade).Error; err != nil {
		t.Fatalf("Failed to create trade: %v", err)
	}
	return trade
}

// CountTrades returns the number of rows in the ledger
func CountTrades(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&types.Trade{}).Count(&count).Error; err != nil {
		t.Fatalf("Failed to count trades: %v", err)
	}
	return count
}
