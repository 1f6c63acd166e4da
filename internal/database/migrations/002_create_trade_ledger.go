package migrations

import (
	"github.com/ksred/trade-ledger/internal/types"
	"gorm.io/gorm"
)

// CreateTradeLedger creates the trades table and the indexes the holdings
// aggregates rely on
func CreateTradeLedger(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.Trade{}); err != nil {
		return err
	}

	indexes := []string{
		// Available quantity sums filter on both columns
		`CREATE INDEX IF NOT EXISTS idx_trades_portfolio_symbol
		 ON trades(portfolio_id, share_symbol)`,

		// Grouped holdings
		`CREATE INDEX IF NOT EXISTS idx_trades_share_symbol
		 ON trades(share_symbol)`,

		`CREATE INDEX IF NOT EXISTS idx_trades_trade_date
		 ON trades(trade_date)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
