package trading

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/types"
)

// conditionalSellSQL appends a SELL row only while the pair still holds at
// least the sold quantity. The check and the insert are one statement, so two
// concurrent sells cannot both spend the last share.
const conditionalSellSQL = `
INSERT INTO trades (type, portfolio_id, share_symbol, price, shares_bought, shares_sold, trade_date, created_at)
SELECT ?, ?, ?, ?, ?, ?, ?, ?
WHERE (
	SELECT COALESCE(SUM(shares_bought), 0) - COALESCE(SUM(shares_sold), 0)
	FROM trades
	WHERE portfolio_id = ? AND share_symbol = ?
) >= ?`

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) FindShareBySymbol(ctx context.Context, symbol string) (*types.Share, error) {
	var share types.Share
	if err := d.db.WithContext(ctx).Where("symbol = ?", symbol).First(&share).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &share, nil
}

func (d *Database) FindPortfolioByID(ctx context.Context, portfolioID uint) (*types.Portfolio, error) {
	var portfolio types.Portfolio
	if err := d.db.WithContext(ctx).Where("id = ?", portfolioID).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &portfolio, nil
}

func (d *Database) CreateTrade(ctx context.Context, trade *types.Trade) error {
	return d.db.WithContext(ctx).Create(trade).Error
}

// CreateSellIfAvailable appends a validated SELL trade if the ledger still
// covers it. It returns false, without writing, when it does not. On success
// trade is reloaded with its stored ID.
func (d *Database) CreateSellIfAvailable(ctx context.Context, trade *types.Trade) (bool, error) {
	if err := trade.Validate(); err != nil {
		return false, err
	}

	inserted := false
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(conditionalSellSQL,
			string(trade.Type), trade.PortfolioID, trade.ShareSymbol, trade.Price,
			trade.SharesBought, trade.SharesSold, trade.TradeDate, trade.TradeDate,
			trade.PortfolioID, trade.ShareSymbol, trade.SharesSold,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var id uint
		if err := tx.Raw("SELECT last_insert_rowid()").Scan(&id).Error; err != nil {
			return err
		}
		if err := tx.First(trade, id).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// ListTrades returns the ledger of one portfolio in the order it was written
func (d *Database) ListTrades(ctx context.Context, portfolioID uint) ([]types.Trade, error) {
	var trades []types.Trade
	if err := d.db.WithContext(ctx).
		Where("portfolio_id = ?", portfolioID).
		Order("id ASC").
		Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}
