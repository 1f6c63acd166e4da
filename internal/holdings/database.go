package holdings

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/types"
)

// Summable trade columns
const (
	FieldSharesBought = "shares_bought"
	FieldSharesSold   = "shares_sold"
)

// TradeFilter narrows an aggregate to a portfolio and/or a symbol. Zero
// values match everything.
type TradeFilter struct {
	PortfolioID uint
	ShareSymbol string
}

func (f TradeFilter) apply(q *gorm.DB) *gorm.DB {
	if f.PortfolioID != 0 {
		q = q.Where("portfolio_id = ?", f.PortfolioID)
	}
	if f.ShareSymbol != "" {
		q = q.Where("share_symbol = ?", f.ShareSymbol)
	}
	return q
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// SumTradeField sums one quantity column over the matching trades, 0 when
// nothing matches
func (d *Database) SumTradeField(ctx context.Context, field string, filter TradeFilter) (int64, error) {
	if field != FieldSharesBought && field != FieldSharesSold {
		return 0, fmt.Errorf("unsupported trade field %q", field)
	}

	var total int64
	q := d.db.WithContext(ctx).Model(&types.Trade{}).Select("COALESCE(SUM(" + field + "), 0)")
	if err := filter.apply(q).Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// ListTradesGroupedBySymbol returns Σ(bought − sold) per traded symbol
func (d *Database) ListTradesGroupedBySymbol(ctx context.Context, filter TradeFilter) ([]types.Holding, error) {
	var holdings []types.Holding
	q := d.db.WithContext(ctx).Model(&types.Trade{}).
		Select("share_symbol, COALESCE(SUM(shares_bought), 0) - COALESCE(SUM(shares_sold), 0) AS net_quantity")
	err := filter.apply(q).
		Group("share_symbol").
		Order("share_symbol").
		Scan(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

func (d *Database) ShareExists(ctx context.Context, symbol string) (bool, error) {
	var share types.Share
	err := d.db.WithContext(ctx).Select("id").Where("symbol = ?", symbol).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *Database) PortfolioExists(ctx context.Context, portfolioID uint) (bool, error) {
	var portfolio types.Portfolio
	err := d.db.WithContext(ctx).Select("id").Where("id = ?", portfolioID).First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
