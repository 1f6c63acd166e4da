package registry

import (
	"context"

	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateClient(ctx context.Context, client *types.Client) error {
	return d.db.WithContext(ctx).Create(client).Error
}

func (d *Database) GetClient(ctx context.Context, clientID uint) (*types.Client, error) {
	var client types.Client
	if err := d.db.WithContext(ctx).First(&client, clientID).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (d *Database) CountClientsByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&types.Client{}).Where("email = ?", email).Count(&count).Error
	return count, err
}

func (d *Database) CreatePortfolio(ctx context.Context, portfolio *types.Portfolio) error {
	return d.db.WithContext(ctx).Create(portfolio).Error
}

func (d *Database) GetPortfolio(ctx context.Context, portfolioID uint) (*types.Portfolio, error) {
	var portfolio types.Portfolio
	if err := d.db.WithContext(ctx).First(&portfolio, portfolioID).Error; err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (d *Database) GetClientPortfolios(ctx context.Context, clientID uint) ([]types.Portfolio, error) {
	var portfolios []types.Portfolio
	if err := d.db.WithContext(ctx).Where("client_id = ?", clientID).Order("id ASC").Find(&portfolios).Error; err != nil {
		return nil, err
	}
	return portfolios, nil
}

func (d *Database) CreateShare(ctx context.Context, share *types.Share) error {
	return d.db.WithContext(ctx).Create(share).Error
}

func (d *Database) GetShare(ctx context.Context, symbol string) (*types.Share, error) {
	var share types.Share
	if err := d.db.WithContext(ctx).Where("symbol = ?", symbol).First(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

func (d *Database) ListShares(ctx context.Context) ([]types.Share, error) {
	var shares []types.Share
	if err := d.db.WithContext(ctx).Order("symbol ASC").Find(&shares).Error; err != nil {
		return nil, err
	}
	return shares, nil
}

func (d *Database) SaveShare(ctx context.Context, share *types.Share) error {
	return d.db.WithContext(ctx).Save(share).Error
}
