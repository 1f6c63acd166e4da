package migrations

import (
	"github.com/ksred/trade-ledger/internal/types"
	"gorm.io/gorm"
)

// CreateRegistry creates the client, portfolio and share tables
func CreateRegistry(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Client{},
		&types.Portfolio{},
		&types.Share{},
	)
}
