package types

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ksred/trade-ledger/internal/apperrors"
)

type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

var validate = validator.New()

// Client owns one or more portfolios.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name" validate:"required"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at"`
}

// Portfolio groups the trades of a client. ClientID is checked when the
// portfolio is registered; there is no foreign key behind it.
type Portfolio struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name" validate:"required"`
	ClientID  uint      `gorm:"not null;index" json:"client_id" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// Share is a tradable instrument. Price is the current reference price only,
// the price paid for each trade lives on the trade row.
type Share struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Symbol      string          `gorm:"type:varchar(3);uniqueIndex;not null" json:"symbol" validate:"required,len=3,alpha,uppercase"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CompanyName string          `gorm:"not null" json:"company_name" validate:"required"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Trade is one row of the append-only ledger.
type Trade struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Type         TradeType       `gorm:"type:varchar(4);not null" json:"type" validate:"oneof=BUY SELL"`
	PortfolioID  uint            `gorm:"not null" json:"portfolio_id" validate:"required"`
	ShareSymbol  string          `gorm:"type:varchar(3);not null" json:"share_symbol" validate:"required,len=3,alpha,uppercase"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	SharesBought int64           `gorm:"not null" json:"shares_bought" validate:"gte=0"`
	SharesSold   int64           `gorm:"not null" json:"shares_sold" validate:"gte=0"`
	TradeDate    time.Time       `gorm:"not null" json:"trade_date"`
	CreatedAt    time.Time       `json:"-"`
}

func (c *Client) Validate() error {
	return structErr(validate.Struct(c))
}

func (p *Portfolio) Validate() error {
	return structErr(validate.Struct(p))
}

func (s *Share) Validate() error {
	if err := structErr(validate.Struct(s)); err != nil {
		return err
	}
	return ValidatePrice(s.Price)
}

// Validate checks field formats and that a row moves exactly one side of the
// ledger: BUY rows never sell and SELL rows never buy.
func (t *Trade) Validate() error {
	if err := structErr(validate.Struct(t)); err != nil {
		return err
	}
	if err := ValidatePrice(t.Price); err != nil {
		return err
	}
	switch t.Type {
	case TradeTypeBuy:
		if t.SharesSold != 0 {
			return apperrors.Invalid("BUY trade cannot sell shares")
		}
	case TradeTypeSell:
		if t.SharesBought != 0 {
			return apperrors.Invalid("SELL trade cannot buy shares")
		}
	}
	return nil
}

// ValidatePrice accepts non-negative prices with at most two fractional digits.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperrors.Invalid("price must not be negative")
	}
	if !price.Equal(price.Round(2)) {
		return apperrors.Invalid("price must have at most two decimal places")
	}
	return nil
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	return c.Validate()
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	return p.Validate()
}

func (s *Share) BeforeSave(tx *gorm.DB) error {
	return s.Validate()
}

func (t *Trade) BeforeCreate(tx *gorm.DB) error {
	if t.TradeDate.IsZero() {
		t.TradeDate = time.Now().UTC()
	}
	return t.Validate()
}

func (t *Trade) BeforeUpdate(tx *gorm.DB) error {
	return apperrors.ErrLedgerImmutable
}

func (t *Trade) BeforeDelete(tx *gorm.DB) error {
	return apperrors.ErrLedgerImmutable
}

// structErr turns validator output into a single ErrValidation naming the
// first offending field.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.Invalid("field %s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return apperrors.Invalid("%s", err.Error())
}
