package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the minimal catalog read model the bundle engine consumes.
// The engine references products by id only; price and availability are read
// at computation time so catalog changes are reflected without bundle writes.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	IsAvailable bool            `db:"is_available" json:"isAvailable"`
	CreatedAt   time.Time       `db:"created_at" json:"-"`
	UpdatedAt   time.Time       `db:"updated_at" json:"-"`
}
