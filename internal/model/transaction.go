package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records a captured payment. The unique index on order_id keeps
// the order-to-transaction relation one-to-one at the store level, so a
// duplicate callback that slips past the lock still cannot insert twice.
type Transaction struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderRefID    int64           `gorm:"uniqueIndex;not null" json:"-"`
	TransactionID string          `gorm:"type:varchar(100);not null" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status        string          `gorm:"type:varchar(10);not null;default:PENDING" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
