package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
	OrderStatusFailed  = "FAILED"
)

// ValidStatusTransitions lists the only moves an order may make. PAID and
// FAILED are terminal.
var ValidStatusTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Order is a purchase order. OrderID is the gateway-assigned order id and
// never changes after creation.
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID     string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"order_id"`
	Name        string          `gorm:"type:varchar(100);not null" json:"name"`
	Address     string          `gorm:"type:text;not null" json:"address"`
	Pincode     string          `gorm:"type:varchar(10);not null" json:"pincode"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status      string          `gorm:"type:varchar(10);index;not null;default:PENDING" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Items       []OrderItem  `gorm:"foreignKey:OrderRefID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Transaction *Transaction `gorm:"foreignKey:OrderRefID;constraint:OnDelete:CASCADE" json:"transaction,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a line item owned by exactly one order.
type OrderItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderRefID  int64           `gorm:"index;not null" json:"-"`
	ProductName string          `gorm:"type:varchar(100);not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
