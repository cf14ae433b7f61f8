package service

import (
	"context"
	"errors"
	"time"

	"orderpay/internal/model"

	"gorm.io/gorm"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// OrderStore is the order persistence the flows need; *repository.OrderRepository satisfies it.
type OrderStore interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	GetDetail(ctx context.Context, orderID string) (*model.Order, error)
	GetByOrderIDForUpdate(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, fromStatus, toStatus string) error
	AddItems(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error
	GetByOrderRefID(ctx context.Context, tx *gorm.DB, orderRefID int64) (*model.Transaction, error)
}

type OutboxStore interface {
	Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error
}

// TxRunner runs fn inside one database transaction; fn's error rolls it back.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Locker serializes work on a key across processes.
type Locker interface {
	Obtain(ctx context.Context, key, owner string) (release func(context.Context) error, err error)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
