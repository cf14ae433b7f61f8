package service

import (
	"context"
	"time"

	"orderpay/internal/config"
	"orderpay/internal/gateway"
	"orderpay/internal/model"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderStore) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *MockOrderStore) GetDetail(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *MockOrderStore) GetByOrderIDForUpdate(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	args := m.Called(ctx, tx, orderID)
	order, _ := args.Get(0).(*model.Order)
	return order, args.Error(1)
}

func (m *MockOrderStore) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, fromStatus, toStatus string) error {
	return m.Called(ctx, tx, orderID, fromStatus, toStatus).Error(0)
}

func (m *MockOrderStore) AddItems(ctx context.Context, tx *gorm.DB, items []model.OrderItem) error {
	return m.Called(ctx, tx, items).Error(0)
}

type MockTransactionStore struct {
	mock.Mock
}

func (m *MockTransactionStore) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	return m.Called(ctx, tx, trans).Error(0)
}

func (m *MockTransactionStore) GetByOrderRefID(ctx context.Context, tx *gorm.DB, orderRefID int64) (*model.Transaction, error) {
	args := m.Called(ctx, tx, orderRefID)
	trans, _ := args.Get(0).(*model.Transaction)
	return trans, args.Error(1)
}

type MockOutboxStore struct {
	mock.Mock
}

func (m *MockOutboxStore) Create(ctx context.Context, tx *gorm.DB, msg *model.OutboxMessage) error {
	return m.Called(ctx, tx, msg).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.RemoteOrder, error) {
	args := m.Called(ctx, req)
	order, _ := args.Get(0).(*gateway.RemoteOrder)
	return order, args.Error(1)
}

func (m *MockGateway) VerifyPaymentSignature(payload gateway.SignaturePayload) error {
	return m.Called(payload).Error(0)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Obtain(ctx context.Context, key, owner string) (func(context.Context) error, error) {
	args := m.Called(ctx, key, owner)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Error(1)
}

// inlineTx runs fn without a database. Rollback is covered in payment_service_tx_test.go.
type inlineTx struct {
	calls int
}

func (t *inlineTx) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	t.calls++
	return fn(nil)
}

func testConfig() *config.Config {
	return &config.Config{
		Razorpay: config.RazorpayConfig{
			Currency: "INR",
			Timeout:  time.Second,
		},
		Business: config.BusinessConfig{
			StoreTimeout: time.Second,
		},
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{PaymentResult: "payment.result"},
		},
	}
}
