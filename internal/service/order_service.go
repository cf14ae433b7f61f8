package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"orderpay/internal/config"
	"orderpay/internal/gateway"
	"orderpay/internal/logger"
	"orderpay/internal/metrics"
	"orderpay/internal/model"
	"orderpay/internal/repository"
	"orderpay/pkg/idgen"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DECIMAL(10,2) leaves eight integer digits.
	maxAmountMajor = 99_999_999
	maxNameLen     = 100
	maxPincodeLen  = 10
	minorPerMajor  = 100
)

type OrderService struct {
	orders  OrderStore
	gateway gateway.Gateway
	cfg     *config.Config
}

func NewOrderService(orders OrderStore, gw gateway.Gateway, cfg *config.Config) *OrderService {
	return &OrderService{
		orders:  orders,
		gateway: gw,
		cfg:     cfg,
	}
}

type CreateOrderRequest struct {
	Amount  int64
	Name    string
	Address string
	Pincode string
}

type CreateOrderResult struct {
	RazorpayOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"`
}

func (r *CreateOrderRequest) normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Address = strings.TrimSpace(r.Address)
	r.Pincode = strings.TrimSpace(r.Pincode)

	switch {
	case r.Amount <= 0:
		return fmt.Errorf("%w: amount must be a positive integer", ErrInvalidInput)
	case r.Amount > maxAmountMajor:
		return fmt.Errorf("%w: amount exceeds %d", ErrInvalidInput, maxAmountMajor)
	case r.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case utf8.RuneCountInString(r.Name) > maxNameLen:
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidInput, maxNameLen)
	case r.Address == "":
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	case r.Pincode == "":
		return fmt.Errorf("%w: pincode is required", ErrInvalidInput)
	case utf8.RuneCountInString(r.Pincode) > maxPincodeLen:
		return fmt.Errorf("%w: pincode is longer than %d characters", ErrInvalidInput, maxPincodeLen)
	}
	return nil
}

// CreateOrder registers an auto-capture order with the gateway for
// amount*100 minor units and stores it locally as PENDING.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	log := logger.FromCtx(ctx)
	amountMinor := req.Amount * minorPerMajor

	gwCtx, cancel := withTimeout(ctx, s.cfg.Razorpay.Timeout)
	defer cancel()

	remote, err := s.gateway.CreateOrder(gwCtx, gateway.CreateOrderRequest{
		AmountMinor: amountMinor,
		Currency:    s.cfg.Razorpay.Currency,
		AutoCapture: true,
		Receipt:     idgen.GenerateReceiptNo(),
		Notes: map[string]string{
			"name":    req.Name,
			"pincode": req.Pincode,
		},
	})
	if err != nil {
		log.Error("gateway order creation failed", zap.Int64("amount", req.Amount), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	order := &model.Order{
		OrderID:     remote.ID,
		Name:        req.Name,
		Address:     req.Address,
		Pincode:     req.Pincode,
		TotalAmount: decimal.NewFromInt(req.Amount),
		Status:      model.OrderStatusPending,
	}

	storeCtx, cancelStore := withTimeout(ctx, s.cfg.Business.StoreTimeout)
	defer cancelStore()

	if err := s.orders.Create(storeCtx, nil, order); err != nil {
		// The remote order stays unpaid and expires on the gateway side.
		log.Error("save order failed", zap.String("order_id", remote.ID), zap.Error(err))
		return nil, fmt.Errorf("save order %s: %w", remote.ID, err)
	}

	metrics.OrdersCreated.Inc()
	log.Info("order created",
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", req.Amount),
		zap.Int64("amount_minor", amountMinor),
	)

	return &CreateOrderResult{
		RazorpayOrderID: remote.ID,
		Amount:          amountMinor,
	}, nil
}

// GetOrder returns the order with its items and transaction.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order_id is required", ErrInvalidInput)
	}

	ctx, cancel := withTimeout(ctx, s.cfg.Business.StoreTimeout)
	defer cancel()

	return s.orders.GetDetail(ctx, orderID)
}

type OrderItemInput struct {
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

// AddItems attaches line items to a PENDING order.
func (s *OrderService) AddItems(ctx context.Context, orderID string, inputs []OrderItemInput) ([]model.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	for i, in := range inputs {
		switch {
		case strings.TrimSpace(in.ProductName) == "":
			return nil, fmt.Errorf("%w: item %d: product_name is required", ErrInvalidInput, i)
		case in.Quantity <= 0:
			return nil, fmt.Errorf("%w: item %d: quantity must be positive", ErrInvalidInput, i)
		case in.Price.IsNegative():
			return nil, fmt.Errorf("%w: item %d: price must not be negative", ErrInvalidInput, i)
		}
	}

	ctx, cancel := withTimeout(ctx, s.cfg.Business.StoreTimeout)
	defer cancel()

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderStatusPending {
		return nil, fmt.Errorf("add items to %s order: %w", order.Status, repository.ErrOrderStatusInvalid)
	}

	items := make([]model.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, model.OrderItem{
			OrderRefID:  order.ID,
			ProductName: strings.TrimSpace(in.ProductName),
			Price:       in.Price.Round(2),
			Quantity:    in.Quantity,
		})
	}

	if err := s.orders.AddItems(ctx, nil, items); err != nil {
		return nil, fmt.Errorf("add items: %w", err)
	}

	logger.FromCtx(ctx).Info("order items added", zap.String("order_id", orderID), zap.Int("count", len(items)))
	return items, nil
}
