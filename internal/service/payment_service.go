package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"orderpay/internal/config"
	"orderpay/internal/gateway"
	"orderpay/internal/infrastructure/lock"
	"orderpay/internal/logger"
	"orderpay/internal/metrics"
	"orderpay/internal/model"
	"orderpay/internal/repository"
	"orderpay/pkg/idgen"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentService struct {
	tx           TxRunner
	orders       OrderStore
	transactions TransactionStore
	outbox       OutboxStore
	locker       Locker
	gateway      gateway.Gateway
	cfg          *config.Config
}

func NewPaymentService(
	tx TxRunner,
	orders OrderStore,
	transactions TransactionStore,
	outbox OutboxStore,
	locker Locker,
	gw gateway.Gateway,
	cfg *config.Config,
) *PaymentService {
	return &PaymentService{
		tx:           tx,
		orders:       orders,
		transactions: transactions,
		outbox:       outbox,
		locker:       locker,
		gateway:      gw,
		cfg:          cfg,
	}
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
}

type VerifyPaymentResult struct {
	Status  string `json:"status"`
	OrderID string `json:"order_id,omitempty"`
}

func (r *VerifyPaymentRequest) normalize() error {
	r.RazorpayOrderID = strings.TrimSpace(r.RazorpayOrderID)
	r.RazorpayPaymentID = strings.TrimSpace(r.RazorpayPaymentID)
	r.RazorpaySignature = strings.TrimSpace(r.RazorpaySignature)

	switch {
	case r.RazorpayOrderID == "":
		return fmt.Errorf("%w: razorpay_order_id is required", ErrInvalidInput)
	case r.RazorpayPaymentID == "":
		return fmt.Errorf("%w: razorpay_payment_id is required", ErrInvalidInput)
	case r.RazorpaySignature == "":
		return fmt.Errorf("%w: razorpay_signature is required", ErrInvalidInput)
	}
	return nil
}

// VerifyPayment checks the checkout callback signature and, when it holds,
// records the payment and marks the order PAID in one transaction.
// A bad signature is reported as a FAILED result, not an error, and
// changes nothing. Verifying an already PAID order is a no-op.
func (s *PaymentService) VerifyPayment(ctx context.Context, req *VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	orderID := req.RazorpayOrderID
	paymentID := req.RazorpayPaymentID
	log := logger.FromCtx(ctx).With(zap.String("order_id", orderID), zap.String("payment_id", paymentID))

	err := s.gateway.VerifyPaymentSignature(gateway.SignaturePayload{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: req.RazorpaySignature,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrSignatureMismatch) {
			metrics.PaymentVerifications.WithLabelValues(metrics.ResultFailed).Inc()
			log.Warn("signature verification failed")
			return &VerifyPaymentResult{Status: model.OrderStatusFailed}, nil
		}
		metrics.PaymentVerifications.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("verify signature: %w", err)
	}

	// Duplicate callbacks share a payment id, so each attempt holds the lock under its own token.
	release, err := s.locker.Obtain(ctx, lock.OrderPaymentKey(orderID), uuid.New().String())
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues(metrics.ResultError).Inc()
		log.Warn("acquire order lock failed", zap.Error(err))
		return nil, fmt.Errorf("lock order %s: %w", orderID, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("release order lock failed", zap.Error(err))
		}
	}()

	storeCtx, cancel := withTimeout(ctx, s.cfg.Business.StoreTimeout)
	defer cancel()

	alreadyPaid, err := s.recordPayment(storeCtx, orderID, paymentID)
	if errors.Is(err, repository.ErrTransactionExists) {
		alreadyPaid, err = s.confirmPaid(storeCtx, orderID)
	}
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues(metrics.ResultError).Inc()
		log.Error("record payment failed", zap.Error(err))
		return nil, err
	}

	if alreadyPaid {
		metrics.PaymentVerifications.WithLabelValues(metrics.ResultAlreadyPaid).Inc()
		log.Info("order already paid")
	} else {
		metrics.PaymentVerifications.WithLabelValues(metrics.ResultPaid).Inc()
		log.Info("payment verified")
	}

	return &VerifyPaymentResult{Status: model.OrderStatusPaid, OrderID: orderID}, nil
}

func (s *PaymentService) recordPayment(ctx context.Context, orderID, paymentID string) (alreadyPaid bool, err error) {
	err = s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.GetByOrderIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}

		switch order.Status {
		case model.OrderStatusPaid:
			alreadyPaid = true
			s.checkRecordedPayment(ctx, tx, order, paymentID)
			return nil
		case model.OrderStatusPending:
		default:
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, repository.ErrOrderStatusInvalid)
		}

		trans := &model.Transaction{
			OrderRefID:    order.ID,
			TransactionID: paymentID,
			Amount:        order.TotalAmount,
			Status:        model.OrderStatusPaid,
		}
		if err := s.transactions.Create(ctx, tx, trans); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		if err := s.orders.UpdateStatus(ctx, tx, orderID, model.OrderStatusPending, model.OrderStatusPaid); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		msg, err := s.paidEvent(order, paymentID)
		if err != nil {
			return err
		}
		if err := s.outbox.Create(ctx, tx, msg); err != nil {
			return fmt.Errorf("create outbox message: %w", err)
		}
		return nil
	})
	return alreadyPaid, err
}

// confirmPaid handles a transaction row that already exists for the order.
// It only counts as paid when the order itself says PAID.
func (s *PaymentService) confirmPaid(ctx context.Context, orderID string) (bool, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return false, fmt.Errorf("re-read order %s: %w", orderID, err)
	}
	if order.Status != model.OrderStatusPaid {
		logger.FromCtx(ctx).Warn("transaction recorded for unpaid order",
			zap.String("order_id", orderID),
			zap.String("status", order.Status),
		)
		return false, fmt.Errorf("order %s has a transaction but is %s: %w", orderID, order.Status, repository.ErrOrderStatusInvalid)
	}
	return true, nil
}

// checkRecordedPayment flags a second, different payment against a paid
// order; it needs a manual refund.
func (s *PaymentService) checkRecordedPayment(ctx context.Context, tx *gorm.DB, order *model.Order, paymentID string) {
	existing, err := s.transactions.GetByOrderRefID(ctx, tx, order.ID)
	if err != nil || existing == nil {
		return
	}
	if existing.TransactionID != paymentID {
		logger.FromCtx(ctx).Warn("paid order received another payment",
			zap.String("order_id", order.OrderID),
			zap.String("recorded_payment_id", existing.TransactionID),
			zap.String("payment_id", paymentID),
		)
	}
}

func (s *PaymentService) paidEvent(order *model.Order, paymentID string) (*model.OutboxMessage, error) {
	event := model.PaymentEvent{
		EventID:   idgen.GenerateEventID(),
		EventType: model.EventPaymentPaid,
		OrderID:   order.OrderID,
		PaymentID: paymentID,
		Amount:    order.TotalAmount.StringFixed(2),
		Status:    model.OrderStatusPaid,
		PaidAt:    time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal payment event: %w", err)
	}
	return &model.OutboxMessage{
		MessageKey: order.OrderID,
		Topic:      s.cfg.Kafka.Topic.PaymentResult,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}, nil
}
