package gateway

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrSignatureMismatch = errors.New("razorpay: payment signature verification failed")
	ErrTimeout           = errors.New("razorpay: request timed out")
)

// Gateway is the payment gateway capability the order and payment flows
// depend on. It is injected so tests can substitute a fake.
type Gateway interface {
	// CreateOrder registers a remote order for amount (minor units).
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*RemoteOrder, error)
	// VerifyPaymentSignature returns ErrSignatureMismatch when the callback
	// was not signed by the gateway.
	VerifyPaymentSignature(payload SignaturePayload) error
}

type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	AutoCapture bool
	Receipt     string
	Notes       map[string]string
}

type RemoteOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// SignaturePayload is the part of the checkout callback covered by the signature.
type SignaturePayload struct {
	OrderID   string
	PaymentID string
	Signature string
}

// APIError is a non-2xx answer from the gateway API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("razorpay: http %d", e.StatusCode)
	}
	return fmt.Sprintf("razorpay: http %d: %s: %s", e.StatusCode, e.Code, e.Description)
}
