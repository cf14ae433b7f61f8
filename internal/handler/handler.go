package handler

import (
	"context"

	"orderpay/internal/model"
	"orderpay/internal/service"
	"orderpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	CreateOrder(ctx context.Context, req *service.CreateOrderRequest) (*service.CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	AddItems(ctx context.Context, orderID string, items []service.OrderItemInput) ([]model.OrderItem, error)
}

type PaymentService interface {
	VerifyPayment(ctx context.Context, req *service.VerifyPaymentRequest) (*service.VerifyPaymentResult, error)
}

type Handler struct {
	orderService   OrderService
	paymentService PaymentService
}

func NewHandler(orders OrderService, payments PaymentService) *Handler {
	return &Handler{
		orderService:   orders,
		paymentService: payments,
	}
}

type CreateOrderRequest struct {
	Amount  int64  `json:"amount" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
}

// CreateOrder
// POST /api/create-order/
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.orderService.CreateOrder(c.Request.Context(), &service.CreateOrderRequest{
		Amount:  req.Amount,
		Name:    req.Name,
		Address: req.Address,
		Pincode: req.Pincode,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

// VerifyPayment answers 200 {"status":"FAILED"} for a forged callback and
// 200 {"status":"PAID","order_id":...} once the payment is recorded.
// POST /api/verify-payment/
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.paymentService.VerifyPayment(c.Request.Context(), &service.VerifyPaymentRequest{
		RazorpayOrderID:   req.RazorpayOrderID,
		RazorpayPaymentID: req.RazorpayPaymentID,
		RazorpaySignature: req.RazorpaySignature,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, result)
}

// GetOrder
// GET /api/orders/:order_id/
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, order)
}

type OrderItemRequest struct {
	ProductName string          `json:"product_name" binding:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
}

type AddItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// AddItems
// POST /api/orders/:order_id/items/
func (h *Handler) AddItems(c *gin.Context) {
	var req AddItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid request: "+err.Error())
		return
	}

	inputs := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		inputs = append(inputs, service.OrderItemInput{
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}

	items, err := h.orderService.AddItems(c.Request.Context(), c.Param("order_id"), inputs)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, gin.H{
		"order_id": c.Param("order_id"),
		"items":    items,
	})
}
