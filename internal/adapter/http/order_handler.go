package http

import (
	"context"
	"net/http"

	"github.com/EmanElbedwihy/OMS/internal/adapter/observ"
	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/gin-gonic/gin"
)

const IdempotencyKeyHeader = "X-Idempotency-Key"

type OrderService interface {
	CreateOrder(ctx context.Context, userID int64, idemKey string) (*entity.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status entity.Status) (*entity.Order, error)
	ApplyCoupon(ctx context.Context, orderID int64, code string) (*entity.Order, error)
}

type UserService interface {
	GetOrders(ctx context.Context, userID int64) ([]entity.Order, error)
}

type OrderHandler struct {
	orders OrderService
	users  UserService
}

func NewOrderHandler(orders OrderService, users UserService) *OrderHandler {
	return &OrderHandler{orders: orders, users: users}
}

type applyCouponReq struct {
	OrderID int64  `json:"orderId" binding:"required,min=1"`
	Code    string `json:"code" binding:"required"`
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// CreateOrder handles POST /orders?userId=. The X-Idempotency-Key header
// makes retries return the order created by the first attempt.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	idemKey := c.GetHeader(IdempotencyKeyHeader)

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.orders.CreateOrder(ctx, userID, idemKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:orderId.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateStatus handles PUT /orders/:orderId/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := pathID(c, "orderId")
	if !ok {
		return
	}
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	status := entity.Status(req.Status)
	if !status.Valid() {
		badRequest(c, entity.MsgInvalidStatus)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.orders.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		writeError(c, err)
		return
	}
	observ.StatusChanges.WithLabelValues(string(status), "http").Inc()
	c.JSON(http.StatusOK, order)
}

// ApplyCoupon handles POST /orders/apply-coupon. An expired coupon is 410; an
// order that already carries a coupon is 409.
func (h *OrderHandler) ApplyCoupon(c *gin.Context) {
	var req applyCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	order, err := h.orders.ApplyCoupon(ctx, req.OrderID, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	observ.CouponsApplied.Inc()
	c.JSON(http.StatusOK, order)
}

// UserOrders handles GET /users/:userId/orders.
func (h *OrderHandler) UserOrders(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	orders, err := h.users.GetOrders(ctx, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
