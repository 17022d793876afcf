package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "Pending"
	StatusDelivering Status = "Delivering"
	StatusDelivered  Status = "Delivered"
	StatusCanceled   Status = "Canceled"
)

// Statuses lists every accepted order status.
var Statuses = []Status{StatusPending, StatusDelivering, StatusDelivered, StatusCanceled}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDelivering, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID         int64           `json:"orderId"`
	UserID     int64           `json:"userId"`
	OrderDate  time.Time       `json:"orderDate"`
	Status     Status          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	CouponCode *string         `json:"couponCode,omitempty"`
	Items      []OrderItem     `json:"orderItems,omitempty"`
}

// OrderItem is the snapshot of a cart line taken when the order was placed.
type OrderItem struct {
	OrderID   int64            `json:"-"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

type Coupon struct {
	ID         int64     `json:"couponId"`
	Code       string    `json:"code"`
	Discount   int       `json:"discount"`
	Expiration time.Time `json:"expiration"`
}

func (c *Coupon) Expired(now time.Time) bool {
	return c.Expiration.Before(now)
}

// Discounted applies the coupon percentage to total, rounded to cents.
func (c *Coupon) Discounted(total decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - c.Discount)).Div(decimal.NewFromInt(100))
	return total.Mul(factor).Round(2)
}
