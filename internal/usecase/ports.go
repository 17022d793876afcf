package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/shopspring/decimal"
)

// ErrRecordNotFound is returned by Store lookups that match no row.
var ErrRecordNotFound = errors.New("record not found")

// Store is the data-access collaborator shared by every manager.
// The Store handed to RunInTx's callback issues all of its statements on one
// transaction; RunInTx on such a Store joins the running transaction.
type Store interface {
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	GetUser(ctx context.Context, id int64) (*entity.User, error)

	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	DecrementStockIf(ctx context.Context, productID int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, productID int64, qty int) error

	// GetCartByUserID with lock=true takes a row lock on the cart until the
	// surrounding transaction ends.
	GetCartByUserID(ctx context.Context, userID int64, lock bool) (*entity.Cart, error)
	ListCartItems(ctx context.Context, cartID int64) ([]CartLine, error)
	GetCartItem(ctx context.Context, cartID, productID int64) (*entity.CartItem, error)
	CreateCartItem(ctx context.Context, item *entity.CartItem) error
	UpdateCartItemQuantity(ctx context.Context, cartID, productID int64, qty int) error
	DeleteCartItem(ctx context.Context, cartID, productID int64) error
	DeleteCartItems(ctx context.Context, cartID int64) error
	AddToCartTotal(ctx context.Context, cartID int64, delta decimal.Decimal) error
	SetCartTotal(ctx context.Context, cartID int64, total decimal.Decimal) error

	CreateOrder(ctx context.Context, o *entity.Order) error
	GetOrder(ctx context.Context, id int64, lock bool) (*entity.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]entity.OrderItem, error)
	CreateOrderItems(ctx context.Context, items []entity.OrderItem) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error)
	UpdateOrderStatusIf(ctx context.Context, id int64, from, to entity.Status) (bool, error)
	UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal, couponCode string) error

	GetCouponByCode(ctx context.Context, code string) (*entity.Coupon, error)

	InsertOutboxEvent(ctx context.Context, ev *OutboxEvent) error
}

// CartLine is a cart item joined with its live product row.
type CartLine struct {
	Item    entity.CartItem
	Product entity.Product
}

// IdempotencyStore backs the X-Idempotency-Key header on order creation.
// Release frees a lock whose request failed, so the key can be retried.
type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// Clock lets tests pin "now" for order dates and coupon expiry.
type Clock func() time.Time
