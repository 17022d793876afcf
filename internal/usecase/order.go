package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/shopspring/decimal"
)

type OrderManager struct {
	store Store
	idem  IdempotencyStore // optional
	now   Clock

	onCreated func(*entity.Order)
}

func NewOrderManager(store Store, idem IdempotencyStore) *OrderManager {
	return &OrderManager{store: store, idem: idem, now: time.Now}
}

// OnCreated registers fn to run once per committed order. Idempotent replays
// do not call it.
func (m *OrderManager) OnCreated(fn func(*entity.Order)) {
	m.onCreated = fn
}

// CreateOrder turns the user's cart into a Pending order.
// A non-empty idemKey makes retries with the same key return the first order.
func (m *OrderManager) CreateOrder(ctx context.Context, userID int64, idemKey string) (*entity.Order, error) {
	log := logging.FromCtx(ctx)
	if idemKey == "" || m.idem == nil {
		return m.createOrder(ctx, userID)
	}

	scope := strconv.FormatInt(userID, 10)
	if prev, ok, err := m.idem.Recall(ctx, scope, idemKey); err != nil {
		log.Warn("idempotency recall failed", "user_id", userID, "err", err)
	} else if ok {
		if id, err := strconv.ParseInt(prev, 10, 64); err == nil {
			log.Info("idempotent replay", "user_id", userID, "order_id", id)
			return m.GetOrder(ctx, id)
		}
	}

	locked, err := m.idem.TryLock(ctx, scope, idemKey)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, entity.Conflict(entity.MsgOrderInProgress)
	}

	order, err := m.createOrder(ctx, userID)
	if err != nil {
		if rerr := m.idem.Release(ctx, scope, idemKey); rerr != nil {
			log.Warn("idempotency release failed", "user_id", userID, "err", rerr)
		}
		return nil, err
	}
	if err := m.idem.Remember(ctx, scope, idemKey, strconv.FormatInt(order.ID, 10)); err != nil {
		log.Warn("idempotency remember failed", "order_id", order.ID, "err", err)
	}
	return order, nil
}

func (m *OrderManager) createOrder(ctx context.Context, userID int64) (*entity.Order, error) {
	now := m.now()
	var out *entity.Order
	err := m.store.RunInTx(ctx, func(tx Store) error {
		cart, err := tx.GetCartByUserID(ctx, userID, true)
		if err != nil {
			return notFoundAs(err, entity.MsgUserNotFound)
		}
		lines, err := tx.ListCartItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if l.Item.Quantity > l.Product.Stock {
				return notEnoughStock(&l.Product)
			}
		}
		for _, l := range lines {
			ok, err := tx.DecrementStockIf(ctx, l.Product.ID, l.Item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return notEnoughStock(&l.Product)
			}
		}

		o := &entity.Order{
			UserID:    userID,
			OrderDate: now,
			Status:    entity.StatusPending,
			Total:     cart.Total,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}

		items := make([]entity.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, entity.OrderItem{
				OrderID:   o.ID,
				ProductID: l.Product.ID,
				Quantity:  l.Item.Quantity,
				Product:   l.Product.Snapshot(),
			})
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return err
		}
		if err := tx.DeleteCartItems(ctx, cart.ID); err != nil {
			return err
		}
		if err := tx.SetCartTotal(ctx, cart.ID, decimal.Zero); err != nil {
			return err
		}
		if err := insertEvent(ctx, tx, orderEventMsg(EventOrderCreated, o, now)); err != nil {
			return err
		}

		o.Items = items
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.onCreated != nil {
		m.onCreated(out)
	}
	logging.FromCtx(ctx).Info("order created",
		"order_id", out.ID, "user_id", userID, "total", out.Total.String(), "items", len(out.Items))
	return out, nil
}

// GetOrder returns the order with its items and their product snapshots.
func (m *OrderManager) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	o, err := m.store.GetOrder(ctx, orderID, false)
	if err != nil {
		return nil, notFoundAs(err, entity.MsgOrderNotFound)
	}
	items, err := m.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// UpdateOrderStatus moves the order to status. Canceling puts every item's
// quantity back into stock.
func (m *OrderManager) UpdateOrderStatus(ctx context.Context, orderID int64, status entity.Status) (*entity.Order, error) {
	if !status.Valid() {
		return nil, entity.Invalid(entity.MsgInvalidStatus)
	}

	now := m.now()
	var out *entity.Order
	err := m.store.RunInTx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return notFoundAs(err, entity.MsgOrderNotFound)
		}
		if o.Status == status {
			return entity.Conflict(entity.MsgStatusUnchanged)
		}

		ok, err := tx.UpdateOrderStatusIf(ctx, orderID, o.Status, status)
		if err != nil {
			return err
		}
		if !ok {
			return entity.Conflict(entity.MsgStatusUnchanged)
		}

		if status == entity.StatusCanceled {
			items, err := tx.ListOrderItems(ctx, orderID)
			if err != nil {
				return err
			}
			for _, it := range items {
				if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}

		prev := o.Status
		o.Status = status
		msg := orderEventMsg(EventOrderStatusChanged, o, now)
		msg.PrevStatus = prev
		if err := insertEvent(ctx, tx, msg); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromCtx(ctx).Info("order status changed", "order_id", orderID, "status", status)
	return out, nil
}

// ApplyCoupon discounts the order total by the coupon's percentage.
// An order takes at most one coupon.
func (m *OrderManager) ApplyCoupon(ctx context.Context, orderID int64, code string) (*entity.Order, error) {
	now := m.now()
	var out *entity.Order
	err := m.store.RunInTx(ctx, func(tx Store) error {
		o, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return notFoundAs(err, entity.MsgOrderNotFound)
		}
		c, err := tx.GetCouponByCode(ctx, code)
		if err != nil {
			return notFoundAs(err, entity.MsgCouponNotFound)
		}
		if c.Expired(now) {
			return entity.Gone(entity.MsgCouponExpired)
		}
		if o.CouponCode != nil {
			return entity.Conflict(entity.MsgCouponApplied)
		}

		total := c.Discounted(o.Total)
		if err := tx.UpdateOrderTotal(ctx, orderID, total, c.Code); err != nil {
			return err
		}
		o.Total = total
		o.CouponCode = &c.Code

		if err := insertEvent(ctx, tx, orderEventMsg(EventOrderCouponApplied, o, now)); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromCtx(ctx).Info("coupon applied", "order_id", orderID, "code", code, "total", out.Total.String())
	return out, nil
}

func insertEvent(ctx context.Context, tx Store, msg OrderEventMsg) error {
	ev, err := encodeEvent(msg)
	if err != nil {
		return err
	}
	return tx.InsertOutboxEvent(ctx, ev)
}

func notEnoughStock(p *entity.Product) error {
	return entity.Conflict("%s is not available in the required quantity", p.Name)
}
