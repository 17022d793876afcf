package usecase

import (
	"context"
	"errors"

	"github.com/EmanElbedwihy/OMS/internal/entity"
)

// CartManager maintains cart lines and the cart's running total.
// Each mutation runs in one transaction with the cart row locked, so the
// total and the line it accounts for always move together.
type CartManager struct {
	store Store
}

func NewCartManager(store Store) *CartManager {
	return &CartManager{store: store}
}

// AddProduct adds one unit of productID to the user's cart.
func (m *CartManager) AddProduct(ctx context.Context, userID, productID int64) (*entity.CartItem, error) {
	var out *entity.CartItem
	err := m.store.RunInTx(ctx, func(tx Store) error {
		cart, product, err := cartAndProduct(ctx, tx, userID, productID)
		if err != nil {
			return err
		}
		if product.Stock == 0 {
			return entity.Conflict(entity.MsgNotAvailable)
		}

		if err := tx.AddToCartTotal(ctx, cart.ID, product.Price); err != nil {
			return err
		}

		item, err := tx.GetCartItem(ctx, cart.ID, productID)
		switch {
		case errors.Is(err, ErrRecordNotFound):
			item = &entity.CartItem{CartID: cart.ID, ProductID: productID, Quantity: 1}
			if err := tx.CreateCartItem(ctx, item); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			item.Quantity++
			if err := tx.UpdateCartItemQuantity(ctx, cart.ID, productID, item.Quantity); err != nil {
				return err
			}
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveProduct drops the whole line for productID from the user's cart.
func (m *CartManager) RemoveProduct(ctx context.Context, userID, productID int64) error {
	return m.store.RunInTx(ctx, func(tx Store) error {
		cart, product, err := cartAndProduct(ctx, tx, userID, productID)
		if err != nil {
			return err
		}
		item, err := tx.GetCartItem(ctx, cart.ID, productID)
		if err != nil {
			return notFoundAs(err, entity.MsgNotInCart)
		}

		line := entity.LineTotal(product.Price, item.Quantity)
		if err := tx.AddToCartTotal(ctx, cart.ID, line.Neg()); err != nil {
			return err
		}
		return tx.DeleteCartItem(ctx, cart.ID, productID)
	})
}

// UpdateCart sets the quantity of an existing line. Only the increase over the
// current quantity is checked against stock; stock itself is not reserved.
func (m *CartManager) UpdateCart(ctx context.Context, userID, productID int64, quantity int) (*entity.CartItem, error) {
	if quantity < 1 {
		return nil, entity.Invalid(entity.MsgQuantityPositive)
	}

	var out *entity.CartItem
	err := m.store.RunInTx(ctx, func(tx Store) error {
		cart, product, err := cartAndProduct(ctx, tx, userID, productID)
		if err != nil {
			return err
		}
		item, err := tx.GetCartItem(ctx, cart.ID, productID)
		if err != nil {
			return notFoundAs(err, entity.MsgNotInCart)
		}

		delta := quantity - item.Quantity
		if delta > product.Stock {
			return entity.Conflict(entity.MsgNotEnoughStock)
		}

		if err := tx.AddToCartTotal(ctx, cart.ID, entity.LineTotal(product.Price, delta)); err != nil {
			return err
		}
		if err := tx.UpdateCartItemQuantity(ctx, cart.ID, productID, quantity); err != nil {
			return err
		}
		item.Quantity = quantity
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCart returns the user's cart with every line and its product snapshot.
func (m *CartManager) GetCart(ctx context.Context, userID int64) (*entity.Cart, error) {
	cart, err := m.store.GetCartByUserID(ctx, userID, false)
	if err != nil {
		return nil, notFoundAs(err, entity.MsgUserNotFound)
	}
	lines, err := m.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	cart.Items = make([]entity.CartItem, 0, len(lines))
	for _, l := range lines {
		item := l.Item
		item.Product = l.Product.Snapshot()
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

// cartAndProduct loads (and locks) the user's cart, then the product.
func cartAndProduct(ctx context.Context, tx Store, userID, productID int64) (*entity.Cart, *entity.Product, error) {
	cart, err := tx.GetCartByUserID(ctx, userID, true)
	if err != nil {
		return nil, nil, notFoundAs(err, entity.MsgUserNotFound)
	}
	product, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, notFoundAs(err, entity.MsgProductNotFound)
	}
	return cart, product, nil
}

func notFoundAs(err error, msg string) error {
	if errors.Is(err, ErrRecordNotFound) {
		return entity.NotFound(msg)
	}
	return err
}
