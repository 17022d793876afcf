package repo

import (
	"context"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/EmanElbedwihy/OMS/internal/usecase"
	"github.com/shopspring/decimal"
)

func (s *MySQLStore) GetCartByUserID(ctx context.Context, userID int64, lock bool) (*entity.Cart, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT id,user_id,total
FROM carts WHERE user_id=?`+forUpdate(lock), userID)
	var c entity.Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.Total); err != nil {
		return nil, noRows(err)
	}
	return &c, nil
}

func (s *MySQLStore) ListCartItems(ctx context.Context, cartID int64) ([]usecase.CartLine, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT ci.cart_id,ci.product_id,ci.quantity,p.id,p.name,p.description,p.price,p.stock
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id=?
ORDER BY ci.product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.CartLine
	for rows.Next() {
		var l usecase.CartLine
		if err := rows.Scan(&l.Item.CartID, &l.Item.ProductID, &l.Item.Quantity,
			&l.Product.ID, &l.Product.Name, &l.Product.Description, &l.Product.Price, &l.Product.Stock); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *MySQLStore) GetCartItem(ctx context.Context, cartID, productID int64) (*entity.CartItem, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT cart_id,product_id,quantity
FROM cart_items WHERE cart_id=? AND product_id=?`, cartID, productID)
	var it entity.CartItem
	if err := row.Scan(&it.CartID, &it.ProductID, &it.Quantity); err != nil {
		return nil, noRows(err)
	}
	return &it, nil
}

func (s *MySQLStore) CreateCartItem(ctx context.Context, item *entity.CartItem) error {
	_, err := s.q.ExecContext(ctx, `
INSERT INTO cart_items (cart_id,product_id,quantity)
VALUES (?,?,?)`, item.CartID, item.ProductID, item.Quantity)
	return err
}

// UpdateCartItemQuantity does not check affected rows: MySQL reports 0 when
// the value is unchanged.
func (s *MySQLStore) UpdateCartItemQuantity(ctx context.Context, cartID, productID int64, qty int) error {
	_, err := s.q.ExecContext(ctx, `
UPDATE cart_items SET quantity = ?
WHERE cart_id = ? AND product_id = ?`, qty, cartID, productID)
	return err
}

func (s *MySQLStore) DeleteCartItem(ctx context.Context, cartID, productID int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ? AND product_id = ?`, cartID, productID)
	return err
}

func (s *MySQLStore) DeleteCartItems(ctx context.Context, cartID int64) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

func (s *MySQLStore) AddToCartTotal(ctx context.Context, cartID int64, delta decimal.Decimal) error {
	_, err := s.q.ExecContext(ctx, `UPDATE carts SET total = total + ? WHERE id = ?`, delta, cartID)
	return err
}

func (s *MySQLStore) SetCartTotal(ctx context.Context, cartID int64, total decimal.Decimal) error {
	_, err := s.q.ExecContext(ctx, `UPDATE carts SET total = ? WHERE id = ?`, total, cartID)
	return err
}
