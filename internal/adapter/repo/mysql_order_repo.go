package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/shopspring/decimal"
)

const orderColumns = `id,user_id,order_date,status,total,coupon_code`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(sc rowScanner) (*entity.Order, error) {
	var (
		o      entity.Order
		coupon sql.NullString
	)
	if err := sc.Scan(&o.ID, &o.UserID, &o.OrderDate, &o.Status, &o.Total, &coupon); err != nil {
		return nil, err
	}
	if coupon.Valid {
		o.CouponCode = &coupon.String
	}
	return &o, nil
}

func (s *MySQLStore) CreateOrder(ctx context.Context, o *entity.Order) error {
	res, err := s.q.ExecContext(ctx, `
INSERT INTO orders (user_id,order_date,status,total,coupon_code)
VALUES (?,?,?,?,?)
`, o.UserID, o.OrderDate, o.Status, o.Total, o.CouponCode)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (s *MySQLStore) GetOrder(ctx context.Context, id int64, lock bool) (*entity.Order, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`+forUpdate(lock), id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, noRows(err)
	}
	return o, nil
}

func (s *MySQLStore) ListOrdersByUser(ctx context.Context, userID int64) ([]entity.Order, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT `+orderColumns+`
FROM orders WHERE user_id=?
ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *MySQLStore) ListOrderItems(ctx context.Context, orderID int64) ([]entity.OrderItem, error) {
	rows, err := s.q.QueryContext(ctx, `
SELECT oi.order_id,oi.product_id,oi.quantity,p.name,p.description,p.price
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id=?
ORDER BY oi.product_id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []entity.OrderItem{}
	for rows.Next() {
		var (
			it entity.OrderItem
			p  entity.ProductSnapshot
		)
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &p.Name, &p.Description, &p.Price); err != nil {
			return nil, err
		}
		it.Product = &p
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateOrderItems writes all lines in one multi-row INSERT.
func (s *MySQLStore) CreateOrderItems(ctx context.Context, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	args := make([]any, 0, len(items)*3)
	for _, it := range items {
		args = append(args, it.OrderID, it.ProductID, it.Quantity)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("(?,?,?),", len(items)), ",")
	_, err := s.q.ExecContext(ctx, `INSERT INTO order_items (order_id,product_id,quantity) VALUES `+placeholders, args...)
	return err
}

// UpdateOrderStatusIf moves the order from one status to another.
// false means nothing matched (either not found or status mismatch).
func (s *MySQLStore) UpdateOrderStatusIf(ctx context.Context, id int64, from, to entity.Status) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
        UPDATE orders
        SET status = ?
        WHERE id = ? AND status = ?`,
		to, id, from,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *MySQLStore) UpdateOrderTotal(ctx context.Context, id int64, total decimal.Decimal, couponCode string) error {
	_, err := s.q.ExecContext(ctx, `
UPDATE orders SET total = ?, coupon_code = ?
WHERE id = ?`, total, couponCode, id)
	return err
}
