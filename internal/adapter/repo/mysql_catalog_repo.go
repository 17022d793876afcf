package repo

import (
	"context"

	"github.com/EmanElbedwihy/OMS/internal/entity"
)

func (s *MySQLStore) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT id,name,email,password,address
FROM users WHERE id=?`, id)
	var u entity.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Address); err != nil {
		return nil, noRows(err)
	}
	return &u, nil
}

func (s *MySQLStore) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT id,name,description,price,stock
FROM products WHERE id=?`, id)
	var p entity.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock); err != nil {
		return nil, noRows(err)
	}
	return &p, nil
}

// DecrementStockIf takes qty off the product only when enough is left.
func (s *MySQLStore) DecrementStockIf(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := s.q.ExecContext(ctx, `
        UPDATE products
        SET stock = stock - ?
        WHERE id = ? AND stock >= ?`,
		qty, productID, qty,
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

func (s *MySQLStore) IncrementStock(ctx context.Context, productID int64, qty int) error {
	_, err := s.q.ExecContext(ctx, `UPDATE products SET stock = stock + ? WHERE id = ?`, qty, productID)
	return err
}

func (s *MySQLStore) GetCouponByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	row := s.q.QueryRowContext(ctx, `
SELECT id,code,discount,expiration
FROM coupons WHERE code=?`, code)
	var c entity.Coupon
	if err := row.Scan(&c.ID, &c.Code, &c.Discount, &c.Expiration); err != nil {
		return nil, noRows(err)
	}
	return &c, nil
}
