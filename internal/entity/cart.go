package entity

import "github.com/shopspring/decimal"

type User struct {
	ID       int64  `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Address  string `json:"address"`
}

type Product struct {
	ID          int64           `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

// ProductSnapshot is the product view nested under cart and order lines.
type ProductSnapshot struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

func (p *Product) Snapshot() *ProductSnapshot {
	return &ProductSnapshot{Name: p.Name, Description: p.Description, Price: p.Price}
}

type Cart struct {
	ID     int64           `json:"cartId"`
	UserID int64           `json:"userId"`
	Total  decimal.Decimal `json:"total"`
	Items  []CartItem      `json:"cartItems"`
}

type CartItem struct {
	CartID    int64            `json:"cartId"`
	ProductID int64            `json:"productId"`
	Quantity  int              `json:"quantity"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

// LineTotal is quantity × price for a cart line.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}
