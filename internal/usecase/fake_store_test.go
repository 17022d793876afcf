package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/shopspring/decimal"
)

type cartKey struct{ cartID, productID int64 }

type fakeState struct {
	users      map[int64]entity.User
	products   map[int64]entity.Product
	carts      map[int64]entity.Cart // by cart id
	cartItems  map[cartKey]entity.CartItem
	orders     map[int64]entity.Order
	orderItems map[int64][]entity.OrderItem
	coupons    map[string]entity.Coupon
	outbox     []OutboxEvent
	nextOrder  int64
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		users:      make(map[int64]entity.User, len(s.users)),
		products:   make(map[int64]entity.Product, len(s.products)),
		carts:      make(map[int64]entity.Cart, len(s.carts)),
		cartItems:  make(map[cartKey]entity.CartItem, len(s.cartItems)),
		orders:     make(map[int64]entity.Order, len(s.orders)),
		orderItems: make(map[int64][]entity.OrderItem, len(s.orderItems)),
		coupons:    make(map[string]entity.Coupon, len(s.coupons)),
		outbox:     append([]OutboxEvent(nil), s.outbox...),
		nextOrder:  s.nextOrder,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]entity.OrderItem(nil), v...)
	}
	for k, v := range s.coupons {
		c.coupons[k] = v
	}
	return c
}

// fakeStore keeps everything in maps. RunInTx works on a copy of the state
// and swaps it in only when fn succeeds.
type fakeStore struct {
	mu    *sync.Mutex
	state *fakeState
	inTx  bool

	// failDecrement makes DecrementStockIf report no row changed for that product.
	failDecrement map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mu: &sync.Mutex{},
		state: &fakeState{
			users:      map[int64]entity.User{},
			products:   map[int64]entity.Product{},
			carts:      map[int64]entity.Cart{},
			cartItems:  map[cartKey]entity.CartItem{},
			orders:     map[int64]entity.Order{},
			orderItems: map[int64][]entity.OrderItem{},
			coupons:    map[string]entity.Coupon{},
		},
		failDecrement: map[int64]bool{},
	}
}

// seed helpers

func (f *fakeStore) addUser(id int64) int64 {
	f.state.users[id] = entity.User{ID: id, Name: "user", Email: "u@example.com"}
	f.state.carts[id] = entity.Cart{ID: id, UserID: id, Total: decimal.Zero}
	return id
}

func (f *fakeStore) addProduct(id int64, name, price string, stock int) {
	f.state.products[id] = entity.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func (f *fakeStore) cart(userID int64) entity.Cart {
	for _, c := range f.state.carts {
		if c.UserID == userID {
			return c
		}
	}
	return entity.Cart{}
}

func (f *fakeStore) item(cartID, productID int64) (entity.CartItem, bool) {
	it, ok := f.state.cartItems[cartKey{cartID, productID}]
	return it, ok
}

// sumOfLines recomputes Σ quantity × price for a cart from live product rows.
func (f *fakeStore) sumOfLines(cartID int64) decimal.Decimal {
	sum := decimal.Zero
	for k, it := range f.state.cartItems {
		if k.cartID == cartID {
			sum = sum.Add(entity.LineTotal(f.state.products[k.productID].Price, it.Quantity))
		}
	}
	return sum
}

// Store

func (f *fakeStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if f.inTx {
		return fn(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &fakeStore{mu: f.mu, state: f.state.clone(), inTx: true, failDecrement: f.failDecrement}
	if err := fn(tx); err != nil {
		return err
	}
	f.state = tx.state
	return nil
}

func (f *fakeStore) GetUser(_ context.Context, id int64) (*entity.User, error) {
	u, ok := f.state.users[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &u, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (*entity.Product, error) {
	p, ok := f.state.products[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeStore) DecrementStockIf(_ context.Context, productID int64, qty int) (bool, error) {
	p, ok := f.state.products[productID]
	if !ok || p.Stock < qty || f.failDecrement[productID] {
		return false, nil
	}
	p.Stock -= qty
	f.state.products[productID] = p
	return true, nil
}

func (f *fakeStore) IncrementStock(_ context.Context, productID int64, qty int) error {
	p := f.state.products[productID]
	p.Stock += qty
	f.state.products[productID] = p
	return nil
}

func (f *fakeStore) GetCartByUserID(_ context.Context, userID int64, _ bool) (*entity.Cart, error) {
	for _, c := range f.state.carts {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, ErrRecordNotFound
}

func (f *fakeStore) ListCartItems(_ context.Context, cartID int64) ([]CartLine, error) {
	var out []CartLine
	for k, it := range f.state.cartItems {
		if k.cartID == cartID {
			out = append(out, CartLine{Item: it, Product: f.state.products[k.productID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ProductID < out[j].Item.ProductID })
	return out, nil
}

func (f *fakeStore) GetCartItem(_ context.Context, cartID, productID int64) (*entity.CartItem, error) {
	it, ok := f.state.cartItems[cartKey{cartID, productID}]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &it, nil
}

func (f *fakeStore) CreateCartItem(_ context.Context, item *entity.CartItem) error {
	f.state.cartItems[cartKey{item.CartID, item.ProductID}] = *item
	return nil
}

func (f *fakeStore) UpdateCartItemQuantity(_ context.Context, cartID, productID int64, qty int) error {
	k := cartKey{cartID, productID}
	it, ok := f.state.cartItems[k]
	if !ok {
		return ErrRecordNotFound
	}
	it.Quantity = qty
	f.state.cartItems[k] = it
	return nil
}

func (f *fakeStore) DeleteCartItem(_ context.Context, cartID, productID int64) error {
	delete(f.state.cartItems, cartKey{cartID, productID})
	return nil
}

func (f *fakeStore) DeleteCartItems(_ context.Context, cartID int64) error {
	for k := range f.state.cartItems {
		if k.cartID == cartID {
			delete(f.state.cartItems, k)
		}
	}
	return nil
}

func (f *fakeStore) AddToCartTotal(_ context.Context, cartID int64, delta decimal.Decimal) error {
	c := f.state.carts[cartID]
	c.Total = c.Total.Add(delta)
	f.state.carts[cartID] = c
	return nil
}

func (f *fakeStore) SetCartTotal(_ context.Context, cartID int64, total decimal.Decimal) error {
	c := f.state.carts[cartID]
	c.Total = total
	f.state.carts[cartID] = c
	return nil
}

func (f *fakeStore) CreateOrder(_ context.Context, o *entity.Order) error {
	f.state.nextOrder++
	o.ID = f.state.nextOrder
	stored := *o
	stored.Items = nil
	f.state.orders[o.ID] = stored
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64, _ bool) (*entity.Order, error) {
	o, ok := f.state.orders[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &o, nil
}

func (f *fakeStore) ListOrderItems(_ context.Context, orderID int64) ([]entity.OrderItem, error) {
	return append([]entity.OrderItem(nil), f.state.orderItems[orderID]...), nil
}

func (f *fakeStore) CreateOrderItems(_ context.Context, items []entity.OrderItem) error {
	for _, it := range items {
		f.state.orderItems[it.OrderID] = append(f.state.orderItems[it.OrderID], it)
	}
	return nil
}

func (f *fakeStore) ListOrdersByUser(_ context.Context, userID int64) ([]entity.Order, error) {
	var out []entity.Order
	for _, o := range f.state.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateOrderStatusIf(_ context.Context, id int64, from, to entity.Status) (bool, error) {
	o, ok := f.state.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	f.state.orders[id] = o
	return true, nil
}

func (f *fakeStore) UpdateOrderTotal(_ context.Context, id int64, total decimal.Decimal, couponCode string) error {
	o, ok := f.state.orders[id]
	if !ok {
		return ErrRecordNotFound
	}
	o.Total = total
	o.CouponCode = &couponCode
	f.state.orders[id] = o
	return nil
}

func (f *fakeStore) GetCouponByCode(_ context.Context, code string) (*entity.Coupon, error) {
	c, ok := f.state.coupons[code]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeStore) InsertOutboxEvent(_ context.Context, ev *OutboxEvent) error {
	f.state.outbox = append(f.state.outbox, *ev)
	return nil
}

var _ Store = (*fakeStore)(nil)

// fakeIdem is an in-memory IdempotencyStore.
type fakeIdem struct {
	locks  map[string]bool
	values map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (f *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	k := scope + ":" + key
	if f.locks[k] {
		return false, nil
	}
	f.locks[k] = true
	return true, nil
}

func (f *fakeIdem) Release(_ context.Context, scope, key string) error {
	delete(f.locks, scope+":"+key)
	return nil
}

func (f *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	f.values[scope+":"+key] = value
	return nil
}

func (f *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	v, ok := f.values[scope+":"+key]
	return v, ok, nil
}
