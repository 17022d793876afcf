package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
	os.Exit(m.Run())
}

type fakeCarts struct {
	item    *entity.CartItem
	cart    *entity.Cart
	err     error
	gotQty  int
	removed [2]int64
}

func (f *fakeCarts) AddProduct(_ context.Context, userID, productID int64) (*entity.CartItem, error) {
	return f.item, f.err
}

func (f *fakeCarts) RemoveProduct(_ context.Context, userID, productID int64) error {
	f.removed = [2]int64{userID, productID}
	return f.err
}

func (f *fakeCarts) UpdateCart(_ context.Context, userID, productID int64, quantity int) (*entity.CartItem, error) {
	f.gotQty = quantity
	return f.item, f.err
}

func (f *fakeCarts) GetCart(_ context.Context, userID int64) (*entity.Cart, error) {
	return f.cart, f.err
}

type fakeOrders struct {
	order     *entity.Order
	orders    []entity.Order
	err       error
	gotKey    string
	gotStatus entity.Status
}

func (f *fakeOrders) CreateOrder(_ context.Context, userID int64, idemKey string) (*entity.Order, error) {
	f.gotKey = idemKey
	return f.order, f.err
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID int64) (*entity.Order, error) {
	return f.order, f.err
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, orderID int64, status entity.Status) (*entity.Order, error) {
	f.gotStatus = status
	return f.order, f.err
}

func (f *fakeOrders) ApplyCoupon(_ context.Context, orderID int64, code string) (*entity.Order, error) {
	return f.order, f.err
}

func (f *fakeOrders) GetOrders(_ context.Context, userID int64) ([]entity.Order, error) {
	return f.orders, f.err
}

func newTestRouter(carts *fakeCarts, orders *fakeOrders) *gin.Engine {
	return NewRouter(RouterConfig{}, NewCartHandler(carts), NewOrderHandler(orders, orders))
}

func do(r http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResp {
	t.Helper()
	var e errorResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func TestAddProduct_Created(t *testing.T) {
	carts := &fakeCarts{item: &entity.CartItem{CartID: 1, ProductID: 2, Quantity: 1}}
	r := newTestRouter(carts, &fakeOrders{})

	w := do(r, http.MethodPost, "/cart/add", `{"userId":1,"productId":2}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"cartId":1,"productId":2,"quantity":1}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestAddProduct_Validation(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{})

	w := do(r, http.MethodPost, "/cart/add", `{"userId":1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decodeError(t, w).Error)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"not found", entity.NotFound(entity.MsgUserNotFound), http.StatusNotFound, "not_found"},
		{"conflict", entity.Conflict(entity.MsgNotAvailable), http.StatusConflict, "conflict"},
		{"gone", entity.Gone(entity.MsgCouponExpired), http.StatusGone, "gone"},
		{"validation", entity.Invalid(entity.MsgQuantityPositive), http.StatusBadRequest, "validation_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeCarts{err: tc.err}, &fakeOrders{})

			w := do(r, http.MethodPost, "/cart/add", `{"userId":1,"productId":2}`)

			assert.Equal(t, tc.code, w.Code)
			e := decodeError(t, w)
			assert.Equal(t, tc.kind, e.Error)
			assert.Equal(t, tc.err.Error(), e.Message)
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	r := newTestRouter(&fakeCarts{err: assert.AnError}, &fakeOrders{})

	w := do(r, http.MethodGet, "/cart/1", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decodeError(t, w)
	assert.Equal(t, "internal_error", e.Error)
	assert.NotContains(t, e.Message, assert.AnError.Error())
}

func TestGetCart(t *testing.T) {
	carts := &fakeCarts{cart: &entity.Cart{
		ID: 1, UserID: 1, Total: decimal.RequireFromString("60"),
		Items: []entity.CartItem{{
			CartID: 1, ProductID: 2, Quantity: 3,
			Product: &entity.ProductSnapshot{Name: "Headphones", Description: "over-ear", Price: decimal.RequireFromString("20")},
		}},
	}}
	r := newTestRouter(carts, &fakeOrders{})

	w := do(r, http.MethodGet, "/cart/1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"cartId":1,"userId":1,"total":60,
		"cartItems":[{"cartId":1,"productId":2,"quantity":3,
			"product":{"name":"Headphones","description":"over-ear","price":20}}]
	}`, w.Body.String())
}

func TestGetCart_BadID(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{})

	w := do(r, http.MethodGet, "/cart/abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveProduct(t *testing.T) {
	carts := &fakeCarts{}
	r := newTestRouter(carts, &fakeOrders{})

	w := do(r, http.MethodDelete, "/cart/remove?userId=1&productId=2", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]int64{1, 2}, carts.removed)

	w = do(r, http.MethodDelete, "/cart/remove?userId=1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCart(t *testing.T) {
	carts := &fakeCarts{item: &entity.CartItem{CartID: 1, ProductID: 2, Quantity: 4}}
	r := newTestRouter(carts, &fakeOrders{})

	w := do(r, http.MethodPut, "/cart/update", `{"userId":1,"productId":2,"quantity":4}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, carts.gotQty)

	w = do(r, http.MethodPut, "/cart/update", `{"userId":1,"productId":2,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrder(t *testing.T) {
	orders := &fakeOrders{order: &entity.Order{
		ID: 3, UserID: 1, Status: entity.StatusPending, Total: decimal.RequireFromString("20"),
		OrderDate: time.Date(2024, 6, 19, 22, 12, 9, 0, time.UTC),
	}}
	r := newTestRouter(&fakeCarts{}, orders)

	w := do(r, http.MethodPost, "/orders?userId=1", "", IdempotencyKeyHeader, "k-1")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "k-1", orders.gotKey)
	assert.JSONEq(t, `{"orderId":3,"userId":1,"orderDate":"2024-06-19T22:12:09Z","status":"Pending","total":20}`, w.Body.String())
}

func TestCreateOrder_MissingUser(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{})

	w := do(r, http.MethodPost, "/orders", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus(t *testing.T) {
	orders := &fakeOrders{order: &entity.Order{ID: 1, Status: entity.StatusCanceled}}
	r := newTestRouter(&fakeCarts{}, orders)

	w := do(r, http.MethodPut, "/orders/1/status", `{"status":"Canceled"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.StatusCanceled, orders.gotStatus)

	w = do(r, http.MethodPut, "/orders/1/status", `{"status":"Lost"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, entity.MsgInvalidStatus, decodeError(t, w).Message)
}

func TestApplyCoupon_Expired(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{err: entity.Gone(entity.MsgCouponExpired)})

	w := do(r, http.MethodPost, "/orders/apply-coupon", `{"orderId":1,"code":"OLD"}`)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestUserOrders(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{orders: []entity.Order{}})

	w := do(r, http.MethodGet, "/users/1/orders", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{})

	w := do(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestApplyCoupon_AlreadyApplied(t *testing.T) {
	r := newTestRouter(&fakeCarts{}, &fakeOrders{err: entity.Conflict(entity.MsgCouponApplied)})

	w := do(r, http.MethodPost, "/orders/apply-coupon", `{"orderId":1,"code":"SAVE25"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, entity.MsgCouponApplied, decodeError(t, w).Message)
}
