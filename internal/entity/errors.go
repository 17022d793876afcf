package entity

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP statuses.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrGone       = errors.New("gone")
	ErrValidation = errors.New("validation failed")
)

// Error carries a kind plus the message shown to the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func Gone(format string, args ...any) error {
	return &Error{Kind: ErrGone, Msg: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

// Messages reused across managers.
const (
	MsgUserNotFound     = "User not found"
	MsgProductNotFound  = "Product not found"
	MsgNotInCart        = "Product not found in the cart"
	MsgNotAvailable     = "Product is not available"
	MsgNotEnoughStock   = "Product is not available in the required quantity"
	MsgOrderNotFound    = "Order not found"
	MsgCouponNotFound   = "Coupon not found"
	MsgCouponExpired    = "Coupon expired"
	MsgCouponApplied    = "A coupon has already been applied to this order"
	MsgStatusUnchanged  = "Order status is already the same"
	MsgInvalidStatus    = "status must be: Pending, Delivering, Delivered, Canceled"
	MsgQuantityPositive = "quantity must be at least 1"
	MsgOrderInProgress  = "An order for this idempotency key is already being created"
)
