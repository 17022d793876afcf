package usecase

import (
	"context"

	"github.com/EmanElbedwihy/OMS/internal/entity"
)

type UserLookup struct {
	store Store
}

func NewUserLookup(store Store) *UserLookup {
	return &UserLookup{store: store}
}

// GetOrders lists every order of the user in creation order.
func (u *UserLookup) GetOrders(ctx context.Context, userID int64) ([]entity.Order, error) {
	if _, err := u.store.GetUser(ctx, userID); err != nil {
		return nil, notFoundAs(err, entity.MsgUserNotFound)
	}
	orders, err := u.store.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	return orders, nil
}
