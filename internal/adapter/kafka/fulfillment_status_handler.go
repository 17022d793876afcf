package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/EmanElbedwihy/OMS/internal/adapter/observ"
	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/EmanElbedwihy/OMS/internal/usecase"
)

type StatusUpdater interface {
	UpdateOrderStatus(ctx context.Context, orderID int64, status entity.Status) (*entity.Order, error)
}

// FulfillmentStatusHandler applies status reports from the fulfillment system.
type FulfillmentStatusHandler struct {
	orders StatusUpdater
}

func NewFulfillmentStatusHandler(orders StatusUpdater) *FulfillmentStatusHandler {
	return &FulfillmentStatusHandler{orders: orders}
}

// externalStatus maps fulfillment statuses to order statuses.
var externalStatus = map[string]entity.Status{
	"PENDING":   entity.StatusPending,
	"SHIPPED":   entity.StatusDelivering,
	"DELIVERED": entity.StatusDelivered,
	"CANCELLED": entity.StatusCanceled,
}

func (h *FulfillmentStatusHandler) Handle(ctx context.Context, ev usecase.FulfillmentStatusMsg) error {
	log := logging.FromCtx(ctx).With("order_id", ev.OrderID, "ext_status", ev.Status)

	status, ok := externalStatus[strings.ToUpper(ev.Status)]
	if !ok {
		log.Warn("unknown fulfillment status, skipping")
		return nil
	}

	_, err := h.orders.UpdateOrderStatus(ctx, ev.OrderID, status)
	switch {
	case err == nil:
		observ.StatusChanges.WithLabelValues(string(status), "fulfillment").Inc()
		log.Info("order status updated from fulfillment", "status", status)
		return nil
	case errors.Is(err, entity.ErrConflict):
		// redelivery of a status we already hold
		return nil
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrValidation):
		log.Warn("fulfillment event rejected", "err", err)
		return nil
	default:
		return err
	}
}
