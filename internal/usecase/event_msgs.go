package usecase

import (
	"encoding/json"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outbox event types double as broker routing keys.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCouponApplied = "order.coupon_applied"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "PENDING"
	OutboxPublished OutboxStatus = "PUBLISHED"
	OutboxFailed    OutboxStatus = "FAILED"
)

// OutboxEvent is written in the same transaction as the change it describes.
type OutboxEvent struct {
	ID          string
	AggregateID int64
	EventType   string
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
}

// OrderEventMsg is the payload of every order.* event.
type OrderEventMsg struct {
	Type       string          `json:"type"`
	OrderID    int64           `json:"orderId"`
	UserID     int64           `json:"userId"`
	Status     entity.Status   `json:"status"`
	PrevStatus entity.Status   `json:"prevStatus,omitempty"`
	Total      decimal.Decimal `json:"total"`
	CouponCode string          `json:"couponCode,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func orderEventMsg(eventType string, o *entity.Order, at time.Time) OrderEventMsg {
	msg := OrderEventMsg{
		Type:       eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: at,
	}
	if o.CouponCode != nil {
		msg.CouponCode = *o.CouponCode
	}
	return msg
}

func encodeEvent(msg OrderEventMsg) (*OutboxEvent, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: msg.OrderID,
		EventType:   msg.Type,
		Payload:     body,
		Status:      OutboxPending,
		CreatedAt:   msg.OccurredAt,
	}, nil
}

// FulfillmentStatusMsg is published by the fulfillment system on Kafka.
type FulfillmentStatusMsg struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"` // e.g. "SHIPPED"
}
