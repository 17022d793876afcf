// Package observ holds the business counters exported on /metrics.
package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oms",
		Name:      "orders_created_total",
		Help:      "Orders created from carts",
	})

	CouponsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "oms",
		Name:      "coupons_applied_total",
		Help:      "Coupons applied to orders",
	})

	StatusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oms",
		Name:      "order_status_changes_total",
		Help:      "Order status changes by target status and source (http, fulfillment)",
	}, []string{"status", "source"})

	OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oms",
		Name:      "outbox_published_total",
		Help:      "Outbox events published to the broker",
	}, []string{"event_type"})

	OutboxFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oms",
		Name:      "outbox_publish_failures_total",
		Help:      "Failed outbox publish attempts",
	}, []string{"event_type"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "oms",
		Name:      "notifications_total",
		Help:      "Order notifications handled, by result",
	}, []string{"result"})
)
