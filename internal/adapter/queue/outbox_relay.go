package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/adapter/observ"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/EmanElbedwihy/OMS/internal/usecase"
	"github.com/sony/gobreaker/v2"
)

// OutboxSource is the outbox side of the MySQL store.
type OutboxSource interface {
	FetchPendingEvents(ctx context.Context, limit int) ([]usecase.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id string) error
	MarkEventFailed(ctx context.Context, id, cause string, maxAttempts int) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey, messageID string, body []byte) error
}

type RelayConfig struct {
	Interval     time.Duration
	BatchSize    int
	MaxAttempts  int
	PublishLimit time.Duration // per message
}

// OutboxRelay moves committed outbox rows to the broker. Publishing goes
// through a circuit breaker; while it is open the relay skips whole batches
// without spending attempts.
type OutboxRelay struct {
	src OutboxSource
	pub Publisher
	cb  *gobreaker.CircuitBreaker[struct{}]
	cfg RelayConfig
	log *slog.Logger
}

func NewOutboxRelay(src OutboxSource, pub Publisher, cfg RelayConfig) *OutboxRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.PublishLimit <= 0 {
		cfg.PublishLimit = 5 * time.Second
	}

	log := logging.New("outbox-relay")
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "rabbitmq-publish",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &OutboxRelay{src: src, pub: pub, cb: cb, cfg: cfg, log: log}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.log.Info("outbox relay started", "interval", r.cfg.Interval.String(), "batch", r.cfg.BatchSize)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
				r.log.Error("outbox drain failed", "err", err)
			}
		}
	}
}

// Drain publishes one batch and reports how many events went out.
func (r *OutboxRelay) Drain(ctx context.Context) (int, error) {
	events, err := r.src.FetchPendingEvents(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, ev := range events {
		_, err := r.cb.Execute(func() (struct{}, error) {
			pctx, cancel := context.WithTimeout(ctx, r.cfg.PublishLimit)
			defer cancel()
			return struct{}{}, r.pub.Publish(pctx, ev.EventType, ev.ID, ev.Payload)
		})

		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			r.log.Debug("breaker open, deferring batch", "remaining", len(events)-published)
			return published, nil
		case err != nil:
			observ.OutboxFailures.WithLabelValues(ev.EventType).Inc()
			r.log.Warn("publish failed", "event_id", ev.ID, "type", ev.EventType, "attempt", ev.Attempts+1, "err", err)
			if merr := r.src.MarkEventFailed(ctx, ev.ID, err.Error(), r.cfg.MaxAttempts); merr != nil {
				return published, merr
			}
		default:
			if merr := r.src.MarkEventPublished(ctx, ev.ID); merr != nil {
				// the event goes out again next round; consumers are idempotent
				return published, merr
			}
			observ.OutboxPublished.WithLabelValues(ev.EventType).Inc()
			published++
		}
	}
	return published, nil
}
