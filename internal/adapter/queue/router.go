package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/logging"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Router runs one consumer per registered queue, all sharing a single AMQP
// channel and its prefetch window.
type Router struct {
	ch            *amqp.Channel
	prefetch      int
	callTimeout   time.Duration
	requeueOnErr  bool
	registrations []registration
	log           *slog.Logger
	wg            sync.WaitGroup
}

type registration struct {
	queueName   string
	handler     Handler
	consumerTag string
}

type RouterOption func(*Router)

func WithPrefetch(n int) RouterOption          { return func(r *Router) { r.prefetch = n } }
func WithTimeout(d time.Duration) RouterOption { return func(r *Router) { r.callTimeout = d } }
func WithRequeue(b bool) RouterOption          { return func(r *Router) { r.requeueOnErr = b } }

// NewRouter defaults to prefetch 50, a 10s handler timeout and requeue on
// handler error.
func NewRouter(ch *amqp.Channel, opts ...RouterOption) *Router {
	r := &Router{
		ch:           ch,
		prefetch:     50,
		callTimeout:  10 * time.Second,
		requeueOnErr: true,
		log:          logging.New("rmq-router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register must be called before Start.
func (r *Router) Register(queueName string, h Handler) {
	r.registrations = append(r.registrations, registration{
		queueName:   queueName,
		handler:     h,
		consumerTag: "oms_" + queueName,
	})
}

// Start returns once every consumer is attached. Consumers are cancelled when
// ctx ends; Wait blocks until their delivery channels drain.
func (r *Router) Start(ctx context.Context) error {
	if err := r.ch.Qos(r.prefetch, 0, false); err != nil {
		return err
	}

	for _, reg := range r.registrations {
		deliveries, err := r.ch.Consume(
			reg.queueName,
			reg.consumerTag,
			false, // manual ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return err
		}

		r.wg.Add(1)
		go func(reg registration, msgs <-chan amqp.Delivery) {
			defer r.wg.Done()
			for d := range msgs {
				r.dispatch(ctx, reg, d)
			}
			r.log.Info("consumer stopped", "queue", reg.queueName, "tag", reg.consumerTag)
		}(reg, deliveries)
	}

	go func() {
		<-ctx.Done()
		for _, reg := range r.registrations {
			_ = r.ch.Cancel(reg.consumerTag, false)
		}
	}()
	return nil
}

func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) dispatch(ctx context.Context, reg registration, d amqp.Delivery) {
	l := r.log.With("queue", reg.queueName, "rk", d.RoutingKey, "msg_id", d.MessageId)

	// deliveries already handed out finish even after shutdown starts
	hctx, cancel := context.WithTimeout(logging.WithCtx(context.WithoutCancel(ctx), l), r.callTimeout)
	err := reg.handler.Handle(hctx, d)
	cancel()

	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoison):
		l.Error("dropping poison message", "err", err, "body", string(d.Body))
		_ = d.Nack(false, false)
	default:
		l.Warn("handler error", "err", err, "requeue", r.requeueOnErr)
		_ = d.Nack(false, r.requeueOnErr)
	}
}
