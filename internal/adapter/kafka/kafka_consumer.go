package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/EmanElbedwihy/OMS/internal/usecase"
	"github.com/IBM/sarama"
)

// HandlerFunc processes a decoded event. A non-nil error means "retry later".
type HandlerFunc func(ctx context.Context, ev usecase.FulfillmentStatusMsg) error

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group      sarama.ConsumerGroup
	Topics     []string
	Handle     HandlerFunc
	RetryDelay time.Duration
	Logger     *slog.Logger
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:      group,
		Topics:     topics,
		Handle:     h,
		RetryDelay: time.Second,
		Logger:     logging.New("kafka-consumer"),
	}
}

// Start blocks until ctx is cancelled or the group fails.
func (c *Consumer) Start(ctx context.Context) error {
	go func() {
		for err := range c.Group.Errors() {
			c.Logger.Warn("consumer group error", "err", err)
		}
	}()

	handler := &cgHandler{handle: c.Handle, logger: c.Logger, retryDelay: c.RetryDelay}
	for {
		if err := c.Group.Consume(ctx, c.Topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		// When Consume returns, it's because ctx was cancelled or a rebalance happened.
		if ctx.Err() != nil {
			return nil
		}
	}
}

type cgHandler struct {
	handle     HandlerFunc
	logger     *slog.Logger
	retryDelay time.Duration
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks each message once handled. On a handler error it stops
// the claim without marking, so the message is redelivered after the session
// restarts.
func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		l := h.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

		var ev usecase.FulfillmentStatusMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			l.Error("kafka decode error", "err", err)
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}

		ctx := logging.WithCtx(sess.Context(), l)
		if err := h.handle(ctx, ev); err != nil {
			l.Warn("handler error, will retry", "err", err, "order_id", ev.OrderID)
			select {
			case <-time.After(h.retryDelay):
			case <-sess.Context().Done():
			}
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
