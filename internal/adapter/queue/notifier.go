package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/EmanElbedwihy/OMS/internal/adapter/observ"
	"github.com/EmanElbedwihy/OMS/internal/entity"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/EmanElbedwihy/OMS/internal/usecase"
)

type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*entity.User, error)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain-text mail without auth (MailHog style relays).
type SMTPMailer struct {
	Host string
	Port int
	From string
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	msg := "From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		body
	return smtp.SendMail(addr, nil, m.From, []string{to}, []byte(msg))
}

// OrderNotifier emails the order's owner about order events. Mail is
// best-effort: a failed send is logged and the delivery still acked.
type OrderNotifier struct {
	users  UserDirectory
	mailer Mailer // nil: log only
}

func NewOrderNotifier(users UserDirectory, mailer Mailer) *OrderNotifier {
	return &OrderNotifier{users: users, mailer: mailer}
}

// Handle is meant for queue.JSONHandler[usecase.OrderEventMsg].
func (n *OrderNotifier) Handle(ctx context.Context, msg usecase.OrderEventMsg) error {
	log := logging.FromCtx(ctx).With("order_id", msg.OrderID, "type", msg.Type)

	subject, body, ok := renderNotification(msg)
	if !ok {
		log.Debug("no notification for event")
		observ.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}

	u, err := n.users.GetUser(ctx, msg.UserID)
	if errors.Is(err, usecase.ErrRecordNotFound) {
		log.Warn("notification for unknown user", "user_id", msg.UserID)
		observ.NotificationsSent.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		return err // transient, requeue
	}

	if n.mailer == nil {
		log.Info("notification (smtp disabled)", "to", u.ID, "subject", subject)
		observ.NotificationsSent.WithLabelValues("logged").Inc()
		return nil
	}
	if err := n.mailer.Send(ctx, u.Email, subject, body); err != nil {
		log.Warn("notification send failed", "err", err)
		observ.NotificationsSent.WithLabelValues("failed").Inc()
		return nil
	}
	observ.NotificationsSent.WithLabelValues("sent").Inc()
	return nil
}

func renderNotification(msg usecase.OrderEventMsg) (subject, body string, ok bool) {
	var b strings.Builder
	switch msg.Type {
	case usecase.EventOrderCreated:
		subject = fmt.Sprintf("Order #%d received", msg.OrderID)
		fmt.Fprintf(&b, "Thanks for your order #%d.\nTotal: %s\n", msg.OrderID, msg.Total.StringFixed(2))
	case usecase.EventOrderStatusChanged:
		subject = fmt.Sprintf("Order #%d is now %s", msg.OrderID, msg.Status)
		fmt.Fprintf(&b, "Your order #%d changed from %s to %s.\n", msg.OrderID, msg.PrevStatus, msg.Status)
	case usecase.EventOrderCouponApplied:
		subject = fmt.Sprintf("Coupon applied to order #%d", msg.OrderID)
		fmt.Fprintf(&b, "Coupon %s was applied to order #%d.\nNew total: %s\n", msg.CouponCode, msg.OrderID, msg.Total.StringFixed(2))
	default:
		return "", "", false
	}
	return subject, b.String(), true
}
