package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"mizora-service/internal/orders"
	"mizora-service/pkg/logkey"
)

type Kind string

const KindOrderConfirmation Kind = "order_confirmation"

type Result struct {
	Success bool
	Error   string
}

type Sender interface {
	Send(ctx context.Context, kind Kind, to string, data any) Result
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(_ context.Context, kind Kind, to string, data any) Result {
	if to == "" {
		return Result{Error: "no recipient"}
	}
	subject, body, err := render(kind, data)
	if err != nil {
		return Result{Error: err.Error()}
	}
	message := []byte("From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := s.sendMail(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.From, []string{to}, message); err != nil {
		slog.Error("failed to send email", slog.String("kind", string(kind)), slog.String(logkey.ERROR, err.Error()))
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}

// LogSender only logs. Used when no SMTP host is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, kind Kind, to string, _ any) Result {
	slog.Info("email not sent, smtp not configured", slog.String("kind", string(kind)), slog.String("to", to))
	return Result{Success: true}
}

func render(kind Kind, data any) (string, string, error) {
	switch kind {
	case KindOrderConfirmation:
		o, ok := data.(orders.Order)
		if !ok {
			return "", "", fmt.Errorf("order confirmation needs an order, got %T", data)
		}
		return orderConfirmation(o)
	default:
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}
}

func orderConfirmation(o orders.Order) (string, string, error) {
	ref := strings.ToUpper(o.ShortRef())
	subject := "Order Confirmation - MIZORA #" + ref

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", o.ShippingAddress.FullName)
	fmt.Fprintf(&b, "Thank you for your order! Your order #%s is confirmed and we are preparing it now.\r\n\r\n", ref)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %d x %s  ₹%.2f\r\n", it.Quantity, it.Name, it.LineTotal())
	}
	fmt.Fprintf(&b, "\r\nSubtotal: ₹%.2f\r\n", o.Total)
	if o.ShippingCost == 0 {
		b.WriteString("Shipping: Free\r\n")
	} else {
		fmt.Fprintf(&b, "Shipping: ₹%.2f\r\n", o.ShippingCost)
	}
	fmt.Fprintf(&b, "Total: ₹%.2f\r\n\r\n", o.AmountDue())
	a := o.ShippingAddress
	fmt.Fprintf(&b, "Shipping to:\r\n%s\r\n%s, %s %s\r\n%s\r\n", a.Address, a.City, a.State, a.PostalCode, a.Country)
	return subject, b.String(), nil
}
