package notification

import (
	"context"
	"fmt"
	"html"
	"io"

	"stockpilot/internal/config"

	"gopkg.in/gomail.v2"
)

// mailDialer is satisfied by *gomail.Dialer
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	dialer     mailDialer
	from       string
	senderName string
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	s := &EmailSender{from: cfg.User, senderName: cfg.SenderName}
	if cfg.User != "" && cfg.Password != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return s
}

func (s *EmailSender) Channel() Channel { return ChannelEmail }

func (s *EmailSender) Configured() bool { return s.dialer != nil }

func (s *EmailSender) SendPurchaseOrder(_ context.Context, msg OrderMessage) error {
	if msg.Vendor.Email == "" {
		return fmt.Errorf("vendor has no email address")
	}
	if err := s.dialer.DialAndSend(s.buildMessage(msg)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func (s *EmailSender) buildMessage(msg OrderMessage) *gomail.Message {
	o := msg.Order
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.senderName)
	m.SetHeader("To", msg.Vendor.Email)
	m.SetHeader("Subject", fmt.Sprintf("Purchase Order %s", o.OrderNumber))
	m.SetBody("text/html", fmt.Sprintf(
		`<p>Dear %s,</p><p>Please find attached purchase order <strong>%s</strong> dated %s.</p>
<p>Expected delivery: %s<br>Total amount: Rs. %s<br>Priority: %s</p>
<p>Kindly confirm receipt of this order.</p><p>Regards,<br>%s</p>`,
		html.EscapeString(msg.Vendor.Name),
		html.EscapeString(o.OrderNumber),
		o.OrderDate.Format("02 Jan 2006"),
		o.ExpectedDelivery.Format("02 Jan 2006"),
		o.TotalAmount.StringFixed(2),
		html.EscapeString(string(o.Priority)),
		html.EscapeString(s.senderName),
	))

	if len(msg.PDF) > 0 {
		pdf := msg.PDF
		m.Attach(msg.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}))
	}
	return m
}
