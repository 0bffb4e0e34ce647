package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"stockpilot/internal/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// messageCreator is the slice of the Twilio API the sender uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type WhatsAppSender struct {
	api         messageCreator
	from        string
	countryCode string
}

func NewWhatsAppSender(cfg config.TwilioConfig) *WhatsAppSender {
	s := &WhatsAppSender{from: cfg.WhatsAppFrom, countryCode: cfg.DefaultCountryCode}
	if cfg.AccountSID != "" && cfg.AuthToken != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		s.api = client.Api
	}
	return s
}

func (s *WhatsAppSender) Channel() Channel { return ChannelWhatsApp }

func (s *WhatsAppSender) Configured() bool {
	return s.api != nil && s.from != ""
}

func (s *WhatsAppSender) SendPurchaseOrder(_ context.Context, msg OrderMessage) error {
	to, err := FormatWhatsAppNumber(msg.Vendor.Phone, s.countryCode)
	if err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsappAddress(s.from))
	params.SetTo(whatsappAddress(to))
	params.SetBody(whatsappBody(msg))

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio: %w", err)
	}
	return nil
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

func whatsappBody(msg OrderMessage) string {
	o := msg.Order
	return fmt.Sprintf("*Purchase Order %s*\nDear %s,\n\nPlease find our order dated %s, expected by %s.\n\n%s\n*Total: Rs. %s*\nPriority: %s",
		o.OrderNumber,
		msg.Vendor.Name,
		o.OrderDate.Format("02 Jan 2006"),
		o.ExpectedDelivery.Format("02 Jan 2006"),
		orderSummary(o),
		o.TotalAmount.StringFixed(2),
		o.Priority,
	)
}

// FormatWhatsAppNumber normalises a vendor phone number to E.164. Ten-digit
// local numbers get the default country code.
func FormatWhatsAppNumber(phone, countryCode string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	digits = strings.TrimLeft(digits, "0")

	switch {
	case len(digits) == 10:
		return "+" + countryCode + digits, nil
	case len(digits) > 10 && len(digits) <= 15:
		return "+" + digits, nil
	default:
		return "", errors.New("invalid vendor phone number")
	}
}
