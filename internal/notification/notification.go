// Package notification sends purchase orders to vendors over WhatsApp and email.
package notification

import (
	"context"
	"fmt"
	"strings"

	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"go.uber.org/zap"
)

type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// Result is the outcome of one channel. A failed channel never fails the order.
type Result struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Skipped bool    `json:"skipped,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Sender delivers a rendered purchase order over one channel
type Sender interface {
	Channel() Channel
	Configured() bool
	SendPurchaseOrder(ctx context.Context, msg OrderMessage) error
}

// OrderMessage carries everything a sender needs; the PDF is rendered once
type OrderMessage struct {
	Order    *model.PurchaseOrder
	Vendor   *model.VendorSummary
	PDF      []byte
	Filename string
}

// RenderFunc builds the PDF attachment for an order
type RenderFunc func(order *model.PurchaseOrder, vendor *model.VendorSummary) ([]byte, string, error)

type Dispatcher interface {
	NotifyPurchaseOrder(ctx context.Context, order *model.PurchaseOrder, vendor *model.VendorSummary, channels []Channel) []Result
	Status() map[Channel]bool
}

type dispatcher struct {
	senders map[Channel]Sender
	render  RenderFunc
	log     logger.Logger
}

func NewDispatcher(render RenderFunc, log logger.Logger, senders ...Sender) Dispatcher {
	m := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		m[s.Channel()] = s
	}
	return &dispatcher{senders: m, render: render, log: log.Named("notification")}
}

// NotifyPurchaseOrder tries every requested channel and reports each result
func (d *dispatcher) NotifyPurchaseOrder(ctx context.Context, order *model.PurchaseOrder, vendor *model.VendorSummary, channels []Channel) []Result {
	if len(channels) == 0 {
		return nil
	}

	msg := OrderMessage{Order: order, Vendor: vendor}
	var renderErr error
	if d.render != nil {
		msg.PDF, msg.Filename, renderErr = d.render(order, vendor)
	}

	results := make([]Result, 0, len(channels))
	for _, ch := range channels {
		res := Result{Channel: ch}
		sender, ok := d.senders[ch]
		switch {
		case !ok:
			res.Error = fmt.Sprintf("unknown channel %q", ch)
		case !sender.Configured():
			res.Skipped = true
			res.Error = "channel not configured"
		case vendor == nil:
			res.Error = "vendor contact details unavailable"
		case ch == ChannelEmail && renderErr != nil:
			res.Error = "render attachment: " + renderErr.Error()
		default:
			if err := sender.SendPurchaseOrder(ctx, msg); err != nil {
				res.Error = err.Error()
			} else {
				res.Success = true
			}
		}

		if !res.Success {
			d.log.Warn("purchase order notification not delivered",
				zap.String("channel", string(ch)),
				zap.String("order_number", order.OrderNumber),
				zap.String("reason", res.Error))
		}
		results = append(results, res)
	}
	return results
}

func (d *dispatcher) Status() map[Channel]bool {
	out := make(map[Channel]bool, len(d.senders))
	for ch, s := range d.senders {
		out[ch] = s.Configured()
	}
	return out
}

// ParseChannels maps request flags onto channels
func ParseChannels(whatsapp, email bool) []Channel {
	var out []Channel
	if whatsapp {
		out = append(out, ChannelWhatsApp)
	}
	if email {
		out = append(out, ChannelEmail)
	}
	return out
}

func orderSummary(order *model.PurchaseOrder) string {
	var b strings.Builder
	for i, it := range order.Items {
		fmt.Fprintf(&b, "%d. %s x %d @ Rs. %s\n", i+1, it.ProductName, it.Quantity, it.EstimatedRate.StringFixed(2))
	}
	return b.String()
}
