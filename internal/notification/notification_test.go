package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	channel    Channel
	configured bool
	err        error
	sent       []OrderMessage
}

func (f *fakeSender) Channel() Channel { return f.channel }
func (f *fakeSender) Configured() bool { return f.configured }
func (f *fakeSender) SendPurchaseOrder(_ context.Context, msg OrderMessage) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func sampleOrder() *model.PurchaseOrder {
	return &model.PurchaseOrder{
		OrderNumber:      "PO-2025-09-0007",
		OrderDate:        time.Date(2025, 9, 3, 0, 0, 0, 0, time.UTC),
		ExpectedDelivery: time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC),
		Priority:         model.PriorityHigh,
		TotalAmount:      decimal.RequireFromString("30.00"),
		Items: []model.PurchaseOrderItem{
			{ProductName: "Widget", Quantity: 3, EstimatedRate: decimal.NewFromInt(10)},
		},
	}
}

func sampleVendor() *model.VendorSummary {
	return &model.VendorSummary{Name: "Acme", Phone: "98765 43210", Email: "orders@acme.test"}
}

func renderStub(order *model.PurchaseOrder, _ *model.VendorSummary) ([]byte, string, error) {
	return []byte("%PDF-stub"), order.OrderNumber + ".pdf", nil
}

func TestDispatcherReportsEachChannel(t *testing.T) {
	wa := &fakeSender{channel: ChannelWhatsApp, configured: true, err: errors.New("twilio: 401")}
	mail := &fakeSender{channel: ChannelEmail, configured: true}
	d := NewDispatcher(renderStub, logger.Nop(), wa, mail)

	results := d.NotifyPurchaseOrder(context.Background(), sampleOrder(), sampleVendor(), []Channel{ChannelWhatsApp, ChannelEmail})

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Equal(t, "twilio: 401", results[0].Error)
	assert.True(t, results[1].Success)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, []byte("%PDF-stub"), mail.sent[0].PDF)
	assert.Equal(t, "PO-2025-09-0007.pdf", mail.sent[0].Filename)
}

func TestDispatcherSkipsUnconfiguredChannel(t *testing.T) {
	wa := &fakeSender{channel: ChannelWhatsApp}
	d := NewDispatcher(renderStub, logger.Nop(), wa)

	results := d.NotifyPurchaseOrder(context.Background(), sampleOrder(), sampleVendor(), []Channel{ChannelWhatsApp, ChannelEmail})

	require.Len(t, results, 2)
	assert.True(t, results[0].Skipped)
	assert.Empty(t, wa.sent)
	assert.Contains(t, results[1].Error, "unknown channel")
	assert.Equal(t, map[Channel]bool{ChannelWhatsApp: false}, d.Status())
}

func TestDispatcherNoChannels(t *testing.T) {
	d := NewDispatcher(renderStub, logger.Nop())
	assert.Nil(t, d.NotifyPurchaseOrder(context.Background(), sampleOrder(), sampleVendor(), nil))
}

func TestParseChannels(t *testing.T) {
	assert.Equal(t, []Channel{ChannelWhatsApp, ChannelEmail}, ParseChannels(true, true))
	assert.Equal(t, []Channel{ChannelEmail}, ParseChannels(false, true))
	assert.Nil(t, ParseChannels(false, false))
}

func TestFormatWhatsAppNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "98765 43210", want: "+919876543210"},
		{in: "098765-43210", want: "+919876543210"},
		{in: "+44 20 7946 0958", want: "+442079460958"},
		{in: "12345", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := FormatWhatsAppNumber(tc.in, "91")
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

type fakeTwilio struct {
	params *twilioApi.CreateMessageParams
}

func (f *fakeTwilio) CreateMessage(p *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = p
	return &twilioApi.ApiV2010Message{}, nil
}

func TestWhatsAppSenderBuildsMessage(t *testing.T) {
	api := &fakeTwilio{}
	s := &WhatsAppSender{api: api, from: "+14155238886", countryCode: "91"}
	require.True(t, s.Configured())

	err := s.SendPurchaseOrder(context.Background(), OrderMessage{Order: sampleOrder(), Vendor: sampleVendor()})
	require.NoError(t, err)

	require.NotNil(t, api.params.To)
	assert.Equal(t, "whatsapp:+919876543210", *api.params.To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params.From)
	assert.Contains(t, *api.params.Body, "PO-2025-09-0007")
	assert.Contains(t, *api.params.Body, "Widget x 3")
}

type fakeDialer struct {
	messages []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return nil
}

func TestEmailSenderAttachesPDF(t *testing.T) {
	dialer := &fakeDialer{}
	s := &EmailSender{dialer: dialer, from: "purchasing@stockpilot.test", senderName: "Purchasing"}

	err := s.SendPurchaseOrder(context.Background(), OrderMessage{
		Order:    sampleOrder(),
		Vendor:   sampleVendor(),
		PDF:      []byte("%PDF-stub"),
		Filename: "PurchaseOrder_PO-2025-09-0007.pdf",
	})
	require.NoError(t, err)
	require.Len(t, dialer.messages, 1)

	m := dialer.messages[0]
	assert.Equal(t, []string{"orders@acme.test"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Purchase Order PO-2025-09-0007"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "PurchaseOrder_PO-2025-09-0007.pdf"))
}

func TestEmailSenderRequiresVendorEmail(t *testing.T) {
	s := &EmailSender{dialer: &fakeDialer{}}
	v := sampleVendor()
	v.Email = ""
	err := s.SendPurchaseOrder(context.Background(), OrderMessage{Order: sampleOrder(), Vendor: v})
	assert.Error(t, err)
}
