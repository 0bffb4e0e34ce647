package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusConfirmed, true},
		{StatusDraft, StatusReceived, true},
		{StatusSent, StatusPartiallyReceived, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusPartiallyReceived, StatusReceived, true},
		{StatusSent, StatusDraft, false},
		{StatusSent, StatusSent, false},
		{StatusReceived, StatusCancelled, false},
		{StatusCancelled, StatusDraft, false},
		{StatusDraft, OrderStatus("Shipped"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusGuards(t *testing.T) {
	assert.True(t, StatusDraft.IsEditable())
	assert.True(t, StatusSent.IsEditable())
	assert.False(t, StatusConfirmed.IsEditable())
	assert.False(t, StatusReceived.IsEditable())

	assert.True(t, StatusDraft.IsDeletable())
	assert.False(t, StatusSent.IsDeletable())
}

func TestApplyStatusStampsDates(t *testing.T) {
	first := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	o := &PurchaseOrder{Status: StatusDraft}
	o.ApplyStatus(StatusSent, first)
	assert.Equal(t, StatusSent, o.Status)
	assert.Equal(t, first, *o.SentDate)

	o.ApplyStatus(StatusConfirmed, later)
	assert.Equal(t, later, *o.ConfirmedDate)
	assert.Equal(t, first, *o.SentDate)
	assert.Nil(t, o.ReceivedDate)

	o.ApplyStatus(StatusReceived, later)
	assert.Equal(t, later, *o.ReceivedDate)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "paracetamol 500", NormalizeName("  Paracetamol 500 "))
}
