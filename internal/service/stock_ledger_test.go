package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"stockpilot/internal/apperror"
	"stockpilot/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func receiptLine(product, batch, barcode string, qty int64) ReceiptLine {
	return ReceiptLine{
		ProductName:  product,
		BatchNumber:  batch,
		Barcode:      barcode,
		Quantity:     qty,
		MRP:          decimal.NewFromInt(50),
		PurchaseRate: decimal.NewFromInt(30),
		TaxPercent:   decimal.NewFromInt(12),
	}
}

func consume(s *stack, lines ...ConsumptionLine) ([]ConsumptionResult, error) {
	var out []ConsumptionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		out, err = s.ledger.ApplyConsumption(context.Background(), tx, lines, testActor.ID)
		return err
	})
	return out, err
}

func TestApplyReceiptCreatesThenFinds(t *testing.T) {
	s := newStack(t)

	first := s.receive(t, receiptLine("Paracetamol 500", "B-1", "8901", 10))
	assert.Equal(t, model.Created, first.ProductResolution)
	assert.Equal(t, model.Created, first.BatchResolution)
	assert.Equal(t, int64(10), first.Batch.QuantityInStock)
	assert.Equal(t, testActor.ID, first.Product.CreatedBy)

	second := s.receive(t, receiptLine("  paracetamol 500 ", "B-1", "", 5))
	assert.Equal(t, model.Found, second.ProductResolution)
	assert.Equal(t, model.Found, second.BatchResolution)
	assert.Equal(t, first.Product.ID, second.Product.ID)
	assert.Equal(t, first.Batch.ID, second.Batch.ID)
	assert.Equal(t, int64(15), second.Batch.QuantityInStock)
	assert.Equal(t, "8901", second.Batch.Barcode, "empty barcode keeps the recorded one")

	third := s.receive(t, receiptLine("Paracetamol 500", "B-2", "8902", 4))
	assert.Equal(t, model.Found, third.ProductResolution)
	assert.Equal(t, model.Created, third.BatchResolution)

	total, err := s.batches.TotalStock(context.Background(), first.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(19), total)
}

func TestApplyReceiptUpdatesLatestTerms(t *testing.T) {
	s := newStack(t)
	expiry := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	line := receiptLine("Cough Syrup", "CS-1", "777", 3)
	line.ExpiryDate = &expiry
	s.receive(t, line)

	line = receiptLine("Cough Syrup", "CS-1", "777", 2)
	line.PurchaseRate = decimal.RequireFromString("32.5")
	line.DiscountPercent = decimal.NewFromInt(5)
	res := s.receive(t, line)

	assert.True(t, res.Batch.LatestPurchaseRate.Equal(decimal.RequireFromString("32.5")))
	assert.True(t, res.Batch.LatestDiscountPercent.Equal(decimal.NewFromInt(5)))
	assert.True(t, res.Batch.MRP.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, res.Batch.ExpiryDate)
	assert.Equal(t, "2026-12-31", res.Batch.ExpiryDate.Format("2006-01-02"))
}

func TestApplyReceiptRejectsBadLines(t *testing.T) {
	s := newStack(t)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, err := s.ledger.ApplyReceipt(context.Background(), tx, receiptLine("Gauze", "G-1", "", 0), testActor.ID)
		return err
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		_, err := s.ledger.ApplyReceipt(context.Background(), tx, receiptLine("", "G-1", "", 2), testActor.ID)
		return err
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestApplyConsumptionDecrements(t *testing.T) {
	s := newStack(t)
	res := s.receive(t, receiptLine("Bandage", "BD-1", "555", 10))

	out, err := consume(s, ConsumptionLine{ProductName: "BANDAGE", BatchNumber: "BD-1", Barcode: "555", Quantity: 4})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(6), out[0].Remaining)
	assert.Equal(t, int64(6), s.stockOf(t, res))

	// stock may reach exactly zero
	_, err = consume(s, ConsumptionLine{ProductName: "Bandage", BatchNumber: "BD-1", Barcode: "555", Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.stockOf(t, res))

	_, err = consume(s, ConsumptionLine{ProductName: "Bandage", BatchNumber: "BD-1", Barcode: "555", Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, int64(0), s.stockOf(t, res))
}

func TestApplyConsumptionFailsWholeBillBeforeMutating(t *testing.T) {
	s := newStack(t)

	receipts := make([]*ReceiptResult, 5)
	lines := make([]ConsumptionLine, 5)
	for i := range receipts {
		name := fmt.Sprintf("Item %d", i+1)
		batch := fmt.Sprintf("L-%d", i+1)
		barcode := fmt.Sprintf("100%d", i+1)
		receipts[i] = s.receive(t, receiptLine(name, batch, barcode, 10))
		lines[i] = ConsumptionLine{ProductName: name, BatchNumber: batch, Barcode: barcode, Quantity: 2}
	}
	lines[2].Quantity = 11

	_, err := consume(s, lines...)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Item 3")

	for i, r := range receipts {
		assert.Equal(t, int64(10), s.stockOf(t, r), "batch %d must be untouched", i+1)
	}
}

func TestApplyConsumptionAggregatesRepeatedBatch(t *testing.T) {
	s := newStack(t)
	res := s.receive(t, receiptLine("Syringe", "SY-1", "42", 10))

	line := ConsumptionLine{ProductName: "Syringe", BatchNumber: "SY-1", Barcode: "42", Quantity: 6}
	_, err := consume(s, line, line)
	assert.ErrorIs(t, err, apperror.ErrInsufficientStock)
	assert.Equal(t, int64(10), s.stockOf(t, res))

	line.Quantity = 5
	out, err := consume(s, line, line)
	require.NoError(t, err)
	assert.Equal(t, int64(5), out[0].Remaining)
	assert.Equal(t, int64(0), out[1].Remaining)
}

func TestApplyConsumptionLookupErrors(t *testing.T) {
	s := newStack(t)
	s.receive(t, receiptLine("Syringe", "SY-1", "42", 10))

	_, err := consume(s, ConsumptionLine{ProductName: "Syringe", BatchNumber: "SY-9", Barcode: "42", Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = consume(s, ConsumptionLine{ProductName: "Gloves", BatchNumber: "SY-1", Barcode: "42", Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.NotEmpty(t, apperror.FieldsOf(err))

	_, err = consume(s)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
