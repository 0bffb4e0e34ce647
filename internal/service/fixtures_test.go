package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/internal/testutil"
	"stockpilot/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testActor = model.Actor{ID: "user-1", Name: "Asha", Email: "asha@example.com"}

func fixedClock(at time.Time) Clock {
	return func() time.Time { return at }
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// stack bundles a migrated database with real repositories
type stack struct {
	db        *gorm.DB
	counters  repository.CounterRepository
	vendors   repository.VendorRepository
	products  repository.ProductRepository
	batches   repository.BatchRepository
	orders    repository.PurchaseOrderRepository
	purchases repository.PurchaseRepository
	sales     repository.SaleRepository
	reports   repository.ReportRepository
	ledger    StockLedger
	events    *recordingPublisher
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db := testutil.NewDB(t)
	s := &stack{
		db:        db,
		counters:  repository.NewCounterRepo(db),
		vendors:   repository.NewVendorRepo(db),
		products:  repository.NewProductRepo(db),
		batches:   repository.NewBatchRepo(db),
		orders:    repository.NewPurchaseOrderRepo(db),
		purchases: repository.NewPurchaseRepo(db),
		sales:     repository.NewSaleRepo(db),
		reports:   repository.NewReportRepo(db),
		events:    &recordingPublisher{},
	}
	s.ledger = NewStockLedger(s.products, s.batches)
	return s
}

func (s *stack) sequences(clock Clock) SequenceGenerator {
	return NewSequenceGenerator(NewCounterStore(s.counters, logger.Nop()), clock, time.UTC)
}

func (s *stack) vendor(t *testing.T, name, email string) *model.Vendor {
	t.Helper()
	v := &model.Vendor{Name: name, Phone: "9876543210", Email: email, PaymentTerms: model.PaymentNet30}
	require.NoError(t, s.vendors.Create(context.Background(), v))
	return v
}

// receive books stock through the ledger the way a purchase bill does
func (s *stack) receive(t *testing.T, line ReceiptLine) *ReceiptResult {
	t.Helper()
	var res *ReceiptResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = s.ledger.ApplyReceipt(context.Background(), tx, line, testActor.ID)
		return err
	})
	require.NoError(t, err)
	return res
}

func (s *stack) stockOf(t *testing.T, res *ReceiptResult) int64 {
	t.Helper()
	b, err := s.batches.FindByID(context.Background(), res.Batch.ID)
	require.NoError(t, err)
	return b.QuantityInStock
}
