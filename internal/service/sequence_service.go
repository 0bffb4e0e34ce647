package service

import (
	"context"
	"fmt"
	"time"

	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"go.uber.org/zap"
)

// CounterStore hands out named, strictly increasing integers shared by all
// instances of the service.
type CounterStore interface {
	IncrementAndGet(ctx context.Context, name string) (int64, error)
	Current(ctx context.Context, name string) (int64, error)
}

type counterStore struct {
	repo repository.CounterRepository
	log  logger.Logger
}

func NewCounterStore(repo repository.CounterRepository, log logger.Logger) CounterStore {
	return &counterStore{repo: repo, log: log.Named("counter")}
}

// IncrementAndGet retries a failed atomic increment exactly once. There is
// no read-then-write fallback: a second failure is returned to the caller.
func (s *counterStore) IncrementAndGet(ctx context.Context, name string) (int64, error) {
	value, err := s.repo.Increment(ctx, name)
	if err == nil {
		return value, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, fmt.Errorf("increment counter %q: %w", name, err)
	}

	s.log.Warn("counter increment failed, retrying", zap.String("counter", name), zap.Error(err))
	value, err = s.repo.Increment(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("increment counter %q after retry: %w", name, err)
	}
	return value, nil
}

func (s *counterStore) Current(ctx context.Context, name string) (int64, error) {
	value, err := s.repo.Current(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("read counter %q: %w", name, err)
	}
	return value, nil
}

// SequenceGenerator mints human-readable document numbers
type SequenceGenerator interface {
	NextPurchaseOrderNumber(ctx context.Context) (string, error)
	PreviewPurchaseOrderNumber(ctx context.Context) (string, error)
	NextBillNumber(ctx context.Context) (string, error)
	PreviewBillNumber(ctx context.Context) (string, error)
}

type sequenceGenerator struct {
	counters CounterStore
	clock    Clock
	loc      *time.Location
}

func NewSequenceGenerator(counters CounterStore, clock Clock, loc *time.Location) SequenceGenerator {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &sequenceGenerator{counters: counters, clock: clock, loc: loc}
}

// FormatPurchaseOrderNumber renders PO-YYYY-MM-NNNN; the sequence widens past four digits
func FormatPurchaseOrderNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("PO-%04d-%02d-%04d", at.Year(), int(at.Month()), seq)
}

func FormatBillNumber(at time.Time, seq int64) string {
	return fmt.Sprintf("BILL-%s-%04d", at.Format("20060102"), seq)
}

func billCounterName(at time.Time) string {
	return "sale_bill:" + at.Format("20060102")
}

// NextPurchaseOrderNumber uses the wall-clock date at call time, not the order date
func (g *sequenceGenerator) NextPurchaseOrderNumber(ctx context.Context) (string, error) {
	now := g.clock().In(g.loc)
	n, err := g.counters.IncrementAndGet(ctx, model.CounterPurchaseOrder)
	if err != nil {
		return "", err
	}
	return FormatPurchaseOrderNumber(now, n), nil
}

// PreviewPurchaseOrderNumber does not reserve anything and may be stale by the time an order is created
func (g *sequenceGenerator) PreviewPurchaseOrderNumber(ctx context.Context) (string, error) {
	now := g.clock().In(g.loc)
	n, err := g.counters.Current(ctx, model.CounterPurchaseOrder)
	if err != nil {
		return "", err
	}
	return FormatPurchaseOrderNumber(now, n+1), nil
}

func (g *sequenceGenerator) NextBillNumber(ctx context.Context) (string, error) {
	now := g.clock().In(g.loc)
	n, err := g.counters.IncrementAndGet(ctx, billCounterName(now))
	if err != nil {
		return "", err
	}
	return FormatBillNumber(now, n), nil
}

func (g *sequenceGenerator) PreviewBillNumber(ctx context.Context) (string, error) {
	now := g.clock().In(g.loc)
	n, err := g.counters.Current(ctx, billCounterName(now))
	if err != nil {
		return "", err
	}
	return FormatBillNumber(now, n+1), nil
}
