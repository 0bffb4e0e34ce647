package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stockpilot/internal/model"
	"stockpilot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncrementsMonotonically(t *testing.T) {
	s := newStack(t)
	store := NewCounterStore(s.counters, logger.Nop())
	ctx := context.Background()

	cur, err := store.Current(ctx, "widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(0), cur)

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrementAndGet(ctx, "widgets")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := store.IncrementAndGet(ctx, "gadgets")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "counters are independent")
}

func TestCounterConcurrentIncrementsAreUnique(t *testing.T) {
	s := newStack(t)
	store := NewCounterStore(s.counters, logger.Nop())

	const workers = 25
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int64]bool)
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.IncrementAndGet(context.Background(), model.CounterPurchaseOrder)
			assert.NoError(t, err)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "missing value %d", i)
	}
}

type flakyCounterRepo struct {
	failures int
	calls    int
	value    int64
}

func (f *flakyCounterRepo) Increment(context.Context, string) (int64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, errors.New("connection reset")
	}
	f.value++
	return f.value, nil
}

func (f *flakyCounterRepo) Current(context.Context, string) (int64, error) { return f.value, nil }

func TestCounterRetriesOnce(t *testing.T) {
	repo := &flakyCounterRepo{failures: 1}
	v, err := NewCounterStore(repo, logger.Nop()).IncrementAndGet(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.Equal(t, 2, repo.calls)

	repo = &flakyCounterRepo{failures: 2}
	_, err = NewCounterStore(repo, logger.Nop()).IncrementAndGet(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 2, repo.calls, "no third attempt")
}

func TestFormatPurchaseOrderNumber(t *testing.T) {
	at := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "PO-2025-03-0001", FormatPurchaseOrderNumber(at, 1))
	assert.Equal(t, "PO-2025-03-9999", FormatPurchaseOrderNumber(at, 9999))
	assert.Equal(t, "PO-2025-03-10000", FormatPurchaseOrderNumber(at, 10000))
	assert.Equal(t, "BILL-20250315-0042", FormatBillNumber(at, 42))
}

func TestPreviewDoesNotReserve(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	seq := s.sequences(fixedClock(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)))

	preview, err := seq.PreviewPurchaseOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-03-0001", preview)

	again, err := seq.PreviewPurchaseOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, preview, again)

	// another caller takes the previewed number first
	taken, err := seq.NextPurchaseOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-03-0001", taken)

	mine, err := seq.NextPurchaseOrderNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PO-2025-03-0002", mine)
}

func TestBillNumbersRestartEachDay(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	day := time.Date(2025, 3, 15, 18, 0, 0, 0, time.UTC)

	first, err := s.sequences(fixedClock(day)).NextBillNumber(ctx)
	require.NoError(t, err)
	second, err := s.sequences(fixedClock(day)).NextBillNumber(ctx)
	require.NoError(t, err)
	nextDay, err := s.sequences(fixedClock(day.Add(24 * time.Hour))).NextBillNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, "BILL-20250315-0001", first)
	assert.Equal(t, "BILL-20250315-0002", second)
	assert.Equal(t, "BILL-20250316-0001", nextDay)
}
