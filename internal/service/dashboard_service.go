package service

import (
	"context"
	"fmt"
	"time"

	"stockpilot/internal/model"
	"stockpilot/internal/repository"

	"github.com/shopspring/decimal"
)

const maxMovementDays = 365

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]model.DailyMovement, error)
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
}

type dashboardService struct {
	reports   repository.ReportRepository
	batches   repository.BatchRepository
	threshold int64
	clock     Clock
	loc       *time.Location
}

func NewDashboardService(reports repository.ReportRepository, batches repository.BatchRepository, lowStockThreshold int, clock Clock, loc *time.Location) DashboardService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &dashboardService{
		reports:   reports,
		batches:   batches,
		threshold: int64(lowStockThreshold),
		clock:     clock,
		loc:       loc,
	}
}

// GetStockMovement returns one row per calendar day, oldest first, including
// days without any movement.
func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]model.DailyMovement, error) {
	if days <= 0 {
		days = 7
	}
	if days > maxMovementDays {
		days = maxMovementDays
	}
	now := s.clock().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	start := today.AddDate(0, 0, -(days - 1))

	inbound, err := s.reports.InboundSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("inbound movement: %w", err)
	}
	outbound, err := s.reports.OutboundSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("outbound movement: %w", err)
	}

	out := make([]model.DailyMovement, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = model.DailyMovement{Date: key}
		index[key] = i
	}
	for _, m := range inbound {
		if i, ok := index[m.At.In(s.loc).Format("2006-01-02")]; ok {
			out[i].Inbound += m.Quantity
		}
	}
	for _, m := range outbound {
		if i, ok := index[m.At.In(s.loc).Format("2006-01-02")]; ok {
			out[i].Outbound += m.Quantity
		}
	}
	return out, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	count, err := s.reports.CountProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.batches.StockByProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock by product: %w", err)
	}

	stats := &model.DashboardStats{TotalProducts: count, TotalValuation: decimal.Zero}
	for _, r := range rows {
		if r.TotalQuantity <= s.threshold {
			stats.LowStockCount++
		}
		stats.TotalValuation = stats.TotalValuation.Add(r.StockValue)
	}
	stats.TotalValuation = stats.TotalValuation.Round(2)
	return stats, nil
}
