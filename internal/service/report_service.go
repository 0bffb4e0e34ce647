package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockpilot/internal/document"
	"stockpilot/internal/repository"

	"github.com/shopspring/decimal"
)

type ReportService interface {
	StockStatement(ctx context.Context) (*document.StockStatement, error)
	StockStatementPDF(ctx context.Context) ([]byte, string, error)
}

type reportService struct {
	batches   repository.BatchRepository
	threshold int
	clock     Clock
	loc       *time.Location
}

func NewReportService(batches repository.BatchRepository, lowStockThreshold int, clock Clock, loc *time.Location) ReportService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{batches: batches, threshold: lowStockThreshold, clock: clock, loc: loc}
}

// StockStatement values every product at MRP, highest value first
func (s *reportService) StockStatement(ctx context.Context) (*document.StockStatement, error) {
	rows, err := s.batches.StockByProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock by product: %w", err)
	}

	st := &document.StockStatement{
		GeneratedAt: s.clock().In(s.loc),
		Threshold:   s.threshold,
		Rows:        make([]document.StatementRow, 0, len(rows)),
		GrandTotal:  decimal.Zero,
	}
	for _, r := range rows {
		avg := decimal.Zero
		if r.TotalQuantity > 0 {
			avg = r.StockValue.Div(decimal.NewFromInt(r.TotalQuantity)).Round(2)
		}
		st.Rows = append(st.Rows, document.StatementRow{
			ProductName: r.ProductName,
			Category:    r.Category,
			Quantity:    r.TotalQuantity,
			AverageMRP:  avg,
			StockValue:  r.StockValue.Round(2),
			LowStock:    r.TotalQuantity <= int64(s.threshold),
		})
		st.GrandTotal = st.GrandTotal.Add(r.StockValue)
	}
	st.GrandTotal = st.GrandTotal.Round(2)
	sort.SliceStable(st.Rows, func(i, j int) bool {
		return st.Rows[i].StockValue.GreaterThan(st.Rows[j].StockValue)
	})
	return st, nil
}

func (s *reportService) StockStatementPDF(ctx context.Context) ([]byte, string, error) {
	st, err := s.StockStatement(ctx)
	if err != nil {
		return nil, "", err
	}
	pdf, err := document.RenderStockStatement(*st)
	if err != nil {
		return nil, "", fmt.Errorf("render stock statement: %w", err)
	}
	return pdf, fmt.Sprintf("stock-statement-%s.pdf", st.GeneratedAt.Format("20060102")), nil
}
