package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"stockpilot/internal/config"
	"stockpilot/internal/forecast"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const forecastHorizonDays = 7

// ForecastService proxies the forecasting collaborator and substitutes a
// deterministic local estimate whenever it is unavailable.
type ForecastService interface {
	GeneralForecast(ctx context.Context) (*model.Forecast, error)
	ProductForecast(ctx context.Context, productID uuid.UUID) (*model.Forecast, error)
	Reorder(ctx context.Context, productID uuid.UUID) (*model.ReorderSuggestion, error)
}

type forecastService struct {
	remote   forecast.Client
	products repository.ProductRepository
	batches  repository.BatchRepository
	reports  repository.ReportRepository
	cfg      config.ForecastConfig
	clock    Clock
	loc      *time.Location
	log      logger.Logger
}

func NewForecastService(
	remote forecast.Client,
	products repository.ProductRepository,
	batches repository.BatchRepository,
	reports repository.ReportRepository,
	cfg config.ForecastConfig,
	clock Clock,
	loc *time.Location,
	log logger.Logger,
) ForecastService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	if cfg.LeadTimeDays <= 0 {
		cfg.LeadTimeDays = 7
	}
	if cfg.SafetyFactor <= 0 {
		cfg.SafetyFactor = 1.5
	}
	if cfg.UsageWindowDay <= 0 {
		cfg.UsageWindowDay = 30
	}
	return &forecastService{
		remote:   remote,
		products: products,
		batches:  batches,
		reports:  reports,
		cfg:      cfg,
		clock:    clock,
		loc:      loc,
		log:      log.Named("forecast"),
	}
}

func (s *forecastService) GeneralForecast(ctx context.Context) (*model.Forecast, error) {
	if s.remote != nil {
		points, err := s.remote.GeneralForecast(ctx)
		if err == nil {
			return &model.Forecast{Source: model.SourceRemote, Points: points}, nil
		}
		s.log.Warn("remote forecast unavailable, using local estimate", zap.Error(err))
	}

	since := s.windowStart()
	rows, err := s.reports.OutboundSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("units sold: %w", err)
	}
	var sold int64
	for _, r := range rows {
		sold += r.Quantity
	}
	return &model.Forecast{Source: model.SourceFallback, Points: s.flatForecast(sold)}, nil
}

func (s *forecastService) ProductForecast(ctx context.Context, productID uuid.UUID) (*model.Forecast, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFoundOr(err, "product %s not found", productID)
	}
	if s.remote != nil {
		points, err := s.remote.ProductForecast(ctx, productID.String())
		if err == nil {
			return &model.Forecast{ProductID: productID.String(), Source: model.SourceRemote, Points: points}, nil
		}
		s.log.Warn("remote product forecast unavailable, using local estimate",
			zap.String("product_id", productID.String()), zap.Error(err))
	}

	sold, err := s.reports.UnitsSoldSince(ctx, productID, s.windowStart())
	if err != nil {
		return nil, fmt.Errorf("units sold: %w", err)
	}
	return &model.Forecast{ProductID: productID.String(), Source: model.SourceFallback, Points: s.flatForecast(sold)}, nil
}

func (s *forecastService) Reorder(ctx context.Context, productID uuid.UUID) (*model.ReorderSuggestion, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "product %s not found", productID)
	}
	stock, err := s.batches.TotalStock(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("total stock: %w", err)
	}

	if s.remote != nil {
		remote, err := s.remote.ReorderPoint(ctx, productID.String())
		if err == nil {
			remote.ProductID = productID.String()
			remote.ProductName = product.Name
			remote.CurrentInventory = stock
			remote.ReorderNeeded = stock <= remote.ReorderPoint
			remote.SuggestedQuantity = SuggestedQuantity(float64(remote.ReorderPoint), stock)
			remote.Source = model.SourceRemote
			return remote, nil
		}
		s.log.Warn("remote reorder point unavailable, using local estimate",
			zap.String("product_id", productID.String()), zap.Error(err))
	}

	sold, err := s.reports.UnitsSoldSince(ctx, productID, s.windowStart())
	if err != nil {
		return nil, fmt.Errorf("units sold: %w", err)
	}
	suggestion := LocalReorder(sold, s.cfg.UsageWindowDay, stock, s.cfg.LeadTimeDays, s.cfg.SafetyFactor)
	suggestion.ProductID = productID.String()
	suggestion.ProductName = product.Name
	suggestion.CalculatedOn = s.clock().In(s.loc).Format("2006-01-02")
	return suggestion, nil
}

func (s *forecastService) windowStart() time.Time {
	return s.clock().AddDate(0, 0, -s.cfg.UsageWindowDay)
}

// flatForecast projects the average daily usage over the horizon
func (s *forecastService) flatForecast(sold int64) []model.ForecastPoint {
	avg := float64(sold) / float64(s.cfg.UsageWindowDay)
	daily := int64(math.Round(avg))
	start := s.clock().In(s.loc)
	points := make([]model.ForecastPoint, forecastHorizonDays)
	for i := range points {
		points[i] = model.ForecastPoint{
			Date:           start.AddDate(0, 0, i+1).Format("2006-01-02"),
			PredictedSales: daily,
		}
	}
	return points
}

// LocalReorder estimates a reorder point from recent sales:
// safety = avg x factor x sqrt(lead), reorder point = avg x lead + safety.
func LocalReorder(unitsSold int64, windowDays int, stock int64, leadDays int, safetyFactor float64) *model.ReorderSuggestion {
	avg := float64(unitsSold) / float64(windowDays)
	safety := avg * safetyFactor * math.Sqrt(float64(leadDays))
	reorderPoint := avg*float64(leadDays) + safety

	days := 0.0
	if avg > 0 {
		days = math.Max(0, (float64(stock)-reorderPoint)/avg)
	}
	return &model.ReorderSuggestion{
		CurrentInventory:  stock,
		AvgDailyUsage:     math.Round(avg*100) / 100,
		ReorderPoint:      int64(math.Round(reorderPoint)),
		SafetyStock:       int64(math.Round(safety)),
		ReorderNeeded:     float64(stock) <= reorderPoint,
		DaysUntilReorder:  math.Round(days*10) / 10,
		LeadTimeDays:      leadDays,
		SuggestedQuantity: SuggestedQuantity(reorderPoint, stock),
		Source:            model.SourceFallback,
	}
}

// SuggestedQuantity is how many units bring stock back up to the reorder point
func SuggestedQuantity(reorderPoint float64, stock int64) int64 {
	q := math.Ceil(reorderPoint - float64(stock))
	if q < 0 {
		return 0
	}
	return int64(q)
}
