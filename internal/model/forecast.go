package model

// Forecast sources
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

type ForecastPoint struct {
	Date           string   `json:"date"`
	PredictedSales int64    `json:"predicted_sales"`
	PredictedPrice *float64 `json:"predicted_price,omitempty"`
}

type Forecast struct {
	ProductID string          `json:"product_id,omitempty"`
	Source    string          `json:"source"`
	Points    []ForecastPoint `json:"forecast"`
}

// ReorderSuggestion mirrors the reorder endpoint of the forecasting service,
// plus the quantity to order and where the numbers came from.
type ReorderSuggestion struct {
	ProductID         string  `json:"product_id"`
	ProductName       string  `json:"product_name"`
	CurrentInventory  int64   `json:"current_inventory"`
	AvgDailyUsage     float64 `json:"avg_daily_usage"`
	ReorderPoint      int64   `json:"reorder_point"`
	SafetyStock       int64   `json:"safety_stock"`
	ReorderNeeded     bool    `json:"reorder_needed"`
	DaysUntilReorder  float64 `json:"days_until_reorder"`
	LeadTimeDays      int     `json:"lead_time_days"`
	CalculatedOn      string  `json:"calculated_on"`
	SuggestedQuantity int64   `json:"suggested_quantity"`
	Source            string  `json:"source"`
}
