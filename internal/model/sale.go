package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PayCash PaymentMethod = "CASH"
	PayCard PaymentMethod = "CARD"
	PayUPI  PaymentMethod = "UPI"
)

func (p PaymentMethod) Valid() bool {
	return p == PayCash || p == PayCard || p == PayUPI
}

type Sale struct {
	BaseModel
	Date               time.Time       `gorm:"not null;index" json:"date"`
	CustomerName       string          `gorm:"type:varchar(255);default:'Cash Customer'" json:"customer_name"`
	CustomerPhone      string          `gorm:"type:varchar(30)" json:"customer_phone"`
	CustomerEmail      string          `gorm:"type:varchar(255)" json:"customer_email"`
	BillNo             string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"bill_no"`
	Subtotal           decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"subtotal"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"discount_amount"`
	Tax                decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"tax"`
	Total              decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total"`
	PaymentMethod      PaymentMethod   `gorm:"type:varchar(10);not null;default:'CARD'" json:"payment_method"`
}

type SaleItem struct {
	BaseModel
	SaleID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	BatchID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"batch_id"`
	ProductName        string          `gorm:"type:varchar(255);not null" json:"product_name"`
	BatchNumber        string          `gorm:"type:varchar(100);not null" json:"batch_number"`
	Barcode            string          `gorm:"type:varchar(100)" json:"barcode"`
	QuantitySold       int64           `gorm:"not null" json:"quantity_sold"`
	SellingPrice       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"selling_price"`
	MRP                decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"mrp"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"discount_percentage"`
	Amount             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	ExpiryDate         *time.Time      `gorm:"type:date" json:"expiry_date,omitempty"`
}

type SaleDetail struct {
	Sale  *Sale      `json:"sale"`
	Items []SaleItem `json:"items"`
}

// QuantityAt is one dated stock movement, aggregated into DailyMovement
type QuantityAt struct {
	At       time.Time
	Quantity int64
}

// DailyMovement is received vs sold units for one calendar day
type DailyMovement struct {
	Date     string `json:"date"`
	Inbound  int64  `json:"inbound"`
	Outbound int64  `json:"outbound"`
}

type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}
