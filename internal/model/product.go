package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name           string `gorm:"type:varchar(255);not null" json:"product_name"`
	NormalizedName string `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Category       string `gorm:"type:varchar(100);index" json:"category"`
	TaxCode        string `gorm:"type:varchar(30)" json:"hsn_code"`
	Description    string `gorm:"type:text" json:"description"`
}

// NormalizeName is the case-insensitive identity key for products
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProductBatch is one receipt lot of a product with its own stock counter
type ProductBatch struct {
	BaseModel
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batch_product_number" json:"product_id"`
	BatchNumber     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_batch_product_number" json:"batch_number"`
	Barcode         string          `gorm:"type:varchar(100);index" json:"barcode"`
	ExpiryDate      *time.Time      `gorm:"type:date" json:"expiry_date"`
	MRP             decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"mrp"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"tax_rate"`
	QuantityInStock int64           `gorm:"not null;default:0;check:chk_batch_stock_non_negative,quantity_in_stock >= 0" json:"quantity_in_stock"`

	LatestPurchaseRate    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"latest_purchase_rate"`
	LatestTaxPercent      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"latest_tax_percent"`
	LatestDiscountPercent decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"latest_discount_percent"`
}

// Resolution tags whether a resolve-or-create call reused or inserted a row
type Resolution string

const (
	Found   Resolution = "found"
	Created Resolution = "created"
)

// BatchView is a batch flattened with its product name, used by sale search
type BatchView struct {
	BatchID         uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	BatchNumber     string          `json:"batch_number"`
	Barcode         string          `json:"barcode"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	MRP             decimal.Decimal `json:"mrp"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	QuantityInStock int64           `json:"quantity_in_stock"`
}

// ProductStock aggregates batch stock for one product
type ProductStock struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Category      string          `json:"category"`
	TaxCode       string          `json:"hsn_code"`
	TotalQuantity int64           `json:"total_quantity"`
	StockValue    decimal.Decimal `json:"stock_value"` // sum(qty * mrp)
	BatchCount    int64           `json:"batch_count"`
}

// LatestBatchDetails pre-fills purchase entry forms from the newest batch of a product
type LatestBatchDetails struct {
	BatchNumber     string          `json:"batch_number"`
	Barcode         string          `json:"barcode"`
	MRP             decimal.Decimal `json:"mrp"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	PurchaseRate    decimal.Decimal `json:"purchase_rate"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type ProductSearchResult struct {
	Product
	LatestDetails *LatestBatchDetails `json:"latest_details"`
}
