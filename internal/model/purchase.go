package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
	PaymentPartial PaymentStatus = "Partial"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentPending || p == PaymentPaid || p == PaymentPartial
}

// Purchase records goods actually received from a vendor
type Purchase struct {
	BaseModel
	VendorID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	BillNo        string          `gorm:"type:varchar(100);not null;index" json:"bill_no"`
	PurchaseDate  time.Time       `gorm:"not null;index" json:"purchase_date"`
	TotalAmount   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_amount"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(10);not null;default:'Pending'" json:"payment_status"`

	Vendor *VendorSummary `gorm:"-" json:"vendor,omitempty"`
}

type PurchaseItem struct {
	BaseModel
	PurchaseID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	BatchID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"batch_id"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	PurchaseRate    decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"purchase_rate"`
	TaxPercent      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"tax_percent"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0" json:"discount_percent"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"amount"`
}

// PurchaseItemDetail is an item joined with its batch and product
type PurchaseItemDetail struct {
	PurchaseItem
	BatchNumber string     `json:"batch_number"`
	Barcode     string     `json:"barcode"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	ProductID   uuid.UUID  `json:"product_id"`
	ProductName string     `json:"product_name"`
	Category    string     `json:"category"`
}

type PurchaseDetail struct {
	Purchase *Purchase           `json:"purchase"`
	Items    []PurchaseItemDetail `json:"items"`
}
