package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusDraft             OrderStatus = "Draft"
	StatusSent              OrderStatus = "Sent"
	StatusConfirmed         OrderStatus = "Confirmed"
	StatusPartiallyReceived OrderStatus = "Partially_Received"
	StatusReceived          OrderStatus = "Received"
	StatusCancelled         OrderStatus = "Cancelled"
)

// statusRank orders the forward chain; Cancelled sits outside it
var statusRank = map[OrderStatus]int{
	StatusDraft:             0,
	StatusSent:              1,
	StatusConfirmed:         2,
	StatusPartiallyReceived: 3,
	StatusReceived:          4,
}

var AllOrderStatuses = []OrderStatus{
	StatusDraft, StatusSent, StatusConfirmed, StatusPartiallyReceived, StatusReceived, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanTransitionTo allows forward moves along the chain (skipping is allowed)
// and cancellation from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.Valid() || !next.Valid() || s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// IsEditable reports whether order contents (vendor, items, dates) may change
func (s OrderStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusSent
}

func (s OrderStatus) IsDeletable() bool {
	return s == StatusDraft
}

type OrderPriority string

const (
	PriorityLow    OrderPriority = "Low"
	PriorityNormal OrderPriority = "Normal"
	PriorityHigh   OrderPriority = "High"
	PriorityUrgent OrderPriority = "Urgent"
)

func (p OrderPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type PurchaseOrder struct {
	BaseModel
	OrderNumber      string          `gorm:"type:varchar(40);uniqueIndex;not null" json:"order_number"`
	VendorID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	OrderDate        time.Time       `gorm:"not null;index" json:"order_date"`
	ExpectedDelivery time.Time       `gorm:"not null" json:"expected_delivery"`
	Priority         OrderPriority   `gorm:"type:varchar(10);not null;default:'Normal'" json:"priority"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;default:'Draft';index" json:"status"`
	TotalAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"total_amount"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Terms            string          `gorm:"type:text" json:"terms"`
	SentDate         *time.Time      `json:"sent_date,omitempty"`
	ConfirmedDate    *time.Time      `json:"confirmed_date,omitempty"`
	ReceivedDate     *time.Time      `json:"received_date,omitempty"`

	// Loaded explicitly by the repository / service, never by ORM association
	Items  []PurchaseOrderItem `gorm:"-" json:"items"`
	Vendor *VendorSummary      `gorm:"-" json:"vendor,omitempty"`
}

// ApplyStatus moves the order to next and stamps the lifecycle date fields
func (o *PurchaseOrder) ApplyStatus(next OrderStatus, now time.Time) {
	o.Status = next
	switch next {
	case StatusSent:
		if o.SentDate == nil {
			o.SentDate = &now
		}
	case StatusConfirmed:
		o.ConfirmedDate = &now
	case StatusReceived:
		o.ReceivedDate = &now
	}
}

type PurchaseOrderItem struct {
	BaseModel
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	LineNo           int             `gorm:"not null" json:"line_no"`
	ProductName      string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Description      string          `gorm:"type:text" json:"description"`
	Quantity         int64           `gorm:"not null" json:"quantity"`
	EstimatedRate    decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"estimated_rate"`
	ExpectedDelivery *time.Time      `json:"expected_delivery,omitempty"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Amount           decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"amount"`
}

// OrderFilter narrows order listings; zero values match everything
type OrderFilter struct {
	Status   OrderStatus
	VendorID *uuid.UUID
	Priority OrderPriority
}

type OrderStats struct {
	TotalOrders     int64           `json:"total_orders"`
	DraftOrders     int64           `json:"draft_orders"`
	SentOrders      int64           `json:"sent_orders"`
	ConfirmedOrders int64           `json:"confirmed_orders"`
	ReceivedOrders  int64           `json:"received_orders"`
	TotalValue      decimal.Decimal `json:"total_value"`
}
