package model

// Counter is a named monotonically increasing sequence. Rows are only ever
// touched through an atomic increment-and-read.
type Counter struct {
	ID            string `gorm:"type:varchar(100);primaryKey" json:"id"`
	SequenceValue int64  `gorm:"not null;default:0" json:"sequence_value"`
}

func (Counter) TableName() string {
	return "counters"
}

const CounterPurchaseOrder = "purchase_order"
