package model

type PaymentTerms string

const (
	PaymentNet15     PaymentTerms = "Net 15"
	PaymentNet30     PaymentTerms = "Net 30"
	PaymentNet45     PaymentTerms = "Net 45"
	PaymentNet60     PaymentTerms = "Net 60"
	PaymentImmediate PaymentTerms = "Immediate"
)

type Vendor struct {
	BaseModel
	Name         string       `gorm:"type:varchar(255);not null;index" json:"vendor_name"`
	Phone        string       `gorm:"type:varchar(30);not null" json:"phone"`
	Email        string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_vendors_email_live,where:deleted_at IS NULL" json:"email"`
	Address      string       `gorm:"type:text" json:"address"`
	GSTNumber    string       `gorm:"type:varchar(30)" json:"gst_number"`
	PaymentTerms PaymentTerms `gorm:"type:varchar(20);default:'Net 30'" json:"payment_terms"`
}

// VendorSummary is the vendor shape embedded in order and purchase responses
type VendorSummary struct {
	ID           string       `json:"id"`
	Name         string       `json:"vendor_name"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email"`
	Address      string       `json:"address,omitempty"`
	GSTNumber    string       `json:"gst_number,omitempty"`
	PaymentTerms PaymentTerms `json:"payment_terms,omitempty"`
}

func (v *Vendor) Summary() *VendorSummary {
	if v == nil {
		return nil
	}
	return &VendorSummary{
		ID:           v.ID.String(),
		Name:         v.Name,
		Phone:        v.Phone,
		Email:        v.Email,
		Address:      v.Address,
		GSTNumber:    v.GSTNumber,
		PaymentTerms: v.PaymentTerms,
	}
}
