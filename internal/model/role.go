package model

type Role struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Code        string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name        string      `gorm:"type:varchar(100)" json:"name"`
	Description string      `gorm:"type:text" json:"description"`
	Privileges  []Privilege `gorm:"many2many:role_privileges;" json:"privileges,omitempty"`
}

const (
	RoleMasterAdmin = "MASTER_ADMIN"
	RoleAdmin       = "ADMIN"
)

var DefaultRoles = []Role{
	{Code: RoleMasterAdmin, Name: "Master Administrator", Description: "Purchasing, stock and user management"},
	{Code: RoleAdmin, Name: "Store Operator", Description: "Purchasing and stock operations without user management"},
}
