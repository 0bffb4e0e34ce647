package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "purchase_order:create"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

// Privilege codes checked by route middleware
const (
	PrivUserView            = "user:view"
	PrivUserCreate          = "user:create"
	PrivUserUpdate          = "user:update"
	PrivUserDelete          = "user:delete"
	PrivUserUpdatePrivilege = "user:update_privilege"

	PrivVendorView   = "vendor:view"
	PrivVendorManage = "vendor:manage"

	PrivProductView   = "product:view"
	PrivProductCreate = "product:create"

	PrivPurchaseView   = "purchase:view"
	PrivPurchaseCreate = "purchase:create"

	PrivPurchaseOrderView   = "purchase_order:view"
	PrivPurchaseOrderCreate = "purchase_order:create"
	PrivPurchaseOrderUpdate = "purchase_order:update"
	PrivPurchaseOrderDelete = "purchase_order:delete"

	PrivSaleView   = "sale:view"
	PrivSaleCreate = "sale:create"

	PrivReportView = "report:view"
)

var DefaultPrivileges = []Privilege{
	{Code: PrivUserView, Name: "View User"},
	{Code: PrivUserCreate, Name: "Create User"},
	{Code: PrivUserUpdate, Name: "Update User"},
	{Code: PrivUserDelete, Name: "Delete User"},
	{Code: PrivUserUpdatePrivilege, Name: "Update User Privileges"},
	{Code: PrivVendorView, Name: "View Vendor"},
	{Code: PrivVendorManage, Name: "Manage Vendor"},
	{Code: PrivProductView, Name: "View Product"},
	{Code: PrivProductCreate, Name: "Create Product"},
	{Code: PrivPurchaseView, Name: "View Purchase"},
	{Code: PrivPurchaseCreate, Name: "Record Purchase"},
	{Code: PrivPurchaseOrderView, Name: "View Purchase Order"},
	{Code: PrivPurchaseOrderCreate, Name: "Create Purchase Order"},
	{Code: PrivPurchaseOrderUpdate, Name: "Update Purchase Order"},
	{Code: PrivPurchaseOrderDelete, Name: "Delete Purchase Order"},
	{Code: PrivSaleView, Name: "View Sale"},
	{Code: PrivSaleCreate, Name: "Record Sale"},
	{Code: PrivReportView, Name: "View Reports"},
}

// IsUserAdminPrivilege marks the privileges reserved for MASTER_ADMIN
func IsUserAdminPrivilege(code string) bool {
	switch code {
	case PrivUserCreate, PrivUserUpdate, PrivUserDelete, PrivUserUpdatePrivilege:
		return true
	}
	return false
}
