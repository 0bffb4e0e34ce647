package model

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&Privilege{},
		&Role{},
		&User{},
		&Counter{},
		&Vendor{},
		&Product{},
		&ProductBatch{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
		&Purchase{},
		&PurchaseItem{},
		&Sale{},
		&SaleItem{},
	}
}
