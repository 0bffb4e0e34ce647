package model

import "time"

// Event types published to the websocket hub and the event topic
const (
	EventPurchaseOrderCreated       = "purchase_order.created"
	EventPurchaseOrderUpdated       = "purchase_order.updated"
	EventPurchaseOrderStatusChanged = "purchase_order.status_changed"
	EventPurchaseOrderDeleted       = "purchase_order.deleted"
	EventPurchaseRecorded           = "purchase.recorded"
	EventSaleRecorded               = "sale.recorded"
	EventProductCreated             = "product.created"
	EventUserStatus                 = "user.status"
)

type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Event struct {
	Type      string    `json:"type"`
	Key       string    `json:"key"` // partition key, usually the entity id
	Message   string    `json:"message,omitempty"`
	Actor     *Actor    `json:"user,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
