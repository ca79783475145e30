package kafka

import "time"

// Event types
const (
	EventTypeOrderShipped        = "order.shipped"
	EventTypeShipmentItemShipped = "shipment.item.shipped"
	EventTypeStockDeducted       = "stock.deducted"
	EventTypeStockReceived       = "stock.received"
)

// Kafka topics
const (
	TopicOrderShipped        = "order-shipped"
	TopicShipmentItemShipped = "shipment-item-shipped"
	TopicStockMovements      = "stock-movements"
)

// FulfillmentLineEvent is the intake shape published by the order and
// shipment subsystems when a line becomes deduction-eligible. Exactly one of
// ProductID / PackageID is set.
type FulfillmentLineEvent struct {
	EventID           string    `json:"event_id"`
	EventType         string    `json:"event_type"`
	ReferenceType     string    `json:"reference_type"`
	ReferenceID       uint      `json:"reference_id"`
	ProductID         *uint     `json:"product_id,omitempty"`
	PackageID         *uint     `json:"package_id,omitempty"`
	Quantity          int       `json:"quantity"`
	WarehouseID       *uint     `json:"warehouse_id,omitempty"`
	Channel           string    `json:"channel,omitempty"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	Timestamp         time.Time `json:"timestamp"`
}

// StockMovementEvent is published after movements are applied to the ledger.
type StockMovementEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   uint      `json:"reference_id"`
	Deducted      int       `json:"deducted"`
	Skipped       int       `json:"skipped"`
	Quantity      int       `json:"quantity,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
