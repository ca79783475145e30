package domain

import (
	"time"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// StockLevel is the current on-hand/reserved/available quantity for one
// product in one warehouse. Rows are created lazily the first time a
// product/warehouse pair is stocked and mutated only under a row lock.
type StockLevel struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	ProductID         uint      `json:"product_id" gorm:"not null;uniqueIndex:idx_stock_product_warehouse"`
	WarehouseID       uint      `json:"warehouse_id" gorm:"not null;uniqueIndex:idx_stock_product_warehouse"`
	Quantity          int       `json:"quantity" gorm:"not null;default:0"`
	ReservedQuantity  int       `json:"reserved_quantity" gorm:"not null;default:0"`
	AvailableQuantity int       `json:"available_quantity" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (StockLevel) TableName() string {
	return "stock_levels"
}

// Recompute re-derives available_quantity. Call after every mutation of
// quantity or reserved_quantity.
func (s *StockLevel) Recompute() {
	s.AvailableQuantity = s.Quantity - s.ReservedQuantity
}

// StockMovement is one immutable ledger entry recording a quantity change and
// the business reference that caused it. Movements are never updated or
// deleted; corrections are appended as compensating adjustments.
type StockMovement struct {
	ID             uint          `json:"id" gorm:"primaryKey"`
	ProductID      uint          `json:"product_id" gorm:"not null;index:idx_movement_product_warehouse"`
	WarehouseID    uint          `json:"warehouse_id" gorm:"not null;index:idx_movement_product_warehouse"`
	Type           MovementType  `json:"type" gorm:"not null;size:16"`
	Quantity       int           `json:"quantity" gorm:"not null"`
	QuantityBefore int           `json:"quantity_before" gorm:"not null"`
	QuantityAfter  int           `json:"quantity_after" gorm:"not null"`
	ReferenceType  ReferenceType `json:"reference_type" gorm:"not null;size:32;index:idx_movement_reference"`
	ReferenceID    uint          `json:"reference_id" gorm:"not null;index:idx_movement_reference"`
	Note           string        `json:"note,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// TableName specifies the table name
func (StockMovement) TableName() string {
	return "stock_movements"
}

// Product is the slice of the catalog the ledger needs: whether a product
// exists and whether it tracks quantity at all.
type Product struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	SKU           string    `json:"sku" gorm:"uniqueIndex;size:64"`
	Name          string    `json:"name" gorm:"not null"`
	TrackQuantity bool      `json:"track_quantity" gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// Warehouse is a physical stock location. At most one active warehouse should
// be flagged as default; it is the last resort of warehouse resolution.
type Warehouse struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"uniqueIndex;size:32"`
	Name      string    `json:"name" gorm:"not null"`
	IsDefault bool      `json:"is_default" gorm:"not null;default:false"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Warehouse) TableName() string {
	return "warehouses"
}

// IntegrityViolation reports a stock level whose quantity disagrees with the
// running sum of its movements. Surfaced to operators, never auto-corrected.
type IntegrityViolation struct {
	ProductID      uint `json:"product_id"`
	WarehouseID    uint `json:"warehouse_id"`
	LevelQuantity  int  `json:"level_quantity"`
	LedgerQuantity int  `json:"ledger_quantity"`
}
