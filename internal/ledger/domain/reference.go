package domain

import (
	"fmt"
)

// ReferenceType discriminates the business entity a movement points back to.
type ReferenceType string

const (
	ReferenceOrderItem     ReferenceType = "order_item"
	ReferenceShipmentItem  ReferenceType = "shipment_item"
	ReferenceShipmentBatch ReferenceType = "shipment_batch"
	ReferencePOSSale       ReferenceType = "pos_sale"
	ReferenceGoodsReceipt  ReferenceType = "goods_receipt"
	ReferenceAdjustment    ReferenceType = "manual_adjustment"
)

// ParseReferenceType validates a reference type arriving at the service
// boundary.
func ParseReferenceType(s string) (ReferenceType, error) {
	switch ReferenceType(s) {
	case ReferenceOrderItem, ReferenceShipmentItem, ReferenceShipmentBatch,
		ReferencePOSSale, ReferenceGoodsReceipt, ReferenceAdjustment:
		return ReferenceType(s), nil
	}
	return "", fmt.Errorf("unknown reference type %q", s)
}

// Reference is a typed pointer to the order line, shipment line or shipment
// batch that caused a movement.
type Reference struct {
	Type ReferenceType `json:"type"`
	ID   uint          `json:"id"`
}

func (r Reference) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

type targetKind uint8

const (
	targetProduct targetKind = iota + 1
	targetPackage
)

// Target is what a fulfillable line sells: either a single product or a
// package that fans out into constituent products. Exactly one of the two is
// set; the distinction is fixed at construction, not re-derived at deduction
// time.
type Target struct {
	kind targetKind
	id   uint
}

// ProductTarget builds a target for a single product.
func ProductTarget(id uint) Target {
	return Target{kind: targetProduct, id: id}
}

// PackageTarget builds a target for a package.
func PackageTarget(id uint) Target {
	return Target{kind: targetPackage, id: id}
}

// Product returns the product id if the target is a product.
func (t Target) Product() (uint, bool) {
	return t.id, t.kind == targetProduct
}

// Package returns the package id if the target is a package.
func (t Target) Package() (uint, bool) {
	return t.id, t.kind == targetPackage
}

// IsZero reports whether the target was never set.
func (t Target) IsZero() bool {
	return t.kind == 0
}

// Fulfillment statuses that trigger a deduction. Anything else is a
// legitimate no-op, not an error.
const (
	StatusPending   = "pending"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// DeductionTriggering reports whether a fulfillment status makes a line
// eligible for deduction.
func DeductionTriggering(status string) bool {
	return status == StatusShipped || status == StatusDelivered
}

// FulfillableLine is the normalized unit of work the engine accepts,
// abstracting order items, POS sale lines and shipment items.
type FulfillableLine struct {
	Reference         Reference
	Target            Target
	Quantity          int
	WarehouseID       uint   // 0 means "resolve via channel/default fallback"
	Channel           string // sales channel, used for warehouse fallback
	FulfillmentStatus string
}

// NewFulfillableLine validates a line at the construction boundary: a known
// reference, exactly one target and a positive quantity.
func NewFulfillableLine(ref Reference, target Target, quantity int, status string) (FulfillableLine, error) {
	if ref.Type == "" || ref.ID == 0 {
		return FulfillableLine{}, fmt.Errorf("fulfillable line requires a reference")
	}
	if target.IsZero() {
		return FulfillableLine{}, fmt.Errorf("fulfillable line requires a product or package target")
	}
	if quantity <= 0 {
		return FulfillableLine{}, fmt.Errorf("fulfillable line quantity must be positive, got %d", quantity)
	}
	return FulfillableLine{
		Reference:         ref,
		Target:            target,
		Quantity:          quantity,
		FulfillmentStatus: status,
	}, nil
}

// LineError is a per-line failure inside a batch result.
type LineError struct {
	ReferenceID uint   `json:"reference_id"`
	Message     string `json:"message"`
}

// DeductionResult is what every deduction returns: how many constituent
// product lines were applied, how many were skipped by the idempotency guard,
// and any per-line errors. A skip is a normal outcome, not an error.
type DeductionResult struct {
	Deducted int         `json:"deducted"`
	Skipped  int         `json:"skipped"`
	Errors   []LineError `json:"errors,omitempty"`
}

// Merge folds another result into this one (used by batch wrappers).
func (r *DeductionResult) Merge(other DeductionResult) {
	r.Deducted += other.Deducted
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records a per-line failure.
func (r *DeductionResult) AddError(referenceID uint, message string) {
	r.Errors = append(r.Errors, LineError{ReferenceID: referenceID, Message: message})
}
