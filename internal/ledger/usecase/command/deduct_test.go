package command

import (
	"context"
	"errors"
	"testing"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

func newDeductHandler(store *memoryStore, cfg EngineConfig, publisher MovementPublisher) *DeductHandler {
	return NewDeductHandler(memoryUnitOfWork{store: store}, memoryCatalog{store: store}, cfg, publisher)
}

func shippedLine(refID, productID uint, quantity int, warehouseID uint) domain.FulfillableLine {
	return domain.FulfillableLine{
		Reference:         domain.Reference{Type: domain.ReferenceOrderItem, ID: refID},
		Target:            domain.ProductTarget(productID),
		Quantity:          quantity,
		WarehouseID:       warehouseID,
		FulfillmentStatus: domain.StatusShipped,
	}
}

func TestDeductAppliesMovementAndLevel(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 100)
	handler := newDeductHandler(store, EngineConfig{}, nil)

	result := handler.Deduct(context.Background(), shippedLine(41, 1, 5, 1))

	if result.Deducted != 1 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected clean single deduction, got %+v", result)
	}
	if got := store.level(1, 1).Quantity; got != 95 {
		t.Errorf("expected level 95, got %d", got)
	}

	movements := store.movementsFor(domain.ReferenceOrderItem, 41, 1)
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	m := movements[0]
	if m.Type != domain.MovementOut || m.Quantity != -5 {
		t.Errorf("expected out movement of -5, got type=%s quantity=%d", m.Type, m.Quantity)
	}
	if m.QuantityBefore != 100 || m.QuantityAfter != 95 {
		t.Errorf("expected snapshots 100/95, got %d/%d", m.QuantityBefore, m.QuantityAfter)
	}
	if m.QuantityAfter-m.QuantityBefore != m.Quantity {
		t.Errorf("snapshot delta %d disagrees with quantity %d", m.QuantityAfter-m.QuantityBefore, m.Quantity)
	}
}

func TestDeductIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 100)
	handler := newDeductHandler(store, EngineConfig{}, nil)
	line := shippedLine(41, 1, 5, 1)

	first := handler.Deduct(context.Background(), line)
	second := handler.Deduct(context.Background(), line)

	if first.Deducted != 1 {
		t.Fatalf("expected first call to deduct, got %+v", first)
	}
	if second.Deducted != 0 || second.Skipped != 1 || len(second.Errors) != 0 {
		t.Fatalf("expected replay to be skipped, got %+v", second)
	}
	if got := store.level(1, 1).Quantity; got != 95 {
		t.Errorf("expected level to stay at 95, got %d", got)
	}
	if movements := store.movementsFor(domain.ReferenceOrderItem, 41, 1); len(movements) != 1 {
		t.Errorf("expected exactly 1 movement after replay, got %d", len(movements))
	}
}

func TestDeductIgnoresNonTriggeringStatus(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 100)
	handler := newDeductHandler(store, EngineConfig{}, nil)

	for _, status := range []string{domain.StatusPending, domain.StatusCancelled} {
		line := shippedLine(41, 1, 5, 1)
		line.FulfillmentStatus = status
		result := handler.Deduct(context.Background(), line)
		if result.Deducted != 0 || result.Skipped != 0 || len(result.Errors) != 0 {
			t.Errorf("status %q: expected no-op, got %+v", status, result)
		}
	}
	if got := store.level(1, 1).Quantity; got != 100 {
		t.Errorf("expected level untouched, got %d", got)
	}
	if len(store.movements) != 0 {
		t.Errorf("expected no movements, got %d", len(store.movements))
	}
}

func TestDeductUntrackedProductIsNoOp(t *testing.T) {
	store := newMemoryStore()
	store.addUntrackedProduct(2)
	handler := newDeductHandler(store, EngineConfig{}, nil)

	result := handler.Deduct(context.Background(), shippedLine(42, 2, 3, 1))
	if result.Deducted != 0 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected silent no-op for untracked product, got %+v", result)
	}
	if len(store.movements) != 0 {
		t.Errorf("expected no movements, got %d", len(store.movements))
	}
}

func TestDeductUnknownProductIsError(t *testing.T) {
	store := newMemoryStore()
	handler := newDeductHandler(store, EngineConfig{}, nil)

	result := handler.Deduct(context.Background(), shippedLine(43, 99, 1, 1))
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 error for unknown product, got %+v", result)
	}
	if result.Errors[0].ReferenceID != 43 {
		t.Errorf("expected error attributed to reference 43, got %d", result.Errors[0].ReferenceID)
	}
}

func TestDeductPackageExpansion(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.addProduct(2)
	store.setLevel(1, 1, 50)
	store.setLevel(2, 1, 50)
	store.addPackage(&domain.Package{
		ID: 7,
		Items: []domain.PackageItem{
			{PackageID: 7, ProductID: 1, QuantityPerPackage: 1},
			{PackageID: 7, ProductID: 2, QuantityPerPackage: 2},
		},
	})
	handler := newDeductHandler(store, EngineConfig{}, nil)

	line := domain.FulfillableLine{
		Reference:         domain.Reference{Type: domain.ReferenceOrderItem, ID: 44},
		Target:            domain.PackageTarget(7),
		Quantity:          3,
		WarehouseID:       1,
		FulfillmentStatus: domain.StatusShipped,
	}
	result := handler.Deduct(context.Background(), line)

	if result.Deducted != 2 || len(result.Errors) != 0 {
		t.Fatalf("expected 2 constituent deductions, got %+v", result)
	}
	if got := store.level(1, 1).Quantity; got != 47 {
		t.Errorf("expected product 1 at 47, got %d", got)
	}
	if got := store.level(2, 1).Quantity; got != 44 {
		t.Errorf("expected product 2 at 44, got %d", got)
	}

	// Each constituent movement carries the package line's own reference, so
	// a replay of the same line skips every constituent.
	replay := handler.Deduct(context.Background(), line)
	if replay.Deducted != 0 || replay.Skipped != 2 {
		t.Errorf("expected replay to skip both constituents, got %+v", replay)
	}
}

func TestDeductPackageWithDuplicateProduct(t *testing.T) {
	// A composition listing the same product twice must deduct the summed
	// quantity in one movement, not trip the idempotency guard on itself.
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 10)
	store.addPackage(&domain.Package{
		ID: 9,
		Items: []domain.PackageItem{
			{PackageID: 9, ProductID: 1, QuantityPerPackage: 1},
			{PackageID: 9, ProductID: 1, QuantityPerPackage: 1},
		},
	})
	handler := newDeductHandler(store, EngineConfig{}, nil)

	line := domain.FulfillableLine{
		Reference:         domain.Reference{Type: domain.ReferenceOrderItem, ID: 57},
		Target:            domain.PackageTarget(9),
		Quantity:          1,
		WarehouseID:       1,
		FulfillmentStatus: domain.StatusShipped,
	}
	result := handler.Deduct(context.Background(), line)

	if result.Deducted != 1 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected one merged deduction, got %+v", result)
	}
	if got := store.level(1, 1).Quantity; got != 8 {
		t.Errorf("expected level 8 (both units out), got %d", got)
	}
	movements := store.movementsFor(domain.ReferenceOrderItem, 57, 1)
	if len(movements) != 1 || movements[0].Quantity != -2 {
		t.Errorf("expected single movement of -2, got %+v", movements)
	}
}

func TestDeductEmptyPackageIsNoOp(t *testing.T) {
	store := newMemoryStore()
	store.addPackage(&domain.Package{ID: 8})
	handler := newDeductHandler(store, EngineConfig{}, nil)

	line := domain.FulfillableLine{
		Reference:         domain.Reference{Type: domain.ReferenceOrderItem, ID: 45},
		Target:            domain.PackageTarget(8),
		Quantity:          2,
		WarehouseID:       1,
		FulfillmentStatus: domain.StatusShipped,
	}
	result := handler.Deduct(context.Background(), line)
	if result.Deducted != 0 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected empty package to be a warned no-op, got %+v", result)
	}
}

func TestDeductWarehouseResolution(t *testing.T) {
	t.Run("channel mapping wins over default", func(t *testing.T) {
		store := newMemoryStore()
		store.addProduct(1)
		store.setLevel(1, 2, 10)
		cfg := EngineConfig{DefaultWarehouseID: 1, ChannelWarehouses: map[string]uint{"pos": 2}}
		handler := newDeductHandler(store, cfg, nil)

		line := shippedLine(46, 1, 1, 0)
		line.Channel = "pos"
		result := handler.Deduct(context.Background(), line)
		if result.Deducted != 1 {
			t.Fatalf("expected deduction, got %+v", result)
		}
		if got := store.level(1, 2).Quantity; got != 9 {
			t.Errorf("expected channel warehouse 2 hit, level at %d", got)
		}
	})

	t.Run("configured default", func(t *testing.T) {
		store := newMemoryStore()
		store.addProduct(1)
		store.setLevel(1, 3, 10)
		handler := newDeductHandler(store, EngineConfig{DefaultWarehouseID: 3}, nil)

		result := handler.Deduct(context.Background(), shippedLine(47, 1, 1, 0))
		if result.Deducted != 1 {
			t.Fatalf("expected deduction, got %+v", result)
		}
		if got := store.level(1, 3).Quantity; got != 9 {
			t.Errorf("expected default warehouse 3 hit, level at %d", got)
		}
	})

	t.Run("catalog default warehouse row", func(t *testing.T) {
		store := newMemoryStore()
		store.addProduct(1)
		store.setLevel(1, 4, 10)
		store.warehouse = &domain.Warehouse{ID: 4, Code: "MAIN", IsDefault: true, Active: true}
		handler := newDeductHandler(store, EngineConfig{}, nil)

		result := handler.Deduct(context.Background(), shippedLine(48, 1, 1, 0))
		if result.Deducted != 1 {
			t.Fatalf("expected deduction, got %+v", result)
		}
		if got := store.level(1, 4).Quantity; got != 9 {
			t.Errorf("expected catalog default warehouse 4 hit, level at %d", got)
		}
	})

	t.Run("no warehouse resolvable", func(t *testing.T) {
		store := newMemoryStore()
		store.addProduct(1)
		handler := newDeductHandler(store, EngineConfig{}, nil)

		result := handler.Deduct(context.Background(), shippedLine(49, 1, 1, 0))
		if len(result.Errors) != 1 {
			t.Fatalf("expected missing warehouse error, got %+v", result)
		}
		if result.Errors[0].Message != domain.ErrMissingWarehouse.Error() {
			t.Errorf("expected %q, got %q", domain.ErrMissingWarehouse.Error(), result.Errors[0].Message)
		}
	})
}

func TestDeductAllowsNegativeAvailable(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 2)
	handler := newDeductHandler(store, EngineConfig{}, nil)

	result := handler.Deduct(context.Background(), shippedLine(50, 1, 5, 1))
	if result.Deducted != 1 || len(result.Errors) != 0 {
		t.Fatalf("expected deduction to proceed into negative, got %+v", result)
	}
	if got := store.level(1, 1).Quantity; got != -3 {
		t.Errorf("expected level -3, got %d", got)
	}
	movements := store.movementsFor(domain.ReferenceOrderItem, 50, 1)
	if len(movements) != 1 || movements[0].QuantityAfter != -3 {
		t.Errorf("expected one movement ending at -3, got %+v", movements)
	}
}

func TestDeductAllNeverAbortsEarly(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.addProduct(2)
	store.setLevel(1, 1, 10)
	store.setLevel(2, 1, 10)
	handler := newDeductHandler(store, EngineConfig{}, nil)

	lines := []domain.FulfillableLine{
		shippedLine(51, 1, 2, 1),
		shippedLine(52, 99, 1, 1), // unknown product
		shippedLine(53, 2, 3, 1),
	}
	result := handler.DeductAll(context.Background(), lines)

	if result.Deducted != 2 {
		t.Errorf("expected 2 deductions despite mid-batch error, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].ReferenceID != 52 {
		t.Errorf("expected single error for reference 52, got %+v", result.Errors)
	}
	if store.level(1, 1).Quantity != 8 || store.level(2, 1).Quantity != 7 {
		t.Errorf("expected both good lines applied, levels %d/%d",
			store.level(1, 1).Quantity, store.level(2, 1).Quantity)
	}
}

func TestDeductConservation(t *testing.T) {
	// After any sequence of operations the level equals the sum of movements.
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 0)
	handler := newDeductHandler(store, EngineConfig{}, nil)
	receive := NewReceiveStockHandler(memoryUnitOfWork{store: store}, nil)
	adjust := NewAdjustStockHandler(memoryUnitOfWork{store: store})

	ctx := context.Background()
	if _, err := receive.Handle(ctx, ReceiveStockCommand{
		Reference: domain.Reference{Type: domain.ReferenceGoodsReceipt, ID: 1},
		ProductID: 1, WarehouseID: 1, Quantity: 20,
	}); err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	handler.Deduct(ctx, shippedLine(54, 1, 6, 1))
	handler.Deduct(ctx, shippedLine(54, 1, 6, 1)) // replay, must not count
	if _, err := adjust.Handle(ctx, AdjustStockCommand{
		ProductID: 1, WarehouseID: 1, Delta: -2, ReferenceID: 9, Reason: "cycle count",
	}); err != nil {
		t.Fatalf("adjust failed: %v", err)
	}

	sum, err := memoryMovements{store: store}.SumByProductWarehouse(ctx, 1, 1)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	level := store.level(1, 1).Quantity
	if level != 12 || sum != level {
		t.Errorf("expected level 12 equal to ledger sum, got level=%d sum=%d", level, sum)
	}
}

func TestDeductPublishesEvent(t *testing.T) {
	store := newMemoryStore()
	store.addProduct(1)
	store.setLevel(1, 1, 10)
	publisher := &recordingPublisher{}
	handler := newDeductHandler(store, EngineConfig{}, publisher)
	line := shippedLine(55, 1, 1, 1)

	handler.Deduct(context.Background(), line)
	handler.Deduct(context.Background(), line)

	if len(publisher.deducted) != 1 {
		t.Errorf("expected 1 published event (none on replay), got %d", len(publisher.deducted))
	}
}

func TestReceiveIsIdempotent(t *testing.T) {
	store := newMemoryStore()
	store.setLevel(1, 1, 5)
	publisher := &recordingPublisher{}
	handler := NewReceiveStockHandler(memoryUnitOfWork{store: store}, publisher)
	cmd := ReceiveStockCommand{
		Reference: domain.Reference{Type: domain.ReferenceGoodsReceipt, ID: 2},
		ProductID: 1, WarehouseID: 1, Quantity: 10,
	}

	applied, err := handler.Handle(context.Background(), cmd)
	if err != nil || !applied {
		t.Fatalf("expected first receipt applied, got applied=%v err=%v", applied, err)
	}
	applied, err = handler.Handle(context.Background(), cmd)
	if err != nil || applied {
		t.Fatalf("expected replayed receipt skipped, got applied=%v err=%v", applied, err)
	}
	if got := store.level(1, 1).Quantity; got != 15 {
		t.Errorf("expected level 15 after replay, got %d", got)
	}
	if len(publisher.received) != 1 {
		t.Errorf("expected 1 published receipt event, got %d", len(publisher.received))
	}
}

func TestAdjustAppendsMovement(t *testing.T) {
	store := newMemoryStore()
	store.setLevel(1, 1, 10)
	handler := NewAdjustStockHandler(memoryUnitOfWork{store: store})

	movement, err := handler.Handle(context.Background(), AdjustStockCommand{
		ProductID: 1, WarehouseID: 1, Delta: -4, ReferenceID: 3, Reason: "damaged in transit",
	})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if movement.Type != domain.MovementAdjustment || movement.Quantity != -4 {
		t.Errorf("expected adjustment of -4, got type=%s quantity=%d", movement.Type, movement.Quantity)
	}
	if movement.QuantityBefore != 10 || movement.QuantityAfter != 6 {
		t.Errorf("expected snapshots 10/6, got %d/%d", movement.QuantityBefore, movement.QuantityAfter)
	}
	if movement.Note != "damaged in transit" {
		t.Errorf("expected reason on movement, got %q", movement.Note)
	}

	if _, err := handler.Handle(context.Background(), AdjustStockCommand{
		ProductID: 1, WarehouseID: 1, Delta: 0, ReferenceID: 3, Reason: "noop",
	}); err == nil {
		t.Error("expected zero delta to be rejected")
	}
	if _, err := handler.Handle(context.Background(), AdjustStockCommand{
		ProductID: 1, WarehouseID: 1, Delta: 1,
	}); err == nil {
		t.Error("expected missing reason to be rejected")
	}
}

func TestDeductUnknownProductWrapsUnresolvedReference(t *testing.T) {
	store := newMemoryStore()
	handler := newDeductHandler(store, EngineConfig{}, nil)

	_, _, err := handler.resolveTargets(context.Background(), shippedLine(56, 123, 1, 1))
	if !errors.Is(err, domain.ErrUnresolvedReference) {
		t.Errorf("expected ErrUnresolvedReference, got %v", err)
	}
}
