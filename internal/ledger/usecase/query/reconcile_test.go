package query

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

type pairKey struct {
	productID   uint
	warehouseID uint
}

type stockRepoStub struct {
	levels []domain.StockLevel
}

func (s *stockRepoStub) Find(productID, warehouseID uint) (*domain.StockLevel, error) {
	for i := range s.levels {
		if s.levels[i].ProductID == productID && s.levels[i].WarehouseID == warehouseID {
			return &s.levels[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stockRepoStub) GetForUpdate(productID, warehouseID uint) (*domain.StockLevel, error) {
	return s.Find(productID, warehouseID)
}

func (s *stockRepoStub) ApplyDelta(level *domain.StockLevel, delta int) (int, int, error) {
	before := level.Quantity
	level.Quantity += delta
	level.Recompute()
	return before, level.Quantity, nil
}

func (s *stockRepoStub) Reserve(productID, warehouseID uint, amount int) (bool, error) {
	return false, nil
}

func (s *stockRepoStub) Release(productID, warehouseID uint, amount int) error {
	return nil
}

func (s *stockRepoStub) FindAll(limit, offset int) ([]domain.StockLevel, error) {
	if offset >= len(s.levels) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.levels) {
		end = len(s.levels)
	}
	return s.levels[offset:end], nil
}

func (s *stockRepoStub) FindByProduct(productID uint) ([]domain.StockLevel, error) {
	var out []domain.StockLevel
	for _, level := range s.levels {
		if level.ProductID == productID {
			out = append(out, level)
		}
	}
	return out, nil
}

type movementRepoStub struct {
	sums      map[pairKey]int
	movements []domain.StockMovement
}

func (m *movementRepoStub) Append(_ context.Context, movement *domain.StockMovement) error {
	m.movements = append(m.movements, *movement)
	return nil
}

func (m *movementRepoStub) Exists(_ context.Context, refType domain.ReferenceType, refID, productID uint) (bool, error) {
	return false, nil
}

func (m *movementRepoStub) DeductedQuantity(_ context.Context, refType domain.ReferenceType, refID, productID uint) (int, error) {
	return 0, nil
}

func (m *movementRepoStub) SumByProductWarehouse(_ context.Context, productID, warehouseID uint) (int, error) {
	return m.sums[pairKey{productID: productID, warehouseID: warehouseID}], nil
}

func (m *movementRepoStub) FindByProduct(_ context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	var out []domain.StockMovement
	for _, movement := range m.movements {
		if movement.ProductID == productID && len(out) < limit {
			out = append(out, movement)
		}
	}
	return out, nil
}

func TestReconcileReportsDrift(t *testing.T) {
	stock := &stockRepoStub{levels: []domain.StockLevel{
		{ProductID: 1, WarehouseID: 1, Quantity: 10},
		{ProductID: 2, WarehouseID: 1, Quantity: 7},
		{ProductID: 2, WarehouseID: 3, Quantity: 0},
	}}
	movements := &movementRepoStub{sums: map[pairKey]int{
		{productID: 1, warehouseID: 1}: 10, // consistent
		{productID: 2, warehouseID: 1}: 9,  // drifted
		{productID: 2, warehouseID: 3}: 0,  // consistent
	}}
	handler := NewReconcileHandler(stock, movements)

	violations, err := handler.Handle(context.Background())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.ProductID != 2 || v.WarehouseID != 1 {
		t.Errorf("expected violation on product 2 / warehouse 1, got %d/%d", v.ProductID, v.WarehouseID)
	}
	if v.LevelQuantity != 7 || v.LedgerQuantity != 9 {
		t.Errorf("expected level 7 vs ledger 9, got %d vs %d", v.LevelQuantity, v.LedgerQuantity)
	}

	// Reconciliation reports; it never mutates.
	if stock.levels[1].Quantity != 7 {
		t.Errorf("expected drifted level untouched, got %d", stock.levels[1].Quantity)
	}
}

func TestReconcileCleanLedger(t *testing.T) {
	stock := &stockRepoStub{levels: []domain.StockLevel{
		{ProductID: 1, WarehouseID: 1, Quantity: 5},
	}}
	movements := &movementRepoStub{sums: map[pairKey]int{
		{productID: 1, warehouseID: 1}: 5,
	}}
	handler := NewReconcileHandler(stock, movements)

	violations, err := handler.Handle(context.Background())
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("expected no violations, got %+v", violations)
	}
}

func TestGetStockSingleWarehouse(t *testing.T) {
	stock := &stockRepoStub{levels: []domain.StockLevel{
		{ProductID: 1, WarehouseID: 1, Quantity: 5},
		{ProductID: 1, WarehouseID: 2, Quantity: 8},
	}}
	handler := NewGetStockHandler(stock)

	levels, err := handler.Handle(GetStockQuery{ProductID: 1, WarehouseID: 2})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(levels) != 1 || levels[0].Quantity != 8 {
		t.Fatalf("expected single level with quantity 8, got %+v", levels)
	}

	levels, err = handler.Handle(GetStockQuery{ProductID: 1})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("expected levels across both warehouses, got %d", len(levels))
	}

	if _, err := handler.Handle(GetStockQuery{}); err == nil {
		t.Error("expected missing product_id to be rejected")
	}
	if _, err := handler.Handle(GetStockQuery{ProductID: 1, WarehouseID: 9}); err == nil {
		t.Error("expected unknown warehouse to surface not-found")
	}
}

func TestListMovementsRequiresProduct(t *testing.T) {
	movements := &movementRepoStub{movements: []domain.StockMovement{
		{ProductID: 1, Quantity: 5},
		{ProductID: 1, Quantity: -2},
		{ProductID: 2, Quantity: 1},
	}}
	handler := NewListMovementsHandler(movements)

	if _, err := handler.Handle(context.Background(), ListMovementsQuery{}); err == nil {
		t.Error("expected missing product_id to be rejected")
	}

	out, err := handler.Handle(context.Background(), ListMovementsQuery{ProductID: 1})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 movements for product 1, got %d", len(out))
	}
}
