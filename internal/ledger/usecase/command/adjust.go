package command

import (
	"context"
	"fmt"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// AdjustStockCommand appends a compensating adjustment movement. History is
// never edited; this is the only sanctioned way to correct it.
type AdjustStockCommand struct {
	ProductID   uint
	WarehouseID uint
	Delta       int
	ReferenceID uint // audit ticket or count sheet id
	Reason      string
}

// AdjustStockHandler handles manual stock adjustments.
type AdjustStockHandler struct {
	uow domain.UnitOfWork
}

// NewAdjustStockHandler creates a new adjust stock handler.
func NewAdjustStockHandler(uow domain.UnitOfWork) *AdjustStockHandler {
	return &AdjustStockHandler{uow: uow}
}

// Handle applies the adjustment and returns the appended movement.
func (h *AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*domain.StockMovement, error) {
	if cmd.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}
	if cmd.WarehouseID == 0 {
		return nil, fmt.Errorf("warehouse_id is required")
	}
	if cmd.Delta == 0 {
		return nil, fmt.Errorf("delta must be non-zero")
	}
	if cmd.Reason == "" {
		return nil, fmt.Errorf("reason is required")
	}

	var movement *domain.StockMovement
	err := h.uow.Execute(ctx, func(repos domain.LedgerRepositories) error {
		level, err := repos.Stock().GetForUpdate(cmd.ProductID, cmd.WarehouseID)
		if err != nil {
			return err
		}

		before, after, err := repos.Stock().ApplyDelta(level, cmd.Delta)
		if err != nil {
			return err
		}

		movement = &domain.StockMovement{
			ProductID:      cmd.ProductID,
			WarehouseID:    cmd.WarehouseID,
			Type:           domain.MovementAdjustment,
			Quantity:       cmd.Delta,
			QuantityBefore: before,
			QuantityAfter:  after,
			ReferenceType:  domain.ReferenceAdjustment,
			ReferenceID:    cmd.ReferenceID,
			Note:           cmd.Reason,
		}
		return repos.Movements().Append(ctx, movement)
	})
	if err != nil {
		return nil, err
	}

	return movement, nil
}
