package command

import (
	"context"
	"fmt"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// ReceiveStockCommand records an inbound goods receipt.
type ReceiveStockCommand struct {
	Reference   domain.Reference
	ProductID   uint
	WarehouseID uint
	Quantity    int
	Note        string
}

// ReceiveStockHandler appends `in` movements. Receipts are guarded by the
// same idempotency predicate as deductions, so a re-delivered receipt event
// never double-counts.
type ReceiveStockHandler struct {
	uow       domain.UnitOfWork
	publisher MovementPublisher
}

// NewReceiveStockHandler creates a new receive stock handler.
func NewReceiveStockHandler(uow domain.UnitOfWork, publisher MovementPublisher) *ReceiveStockHandler {
	return &ReceiveStockHandler{uow: uow, publisher: publisher}
}

// Handle applies the receipt. Returns false if the reference was already
// recorded.
func (h *ReceiveStockHandler) Handle(ctx context.Context, cmd ReceiveStockCommand) (bool, error) {
	if cmd.ProductID == 0 {
		return false, fmt.Errorf("product_id is required")
	}
	if cmd.WarehouseID == 0 {
		return false, fmt.Errorf("warehouse_id is required")
	}
	if cmd.Quantity <= 0 {
		return false, fmt.Errorf("quantity must be positive, got %d", cmd.Quantity)
	}
	if cmd.Reference.Type == "" || cmd.Reference.ID == 0 {
		return false, fmt.Errorf("reference is required")
	}

	applied := false
	err := h.uow.Execute(ctx, func(repos domain.LedgerRepositories) error {
		level, err := repos.Stock().GetForUpdate(cmd.ProductID, cmd.WarehouseID)
		if err != nil {
			return err
		}

		exists, err := repos.Movements().Exists(ctx, cmd.Reference.Type, cmd.Reference.ID, cmd.ProductID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		before, after, err := repos.Stock().ApplyDelta(level, cmd.Quantity)
		if err != nil {
			return err
		}

		if err := repos.Movements().Append(ctx, &domain.StockMovement{
			ProductID:      cmd.ProductID,
			WarehouseID:    cmd.WarehouseID,
			Type:           domain.MovementIn,
			Quantity:       cmd.Quantity,
			QuantityBefore: before,
			QuantityAfter:  after,
			ReferenceType:  cmd.Reference.Type,
			ReferenceID:    cmd.Reference.ID,
			Note:           cmd.Note,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied && h.publisher != nil {
		h.publisher.StockReceived(ctx, cmd.Reference, cmd.Quantity)
	}

	return applied, nil
}
