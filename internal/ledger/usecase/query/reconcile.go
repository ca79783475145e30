package query

import (
	"context"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

const reconcilePageSize = 500

// ReconcileHandler compares every stock level against the running sum of its
// movements. A mismatch means ledger drift; it is reported to operators and
// never auto-corrected.
type ReconcileHandler struct {
	stock     domain.StockLevelRepository
	movements domain.MovementRepository
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(stock domain.StockLevelRepository, movements domain.MovementRepository) *ReconcileHandler {
	return &ReconcileHandler{stock: stock, movements: movements}
}

// Handle walks all stock levels and returns the integrity violations found.
func (h *ReconcileHandler) Handle(ctx context.Context) ([]domain.IntegrityViolation, error) {
	var violations []domain.IntegrityViolation

	for offset := 0; ; offset += reconcilePageSize {
		levels, err := h.stock.FindAll(reconcilePageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(levels) == 0 {
			break
		}

		for _, level := range levels {
			sum, err := h.movements.SumByProductWarehouse(ctx, level.ProductID, level.WarehouseID)
			if err != nil {
				return nil, err
			}
			if sum != level.Quantity {
				violations = append(violations, domain.IntegrityViolation{
					ProductID:      level.ProductID,
					WarehouseID:    level.WarehouseID,
					LevelQuantity:  level.Quantity,
					LedgerQuantity: sum,
				})
				logger.Warn(ctx).
					Uint("product_id", level.ProductID).
					Uint("warehouse_id", level.WarehouseID).
					Int("level_quantity", level.Quantity).
					Int("ledger_quantity", sum).
					Err(domain.ErrLedgerIntegrity).
					Msg("Ledger integrity mismatch detected")
			}
		}

		if len(levels) < reconcilePageSize {
			break
		}
	}

	return violations, nil
}
