package command

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

// reservationTarget is one expanded (product, warehouse, quantity)
// requirement, remembering the member references it came from.
type reservationTarget struct {
	productID   uint
	warehouseID uint
	quantity    int
	memberRefs  []domain.Reference
}

// ReservationHandler pre-allocates stock for a batch of lines before any
// physical deduction, with all-or-nothing semantics, and later converts the
// reservation into deductions.
type ReservationHandler struct {
	uow     domain.UnitOfWork
	catalog domain.CatalogRepository
	cfg     EngineConfig
}

// NewReservationHandler creates the reservation manager.
func NewReservationHandler(uow domain.UnitOfWork, catalog domain.CatalogRepository, cfg EngineConfig) *ReservationHandler {
	return &ReservationHandler{uow: uow, catalog: catalog, cfg: cfg}
}

// ReserveAll attempts to reserve stock for every expanded target of every
// line. If any attempt fails, everything reserved so far in this call is
// released and false is returned; a batch is conceptually one unit and must
// never be partially reserved.
func (h *ReservationHandler) ReserveAll(ctx context.Context, lines []domain.FulfillableLine) (bool, error) {
	targets, err := h.expandTargets(lines)
	if err != nil {
		return false, err
	}

	reserved := make([]reservationTarget, 0, len(targets))
	for _, target := range targets {
		ok := false
		err := h.uow.Execute(ctx, func(repos domain.LedgerRepositories) error {
			var reserveErr error
			ok, reserveErr = repos.Stock().Reserve(target.productID, target.warehouseID, target.quantity)
			return reserveErr
		})
		if err != nil {
			h.rollback(ctx, reserved)
			return false, err
		}
		if !ok {
			logger.Info(ctx).
				Uint("product_id", target.productID).
				Uint("warehouse_id", target.warehouseID).
				Int("quantity", target.quantity).
				Msg("Reservation rejected, rolling back batch")
			h.rollback(ctx, reserved)
			return false, nil
		}
		reserved = append(reserved, target)
	}

	return true, nil
}

// Commit converts a batch reservation into real deductions, keyed to the
// batch's own reference. Per constituent product it computes the remaining
// undeducted quantity by subtracting sub-quantities already deducted under
// the member lines' finer-grained references, records exactly one batch-level
// movement for the remainder, and releases the matching reservation.
func (h *ReservationHandler) Commit(ctx context.Context, batchRef domain.Reference, lines []domain.FulfillableLine) (domain.DeductionResult, error) {
	var result domain.DeductionResult

	targets, err := h.expandTargets(lines)
	if err != nil {
		return result, err
	}

	for _, target := range targets {
		err := h.uow.Execute(ctx, func(repos domain.LedgerRepositories) error {
			level, err := repos.Stock().GetForUpdate(target.productID, target.warehouseID)
			if err != nil {
				return err
			}

			exists, err := repos.Movements().Exists(ctx, batchRef.Type, batchRef.ID, target.productID)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				return nil
			}

			// Member-line sums run under the same row lock as the write, so a
			// concurrent per-item deduction for this product cannot slip in
			// between the computation and the batch movement.
			already := 0
			for _, ref := range target.memberRefs {
				deducted, err := repos.Movements().DeductedQuantity(ctx, ref.Type, ref.ID, target.productID)
				if err != nil {
					return err
				}
				already += deducted
			}

			remainder := target.quantity - already
			if remainder <= 0 {
				result.Skipped++
			} else {
				before, after, err := repos.Stock().ApplyDelta(level, -remainder)
				if err != nil {
					return err
				}
				if err := repos.Movements().Append(ctx, &domain.StockMovement{
					ProductID:      target.productID,
					WarehouseID:    target.warehouseID,
					Type:           domain.MovementOut,
					Quantity:       -remainder,
					QuantityBefore: before,
					QuantityAfter:  after,
					ReferenceType:  batchRef.Type,
					ReferenceID:    batchRef.ID,
					Note:           fmt.Sprintf("batch remainder, %d of %d already deducted", already, target.quantity),
				}); err != nil {
					return err
				}
				result.Deducted++
			}

			return repos.Stock().Release(target.productID, target.warehouseID, target.quantity)
		})
		if err != nil {
			result.AddError(batchRef.ID, err.Error())
		}
	}

	return result, nil
}

func (h *ReservationHandler) rollback(ctx context.Context, reserved []reservationTarget) {
	for i := len(reserved) - 1; i >= 0; i-- {
		target := reserved[i]
		err := h.uow.Execute(ctx, func(repos domain.LedgerRepositories) error {
			return repos.Stock().Release(target.productID, target.warehouseID, target.quantity)
		})
		if err != nil {
			logger.Error(ctx).
				Err(err).
				Uint("product_id", target.productID).
				Uint("warehouse_id", target.warehouseID).
				Int("quantity", target.quantity).
				Msg("Failed to release reservation during rollback")
		}
	}
}

// expandTargets resolves every line's warehouse and package expansion and
// aggregates requirements per (product, warehouse). Any unresolvable line
// fails the whole batch: reservations are all-or-nothing.
func (h *ReservationHandler) expandTargets(lines []domain.FulfillableLine) ([]reservationTarget, error) {
	type key struct {
		productID   uint
		warehouseID uint
	}
	index := make(map[key]int)
	targets := make([]reservationTarget, 0, len(lines))

	for _, line := range lines {
		warehouseID, err := h.resolveWarehouse(line)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", line.Reference.String(), err)
		}

		var expanded []domain.ProductQuantity
		if productID, ok := line.Target.Product(); ok {
			expanded = []domain.ProductQuantity{{ProductID: productID, Quantity: line.Quantity}}
		} else {
			packageID, _ := line.Target.Package()
			pkg, err := h.catalog.FindPackage(packageID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, fmt.Errorf("line %s: %w: package %d", line.Reference.String(), domain.ErrUnresolvedReference, packageID)
				}
				return nil, err
			}
			expanded = pkg.Expand(line.Quantity)
		}

		for _, pq := range expanded {
			k := key{productID: pq.ProductID, warehouseID: warehouseID}
			if i, ok := index[k]; ok {
				targets[i].quantity += pq.Quantity
				targets[i].memberRefs = append(targets[i].memberRefs, line.Reference)
				continue
			}
			index[k] = len(targets)
			targets = append(targets, reservationTarget{
				productID:   pq.ProductID,
				warehouseID: warehouseID,
				quantity:    pq.Quantity,
				memberRefs:  []domain.Reference{line.Reference},
			})
		}
	}

	return targets, nil
}

func (h *ReservationHandler) resolveWarehouse(line domain.FulfillableLine) (uint, error) {
	if line.WarehouseID != 0 {
		return line.WarehouseID, nil
	}
	if line.Channel != "" {
		if id, ok := h.cfg.ChannelWarehouses[line.Channel]; ok {
			return id, nil
		}
	}
	if h.cfg.DefaultWarehouseID != 0 {
		return h.cfg.DefaultWarehouseID, nil
	}
	warehouse, err := h.catalog.DefaultWarehouse()
	if err != nil {
		return 0, domain.ErrMissingWarehouse
	}
	return warehouse.ID, nil
}
