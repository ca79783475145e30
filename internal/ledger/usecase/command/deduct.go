package command

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

// EngineConfig carries the warehouse fallback configuration injected at
// construction. Resolution order for a line without an explicit warehouse:
// channel mapping, then DefaultWarehouseID, then the single active default
// warehouse row.
type EngineConfig struct {
	DefaultWarehouseID uint
	ChannelWarehouses  map[string]uint
}

// MovementPublisher emits events after movements are applied. Implementations
// must not fail the deduction; publishing is best-effort.
type MovementPublisher interface {
	StockDeducted(ctx context.Context, ref domain.Reference, result domain.DeductionResult)
	StockReceived(ctx context.Context, ref domain.Reference, quantity int)
}

// DeductHandler is the deduction engine. One instance serves every
// fulfillment origin; origins differ only in the reference they pass in.
type DeductHandler struct {
	uow       domain.UnitOfWork
	catalog   domain.CatalogRepository
	cfg       EngineConfig
	publisher MovementPublisher
}

// NewDeductHandler creates the deduction engine.
func NewDeductHandler(uow domain.UnitOfWork, catalog domain.CatalogRepository, cfg EngineConfig, publisher MovementPublisher) *DeductHandler {
	return &DeductHandler{uow: uow, catalog: catalog, cfg: cfg, publisher: publisher}
}

// Deduct applies one fulfillable line to the ledger. Per constituent product
// it runs one transaction: row lock, idempotency check, stock delta, ledger
// append. Lines whose status is not deduction-triggering, or whose product
// does not track quantity, are legitimate no-ops.
func (h *DeductHandler) Deduct(ctx context.Context, line domain.FulfillableLine) domain.DeductionResult {
	var result domain.DeductionResult

	if !domain.DeductionTriggering(line.FulfillmentStatus) {
		return result
	}

	warehouseID, err := h.resolveWarehouse(line)
	if err != nil {
		result.AddError(line.Reference.ID, err.Error())
		return result
	}

	targets, skip, err := h.resolveTargets(ctx, line)
	if err != nil {
		result.AddError(line.Reference.ID, err.Error())
		return result
	}
	if skip {
		return result
	}

	for _, target := range targets {
		applied, err := h.applyTarget(ctx, line.Reference, target, warehouseID)
		if err != nil {
			result.AddError(line.Reference.ID, err.Error())
			continue
		}
		if applied {
			result.Deducted++
		} else {
			result.Skipped++
		}
	}

	if h.publisher != nil && result.Deducted > 0 {
		h.publisher.StockDeducted(ctx, line.Reference, result)
	}

	return result
}

// DeductAll is the batch wrapper. It never aborts early: every line's outcome
// is recorded and processing continues, so an import job can finish the batch
// and report per-row results.
func (h *DeductHandler) DeductAll(ctx context.Context, lines []domain.FulfillableLine) domain.DeductionResult {
	var aggregate domain.DeductionResult
	for _, line := range lines {
		aggregate.Merge(h.Deduct(ctx, line))
	}
	return aggregate
}

func (h *DeductHandler) resolveWarehouse(line domain.FulfillableLine) (uint, error) {
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

// resolveTargets turns the line's target into constituent (product, quantity)
// pairs. skip=true means the line is a no-op (untracked product or empty
// package), distinct from an error.
func (h *DeductHandler) resolveTargets(ctx context.Context, line domain.FulfillableLine) ([]domain.ProductQuantity, bool, error) {
	if productID, ok := line.Target.Product(); ok {
		product, err := h.catalog.FindProduct(productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, fmt.Errorf("%w: product %d", domain.ErrUnresolvedReference, productID)
			}
			return nil, false, err
		}
		if !product.TrackQuantity {
			return nil, true, nil
		}
		return []domain.ProductQuantity{{ProductID: productID, Quantity: line.Quantity}}, false, nil
	}

	packageID, _ := line.Target.Package()
	pkg, err := h.catalog.FindPackage(packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: package %d", domain.ErrUnresolvedReference, packageID)
		}
		return nil, false, err
	}

	targets := pkg.Expand(line.Quantity)
	if len(targets) == 0 {
		logger.Warn(ctx).
			Uint("package_id", packageID).
			Str("reference", line.Reference.String()).
			Msg("Package has no constituent products, treating line as no-op")
		return nil, true, nil
	}
	return targets, false, nil
}

// applyTarget runs the per-target transaction. The idempotency check and the
// ledger append share the row lock taken by GetForUpdate, so two concurrent
// callers for the same reference cannot both pass the check.
func (h *DeductHandler) applyTarget(ctx context.Context, ref domain.Reference, target domain.ProductQuantity, warehouseID uint) (bool, error) {
	applied := false
	err := h.uow.Execute(ctx, func(repos domain.LedgerRepositories) error {
		level, err := repos.Stock().GetForUpdate(target.ProductID, warehouseID)
		if err != nil {
			return err
		}

		exists, err := repos.Movements().Exists(ctx, ref.Type, ref.ID, target.ProductID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		before, after, err := repos.Stock().ApplyDelta(level, -target.Quantity)
		if err != nil {
			return err
		}

		if level.AvailableQuantity < 0 {
			// Not blocked: backorder intent is ambiguous upstream. The
			// anomaly is logged here and surfaced by the reconcile report.
			logger.Warn(ctx).
				Uint("product_id", target.ProductID).
				Uint("warehouse_id", warehouseID).
				Int("available_quantity", level.AvailableQuantity).
				Str("reference", ref.String()).
				Msg("Available quantity went negative after deduction")
		}

		if err := repos.Movements().Append(ctx, &domain.StockMovement{
			ProductID:      target.ProductID,
			WarehouseID:    warehouseID,
			Type:           domain.MovementOut,
			Quantity:       -target.Quantity,
			QuantityBefore: before,
			QuantityAfter:  after,
			ReferenceType:  ref.Type,
			ReferenceID:    ref.ID,
		}); err != nil {
			return err
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
