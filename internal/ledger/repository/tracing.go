package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

var tracer = otel.Tracer("ledger-repository")

// MovementRepositoryWithTracing decorates a movement repository so every
// ledger access carries a span.
type MovementRepositoryWithTracing struct {
	next domain.MovementRepository
}

// NewMovementRepositoryWithTracing creates a new repository with tracing
func NewMovementRepositoryWithTracing(next domain.MovementRepository) *MovementRepositoryWithTracing {
	return &MovementRepositoryWithTracing{next: next}
}

func (r *MovementRepositoryWithTracing) Append(ctx context.Context, movement *domain.StockMovement) error {
	ctx, span := tracer.Start(ctx, "repository.MovementAppend",
		trace.WithAttributes(
			attribute.String("movement.type", string(movement.Type)),
			attribute.String("movement.reference_type", string(movement.ReferenceType)),
			attribute.Int("movement.reference_id", int(movement.ReferenceID)),
			attribute.Int("movement.product_id", int(movement.ProductID)),
			attribute.Int("movement.quantity", movement.Quantity),
		),
	)
	defer span.End()

	if err := r.next.Append(ctx, movement); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *MovementRepositoryWithTracing) Exists(ctx context.Context, refType domain.ReferenceType, refID, productID uint) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.MovementExists",
		trace.WithAttributes(
			attribute.String("movement.reference_type", string(refType)),
			attribute.Int("movement.reference_id", int(refID)),
			attribute.Int("movement.product_id", int(productID)),
		),
	)
	defer span.End()

	exists, err := r.next.Exists(ctx, refType, refID, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Bool("movement.exists", exists))
	return exists, nil
}

func (r *MovementRepositoryWithTracing) DeductedQuantity(ctx context.Context, refType domain.ReferenceType, refID, productID uint) (int, error) {
	ctx, span := tracer.Start(ctx, "repository.MovementDeductedQuantity",
		trace.WithAttributes(
			attribute.String("movement.reference_type", string(refType)),
			attribute.Int("movement.reference_id", int(refID)),
			attribute.Int("movement.product_id", int(productID)),
		),
	)
	defer span.End()

	deducted, err := r.next.DeductedQuantity(ctx, refType, refID, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int("movement.deducted", deducted))
	return deducted, nil
}

func (r *MovementRepositoryWithTracing) SumByProductWarehouse(ctx context.Context, productID, warehouseID uint) (int, error) {
	ctx, span := tracer.Start(ctx, "repository.MovementSum",
		trace.WithAttributes(
			attribute.Int("movement.product_id", int(productID)),
			attribute.Int("movement.warehouse_id", int(warehouseID)),
		),
	)
	defer span.End()

	sum, err := r.next.SumByProductWarehouse(ctx, productID, warehouseID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int("movement.sum", sum))
	return sum, nil
}

func (r *MovementRepositoryWithTracing) FindByProduct(ctx context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	ctx, span := tracer.Start(ctx, "repository.MovementFindByProduct",
		trace.WithAttributes(
			attribute.Int("movement.product_id", int(productID)),
			attribute.Int("query.limit", limit),
			attribute.Int("query.offset", offset),
		),
	)
	defer span.End()

	movements, err := r.next.FindByProduct(ctx, productID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(movements)))
	return movements, nil
}
