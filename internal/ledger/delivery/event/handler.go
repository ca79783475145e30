package event

import (
	"context"
	"errors"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/internal/ledger/usecase/command"
	"github.com/seytkalikov/stock-ledger/kafka"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

var errBothTargets = errors.New("exactly one of product_id and package_id must be set")

// FulfillmentHandler feeds Kafka fulfillment events into the deduction
// engine. Events are delivered at least once; the ledger's idempotency guard
// makes reprocessing safe.
type FulfillmentHandler struct {
	deduct *command.DeductHandler
}

// NewFulfillmentHandler creates a new fulfillment event handler.
func NewFulfillmentHandler(deduct *command.DeductHandler) *FulfillmentHandler {
	return &FulfillmentHandler{deduct: deduct}
}

// HandleLine processes one fulfillment line event. Malformed events are
// logged and dropped rather than retried; they will never become valid.
func (h *FulfillmentHandler) HandleLine(ctx context.Context, ev kafka.FulfillmentLineEvent) error {
	line, err := toLine(ev)
	if err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("event_id", ev.EventID).
			Str("event_type", ev.EventType).
			Msg("Dropping malformed fulfillment line event")
		return nil
	}

	result := h.deduct.Deduct(ctx, line)

	logger.Info(ctx).
		Str("event_id", ev.EventID).
		Str("reference", line.Reference.String()).
		Int("deducted", result.Deducted).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("Fulfillment line event processed")

	return nil
}

func toLine(ev kafka.FulfillmentLineEvent) (domain.FulfillableLine, error) {
	refType, err := domain.ParseReferenceType(ev.ReferenceType)
	if err != nil {
		return domain.FulfillableLine{}, err
	}

	var target domain.Target
	switch {
	case ev.ProductID != nil && ev.PackageID != nil:
		return domain.FulfillableLine{}, errBothTargets
	case ev.ProductID != nil:
		target = domain.ProductTarget(*ev.ProductID)
	case ev.PackageID != nil:
		target = domain.PackageTarget(*ev.PackageID)
	}

	line, err := domain.NewFulfillableLine(
		domain.Reference{Type: refType, ID: ev.ReferenceID},
		target,
		ev.Quantity,
		ev.FulfillmentStatus,
	)
	if err != nil {
		return domain.FulfillableLine{}, err
	}

	if ev.WarehouseID != nil {
		line.WarehouseID = *ev.WarehouseID
	}
	line.Channel = ev.Channel
	return line, nil
}
