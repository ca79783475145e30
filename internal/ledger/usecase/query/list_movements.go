package query

import (
	"context"
	"fmt"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// ListMovementsQuery represents the query for a product's ledger excerpt.
type ListMovementsQuery struct {
	ProductID uint
	Limit     int
	Offset    int
}

// ListMovementsHandler handles movement ledger queries
type ListMovementsHandler struct {
	movements domain.MovementRepository
}

// NewListMovementsHandler creates a new list movements handler
func NewListMovementsHandler(movements domain.MovementRepository) *ListMovementsHandler {
	return &ListMovementsHandler{movements: movements}
}

// Handle executes the movements query
func (h *ListMovementsHandler) Handle(ctx context.Context, query ListMovementsQuery) ([]domain.StockMovement, error) {
	if query.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	return h.movements.FindByProduct(ctx, query.ProductID, limit, query.Offset)
}
