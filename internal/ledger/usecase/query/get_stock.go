package query

import (
	"fmt"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// GetStockQuery represents the query to read stock levels for a product.
// WarehouseID of zero means "all warehouses".
type GetStockQuery struct {
	ProductID   uint
	WarehouseID uint
}

// GetStockHandler handles stock level queries
type GetStockHandler struct {
	stock domain.StockLevelRepository
}

// NewGetStockHandler creates a new get stock handler
func NewGetStockHandler(stock domain.StockLevelRepository) *GetStockHandler {
	return &GetStockHandler{stock: stock}
}

// Handle executes the stock level query
func (h *GetStockHandler) Handle(query GetStockQuery) ([]domain.StockLevel, error) {
	if query.ProductID == 0 {
		return nil, fmt.Errorf("product_id is required")
	}

	if query.WarehouseID != 0 {
		level, err := h.stock.Find(query.ProductID, query.WarehouseID)
		if err != nil {
			return nil, fmt.Errorf("stock level not found: %w", err)
		}
		return []domain.StockLevel{*level}, nil
	}

	return h.stock.FindByProduct(query.ProductID)
}

// ListStockQuery represents the paginated stock listing query.
type ListStockQuery struct {
	Limit  int
	Offset int
}

// ListStockHandler handles paginated stock level listing
type ListStockHandler struct {
	stock domain.StockLevelRepository
}

// NewListStockHandler creates a new list stock handler
func NewListStockHandler(stock domain.StockLevelRepository) *ListStockHandler {
	return &ListStockHandler{stock: stock}
}

// Handle executes the listing query
func (h *ListStockHandler) Handle(query ListStockQuery) ([]domain.StockLevel, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	return h.stock.FindAll(limit, query.Offset)
}
