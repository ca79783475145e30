package domain

import "context"

// StockLevelRepository defines the contract for the stock level store.
// Mutating methods expect to run inside a transaction obtained from a
// UnitOfWork; GetForUpdate acquires the per-row lock every read-check-write
// sequence serializes on.
type StockLevelRepository interface {
	// Find returns the level or ErrRecordNotFound; read-only, no lazy create.
	Find(productID, warehouseID uint) (*StockLevel, error)

	// GetForUpdate returns the level under a row lock, creating a
	// zero-quantity row first if the pair was never stocked. The lazy create
	// happens under the same lock as mutation so first touch cannot race.
	GetForUpdate(productID, warehouseID uint) (*StockLevel, error)

	// ApplyDelta mutates quantity on a row previously fetched with
	// GetForUpdate and recomputes available_quantity. Returns the before and
	// after snapshots for the ledger entry.
	ApplyDelta(level *StockLevel, delta int) (before int, after int, err error)

	// Reserve increases reserved_quantity by amount only if
	// available_quantity >= amount. No mutation on failure.
	Reserve(productID, warehouseID uint, amount int) (bool, error)

	// Release decreases reserved_quantity, used on reservation rollback or
	// when a reservation is converted into a deduction.
	Release(productID, warehouseID uint, amount int) error

	FindAll(limit, offset int) ([]StockLevel, error)
	FindByProduct(productID uint) ([]StockLevel, error)
}

// MovementRepository defines the contract for the append-only movement
// ledger.
type MovementRepository interface {
	// Append writes one movement. Write-once: there is deliberately no update
	// or delete.
	Append(ctx context.Context, movement *StockMovement) error

	// Exists is the idempotency predicate: has any movement for this
	// (reference_type, reference_id, product_id) triple been recorded? Must be
	// evaluated inside the same transaction and row-lock scope as the
	// subsequent Append.
	Exists(ctx context.Context, refType ReferenceType, refID, productID uint) (bool, error)

	// DeductedQuantity returns the units already deducted (absolute sum of
	// out movements) under a reference for one product. Used by batch-level
	// commits to compute the remaining undeducted quantity.
	DeductedQuantity(ctx context.Context, refType ReferenceType, refID, productID uint) (int, error)

	// SumByProductWarehouse returns the running sum of all movement deltas
	// for a product/warehouse pair, for audit and reconciliation.
	SumByProductWarehouse(ctx context.Context, productID, warehouseID uint) (int, error)

	FindByProduct(ctx context.Context, productID uint, limit, offset int) ([]StockMovement, error)
}

// CatalogRepository resolves products, packages and warehouses. The ledger
// only reads the catalog; it is owned by external collaborators.
type CatalogRepository interface {
	FindProduct(id uint) (*Product, error)
	FindPackage(id uint) (*Package, error)
	DefaultWarehouse() (*Warehouse, error)
}

// LedgerRepositories bundles the repositories scoped to one transaction.
type LedgerRepositories interface {
	Stock() StockLevelRepository
	Movements() MovementRepository
}

// UnitOfWork runs a function inside one database transaction. All repository
// operations made through the passed bundle share that transaction and commit
// or roll back together.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos LedgerRepositories) error) error
}
