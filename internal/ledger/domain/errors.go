package domain

import "errors"

var (
	// ErrInsufficientStock means a reservation would drive available_quantity
	// negative. The reservation is rejected without mutation.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrUnresolvedReference means a line's product or package cannot be
	// resolved to a stocked item.
	ErrUnresolvedReference = errors.New("unresolved product or package reference")

	// ErrMissingWarehouse means no warehouse could be resolved for a line.
	ErrMissingWarehouse = errors.New("no resolvable warehouse")

	// ErrLedgerIntegrity means a stock level disagrees with the sum of its
	// movements. Reported, never silently corrected.
	ErrLedgerIntegrity = errors.New("stock level disagrees with movement ledger")
)
