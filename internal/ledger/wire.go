//go:build wireinject
// +build wireinject

package ledger

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/delivery/http"
	"github.com/seytkalikov/stock-ledger/internal/ledger/usecase/command"
	"github.com/seytkalikov/stock-ledger/internal/ledger/usecase/query"
)

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideUnitOfWork,
	ProvideStockRepository,
	ProvideMovementRepository,
	ProvideCatalogRepository,
)

// InitializeStockHandler initializes the HTTP handler with all dependencies
func InitializeStockHandler(db *gorm.DB, cfg command.EngineConfig, publisher command.MovementPublisher) (*http.StockHandler, error) {
	wire.Build(
		RepositorySet,
		command.NewDeductHandler,
		command.NewReservationHandler,
		command.NewReceiveStockHandler,
		command.NewAdjustStockHandler,
		query.NewGetStockHandler,
		query.NewListStockHandler,
		query.NewListMovementsHandler,
		query.NewReconcileHandler,
		http.NewStockHandler,
	)
	return nil, nil
}

// InitializeDeductHandler initializes the deduction engine for the Kafka
// consumer path.
func InitializeDeductHandler(db *gorm.DB, cfg command.EngineConfig, publisher command.MovementPublisher) (*command.DeductHandler, error) {
	wire.Build(
		ProvideUnitOfWork,
		ProvideCatalogRepository,
		command.NewDeductHandler,
	)
	return nil, nil
}
