package ledger

import (
	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/internal/ledger/repository"
)

// ProvideUnitOfWork provides the transactional unit of work
func ProvideUnitOfWork(db *gorm.DB) domain.UnitOfWork {
	return repository.NewGormUnitOfWork(db)
}

// ProvideStockRepository provides the read-side stock level repository
func ProvideStockRepository(db *gorm.DB) domain.StockLevelRepository {
	return repository.NewGormStockRepository(db)
}

// ProvideMovementRepository provides the read-side movement repository,
// wrapped with tracing for the HTTP query paths.
func ProvideMovementRepository(db *gorm.DB) domain.MovementRepository {
	return repository.NewMovementRepositoryWithTracing(repository.NewGormMovementRepository(db))
}

// ProvideCatalogRepository provides the catalog repository
func ProvideCatalogRepository(db *gorm.DB) domain.CatalogRepository {
	return repository.NewGormCatalogRepository(db)
}
