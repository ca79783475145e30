package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// GormUnitOfWork runs ledger operations inside one database transaction. The
// repositories handed to the callback are bound to that transaction, so a row
// locked with GetForUpdate stays locked until the callback returns and the
// transaction commits or rolls back.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos domain.LedgerRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{
			stock:     NewGormStockRepository(tx),
			movements: NewGormMovementRepository(tx),
		})
	})
}

type gormRepositories struct {
	stock     *GormStockRepository
	movements *GormMovementRepository
}

func (r *gormRepositories) Stock() domain.StockLevelRepository {
	return r.stock
}

func (r *gormRepositories) Movements() domain.MovementRepository {
	return r.movements
}
