package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// GormMovementRepository implements the append-only movement ledger on GORM.
type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.StockMovement{})
}

func (r *GormMovementRepository) Append(ctx context.Context, movement *domain.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *GormMovementRepository) Exists(ctx context.Context, refType domain.ReferenceType, refID, productID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.StockMovement{}).
		Where("reference_type = ? AND reference_id = ? AND product_id = ?", refType, refID, productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormMovementRepository) DeductedQuantity(ctx context.Context, refType domain.ReferenceType, refID, productID uint) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&domain.StockMovement{}).
		Where("reference_type = ? AND reference_id = ? AND product_id = ? AND type = ?",
			refType, refID, productID, domain.MovementOut).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	// Out movements carry negative deltas; report deducted units positive.
	return int(-sum), nil
}

func (r *GormMovementRepository) SumByProductWarehouse(ctx context.Context, productID, warehouseID uint) (int, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&domain.StockMovement{}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return int(sum), nil
}

func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	var movements []domain.StockMovement
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).
		Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&movements).Error
	return movements, err
}
