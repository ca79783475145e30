package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// GormStockRepository implements the stock level store on GORM. Instances are
// bound to either the root connection (reads) or an open transaction (writes
// via the unit of work).
type GormStockRepository struct {
	db *gorm.DB
}

func NewGormStockRepository(db *gorm.DB) *GormStockRepository {
	return &GormStockRepository{db: db}
}

func (r *GormStockRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.StockLevel{})
}

func (r *GormStockRepository) Find(productID, warehouseID uint) (*domain.StockLevel, error) {
	var level domain.StockLevel
	err := r.db.Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

// GetForUpdate fetches the row under SELECT ... FOR UPDATE, creating a
// zero-quantity row first if the pair was never stocked. First-touch creation
// runs inside the caller's transaction, so two concurrent first touches
// serialize on the unique (product_id, warehouse_id) index rather than
// racing.
func (r *GormStockRepository) GetForUpdate(productID, warehouseID uint) (*domain.StockLevel, error) {
	var level domain.StockLevel
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&level).Error
	if err == nil {
		return &level, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	level = domain.StockLevel{ProductID: productID, WarehouseID: warehouseID}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&level).Error; err != nil {
		return nil, err
	}

	err = r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *GormStockRepository) ApplyDelta(level *domain.StockLevel, delta int) (int, int, error) {
	before := level.Quantity
	level.Quantity += delta
	level.Recompute()
	if err := r.db.Save(level).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to apply stock delta: %w", err)
	}
	return before, level.Quantity, nil
}

func (r *GormStockRepository) Reserve(productID, warehouseID uint, amount int) (bool, error) {
	level, err := r.GetForUpdate(productID, warehouseID)
	if err != nil {
		return false, err
	}
	if level.AvailableQuantity < amount {
		return false, nil
	}
	level.ReservedQuantity += amount
	level.Recompute()
	if err := r.db.Save(level).Error; err != nil {
		return false, fmt.Errorf("failed to reserve stock: %w", err)
	}
	return true, nil
}

func (r *GormStockRepository) Release(productID, warehouseID uint, amount int) error {
	level, err := r.GetForUpdate(productID, warehouseID)
	if err != nil {
		return err
	}
	level.ReservedQuantity -= amount
	if level.ReservedQuantity < 0 {
		level.ReservedQuantity = 0
	}
	level.Recompute()
	if err := r.db.Save(level).Error; err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

func (r *GormStockRepository) FindAll(limit, offset int) ([]domain.StockLevel, error) {
	var levels []domain.StockLevel
	err := r.db.Limit(limit).Offset(offset).
		Order("product_id, warehouse_id").
		Find(&levels).Error
	return levels, err
}

func (r *GormStockRepository) FindByProduct(productID uint) ([]domain.StockLevel, error) {
	var levels []domain.StockLevel
	err := r.db.Where("product_id = ?", productID).Find(&levels).Error
	return levels, err
}
