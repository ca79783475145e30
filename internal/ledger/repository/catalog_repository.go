package repository

import (
	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// GormCatalogRepository resolves products, packages and warehouses.
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&domain.Product{},
		&domain.Package{},
		&domain.PackageItem{},
		&domain.Warehouse{},
	)
}

func (r *GormCatalogRepository) FindProduct(id uint) (*domain.Product, error) {
	var product domain.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormCatalogRepository) FindPackage(id uint) (*domain.Package, error) {
	var pkg domain.Package
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("package_items.position, package_items.id")
	}).First(&pkg, id).Error
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *GormCatalogRepository) DefaultWarehouse() (*domain.Warehouse, error) {
	var warehouse domain.Warehouse
	err := r.db.Where("is_default = ? AND active = ?", true, true).
		Order("id").
		First(&warehouse).Error
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}
