package domain

import "time"

// Package is a named bundle of products. Expansion uses the currently
// configured composition; editing a package never rewrites movements that were
// already recorded.
type Package struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	Name      string        `json:"name" gorm:"not null"`
	Items     []PackageItem `json:"items" gorm:"foreignKey:PackageID"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// TableName specifies the table name
func (Package) TableName() string {
	return "packages"
}

// PackageItem is one constituent product of a package.
type PackageItem struct {
	ID                 uint `json:"id" gorm:"primaryKey"`
	PackageID          uint `json:"package_id" gorm:"not null;index"`
	ProductID          uint `json:"product_id" gorm:"not null"`
	QuantityPerPackage int  `json:"quantity_per_package" gorm:"not null"`
	Position           int  `json:"position" gorm:"not null;default:0"`
}

// TableName specifies the table name
func (PackageItem) TableName() string {
	return "package_items"
}

// ProductQuantity is one expanded deduction target.
type ProductQuantity struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Expand resolves the package into constituent (product, quantity) pairs for
// the ordered quantity. Pure; a package with no items expands to an empty
// slice and the caller treats the line as a warned no-op. Items listing the
// same product more than once are merged into one summed target: the ledger
// records at most one movement per (reference, product), so that movement
// must carry the product's full quantity.
func (p *Package) Expand(orderedQuantity int) []ProductQuantity {
	targets := make([]ProductQuantity, 0, len(p.Items))
	index := make(map[uint]int, len(p.Items))
	for _, item := range p.Items {
		if i, ok := index[item.ProductID]; ok {
			targets[i].Quantity += orderedQuantity * item.QuantityPerPackage
			continue
		}
		index[item.ProductID] = len(targets)
		targets = append(targets, ProductQuantity{
			ProductID: item.ProductID,
			Quantity:  orderedQuantity * item.QuantityPerPackage,
		})
	}
	return targets
}
