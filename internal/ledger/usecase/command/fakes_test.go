package command

import (
	"context"

	"gorm.io/gorm"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
)

// In-memory stand-ins for the repository contracts. The unit of work is a
// pass-through: handler logic is exercised without a database, transactional
// behavior itself is the repository layer's concern.

type levelKey struct {
	productID   uint
	warehouseID uint
}

type memoryStore struct {
	levels     map[levelKey]*domain.StockLevel
	levelOrder []levelKey
	movements  []domain.StockMovement
	products   map[uint]*domain.Product
	packages   map[uint]*domain.Package
	warehouse  *domain.Warehouse
	nextID     uint
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		levels:   make(map[levelKey]*domain.StockLevel),
		products: make(map[uint]*domain.Product),
		packages: make(map[uint]*domain.Package),
	}
}

func (s *memoryStore) addProduct(id uint) {
	s.products[id] = &domain.Product{ID: id, Name: "product", TrackQuantity: true}
}

func (s *memoryStore) addUntrackedProduct(id uint) {
	s.products[id] = &domain.Product{ID: id, Name: "service item", TrackQuantity: false}
}

func (s *memoryStore) addPackage(pkg *domain.Package) {
	s.packages[pkg.ID] = pkg
}

func (s *memoryStore) setLevel(productID, warehouseID uint, quantity int) {
	k := levelKey{productID: productID, warehouseID: warehouseID}
	s.nextID++
	level := &domain.StockLevel{
		ID:          s.nextID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Quantity:    quantity,
	}
	level.Recompute()
	s.levels[k] = level
	s.levelOrder = append(s.levelOrder, k)
}

func (s *memoryStore) level(productID, warehouseID uint) *domain.StockLevel {
	return s.levels[levelKey{productID: productID, warehouseID: warehouseID}]
}

func (s *memoryStore) movementsFor(refType domain.ReferenceType, refID, productID uint) []domain.StockMovement {
	var out []domain.StockMovement
	for _, m := range s.movements {
		if m.ReferenceType == refType && m.ReferenceID == refID && m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out
}

type memoryStock struct {
	store *memoryStore
}

func (r memoryStock) Find(productID, warehouseID uint) (*domain.StockLevel, error) {
	level := r.store.level(productID, warehouseID)
	if level == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return level, nil
}

func (r memoryStock) GetForUpdate(productID, warehouseID uint) (*domain.StockLevel, error) {
	if level := r.store.level(productID, warehouseID); level != nil {
		return level, nil
	}
	r.store.setLevel(productID, warehouseID, 0)
	return r.store.level(productID, warehouseID), nil
}

func (r memoryStock) ApplyDelta(level *domain.StockLevel, delta int) (int, int, error) {
	before := level.Quantity
	level.Quantity += delta
	level.Recompute()
	return before, level.Quantity, nil
}

func (r memoryStock) Reserve(productID, warehouseID uint, amount int) (bool, error) {
	level, err := r.GetForUpdate(productID, warehouseID)
	if err != nil {
		return false, err
	}
	if level.AvailableQuantity < amount {
		return false, nil
	}
	level.ReservedQuantity += amount
	level.Recompute()
	return true, nil
}

func (r memoryStock) Release(productID, warehouseID uint, amount int) error {
	level := r.store.level(productID, warehouseID)
	if level == nil {
		return gorm.ErrRecordNotFound
	}
	level.ReservedQuantity -= amount
	if level.ReservedQuantity < 0 {
		level.ReservedQuantity = 0
	}
	level.Recompute()
	return nil
}

func (r memoryStock) FindAll(limit, offset int) ([]domain.StockLevel, error) {
	var out []domain.StockLevel
	for i := offset; i < len(r.store.levelOrder) && len(out) < limit; i++ {
		out = append(out, *r.store.levels[r.store.levelOrder[i]])
	}
	return out, nil
}

func (r memoryStock) FindByProduct(productID uint) ([]domain.StockLevel, error) {
	var out []domain.StockLevel
	for _, k := range r.store.levelOrder {
		if k.productID == productID {
			out = append(out, *r.store.levels[k])
		}
	}
	return out, nil
}

type memoryMovements struct {
	store *memoryStore
}

func (r memoryMovements) Append(_ context.Context, movement *domain.StockMovement) error {
	r.store.nextID++
	movement.ID = r.store.nextID
	r.store.movements = append(r.store.movements, *movement)
	return nil
}

func (r memoryMovements) Exists(_ context.Context, refType domain.ReferenceType, refID, productID uint) (bool, error) {
	return len(r.store.movementsFor(refType, refID, productID)) > 0, nil
}

func (r memoryMovements) DeductedQuantity(_ context.Context, refType domain.ReferenceType, refID, productID uint) (int, error) {
	total := 0
	for _, m := range r.store.movementsFor(refType, refID, productID) {
		if m.Type == domain.MovementOut {
			total += -m.Quantity
		}
	}
	return total, nil
}

func (r memoryMovements) SumByProductWarehouse(_ context.Context, productID, warehouseID uint) (int, error) {
	total := 0
	for _, m := range r.store.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			total += m.Quantity
		}
	}
	return total, nil
}

func (r memoryMovements) FindByProduct(_ context.Context, productID uint, limit, offset int) ([]domain.StockMovement, error) {
	var matched []domain.StockMovement
	for i := len(r.store.movements) - 1; i >= 0; i-- {
		if r.store.movements[i].ProductID == productID {
			matched = append(matched, r.store.movements[i])
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

type memoryCatalog struct {
	store *memoryStore
}

func (r memoryCatalog) FindProduct(id uint) (*domain.Product, error) {
	product, ok := r.store.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (r memoryCatalog) FindPackage(id uint) (*domain.Package, error) {
	pkg, ok := r.store.packages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return pkg, nil
}

func (r memoryCatalog) DefaultWarehouse() (*domain.Warehouse, error) {
	if r.store.warehouse == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.store.warehouse, nil
}

type memoryRepos struct {
	store *memoryStore
}

func (r memoryRepos) Stock() domain.StockLevelRepository {
	return memoryStock{store: r.store}
}

func (r memoryRepos) Movements() domain.MovementRepository {
	return memoryMovements{store: r.store}
}

type memoryUnitOfWork struct {
	store *memoryStore
}

func (u memoryUnitOfWork) Execute(_ context.Context, fn func(repos domain.LedgerRepositories) error) error {
	return fn(memoryRepos{store: u.store})
}

type recordingPublisher struct {
	deducted []domain.Reference
	received []domain.Reference
}

func (p *recordingPublisher) StockDeducted(_ context.Context, ref domain.Reference, _ domain.DeductionResult) {
	p.deducted = append(p.deducted, ref)
}

func (p *recordingPublisher) StockReceived(_ context.Context, ref domain.Reference, _ int) {
	p.received = append(p.received, ref)
}
