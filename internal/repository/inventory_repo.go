package repository

import (
	"errors"

	"detailing-crm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	Create(item *model.InventoryItem) error
	FindAll() ([]model.InventoryItem, error)
	FindByID(id uuid.UUID) (*model.InventoryItem, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error)
	Update(item *model.InventoryItem) error
	Delete(id uuid.UUID) error
	FindLowStock() ([]model.InventoryItem, error)
	AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
	SetQuantity(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error

	ActiveRollsOldestFirst(tx *gorm.DB, itemID uuid.UUID) ([]model.Roll, error)
	FindRoll(tx *gorm.DB, itemID, rollID uuid.UUID) (*model.Roll, error)
	CreateRoll(tx *gorm.DB, roll *model.Roll) error
	UpdateRollRemaining(tx *gorm.DB, roll *model.Roll) error
	DeleteRoll(tx *gorm.DB, itemID, rollID uuid.UUID) error
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

// forUpdate adds a row lock where the dialect supports it. The sqlite driver
// used by the test databases has no FOR UPDATE; its single-writer model covers
// the same mutation path there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func (r *inventoryRepo) Create(item *model.InventoryItem) error {
	return r.db.Create(item).Error
}

func (r *inventoryRepo) FindAll() ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.Preload("Rolls", func(db *gorm.DB) *gorm.DB {
		return db.Order("rolls.created_at ASC")
	}).Order("category ASC, name ASC").Find(&items).Error
	return items, err
}

func (r *inventoryRepo) FindByID(id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.Preload("Rolls", func(db *gorm.DB) *gorm.DB {
		return db.Order("rolls.created_at ASC")
	}).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := forUpdate(tx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *inventoryRepo) Update(item *model.InventoryItem) error {
	return r.db.Save(item).Error
}

func (r *inventoryRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.InventoryItem{}, "id = ?", id).Error
}

func (r *inventoryRepo) FindLowStock() ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.Where("quantity <= min_stock").Order("name ASC").Find(&items).Error
	return items, err
}

// AdjustQuantity increments the aggregate counter in a single statement.
// No lower bound is enforced here; callers validate sufficiency first.
func (r *inventoryRepo) AdjustQuantity(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return tx.Model(&model.InventoryItem{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (r *inventoryRepo) SetQuantity(tx *gorm.DB, id uuid.UUID, quantity decimal.Decimal) error {
	return tx.Model(&model.InventoryItem{}).
		Where("id = ?", id).
		UpdateColumn("quantity", quantity).Error
}

// ActiveRollsOldestFirst returns the item's available rolls in FIFO order.
// Rolls that somehow lost their created_at sort first, i.e. as oldest.
func (r *inventoryRepo) ActiveRollsOldestFirst(tx *gorm.DB, itemID uuid.UUID) ([]model.Roll, error) {
	var rolls []model.Roll
	err := tx.Where("inventory_item_id = ? AND status = ?", itemID, model.RollAvailable).
		Order("created_at ASC").
		Find(&rolls).Error
	return rolls, err
}

func (r *inventoryRepo) FindRoll(tx *gorm.DB, itemID, rollID uuid.UUID) (*model.Roll, error) {
	var roll model.Roll
	err := tx.First(&roll, "id = ? AND inventory_item_id = ?", rollID, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &roll, nil
}

func (r *inventoryRepo) CreateRoll(tx *gorm.DB, roll *model.Roll) error {
	return tx.Create(roll).Error
}

// UpdateRollRemaining persists a deduction (and archival, when the roll was
// depleted) as one UPDATE, so consumption and the status flip land together.
func (r *inventoryRepo) UpdateRollRemaining(tx *gorm.DB, roll *model.Roll) error {
	return tx.Model(&model.Roll{}).
		Where("id = ?", roll.ID).
		Updates(map[string]interface{}{
			"remaining_meters": roll.RemainingMeters,
			"remaining_sqft":   roll.RemainingSqft,
			"status":           roll.Status,
			"finished_at":      roll.FinishedAt,
		}).Error
}

func (r *inventoryRepo) DeleteRoll(tx *gorm.DB, itemID, rollID uuid.UUID) error {
	return tx.Delete(&model.Roll{}, "id = ? AND inventory_item_id = ?", rollID, itemID).Error
}
