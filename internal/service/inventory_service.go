package service

import (
	"errors"
	"fmt"
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/internal/ws"
	"detailing-crm/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInventoryItemNotFound = errors.New("inventory item not found")

// InsufficientStockError reports a consumption request that exceeds what an
// item currently has available.
type InsufficientStockError struct {
	Item      string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %s, Requested: %s",
		e.Item, e.Available, e.Requested)
}

// ConsumedRoll is one entry of the FIFO audit trail: which roll was drawn
// from and how much, in the roll's native unit.
type ConsumedRoll struct {
	RollID       uuid.UUID       `json:"roll_id"`
	RollName     string          `json:"roll_name"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
}

// ConsumeResult is the outcome of one FIFO consumption call. On failure
// nothing has been mutated and ConsumedRolls is empty.
type ConsumeResult struct {
	Success       bool           `json:"success"`
	ConsumedRolls []ConsumedRoll `json:"consumed_rolls"`
}

type AddRollRequest struct {
	Name       string          `json:"name" validate:"required"`
	Unit       string          `json:"unit"`
	Meters     decimal.Decimal `json:"meters"`
	SquareFeet decimal.Decimal `json:"square_feet"`
}

type AccessorySaleRequest struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id" validate:"uuid_required"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CustomerName    string          `json:"customer_name"`
}

type InventoryService interface {
	CreateItem(req *model.InventoryItem) error
	UpdateItem(id uuid.UUID, req *model.InventoryItem) (*model.InventoryItem, error)
	DeleteItem(id uuid.UUID) error
	GetItems() ([]model.InventoryItem, error)
	GetItem(id uuid.UUID) (*model.InventoryItem, error)
	GetLowStockItems() ([]model.InventoryItem, error)
	AdjustQuantity(id uuid.UUID, delta decimal.Decimal) (*model.InventoryItem, error)

	AddRoll(itemID uuid.UUID, req *AddRollRequest) (*model.InventoryItem, error)
	DeleteRoll(itemID, rollID uuid.UUID) (*model.InventoryItem, error)

	// ConsumeRollsFIFO drains the item's oldest rolls first to satisfy qty.
	// ConsumeRollsFIFOTx is the same operation scoped to a caller-provided
	// transaction, used by the job materials flow to stay atomic with the
	// job mutation.
	ConsumeRollsFIFO(itemID uuid.UUID, qty decimal.Decimal) (*ConsumeResult, error)
	ConsumeRollsFIFOTx(tx *gorm.DB, itemID uuid.UUID, qty decimal.Decimal) (*ConsumeResult, error)

	RecordAccessorySale(req *AccessorySaleRequest) (*model.AccessorySale, error)
	GetAccessorySales() ([]model.AccessorySale, error)
}

type inventoryService struct {
	itemRepo repository.InventoryRepository
	saleRepo repository.AccessorySaleRepository
	db       *gorm.DB
	wsHub    *ws.Hub
}

func NewInventoryService(itemRepo repository.InventoryRepository, saleRepo repository.AccessorySaleRepository, db *gorm.DB, hub *ws.Hub) InventoryService {
	return &inventoryService{
		itemRepo: itemRepo,
		saleRepo: saleRepo,
		db:       db,
		wsHub:    hub,
	}
}

func (s *inventoryService) publish(event string, payload interface{}) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.PublishEvent(event, payload)
}

func (s *inventoryService) CreateItem(req *model.InventoryItem) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if err := s.itemRepo.Create(req); err != nil {
		return err
	}
	s.publish("inventory_created", req)
	return nil
}

func (s *inventoryService) UpdateItem(id uuid.UUID, req *model.InventoryItem) (*model.InventoryItem, error) {
	existing, err := s.itemRepo.FindByID(id)
	if err != nil || existing == nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.Category = req.Category
	existing.Unit = req.Unit
	existing.MinStock = req.MinStock
	existing.Price = req.Price
	// Quantity for roll-tracked items is derived from rolls and not editable
	// directly; accessories may be corrected here.
	if !existing.HasActiveRolls() {
		existing.Quantity = req.Quantity
	}

	if err := s.itemRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *inventoryService) DeleteItem(id uuid.UUID) error {
	return s.itemRepo.Delete(id)
}

func (s *inventoryService) GetItems() ([]model.InventoryItem, error) {
	return s.itemRepo.FindAll()
}

func (s *inventoryService) GetItem(id uuid.UUID) (*model.InventoryItem, error) {
	return s.itemRepo.FindByID(id)
}

func (s *inventoryService) GetLowStockItems() ([]model.InventoryItem, error) {
	return s.itemRepo.FindLowStock()
}

// AdjustQuantity applies a raw delta to the aggregate counter. Callers are
// responsible for validating sufficiency before decrementing.
func (s *inventoryService) AdjustQuantity(id uuid.UUID, delta decimal.Decimal) (*model.InventoryItem, error) {
	item, err := s.itemRepo.FindByID(id)
	if err != nil || item == nil {
		return nil, err
	}
	if err := s.itemRepo.AdjustQuantity(s.db, id, delta); err != nil {
		return nil, err
	}
	return s.itemRepo.FindByID(id)
}

func normalizeRollUnit(unit string) string {
	if unit == model.UnitSquareFeet || unit == model.UnitMeters {
		return unit
	}
	return model.UnitMeters
}

// AddRoll appends a fresh roll and bumps the aggregate by the roll's size in
// its native unit.
func (s *inventoryService) AddRoll(itemID uuid.UUID, req *AddRollRequest) (*model.InventoryItem, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	found := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.FindForUpdate(tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		found = true

		unit := normalizeRollUnit(req.Unit)
		roll := &model.Roll{
			InventoryItemID: itemID,
			Name:            req.Name,
			Unit:            unit,
			Meters:          req.Meters,
			SquareFeet:      req.SquareFeet,
			RemainingMeters: req.Meters,
			RemainingSqft:   req.SquareFeet,
			Status:          model.RollAvailable,
		}
		if err := s.itemRepo.CreateRoll(tx, roll); err != nil {
			return err
		}

		qtyToAdd := req.Meters
		if unit == model.UnitSquareFeet {
			qtyToAdd = req.SquareFeet
		}
		return s.itemRepo.SetQuantity(tx, itemID, item.Quantity.Add(qtyToAdd))
	})
	if err != nil || !found {
		return nil, err
	}

	item, err := s.itemRepo.FindByID(itemID)
	if err == nil && item != nil {
		s.publish("roll_added", item)
	}
	return item, err
}

// DeleteRoll removes a roll from the active stock. The aggregate drops by the
// roll's remaining amount, not its original size, so material already consumed
// is not double-counted.
func (s *inventoryService) DeleteRoll(itemID, rollID uuid.UUID) (*model.InventoryItem, error) {
	found := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.FindForUpdate(tx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		found = true

		roll, err := s.itemRepo.FindRoll(tx, itemID, rollID)
		if err != nil {
			return err
		}
		if roll == nil || roll.Status != model.RollAvailable {
			return nil
		}

		newQty := decimal.Max(decimal.Zero, item.Quantity.Sub(roll.Available()))
		if err := s.itemRepo.SetQuantity(tx, itemID, newQty); err != nil {
			return err
		}
		return s.itemRepo.DeleteRoll(tx, itemID, rollID)
	})
	if err != nil || !found {
		return nil, err
	}
	return s.itemRepo.FindByID(itemID)
}

func (s *inventoryService) ConsumeRollsFIFO(itemID uuid.UUID, qty decimal.Decimal) (*ConsumeResult, error) {
	var result *ConsumeResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		r, err := s.ConsumeRollsFIFOTx(tx, itemID, qty)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if result != nil && result.Success {
		s.publish("stock_consumed", map[string]interface{}{
			"inventory_item_id": itemID,
			"quantity":          qty,
			"consumed_rolls":    result.ConsumedRolls,
		})
	}
	return result, nil
}

// ConsumeRollsFIFOTx satisfies qty by draining active rolls oldest-first.
// The item row is locked for the duration of the transaction, so the
// pre-check sum and the subsequent deductions see a consistent view. A roll
// whose remainders fall within the depletion tolerance is archived in the
// same UPDATE that records the deduction.
func (s *inventoryService) ConsumeRollsFIFOTx(tx *gorm.DB, itemID uuid.UUID, qty decimal.Decimal) (*ConsumeResult, error) {
	failed := &ConsumeResult{Success: false, ConsumedRolls: []ConsumedRoll{}}

	item, err := s.itemRepo.FindForUpdate(tx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return failed, nil
	}

	rolls, err := s.itemRepo.ActiveRollsOldestFirst(tx, itemID)
	if err != nil {
		return nil, err
	}
	if len(rolls) == 0 {
		return failed, nil
	}

	available := decimal.Zero
	for i := range rolls {
		available = available.Add(rolls[i].Available())
	}
	if available.LessThan(qty) {
		return failed, nil
	}

	needed := qty
	consumed := []ConsumedRoll{}
	now := time.Now()

	for i := range rolls {
		if !needed.IsPositive() {
			break
		}
		roll := &rolls[i]
		avail := roll.Available()
		if !avail.IsPositive() {
			continue
		}

		use := decimal.Min(avail, needed)
		roll.Deduct(use)
		needed = needed.Sub(use)
		consumed = append(consumed, ConsumedRoll{
			RollID:       roll.ID,
			RollName:     roll.Name,
			QuantityUsed: use,
		})

		if roll.Depleted() {
			roll.Finish(now)
			logrus.WithFields(logrus.Fields{
				"item": item.Name,
				"roll": roll.Name,
			}).Info("archiving depleted roll")
		}
		if err := s.itemRepo.UpdateRollRemaining(tx, roll); err != nil {
			return nil, err
		}
	}

	newQty := decimal.Max(decimal.Zero, item.Quantity.Sub(qty))
	if err := s.itemRepo.SetQuantity(tx, itemID, newQty); err != nil {
		return nil, err
	}

	return &ConsumeResult{Success: true, ConsumedRolls: consumed}, nil
}

// RecordAccessorySale sells a counted (non-roll) item over the counter:
// validates stock, decrements it, and stores the sale row.
func (s *inventoryService) RecordAccessorySale(req *AccessorySaleRequest) (*model.AccessorySale, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if !req.Quantity.IsPositive() {
		return nil, errors.New("sale quantity must be greater than zero")
	}

	var sale *model.AccessorySale
	err := s.db.Transaction(func(tx *gorm.DB) error {
		item, err := s.itemRepo.FindForUpdate(tx, req.InventoryItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrInventoryItemNotFound
		}
		if item.Quantity.LessThan(req.Quantity) {
			return &InsufficientStockError{Item: item.Name, Available: item.Quantity, Requested: req.Quantity}
		}

		if err := s.itemRepo.AdjustQuantity(tx, item.ID, req.Quantity.Neg()); err != nil {
			return err
		}

		unitPrice := req.UnitPrice
		if unitPrice.IsZero() && item.Price != nil {
			unitPrice = *item.Price
		}
		sale = &model.AccessorySale{
			InventoryItemID: item.ID,
			ItemName:        item.Name,
			Quantity:        req.Quantity,
			UnitPrice:       unitPrice,
			Total:           unitPrice.Mul(req.Quantity),
			Date:            time.Now(),
			CustomerName:    req.CustomerName,
		}
		return s.saleRepo.Create(tx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.publish("accessory_sold", sale)
	return sale, nil
}

func (s *inventoryService) GetAccessorySales() ([]model.AccessorySale, error) {
	return s.saleRepo.FindAll()
}
