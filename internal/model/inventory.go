package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RollStatus string

const (
	RollAvailable RollStatus = "Available"
	RollFinished  RollStatus = "Finished"
)

// Measurement units carried by rolls and roll-tracked items
const (
	UnitSquareFeet = "Square Feet"
	UnitMeters     = "Meters"
)

// DepletionEpsilon is the tolerance under which a roll counts as empty.
// Remainders are stored as decimal(20,4) but proportional unit syncing can
// leave dust below a hundredth, which is not worth keeping a roll open for.
var DepletionEpsilon = decimal.NewFromFloat(0.01)

// InventoryItem is a stocked product: a PPF film category tracked by rolls,
// or a plain accessory counted by Quantity alone.
type InventoryItem struct {
	BaseModel
	Name     string           `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category string           `gorm:"type:varchar(100);not null" json:"category" validate:"required"`
	Unit     string           `gorm:"type:varchar(30);not null" json:"unit" validate:"required"`
	Quantity decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	MinStock decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"min_stock"`
	Price    *decimal.Decimal `gorm:"type:decimal(20,4)" json:"price,omitempty"` // per-unit, accessories only

	Rolls []Roll `gorm:"foreignKey:InventoryItemID" json:"rolls,omitempty"`
}

// ActiveRolls returns the rolls still available for consumption.
func (i *InventoryItem) ActiveRolls() []Roll {
	var active []Roll
	for _, r := range i.Rolls {
		if r.Status == RollAvailable {
			active = append(active, r)
		}
	}
	return active
}

// FinishedRolls returns the archived (depleted) rolls.
func (i *InventoryItem) FinishedRolls() []Roll {
	var finished []Roll
	for _, r := range i.Rolls {
		if r.Status == RollFinished {
			finished = append(finished, r)
		}
	}
	return finished
}

// HasActiveRolls reports whether stock for this item is roll-tracked.
func (i *InventoryItem) HasActiveRolls() bool {
	return len(i.ActiveRolls()) > 0
}

// Roll is a physical spool of PPF material. A roll records its original size
// in both meters and square feet plus the remaining amount in each; its Unit
// says which of the two is authoritative for consumption.
type Roll struct {
	BaseModel
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"inventory_item_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit            string          `gorm:"type:varchar(30);not null" json:"unit"`
	Meters          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"meters"`
	SquareFeet      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"square_feet"`
	RemainingMeters decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_meters"`
	RemainingSqft   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"remaining_sqft"`
	Status          RollStatus      `gorm:"type:varchar(20);default:'Available'" json:"status"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`
}

// Available returns the remaining quantity in the roll's native unit.
func (r *Roll) Available() decimal.Decimal {
	if r.Unit == UnitSquareFeet {
		return r.RemainingSqft
	}
	return r.RemainingMeters
}

// Deduct removes qty (in the roll's native unit) and keeps the other unit's
// remainder in proportion, so FIFO never needs per-unit branching downstream.
func (r *Roll) Deduct(qty decimal.Decimal) {
	zero := decimal.Zero
	if r.Unit == UnitSquareFeet {
		r.RemainingSqft = decimal.Max(zero, r.RemainingSqft.Sub(qty))
		if r.SquareFeet.IsPositive() && r.Meters.IsPositive() {
			r.RemainingMeters = r.RemainingSqft.Div(r.SquareFeet).Mul(r.Meters)
		}
	} else {
		r.RemainingMeters = decimal.Max(zero, r.RemainingMeters.Sub(qty))
		if r.Meters.IsPositive() && r.SquareFeet.IsPositive() {
			r.RemainingSqft = r.RemainingMeters.Div(r.Meters).Mul(r.SquareFeet)
		}
	}
}

// Depleted reports whether both remainders are within the depletion tolerance.
func (r *Roll) Depleted() bool {
	return r.RemainingMeters.LessThanOrEqual(DepletionEpsilon) &&
		r.RemainingSqft.LessThanOrEqual(DepletionEpsilon)
}

// Finish archives the roll: remainders are zeroed and the finish time stamped.
func (r *Roll) Finish(at time.Time) {
	r.RemainingMeters = decimal.Zero
	r.RemainingSqft = decimal.Zero
	r.Status = RollFinished
	r.FinishedAt = &at
}
