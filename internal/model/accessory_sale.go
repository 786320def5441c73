package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccessorySale records an over-the-counter sale of a non-roll accessory.
// Stock is decremented through the inventory ledger when the sale is recorded.
type AccessorySale struct {
	BaseModel
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"inventory_item_id" validate:"uuid_required"`
	ItemName        string          `gorm:"type:varchar(255)" json:"item_name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Total           decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Date            time.Time       `json:"date"`
	CustomerName    string          `gorm:"type:varchar(255)" json:"customer_name"`
}
