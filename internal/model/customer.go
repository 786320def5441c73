package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerStatus string

const (
	CustomerInquired  CustomerStatus = "Inquired"
	CustomerWorking   CustomerStatus = "Working"
	CustomerWaiting   CustomerStatus = "Waiting"
	CustomerCompleted CustomerStatus = "Completed"
	CustomerCancelled CustomerStatus = "Cancelled"
)

type Customer struct {
	BaseModel
	CustomerID string         `gorm:"type:varchar(20);uniqueIndex" json:"customer_id"` // cus001, cus002, ...
	Name       string         `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Phone      string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"phone" validate:"required"`
	Email      string         `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
	Address    string         `gorm:"type:text" json:"address"`
	City       string         `gorm:"type:varchar(100)" json:"city"`
	District   string         `gorm:"type:varchar(100)" json:"district"`
	State      string         `gorm:"type:varchar(100)" json:"state"`
	Status     CustomerStatus `gorm:"type:varchar(20);default:'Inquired'" json:"status"`

	ReferrerName  string `gorm:"type:varchar(255)" json:"referrer_name"`
	ReferrerPhone string `gorm:"type:varchar(30)" json:"referrer_phone"`

	Vehicles []Vehicle `gorm:"foreignKey:CustomerRef" json:"vehicles,omitempty"`
}

// Vehicle belongs to a customer and is addressed by its per-customer Idx,
// matching how jobs reference the vehicle they were opened for.
type Vehicle struct {
	BaseModel
	CustomerRef uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_ref"`
	Idx         int       `gorm:"not null" json:"idx"`
	Make        string    `gorm:"type:varchar(100)" json:"make"`
	Model       string    `gorm:"type:varchar(100)" json:"model"`
	Year        string    `gorm:"type:varchar(10)" json:"year"`
	PlateNumber string    `gorm:"type:varchar(30)" json:"plate_number"`
	Color       string    `gorm:"type:varchar(50)" json:"color"`
	VIN         string    `gorm:"type:varchar(50)" json:"vin"`

	// PPF service preferences remembered for repeat work on the same vehicle
	PPFCategory    string          `gorm:"type:varchar(100)" json:"ppf_category"`
	PPFVehicleType string          `gorm:"type:varchar(100)" json:"ppf_vehicle_type"`
	PPFWarranty    string          `gorm:"type:varchar(100)" json:"ppf_warranty"`
	PPFPrice       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"ppf_price"`
	LaborCost      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labor_cost"`
	OtherServices  string          `gorm:"type:text" json:"other_services"`
}

// VehicleAt returns the vehicle with the given per-customer index, or nil.
func (c *Customer) VehicleAt(idx int) *Vehicle {
	for i := range c.Vehicles {
		if c.Vehicles[i].Idx == idx {
			return &c.Vehicles[i]
		}
	}
	return nil
}
