package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceItemType string

const (
	InvoiceItemService  InvoiceItemType = "service"
	InvoiceItemMaterial InvoiceItemType = "material"
)

// Invoice is a financial document derived from one job, scoped to a single
// business entity. A job split across businesses yields one invoice per
// business carrying its assigned service items.
type Invoice struct {
	BaseModel
	JobID       uuid.UUID `gorm:"type:uuid;not null;index" json:"job_id"`
	CustomerRef uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_ref"`

	// Customer/vehicle snapshot taken at generation time
	CustomerName    string `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone   string `gorm:"type:varchar(30)" json:"customer_phone"`
	CustomerEmail   string `gorm:"type:varchar(255)" json:"customer_email"`
	CustomerAddress string `gorm:"type:text" json:"customer_address"`
	VehicleName     string `gorm:"type:varchar(255)" json:"vehicle_name"`
	PlateNumber     string `gorm:"type:varchar(30)" json:"plate_number"`

	InvoiceNumber string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"invoice_number"` // INV0001, ...
	Items         []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`

	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	Tax         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	Discount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`

	PaidAmount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	PaymentStatus       PaymentStatus   `gorm:"type:varchar(20);default:'Pending'" json:"payment_status"`
	PaymentMode         PaymentMode     `gorm:"type:varchar(20)" json:"payment_mode"`
	OtherPaymentDetails string          `gorm:"type:varchar(255)" json:"other_payment_details"`

	Business Business `gorm:"type:varchar(30);not null;default:'Auto Gamma'" json:"business"`
}

type InvoiceItem struct {
	BaseModel
	InvoiceID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Description      string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity         decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_price"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total"`
	Type             InvoiceItemType `gorm:"type:varchar(20);default:'service'" json:"type"`
	Discount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	AssignedBusiness Business        `gorm:"type:varchar(30);default:'Auto Gamma'" json:"assigned_business"`
}
