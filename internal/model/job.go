package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type JobStage string

const (
	StageNewLead        JobStage = "New Lead"
	StageInspectionDone JobStage = "Inspection Done"
	StageWorkInProgress JobStage = "Work In Progress"
	StageCompleted      JobStage = "Completed"
	StageCancelled      JobStage = "Cancelled"
)

// JobStages lists the funnel in order; Completed and Cancelled are terminal.
var JobStages = []JobStage{
	StageNewLead,
	StageInspectionDone,
	StageWorkInProgress,
	StageCompleted,
	StageCancelled,
}

// Terminal reports whether a job in this stage can no longer be mutated.
func (s JobStage) Terminal() bool {
	return s == StageCompleted || s == StageCancelled
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "Pending"
	PaymentPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentPaid          PaymentStatus = "Paid"
)

type PaymentMode string

const (
	PayCash         PaymentMode = "Cash"
	PayUPI          PaymentMode = "UPI"
	PayCard         PaymentMode = "Card"
	PayBankTransfer PaymentMode = "Bank Transfer"
	PayCheque       PaymentMode = "Cheque"
	PayOther        PaymentMode = "Other"
)

// Business is the invoicing entity a service item (and its invoice) belongs to.
// Materials and job-level discounts attach to the primary business only.
type Business string

const (
	BusinessAutoGamma Business = "Auto Gamma"
	BusinessSecond    Business = "Business 2"
)

// NormalizeBusiness maps free-form input onto the closed Business set,
// defaulting to the primary business.
func NormalizeBusiness(s string) Business {
	if strings.Contains(strings.ToLower(strings.TrimSpace(s)), "business 2") {
		return BusinessSecond
	}
	return BusinessAutoGamma
}

type Job struct {
	BaseModel
	CustomerRef  uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_ref" validate:"uuid_required"`
	VehicleIndex int       `gorm:"default:0" json:"vehicle_index" validate:"gte=0"`

	// Snapshots kept on the job so lists render without joins
	CustomerName string `gorm:"type:varchar(255)" json:"customer_name"`
	VehicleName  string `gorm:"type:varchar(255)" json:"vehicle_name"`
	PlateNumber  string `gorm:"type:varchar(30)" json:"plate_number"`

	Stage          JobStage   `gorm:"type:varchar(30);default:'New Lead'" json:"stage"`
	TechnicianRef  *uuid.UUID `gorm:"type:uuid;index" json:"technician_ref,omitempty"`
	TechnicianName string     `gorm:"type:varchar(255)" json:"technician_name"`
	Notes          string     `gorm:"type:text" json:"notes"`

	ServiceItems []ServiceItem `gorm:"foreignKey:JobID" json:"service_items,omitempty"`
	Materials    []JobMaterial `gorm:"foreignKey:JobID" json:"materials,omitempty"`

	LaborCost     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"labor_cost"`
	Discount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);default:'Pending'" json:"payment_status"`
	RequiresGST   bool            `gorm:"default:false" json:"requires_gst"`

	Payments []Payment `gorm:"foreignKey:JobID" json:"payments,omitempty"`
}

// ServiceItem is one billable service line on a job.
type ServiceItem struct {
	BaseModel
	JobID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Price            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	Discount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"`
	Type             string          `gorm:"type:varchar(20);default:'part'" json:"type"` // part | labor
	AssignedBusiness Business        `gorm:"type:varchar(30);default:'Auto Gamma'" json:"assigned_business"`
}

// JobMaterial records inventory drawn for a job, with the per-roll audit trail.
type JobMaterial struct {
	BaseModel
	JobID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	InventoryItemID uuid.UUID       `gorm:"type:uuid;not null" json:"inventory_item_id"`
	Name            string          `gorm:"type:varchar(255)" json:"name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Cost            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cost"`

	RollDetails []MaterialRollUsage `gorm:"foreignKey:JobMaterialID" json:"roll_details,omitempty"`
}

// MaterialRollUsage says which roll a material line drew from, and how much.
type MaterialRollUsage struct {
	BaseModel
	JobMaterialID uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_material_id"`
	RollID        uuid.UUID       `gorm:"type:uuid;not null" json:"roll_id"`
	RollName      string          `gorm:"type:varchar(255)" json:"roll_name"`
	QuantityUsed  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity_used"`
}

// Payment is one entry of a job's append-only payment ledger.
type Payment struct {
	BaseModel
	JobID               uuid.UUID       `gorm:"type:uuid;not null;index" json:"job_id"`
	Amount              decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Mode                PaymentMode     `gorm:"type:varchar(20);default:'Cash'" json:"mode"`
	Date                time.Time       `json:"date"`
	Notes               string          `gorm:"type:text" json:"notes"`
	OtherPaymentDetails string          `gorm:"type:varchar(255)" json:"other_payment_details"`
}

// PaymentStatusFor derives the ledger status from paid vs total.
func PaymentStatusFor(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case total.IsPositive() && paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartiallyPaid
	default:
		return PaymentPending
	}
}
