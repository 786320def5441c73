package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentDone      AppointmentStatus = "Done"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// Appointment is a scheduled visit; it may later be converted into a job.
type Appointment struct {
	BaseModel
	CustomerName  string `gorm:"type:varchar(255);not null" json:"customer_name" validate:"required"`
	CustomerPhone string `gorm:"type:varchar(30);not null" json:"customer_phone" validate:"required"`
	CustomerEmail string `gorm:"type:varchar(255)" json:"customer_email" validate:"omitempty,email"`
	VehicleInfo   string `gorm:"type:varchar(255)" json:"vehicle_info"`
	ServiceType   string `gorm:"type:varchar(255)" json:"service_type" validate:"required"`

	Date  time.Time `gorm:"not null;index" json:"date"`
	Time  string    `gorm:"type:varchar(5)" json:"time"` // HH:MM
	Notes string    `gorm:"type:text" json:"notes"`

	Status AppointmentStatus `gorm:"type:varchar(20);default:'Scheduled'" json:"status"`
	JobID  *uuid.UUID        `gorm:"type:uuid" json:"job_id,omitempty"`
}
