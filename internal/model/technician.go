package model

type TechnicianStatus string

const (
	TechnicianAvailable TechnicianStatus = "Available"
	TechnicianBusy      TechnicianStatus = "Busy"
	TechnicianOff       TechnicianStatus = "Off"
)

type Technician struct {
	BaseModel
	Name      string           `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Specialty string           `gorm:"type:varchar(255);not null" json:"specialty" validate:"required"`
	Phone     string           `gorm:"type:varchar(30)" json:"phone"`
	Status    TechnicianStatus `gorm:"type:varchar(20);default:'Available'" json:"status"`
}
