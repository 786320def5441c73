package repository

import (
	"errors"

	"detailing-crm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TechnicianRepository interface {
	Create(technician *model.Technician) error
	FindAll() ([]model.Technician, error)
	FindByID(id uuid.UUID) (*model.Technician, error)
	Update(technician *model.Technician) error
}

type technicianRepo struct {
	db *gorm.DB
}

func NewTechnicianRepo(db *gorm.DB) TechnicianRepository {
	return &technicianRepo{db}
}

func (r *technicianRepo) Create(technician *model.Technician) error {
	return r.db.Create(technician).Error
}

func (r *technicianRepo) FindAll() ([]model.Technician, error) {
	var technicians []model.Technician
	err := r.db.Order("name ASC").Find(&technicians).Error
	return technicians, err
}

func (r *technicianRepo) FindByID(id uuid.UUID) (*model.Technician, error) {
	var technician model.Technician
	err := r.db.First(&technician, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *technicianRepo) Update(technician *model.Technician) error {
	return r.db.Save(technician).Error
}
