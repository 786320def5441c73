package repository

import (
	"detailing-crm/internal/model"

	"gorm.io/gorm"
)

type AccessorySaleRepository interface {
	Create(tx *gorm.DB, sale *model.AccessorySale) error
	FindAll() ([]model.AccessorySale, error)
}

type accessorySaleRepo struct {
	db *gorm.DB
}

func NewAccessorySaleRepo(db *gorm.DB) AccessorySaleRepository {
	return &accessorySaleRepo{db}
}

func (r *accessorySaleRepo) Create(tx *gorm.DB, sale *model.AccessorySale) error {
	return tx.Create(sale).Error
}

func (r *accessorySaleRepo) FindAll() ([]model.AccessorySale, error) {
	var sales []model.AccessorySale
	err := r.db.Order("date DESC").Find(&sales).Error
	return sales, err
}
