package repository

import (
	"errors"

	"detailing-crm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(customer *model.Customer) error
	FindPage(page, limit int, search string) ([]model.Customer, int64, error)
	Search(query string) ([]model.Customer, error)
	FindByID(id uuid.UUID) (*model.Customer, error)
	FindByPhone(phone string) (*model.Customer, error)
	HighestCustomerID() (string, error)
	Update(customer *model.Customer) error
	Delete(id uuid.UUID) error
	CreateVehicle(vehicle *model.Vehicle) error
	UpdateVehicle(vehicle *model.Vehicle) error
}

type customerRepo struct {
	db *gorm.DB
}

func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db}
}

func (r *customerRepo) Create(customer *model.Customer) error {
	return r.db.Create(customer).Error
}

// searchScope matches name, phone, or any of the customer's vehicle plates.
func searchScope(db *gorm.DB, search string) *gorm.DB {
	like := "%" + search + "%"
	return db.Where(
		"name LIKE ? OR phone LIKE ? OR id IN (SELECT customer_ref FROM vehicles WHERE plate_number LIKE ?)",
		like, like, like,
	)
}

func (r *customerRepo) FindPage(page, limit int, search string) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	query := r.db.Model(&model.Customer{})
	if search != "" {
		query = searchScope(query, search)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Vehicles", func(db *gorm.DB) *gorm.DB {
		return db.Order("vehicles.idx ASC")
	}).Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&customers).Error
	return customers, total, err
}

func (r *customerRepo) Search(query string) ([]model.Customer, error) {
	var customers []model.Customer
	err := searchScope(r.db.Preload("Vehicles"), query).Find(&customers).Error
	return customers, err
}

func (r *customerRepo) FindByID(id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.Preload("Vehicles", func(db *gorm.DB) *gorm.DB {
		return db.Order("vehicles.idx ASC")
	}).First(&customer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindByPhone(phone string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.Preload("Vehicles").First(&customer, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// HighestCustomerID returns the largest assigned cusNNN identifier, or "".
func (r *customerRepo) HighestCustomerID() (string, error) {
	var customer model.Customer
	err := r.db.Where("customer_id LIKE 'cus%'").
		Order("customer_id DESC").
		Select("customer_id").
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return customer.CustomerID, nil
}

func (r *customerRepo) Update(customer *model.Customer) error {
	return r.db.Save(customer).Error
}

// Delete removes the customer and everything hanging off them.
func (r *customerRepo) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Job{}, "customer_ref = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Vehicle{}, "customer_ref = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Customer{}, "id = ?", id).Error
	})
}

func (r *customerRepo) CreateVehicle(vehicle *model.Vehicle) error {
	return r.db.Create(vehicle).Error
}

func (r *customerRepo) UpdateVehicle(vehicle *model.Vehicle) error {
	return r.db.Save(vehicle).Error
}
