package repository

import (
	"errors"

	"detailing-crm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(tx *gorm.DB, invoice *model.Invoice) error
	FindAll() ([]model.Invoice, error)
	FindByID(id uuid.UUID) (*model.Invoice, error)
	FindByJob(jobID uuid.UUID) ([]model.Invoice, error)
	FirstByJob(jobID uuid.UUID) (*model.Invoice, error)
	HighestInvoiceNumber(tx *gorm.DB) (string, error)
	UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
}

type invoiceRepo struct {
	db *gorm.DB
}

func NewInvoiceRepo(db *gorm.DB) InvoiceRepository {
	return &invoiceRepo{db}
}

func (r *invoiceRepo) Create(tx *gorm.DB, invoice *model.Invoice) error {
	return tx.Create(invoice).Error
}

func (r *invoiceRepo) FindAll() ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.Preload("Items").Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) FindByID(id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.Preload("Items").First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) FindByJob(jobID uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.Preload("Items").
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

// FirstByJob returns the earliest invoice for a job (the primary-business one
// in practice), used when mirroring job payments onto an invoice.
func (r *invoiceRepo) FirstByJob(jobID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.Where("job_id = ?", jobID).Order("created_at ASC").First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// HighestInvoiceNumber returns the lexicographically highest INVnnnn number.
// Zero-padding keeps lexicographic and numeric order aligned.
func (r *invoiceRepo) HighestInvoiceNumber(tx *gorm.DB) (string, error) {
	var invoice model.Invoice
	err := tx.Select("invoice_number").
		Order("invoice_number DESC").
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return invoice.InvoiceNumber, nil
}

func (r *invoiceRepo) UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Invoice{}).Where("id = ?", id).Updates(fields).Error
}
