package repository

import (
	"errors"
	"time"

	"detailing-crm/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(appointment *model.Appointment) error
	FindPage(page, limit int, date *time.Time) ([]model.Appointment, int64, error)
	FindByDate(date time.Time) ([]model.Appointment, error)
	FindByID(id uuid.UUID) (*model.Appointment, error)
	Update(appointment *model.Appointment) error
	Delete(id uuid.UUID) error
}

type appointmentRepo struct {
	db *gorm.DB
}

func NewAppointmentRepo(db *gorm.DB) AppointmentRepository {
	return &appointmentRepo{db}
}

func (r *appointmentRepo) Create(appointment *model.Appointment) error {
	return r.db.Create(appointment).Error
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

func (r *appointmentRepo) FindPage(page, limit int, date *time.Time) ([]model.Appointment, int64, error) {
	var appointments []model.Appointment
	var total int64

	query := r.db.Model(&model.Appointment{})
	if date != nil {
		start, end := dayBounds(*date)
		query = query.Where("date BETWEEN ? AND ?", start, end)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("date ASC, time ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&appointments).Error
	return appointments, total, err
}

func (r *appointmentRepo) FindByDate(date time.Time) ([]model.Appointment, error) {
	var appointments []model.Appointment
	start, end := dayBounds(date)
	err := r.db.Where("date BETWEEN ? AND ?", start, end).
		Order("time ASC").
		Find(&appointments).Error
	return appointments, err
}

func (r *appointmentRepo) FindByID(id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.First(&appointment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepo) Update(appointment *model.Appointment) error {
	return r.db.Save(appointment).Error
}

func (r *appointmentRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Appointment{}, "id = ?", id).Error
}
