package repository

import (
	"errors"

	"detailing-crm/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type JobRepository interface {
	Create(job *model.Job) error
	FindPage(page, limit int, stage model.JobStage) ([]model.Job, int64, error)
	FindByID(id uuid.UUID) (*model.Job, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Job, error)
	FindByCustomer(customerRef uuid.UUID) ([]model.Job, error)
	FindByStage(stage model.JobStage) ([]model.Job, error)
	FindLastForVehicle(customerRef uuid.UUID, vehicleIndex int) (*model.Job, error)
	Update(job *model.Job) error
	UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error
	CreateMaterial(tx *gorm.DB, material *model.JobMaterial) error
	CreatePayment(tx *gorm.DB, payment *model.Payment) error
	CountOpenByTechnician(technicianRef uuid.UUID) (int64, error)
	DashboardStats() (*DashboardStats, error)
}

// DashboardStats is the overview block served to the dashboard page.
type DashboardStats struct {
	TotalJobs       int64           `json:"total_jobs"`
	ActiveJobs      int64           `json:"active_jobs"`
	CompletedJobs   int64           `json:"completed_jobs"`
	PendingPayments decimal.Decimal `json:"pending_payments"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	JobsByStage     []StageCount    `json:"jobs_by_stage"`
}

type StageCount struct {
	Stage model.JobStage `json:"stage"`
	Count int64          `json:"count"`
}

type jobRepo struct {
	db *gorm.DB
}

func NewJobRepo(db *gorm.DB) JobRepository {
	return &jobRepo{db}
}

func jobPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("ServiceItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("service_items.created_at ASC")
		}).
		Preload("Materials", func(db *gorm.DB) *gorm.DB {
			return db.Order("job_materials.created_at ASC")
		}).
		Preload("Materials.RollDetails").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payments.created_at ASC")
		})
}

func (r *jobRepo) Create(job *model.Job) error {
	return r.db.Create(job).Error
}

func (r *jobRepo) FindPage(page, limit int, stage model.JobStage) ([]model.Job, int64, error) {
	var jobs []model.Job
	var total int64

	query := r.db.Model(&model.Job{})
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := jobPreloads(query).
		Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *jobRepo) FindByID(id uuid.UUID) (*model.Job, error) {
	return r.FindByIDTx(r.db, id)
}

func (r *jobRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	err := jobPreloads(tx).First(&job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) FindByCustomer(customerRef uuid.UUID) ([]model.Job, error) {
	var jobs []model.Job
	err := jobPreloads(r.db).
		Where("customer_ref = ?", customerRef).
		Order("created_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepo) FindByStage(stage model.JobStage) ([]model.Job, error) {
	var jobs []model.Job
	err := jobPreloads(r.db).
		Where("stage = ?", stage).
		Order("updated_at DESC").
		Find(&jobs).Error
	return jobs, err
}

func (r *jobRepo) FindLastForVehicle(customerRef uuid.UUID, vehicleIndex int) (*model.Job, error) {
	var job model.Job
	err := jobPreloads(r.db).
		Where("customer_ref = ? AND vehicle_index = ?", customerRef, vehicleIndex).
		Order("created_at DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepo) Update(job *model.Job) error {
	return r.db.Save(job).Error
}

func (r *jobRepo) UpdateFields(tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return tx.Model(&model.Job{}).Where("id = ?", id).Updates(fields).Error
}

func (r *jobRepo) CreateMaterial(tx *gorm.DB, material *model.JobMaterial) error {
	return tx.Create(material).Error
}

func (r *jobRepo) CreatePayment(tx *gorm.DB, payment *model.Payment) error {
	return tx.Create(payment).Error
}

func (r *jobRepo) CountOpenByTechnician(technicianRef uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&model.Job{}).
		Where("technician_ref = ? AND stage NOT IN ?", technicianRef,
			[]model.JobStage{model.StageCompleted, model.StageCancelled}).
		Count(&count).Error
	return count, err
}

func (r *jobRepo) DashboardStats() (*DashboardStats, error) {
	var stats DashboardStats

	if err := r.db.Model(&model.Job{}).Count(&stats.TotalJobs).Error; err != nil {
		return nil, err
	}
	r.db.Model(&model.Job{}).
		Where("stage NOT IN ?", []model.JobStage{model.StageCompleted, model.StageCancelled}).
		Count(&stats.ActiveJobs)
	r.db.Model(&model.Job{}).Where("stage = ?", model.StageCompleted).Count(&stats.CompletedJobs)

	r.db.Model(&model.Job{}).
		Where("stage = ? AND payment_status = ?", model.StageCompleted, model.PaymentPaid).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&stats.TotalRevenue)
	r.db.Model(&model.Job{}).
		Where("stage = ? AND payment_status <> ?", model.StageCompleted, model.PaymentPaid).
		Select("COALESCE(SUM(total_amount - paid_amount), 0)").
		Scan(&stats.PendingPayments)

	rows, err := r.db.Model(&model.Job{}).
		Select("stage, COUNT(*) as count").
		Group("stage").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc StageCount
		if err := rows.Scan(&sc.Stage, &sc.Count); err != nil {
			return nil, err
		}
		stats.JobsByStage = append(stats.JobsByStage, sc)
	}

	return &stats, nil
}
