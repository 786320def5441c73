package service

import (
	"errors"
	"fmt"
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/internal/ws"
	"detailing-crm/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobFinalized = errors.New("cannot add materials to a completed or cancelled job")
	ErrStageLocked  = errors.New("completed or cancelled jobs cannot change stage")
	ErrInvalidStage = errors.New("unknown job stage")
	ErrNoMaterials  = errors.New("no materials requested")
)

// defaultTaxRate is the GST percentage applied to job totals.
var defaultTaxRate = decimal.NewFromInt(18)

type MaterialRequest struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id" validate:"uuid_required"`
	Quantity        decimal.Decimal `json:"quantity"`
}

type PaymentRequest struct {
	Amount              decimal.Decimal   `json:"amount"`
	Mode                model.PaymentMode `json:"mode"`
	Notes               string            `json:"notes"`
	OtherPaymentDetails string            `json:"other_payment_details"`
}

type JobService interface {
	CreateJob(req *model.Job) error
	UpdateJob(id uuid.UUID, req *model.Job) (*model.Job, error)
	UpdateStage(id uuid.UUID, stage model.JobStage) (*model.Job, error)
	GetJobs(page, limit int, stage model.JobStage) ([]model.Job, int64, error)
	GetJob(id uuid.UUID) (*model.Job, error)
	GetJobsByCustomer(customerRef uuid.UUID) ([]model.Job, error)
	GetJobsByStage(stage model.JobStage) ([]model.Job, error)
	GetLastJobForVehicle(customerRef uuid.UUID, vehicleIndex int) (*model.Job, error)

	// AddMaterials validates and binds a batch of materials to a job. The
	// whole batch is applied atomically: the first item that cannot be
	// satisfied aborts the request with no stock mutated.
	AddMaterials(jobID uuid.UUID, reqs []MaterialRequest) (*model.Job, error)

	// AddPayment appends to the job's payment ledger, clamped to the
	// remaining balance, and mirrors the payment onto the job's invoice.
	AddPayment(jobID uuid.UUID, req *PaymentRequest) (*model.Job, error)
}

type jobService struct {
	jobRepo      repository.JobRepository
	customerRepo repository.CustomerRepository
	invRepo      repository.InventoryRepository
	invoiceRepo  repository.InvoiceRepository
	invService   InventoryService
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewJobService(
	jobRepo repository.JobRepository,
	customerRepo repository.CustomerRepository,
	invRepo repository.InventoryRepository,
	invoiceRepo repository.InvoiceRepository,
	invService InventoryService,
	db *gorm.DB,
	hub *ws.Hub,
) JobService {
	return &jobService{
		jobRepo:      jobRepo,
		customerRepo: customerRepo,
		invRepo:      invRepo,
		invoiceRepo:  invoiceRepo,
		invService:   invService,
		db:           db,
		wsHub:        hub,
	}
}

func (s *jobService) publish(event string, payload interface{}) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.PublishEvent(event, payload)
}

func validStage(stage model.JobStage) bool {
	for _, st := range model.JobStages {
		if st == stage {
			return true
		}
	}
	return false
}

func (s *jobService) CreateJob(req *model.Job) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if req.Stage == "" {
		req.Stage = model.StageNewLead
	}
	if !validStage(req.Stage) {
		return ErrInvalidStage
	}

	customer, err := s.customerRepo.FindByID(req.CustomerRef)
	if err != nil {
		return err
	}
	if customer == nil {
		return errors.New("customer not found")
	}
	if req.CustomerName == "" {
		req.CustomerName = customer.Name
	}
	if vehicle := customer.VehicleAt(req.VehicleIndex); vehicle != nil {
		if req.VehicleName == "" {
			req.VehicleName = fmt.Sprintf("%s %s", vehicle.Make, vehicle.Model)
		}
		if req.PlateNumber == "" {
			req.PlateNumber = vehicle.PlateNumber
		}
	}

	req.TotalAmount = computeJobTotal(req)
	if err := s.jobRepo.Create(req); err != nil {
		return err
	}
	s.publish("job_created", req)
	return nil
}

// UpdateJob refreshes a job's editable fields. Service items are replaced
// wholesale when the request carries any.
func (s *jobService) UpdateJob(id uuid.UUID, req *model.Job) (*model.Job, error) {
	job, err := s.jobRepo.FindByID(id)
	if err != nil || job == nil {
		return nil, err
	}
	if job.Stage.Terminal() {
		return nil, ErrStageLocked
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(req.ServiceItems) > 0 {
			if err := tx.Delete(&model.ServiceItem{}, "job_id = ?", id).Error; err != nil {
				return err
			}
			for i := range req.ServiceItems {
				req.ServiceItems[i].ID = uuid.Nil
				req.ServiceItems[i].JobID = id
				if req.ServiceItems[i].AssignedBusiness == "" {
					req.ServiceItems[i].AssignedBusiness = model.BusinessAutoGamma
				}
				if err := tx.Create(&req.ServiceItems[i]).Error; err != nil {
					return err
				}
			}
			job.ServiceItems = req.ServiceItems
		}

		job.Notes = req.Notes
		job.TechnicianRef = req.TechnicianRef
		job.TechnicianName = req.TechnicianName
		job.LaborCost = req.LaborCost
		job.Discount = req.Discount
		job.RequiresGST = req.RequiresGST
		if req.VehicleName != "" {
			job.VehicleName = req.VehicleName
		}
		if req.PlateNumber != "" {
			job.PlateNumber = req.PlateNumber
		}
		total := computeJobTotal(job)

		return s.jobRepo.UpdateFields(tx, id, map[string]interface{}{
			"notes":           job.Notes,
			"technician_ref":  job.TechnicianRef,
			"technician_name": job.TechnicianName,
			"labor_cost":      job.LaborCost,
			"discount":        job.Discount,
			"requires_gst":    job.RequiresGST,
			"vehicle_name":    job.VehicleName,
			"plate_number":    job.PlateNumber,
			"total_amount":    total,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.jobRepo.FindByID(id)
}

// UpdateStage moves a job along the funnel. Terminal stages are frozen;
// invoice generation on completion is the caller's responsibility.
func (s *jobService) UpdateStage(id uuid.UUID, stage model.JobStage) (*model.Job, error) {
	if !validStage(stage) {
		return nil, ErrInvalidStage
	}
	job, err := s.jobRepo.FindByID(id)
	if err != nil || job == nil {
		return nil, err
	}
	if job.Stage.Terminal() && stage != job.Stage {
		return nil, ErrStageLocked
	}

	if err := s.jobRepo.UpdateFields(s.db, id, map[string]interface{}{"stage": stage}); err != nil {
		return nil, err
	}
	updated, err := s.jobRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.publish("job_stage_changed", map[string]interface{}{
		"job_id": id,
		"stage":  stage,
	})
	return updated, nil
}

func (s *jobService) GetJobs(page, limit int, stage model.JobStage) ([]model.Job, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.jobRepo.FindPage(page, limit, stage)
}

func (s *jobService) GetJob(id uuid.UUID) (*model.Job, error) {
	return s.jobRepo.FindByID(id)
}

func (s *jobService) GetJobsByCustomer(customerRef uuid.UUID) ([]model.Job, error) {
	return s.jobRepo.FindByCustomer(customerRef)
}

func (s *jobService) GetJobsByStage(stage model.JobStage) ([]model.Job, error) {
	return s.jobRepo.FindByStage(stage)
}

func (s *jobService) GetLastJobForVehicle(customerRef uuid.UUID, vehicleIndex int) (*model.Job, error) {
	return s.jobRepo.FindLastForVehicle(customerRef, vehicleIndex)
}

// computeJobTotal recomputes a job's total from its parts:
// materials + (service price - discount per item) + labor, taxed when GST is
// due, then the job-level discount off the taxed amount. The invoice
// generator subtracts its discount after tax the same way, so the stored job
// total and the primary invoice agree.
func computeJobTotal(job *model.Job) decimal.Decimal {
	subtotal := decimal.Zero
	for _, m := range job.Materials {
		subtotal = subtotal.Add(m.Cost)
	}
	for _, si := range job.ServiceItems {
		subtotal = subtotal.Add(si.Price.Sub(si.Discount))
	}
	subtotal = subtotal.Add(job.LaborCost)

	total := subtotal
	if job.RequiresGST {
		tax := subtotal.Mul(defaultTaxRate).Div(decimal.NewFromInt(100))
		total = subtotal.Add(tax)
	}
	return decimal.Max(decimal.Zero, total.Sub(job.Discount))
}

// plannedMaterial pairs a validated request with the item it will draw from.
type plannedMaterial struct {
	req         MaterialRequest
	item        *model.InventoryItem
	rollTracked bool
}

func (s *jobService) AddMaterials(jobID uuid.UUID, reqs []MaterialRequest) (*model.Job, error) {
	if len(reqs) == 0 {
		return nil, ErrNoMaterials
	}
	for _, req := range reqs {
		if !req.Quantity.IsPositive() {
			return nil, errors.New("material quantity must be greater than zero")
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		job, err := s.jobRepo.FindByIDTx(tx, jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return ErrJobNotFound
		}
		if job.Stage.Terminal() {
			return ErrJobFinalized
		}

		// Validate the whole batch before touching any stock; the row locks
		// taken here hold until commit, so the checks stay true.
		planned := make([]plannedMaterial, 0, len(reqs))
		for _, req := range reqs {
			item, err := s.invRepo.FindForUpdate(tx, req.InventoryItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("inventory item not found: %s", req.InventoryItemID)
			}

			active, err := s.invRepo.ActiveRollsOldestFirst(tx, item.ID)
			if err != nil {
				return err
			}
			if len(active) > 0 {
				available := decimal.Zero
				for i := range active {
					available = available.Add(active[i].Available())
				}
				if available.LessThan(req.Quantity) {
					return &InsufficientStockError{Item: item.Name, Available: available, Requested: req.Quantity}
				}
				planned = append(planned, plannedMaterial{req: req, item: item, rollTracked: true})
				continue
			}

			if item.Quantity.LessThan(req.Quantity) {
				return &InsufficientStockError{Item: item.Name, Available: item.Quantity, Requested: req.Quantity}
			}
			planned = append(planned, plannedMaterial{req: req, item: item})
		}

		// Apply: consume rolls (or decrement counters) and bind the
		// materials with their roll audit trail.
		for _, p := range planned {
			var usage []model.MaterialRollUsage
			if p.rollTracked {
				result, err := s.invService.ConsumeRollsFIFOTx(tx, p.item.ID, p.req.Quantity)
				if err != nil {
					return err
				}
				if !result.Success {
					return fmt.Errorf("failed to consume rolls for %s", p.item.Name)
				}
				for _, cr := range result.ConsumedRolls {
					usage = append(usage, model.MaterialRollUsage{
						RollID:       cr.RollID,
						RollName:     cr.RollName,
						QuantityUsed: cr.QuantityUsed,
					})
				}
			} else {
				if err := s.invRepo.AdjustQuantity(tx, p.item.ID, p.req.Quantity.Neg()); err != nil {
					return err
				}
			}

			cost := decimal.Zero
			if p.item.Price != nil {
				cost = p.item.Price.Mul(p.req.Quantity)
			}
			material := model.JobMaterial{
				JobID:           jobID,
				InventoryItemID: p.item.ID,
				Name:            p.item.Name,
				Quantity:        p.req.Quantity,
				Cost:            cost,
				RollDetails:     usage,
			}
			if err := s.jobRepo.CreateMaterial(tx, &material); err != nil {
				return err
			}
			job.Materials = append(job.Materials, material)
		}

		total := computeJobTotal(job)
		return s.jobRepo.UpdateFields(tx, jobID, map[string]interface{}{"total_amount": total})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}
	s.publish("job_materials_added", updated)
	return updated, nil
}

func (s *jobService) AddPayment(jobID uuid.UUID, req *PaymentRequest) (*model.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil || job == nil {
		return nil, err
	}

	remaining := decimal.Max(decimal.Zero, job.TotalAmount.Sub(job.PaidAmount))
	if !remaining.IsPositive() {
		return job, nil
	}
	applied := decimal.Min(req.Amount, remaining)
	if !applied.IsPositive() {
		return job, nil
	}

	mode := req.Mode
	if mode == "" {
		mode = model.PayCash
	}
	newPaid := job.PaidAmount.Add(applied)
	status := model.PaymentStatusFor(newPaid, job.TotalAmount)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		payment := &model.Payment{
			JobID:               jobID,
			Amount:              applied,
			Mode:                mode,
			Date:                time.Now(),
			Notes:               req.Notes,
			OtherPaymentDetails: req.OtherPaymentDetails,
		}
		if err := s.jobRepo.CreatePayment(tx, payment); err != nil {
			return err
		}
		if err := s.jobRepo.UpdateFields(tx, jobID, map[string]interface{}{
			"paid_amount":    newPaid,
			"payment_status": status,
		}); err != nil {
			return err
		}

		// Mirror onto the job's invoice, clamped to its own balance.
		invoice, err := s.invoiceRepo.FirstByJob(jobID)
		if err != nil {
			return err
		}
		if invoice != nil {
			invRemaining := decimal.Max(decimal.Zero, invoice.TotalAmount.Sub(invoice.PaidAmount))
			invApplied := decimal.Min(applied, invRemaining)
			if invApplied.IsPositive() {
				invPaid := invoice.PaidAmount.Add(invApplied)
				return s.invoiceRepo.UpdateFields(tx, invoice.ID, map[string]interface{}{
					"paid_amount":    invPaid,
					"payment_status": model.PaymentStatusFor(invPaid, invoice.TotalAmount),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.jobRepo.FindByID(jobID)
}
