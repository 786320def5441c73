package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

// invoiceNumberDigits extracts the numeric suffix of an INV0001-style number.
var invoiceNumberDigits = regexp.MustCompile(`\d+`)

type GenerateInvoiceRequest struct {
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Discount decimal.Decimal `json:"discount"`
	// Business scopes the invoice to one entity. Empty means the whole job
	// billed as the primary business.
	Business string `json:"business"`
}

type MarkPaidRequest struct {
	Mode                model.PaymentMode `json:"mode"`
	OtherPaymentDetails string            `json:"other_payment_details"`
}

type InvoiceService interface {
	// GenerateForJob derives an invoice from the job's snapshot, scoped to
	// one business. Returns (nil, nil) when the business has no service
	// items assigned, so callers can loop over businesses safely.
	GenerateForJob(jobID uuid.UUID, req *GenerateInvoiceRequest) (*model.Invoice, error)

	// GenerateForCompletedJob produces one invoice per business that has
	// service items on the job. Used when a job moves to Completed.
	GenerateForCompletedJob(jobID uuid.UUID) ([]model.Invoice, error)

	MarkPaid(id uuid.UUID, req *MarkPaidRequest) (*model.Invoice, error)
	GetInvoices() ([]model.Invoice, error)
	GetInvoice(id uuid.UUID) (*model.Invoice, error)
	GetInvoicesByJob(jobID uuid.UUID) ([]model.Invoice, error)
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	jobRepo      repository.JobRepository
	customerRepo repository.CustomerRepository
	db           *gorm.DB
	wsHub        *ws.Hub
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	jobRepo repository.JobRepository,
	customerRepo repository.CustomerRepository,
	db *gorm.DB,
	hub *ws.Hub,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		jobRepo:      jobRepo,
		customerRepo: customerRepo,
		db:           db,
		wsHub:        hub,
	}
}

func (s *invoiceService) publish(event string, payload interface{}) {
	if s.wsHub == nil {
		return
	}
	go s.wsHub.PublishEvent(event, payload)
}

// nextInvoiceNumber parses the numeric suffix of the highest existing number
// and increments it. Gaps from deleted invoices are tolerated, not compacted.
func (s *invoiceService) nextInvoiceNumber(tx *gorm.DB) (string, error) {
	highest, err := s.invoiceRepo.HighestInvoiceNumber(tx)
	if err != nil {
		return "", err
	}
	next := 1
	if digits := invoiceNumberDigits.FindString(highest); digits != "" {
		n, err := strconv.Atoi(digits)
		if err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("INV%04d", next), nil
}

func (s *invoiceService) GenerateForJob(jobID uuid.UUID, req *GenerateInvoiceRequest) (*model.Invoice, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	// Scope service items to the requested business. No business means the
	// whole job billed as the primary business.
	scoped := req.Business != ""
	business := model.NormalizeBusiness(req.Business)
	var filtered []model.ServiceItem
	for _, si := range job.ServiceItems {
		if !scoped || model.NormalizeBusiness(string(si.AssignedBusiness)) == business {
			filtered = append(filtered, si)
		}
	}
	if len(filtered) == 0 {
		logrus.WithFields(logrus.Fields{"job_id": jobID, "business": business}).
			Info("no service items assigned to business, skipping invoice")
		return nil, nil
	}

	customer, err := s.customerRepo.FindByID(job.CustomerRef)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, errors.New("customer not found")
	}

	primary := business == model.BusinessAutoGamma

	items := make([]model.InvoiceItem, 0, len(filtered)+len(job.Materials)+1)
	for _, si := range filtered {
		items = append(items, model.InvoiceItem{
			Description:      si.Name,
			Quantity:         decimal.NewFromInt(1),
			UnitPrice:        si.Price,
			Total:            si.Price.Sub(si.Discount),
			Type:             model.InvoiceItemService,
			Discount:         si.Discount,
			AssignedBusiness: model.NormalizeBusiness(string(si.AssignedBusiness)),
		})
	}

	// Labor is a synthetic line, added unless a service item already bills it.
	if job.LaborCost.IsPositive() {
		laborBilled := false
		for _, it := range items {
			if strings.Contains(strings.ToLower(it.Description), "labor") {
				laborBilled = true
				break
			}
		}
		if !laborBilled {
			items = append(items, model.InvoiceItem{
				Description:      "Labor Charge",
				Quantity:         decimal.NewFromInt(1),
				UnitPrice:        job.LaborCost,
				Total:            job.LaborCost,
				Type:             model.InvoiceItemService,
				AssignedBusiness: business,
			})
		}
	}

	// Materials and the job-level discount belong to the primary business only.
	if primary {
		for _, m := range job.Materials {
			unitPrice := decimal.Zero
			if m.Quantity.IsPositive() {
				unitPrice = m.Cost.Div(m.Quantity)
			}
			items = append(items, model.InvoiceItem{
				Description: m.Name,
				Quantity:    m.Quantity,
				UnitPrice:   unitPrice,
				Total:       m.Cost,
				Type:        model.InvoiceItemMaterial,
			})
		}
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Total)
	}

	appliedTaxRate := decimal.Zero
	if job.RequiresGST {
		appliedTaxRate = req.TaxRate
		if appliedTaxRate.IsZero() {
			appliedTaxRate = defaultTaxRate
		}
	}
	tax := subtotal.Mul(appliedTaxRate).Div(decimal.NewFromInt(100))

	discount := decimal.Zero
	if primary {
		discount = req.Discount
	}
	total := subtotal.Add(tax).Sub(discount)

	invoice := &model.Invoice{
		JobID:           jobID,
		CustomerRef:     job.CustomerRef,
		CustomerName:    job.CustomerName,
		CustomerPhone:   customer.Phone,
		CustomerEmail:   customer.Email,
		CustomerAddress: customer.Address,
		VehicleName:     job.VehicleName,
		PlateNumber:     job.PlateNumber,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             tax,
		TaxRate:         appliedTaxRate,
		Discount:        discount,
		TotalAmount:     total,
		Business:        business,
	}
	if primary {
		invoice.PaidAmount = job.PaidAmount
		invoice.PaymentStatus = job.PaymentStatus
	} else {
		invoice.PaymentStatus = model.PaymentPending
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := s.nextInvoiceNumber(tx)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		if err := s.invoiceRepo.Create(tx, invoice); err != nil {
			return err
		}

		// The primary invoice is authoritative for the job total.
		if primary && !job.TotalAmount.Equal(total) {
			return s.jobRepo.UpdateFields(tx, jobID, map[string]interface{}{"total_amount": total})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"invoice_number": invoice.InvoiceNumber,
		"business":       invoice.Business,
		"items":          len(items),
		"total":          total,
	}).Info("invoice generated")
	s.publish("invoice_generated", invoice)
	return invoice, nil
}

func (s *invoiceService) GenerateForCompletedJob(jobID uuid.UUID) ([]model.Invoice, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}

	seen := map[model.Business]bool{}
	businesses := []model.Business{}
	for _, si := range job.ServiceItems {
		b := model.NormalizeBusiness(string(si.AssignedBusiness))
		if !seen[b] {
			seen[b] = true
			businesses = append(businesses, b)
		}
	}

	var invoices []model.Invoice
	for _, b := range businesses {
		inv, err := s.GenerateForJob(jobID, &GenerateInvoiceRequest{
			TaxRate:  defaultTaxRate,
			Discount: job.Discount,
			Business: string(b),
		})
		if err != nil {
			return invoices, err
		}
		if inv != nil {
			invoices = append(invoices, *inv)
		}
	}
	return invoices, nil
}

// MarkPaid settles an invoice's remaining balance in full and records the
// settlement on the parent job's payment ledger.
func (s *invoiceService) MarkPaid(id uuid.UUID, req *MarkPaidRequest) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, ErrInvoiceNotFound
	}

	remaining := invoice.TotalAmount.Sub(invoice.PaidAmount)
	if !remaining.IsPositive() {
		return invoice, nil
	}

	mode := req.Mode
	if mode == "" {
		mode = invoice.PaymentMode
	}
	if mode == "" {
		mode = model.PayCash
	}
	details := req.OtherPaymentDetails
	if details == "" {
		details = invoice.OtherPaymentDetails
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.invoiceRepo.UpdateFields(tx, id, map[string]interface{}{
			"paid_amount":           invoice.TotalAmount,
			"payment_status":        model.PaymentPaid,
			"payment_mode":          mode,
			"other_payment_details": details,
		}); err != nil {
			return err
		}

		job, err := s.jobRepo.FindByIDTx(tx, invoice.JobID)
		if err != nil || job == nil {
			return err
		}
		payment := &model.Payment{
			JobID:               job.ID,
			Amount:              remaining,
			Mode:                mode,
			Date:                time.Now(),
			Notes:               fmt.Sprintf("Invoice %s payment", invoice.InvoiceNumber),
			OtherPaymentDetails: details,
		}
		if err := s.jobRepo.CreatePayment(tx, payment); err != nil {
			return err
		}
		newPaid := job.PaidAmount.Add(remaining)
		return s.jobRepo.UpdateFields(tx, job.ID, map[string]interface{}{
			"paid_amount":    newPaid,
			"payment_status": model.PaymentStatusFor(newPaid, job.TotalAmount),
		})
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.invoiceRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.publish("invoice_paid", updated)
	return updated, nil
}

func (s *invoiceService) GetInvoices() ([]model.Invoice, error) {
	return s.invoiceRepo.FindAll()
}

func (s *invoiceService) GetInvoice(id uuid.UUID) (*model.Invoice, error) {
	return s.invoiceRepo.FindByID(id)
}

func (s *invoiceService) GetInvoicesByJob(jobID uuid.UUID) ([]model.Invoice, error) {
	return s.invoiceRepo.FindByJob(jobID)
}
