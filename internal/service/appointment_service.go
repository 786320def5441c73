package service

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTimeFormat   = errors.New("time must be in HH:MM format")
)

var timeFormat = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type AppointmentService interface {
	CreateAppointment(appointment *model.Appointment) error
	UpdateAppointment(id uuid.UUID, appointment *model.Appointment) (*model.Appointment, error)
	DeleteAppointment(id uuid.UUID) error
	GetAppointments(page, limit int, date *time.Time) ([]model.Appointment, int64, error)
	GetAppointmentsByDate(date time.Time) ([]model.Appointment, error)
	GetAppointment(id uuid.UUID) (*model.Appointment, error)

	// ConvertToJob opens a New Lead job from an appointment, registering the
	// customer first when the phone number is unknown. The appointment is
	// marked Done and linked to the job.
	ConvertToJob(id uuid.UUID) (*model.Job, error)
}

type appointmentService struct {
	appointmentRepo repository.AppointmentRepository
	customerRepo    repository.CustomerRepository
	customerService CustomerService
	jobService      JobService
}

func NewAppointmentService(
	appointmentRepo repository.AppointmentRepository,
	customerRepo repository.CustomerRepository,
	customerService CustomerService,
	jobService JobService,
) AppointmentService {
	return &appointmentService{
		appointmentRepo: appointmentRepo,
		customerRepo:    customerRepo,
		customerService: customerService,
		jobService:      jobService,
	}
}

func (s *appointmentService) CreateAppointment(appointment *model.Appointment) error {
	if errs := validator.ValidateStruct(appointment); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if appointment.Time != "" && !timeFormat.MatchString(appointment.Time) {
		return ErrInvalidTimeFormat
	}
	if appointment.Status == "" {
		appointment.Status = model.AppointmentScheduled
	}
	return s.appointmentRepo.Create(appointment)
}

func (s *appointmentService) UpdateAppointment(id uuid.UUID, req *model.Appointment) (*model.Appointment, error) {
	appointment, err := s.appointmentRepo.FindByID(id)
	if err != nil || appointment == nil {
		return nil, err
	}

	if req.Time != "" {
		if !timeFormat.MatchString(req.Time) {
			return nil, ErrInvalidTimeFormat
		}
		appointment.Time = req.Time
	}
	if req.CustomerName != "" {
		appointment.CustomerName = req.CustomerName
	}
	if req.CustomerPhone != "" {
		appointment.CustomerPhone = req.CustomerPhone
	}
	if req.CustomerEmail != "" {
		appointment.CustomerEmail = req.CustomerEmail
	}
	if req.VehicleInfo != "" {
		appointment.VehicleInfo = req.VehicleInfo
	}
	if req.ServiceType != "" {
		appointment.ServiceType = req.ServiceType
	}
	if !req.Date.IsZero() {
		appointment.Date = req.Date
	}
	if req.Status != "" {
		appointment.Status = req.Status
	}
	appointment.Notes = req.Notes

	if err := s.appointmentRepo.Update(appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *appointmentService) DeleteAppointment(id uuid.UUID) error {
	return s.appointmentRepo.Delete(id)
}

func (s *appointmentService) GetAppointments(page, limit int, date *time.Time) ([]model.Appointment, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.appointmentRepo.FindPage(page, limit, date)
}

func (s *appointmentService) GetAppointmentsByDate(date time.Time) ([]model.Appointment, error) {
	return s.appointmentRepo.FindByDate(date)
}

func (s *appointmentService) GetAppointment(id uuid.UUID) (*model.Appointment, error) {
	return s.appointmentRepo.FindByID(id)
}

func (s *appointmentService) ConvertToJob(id uuid.UUID) (*model.Job, error) {
	appointment, err := s.appointmentRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, ErrAppointmentNotFound
	}

	customer, err := s.customerRepo.FindByPhone(appointment.CustomerPhone)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		customer = &model.Customer{
			Name:  appointment.CustomerName,
			Phone: appointment.CustomerPhone,
			Email: appointment.CustomerEmail,
			Vehicles: []model.Vehicle{{
				Make:  "",
				Model: appointment.VehicleInfo,
			}},
		}
		if err := s.customerService.CreateCustomer(customer); err != nil {
			return nil, err
		}
	}

	notes := appointment.ServiceType
	if appointment.Notes != "" {
		notes = fmt.Sprintf("%s - %s", appointment.ServiceType, appointment.Notes)
	}
	job := &model.Job{
		CustomerRef:  customer.ID,
		VehicleIndex: 0,
		CustomerName: customer.Name,
		VehicleName:  appointment.VehicleInfo,
		Stage:        model.StageNewLead,
		Notes:        notes,
	}
	if err := s.jobService.CreateJob(job); err != nil {
		return nil, err
	}

	appointment.Status = model.AppointmentDone
	appointment.JobID = &job.ID
	if err := s.appointmentRepo.Update(appointment); err != nil {
		return nil, err
	}
	return job, nil
}
