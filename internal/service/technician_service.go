package service

import (
	"errors"
	"fmt"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/pkg/validator"

	"github.com/google/uuid"
)

var ErrTechnicianNotFound = errors.New("technician not found")

// TechnicianWorkload pairs a technician with their open job count.
type TechnicianWorkload struct {
	Technician model.Technician `json:"technician"`
	OpenJobs   int64            `json:"open_jobs"`
}

type TechnicianService interface {
	CreateTechnician(technician *model.Technician) error
	UpdateTechnician(id uuid.UUID, technician *model.Technician) (*model.Technician, error)
	GetTechnicians() ([]model.Technician, error)
	GetTechnician(id uuid.UUID) (*model.Technician, error)
	GetWorkloads() ([]TechnicianWorkload, error)
}

type technicianService struct {
	technicianRepo repository.TechnicianRepository
	jobRepo        repository.JobRepository
}

func NewTechnicianService(technicianRepo repository.TechnicianRepository, jobRepo repository.JobRepository) TechnicianService {
	return &technicianService{technicianRepo: technicianRepo, jobRepo: jobRepo}
}

func (s *technicianService) CreateTechnician(technician *model.Technician) error {
	if errs := validator.ValidateStruct(technician); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if technician.Status == "" {
		technician.Status = model.TechnicianAvailable
	}
	return s.technicianRepo.Create(technician)
}

func (s *technicianService) UpdateTechnician(id uuid.UUID, req *model.Technician) (*model.Technician, error) {
	technician, err := s.technicianRepo.FindByID(id)
	if err != nil || technician == nil {
		return nil, err
	}
	if req.Name != "" {
		technician.Name = req.Name
	}
	if req.Specialty != "" {
		technician.Specialty = req.Specialty
	}
	if req.Phone != "" {
		technician.Phone = req.Phone
	}
	if req.Status != "" {
		technician.Status = req.Status
	}
	if err := s.technicianRepo.Update(technician); err != nil {
		return nil, err
	}
	return technician, nil
}

func (s *technicianService) GetTechnicians() ([]model.Technician, error) {
	return s.technicianRepo.FindAll()
}

func (s *technicianService) GetTechnician(id uuid.UUID) (*model.Technician, error) {
	return s.technicianRepo.FindByID(id)
}

func (s *technicianService) GetWorkloads() ([]TechnicianWorkload, error) {
	technicians, err := s.technicianRepo.FindAll()
	if err != nil {
		return nil, err
	}
	workloads := make([]TechnicianWorkload, 0, len(technicians))
	for _, t := range technicians {
		open, err := s.jobRepo.CountOpenByTechnician(t.ID)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, TechnicianWorkload{Technician: t, OpenJobs: open})
	}
	return workloads, nil
}
