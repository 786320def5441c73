package service

import (
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
)

// DashboardOverview is the landing-page snapshot: job funnel figures plus
// today's schedule and items running low.
type DashboardOverview struct {
	repository.DashboardStats
	LowStockItems      []model.InventoryItem `json:"low_stock_items"`
	TodaysAppointments []model.Appointment   `json:"todays_appointments"`
}

type DashboardService interface {
	GetOverview() (*DashboardOverview, error)
}

type dashboardService struct {
	jobRepo         repository.JobRepository
	inventoryRepo   repository.InventoryRepository
	appointmentRepo repository.AppointmentRepository
}

func NewDashboardService(
	jobRepo repository.JobRepository,
	inventoryRepo repository.InventoryRepository,
	appointmentRepo repository.AppointmentRepository,
) DashboardService {
	return &dashboardService{
		jobRepo:         jobRepo,
		inventoryRepo:   inventoryRepo,
		appointmentRepo: appointmentRepo,
	}
}

func (s *dashboardService) GetOverview() (*DashboardOverview, error) {
	stats, err := s.jobRepo.DashboardStats()
	if err != nil {
		return nil, err
	}
	lowStock, err := s.inventoryRepo.FindLowStock()
	if err != nil {
		return nil, err
	}
	todays, err := s.appointmentRepo.FindByDate(time.Now())
	if err != nil {
		return nil, err
	}
	return &DashboardOverview{
		DashboardStats:     *stats,
		LowStockItems:      lowStock,
		TodaysAppointments: todays,
	}, nil
}
