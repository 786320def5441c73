package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrDuplicatePhone   = errors.New("a customer with this phone number already exists")
)

var customerIDDigits = regexp.MustCompile(`\d+`)

// VehiclePreferences is the remembered PPF configuration for one vehicle,
// used to pre-fill repeat jobs.
type VehiclePreferences struct {
	PPFCategory    string          `json:"ppf_category"`
	PPFVehicleType string          `json:"ppf_vehicle_type"`
	PPFWarranty    string          `json:"ppf_warranty"`
	PPFPrice       decimal.Decimal `json:"ppf_price"`
	LaborCost      decimal.Decimal `json:"labor_cost"`
	OtherServices  string          `json:"other_services"`
}

type CustomerService interface {
	CreateCustomer(customer *model.Customer) error
	UpdateCustomer(id uuid.UUID, customer *model.Customer) (*model.Customer, error)
	DeleteCustomer(id uuid.UUID) error
	GetCustomers(page, limit int, search string) ([]model.Customer, int64, error)
	SearchCustomers(query string) ([]model.Customer, error)
	GetCustomer(id uuid.UUID) (*model.Customer, error)
	GetCustomerByPhone(phone string) (*model.Customer, error)

	AddVehicle(customerID uuid.UUID, vehicle *model.Vehicle) (*model.Customer, error)
	GetVehiclePreferences(customerID uuid.UUID, vehicleIndex int) (*VehiclePreferences, error)
	UpdateVehiclePreferences(customerID uuid.UUID, vehicleIndex int, prefs *VehiclePreferences) (*model.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

// nextCustomerID parses the numeric suffix of the highest assigned id
// (cus001 style) and increments it.
func (s *customerService) nextCustomerID() (string, error) {
	highest, err := s.customerRepo.HighestCustomerID()
	if err != nil {
		return "", err
	}
	next := 1
	if digits := customerIDDigits.FindString(highest); digits != "" {
		n, err := strconv.Atoi(digits)
		if err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("cus%03d", next), nil
}

func (s *customerService) CreateCustomer(customer *model.Customer) error {
	if errs := validator.ValidateStruct(customer); len(errs) > 0 {
		firstErr := errs[0]
		return fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	existing, err := s.customerRepo.FindByPhone(customer.Phone)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicatePhone
	}

	if customer.CustomerID == "" {
		id, err := s.nextCustomerID()
		if err != nil {
			return err
		}
		customer.CustomerID = id
	}
	if customer.Status == "" {
		customer.Status = model.CustomerInquired
	}
	for i := range customer.Vehicles {
		customer.Vehicles[i].Idx = i
	}
	return s.customerRepo.Create(customer)
}

func (s *customerService) UpdateCustomer(id uuid.UUID, req *model.Customer) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil || customer == nil {
		return nil, err
	}

	if req.Phone != "" && req.Phone != customer.Phone {
		existing, err := s.customerRepo.FindByPhone(req.Phone)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrDuplicatePhone
		}
		customer.Phone = req.Phone
	}
	if req.Name != "" {
		customer.Name = req.Name
	}
	customer.Email = req.Email
	customer.Address = req.Address
	customer.City = req.City
	customer.District = req.District
	customer.State = req.State
	customer.ReferrerName = req.ReferrerName
	customer.ReferrerPhone = req.ReferrerPhone
	if req.Status != "" {
		customer.Status = req.Status
	}

	if err := s.customerRepo.Update(customer); err != nil {
		return nil, err
	}
	return s.customerRepo.FindByID(id)
}

func (s *customerService) DeleteCustomer(id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(id)
	if err != nil {
		return err
	}
	if customer == nil {
		return ErrCustomerNotFound
	}
	return s.customerRepo.Delete(id)
}

func (s *customerService) GetCustomers(page, limit int, search string) ([]model.Customer, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.customerRepo.FindPage(page, limit, search)
}

func (s *customerService) SearchCustomers(query string) ([]model.Customer, error) {
	return s.customerRepo.Search(query)
}

func (s *customerService) GetCustomer(id uuid.UUID) (*model.Customer, error) {
	return s.customerRepo.FindByID(id)
}

func (s *customerService) GetCustomerByPhone(phone string) (*model.Customer, error) {
	return s.customerRepo.FindByPhone(phone)
}

func (s *customerService) AddVehicle(customerID uuid.UUID, vehicle *model.Vehicle) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if errs := validator.ValidateStruct(vehicle); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	vehicle.CustomerRef = customerID
	vehicle.Idx = len(customer.Vehicles)
	if err := s.customerRepo.CreateVehicle(vehicle); err != nil {
		return nil, err
	}
	return s.customerRepo.FindByID(customerID)
}

func (s *customerService) GetVehiclePreferences(customerID uuid.UUID, vehicleIndex int) (*VehiclePreferences, error) {
	customer, err := s.customerRepo.FindByID(customerID)
	if err != nil || customer == nil {
		return nil, err
	}
	vehicle := customer.VehicleAt(vehicleIndex)
	if vehicle == nil {
		return nil, nil
	}
	return &VehiclePreferences{
		PPFCategory:    vehicle.PPFCategory,
		PPFVehicleType: vehicle.PPFVehicleType,
		PPFWarranty:    vehicle.PPFWarranty,
		PPFPrice:       vehicle.PPFPrice,
		LaborCost:      vehicle.LaborCost,
		OtherServices:  vehicle.OtherServices,
	}, nil
}

func (s *customerService) UpdateVehiclePreferences(customerID uuid.UUID, vehicleIndex int, prefs *VehiclePreferences) (*model.Customer, error) {
	customer, err := s.customerRepo.FindByID(customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	vehicle := customer.VehicleAt(vehicleIndex)
	if vehicle == nil {
		return nil, ErrVehicleNotFound
	}

	if prefs.PPFCategory != "" {
		vehicle.PPFCategory = prefs.PPFCategory
	}
	if prefs.PPFVehicleType != "" {
		vehicle.PPFVehicleType = prefs.PPFVehicleType
	}
	if prefs.PPFWarranty != "" {
		vehicle.PPFWarranty = prefs.PPFWarranty
	}
	if prefs.PPFPrice.IsPositive() {
		vehicle.PPFPrice = prefs.PPFPrice
	}
	if prefs.LaborCost.IsPositive() {
		vehicle.LaborCost = prefs.LaborCost
	}
	if prefs.OtherServices != "" {
		vehicle.OtherServices = prefs.OtherServices
	}

	if err := s.customerRepo.UpdateVehicle(vehicle); err != nil {
		return nil, err
	}
	return s.customerRepo.FindByID(customerID)
}
