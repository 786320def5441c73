package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database per test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.Customer{},
		&model.Vehicle{},
		&model.Technician{},
		&model.InventoryItem{},
		&model.Roll{},
		&model.AccessorySale{},
		&model.Job{},
		&model.ServiceItem{},
		&model.JobMaterial{},
		&model.MaterialRollUsage{},
		&model.Payment{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Appointment{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

type testEnv struct {
	db              *gorm.DB
	inventoryRepo   repository.InventoryRepository
	saleRepo        repository.AccessorySaleRepository
	customerRepo    repository.CustomerRepository
	jobRepo         repository.JobRepository
	invoiceRepo     repository.InvoiceRepository
	appointmentRepo repository.AppointmentRepository

	inventory    InventoryService
	customers    CustomerService
	jobs         JobService
	invoices     InvoiceService
	appointments AppointmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	env := &testEnv{
		db:              db,
		inventoryRepo:   repository.NewInventoryRepo(db),
		saleRepo:        repository.NewAccessorySaleRepo(db),
		customerRepo:    repository.NewCustomerRepo(db),
		jobRepo:         repository.NewJobRepo(db),
		invoiceRepo:     repository.NewInvoiceRepo(db),
		appointmentRepo: repository.NewAppointmentRepo(db),
	}
	env.inventory = NewInventoryService(env.inventoryRepo, env.saleRepo, db, nil)
	env.customers = NewCustomerService(env.customerRepo)
	env.jobs = NewJobService(env.jobRepo, env.customerRepo, env.inventoryRepo, env.invoiceRepo, env.inventory, db, nil)
	env.invoices = NewInvoiceService(env.invoiceRepo, env.jobRepo, env.customerRepo, db, nil)
	env.appointments = NewAppointmentService(env.appointmentRepo, env.customerRepo, env.customers, env.jobs)
	return env
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// seedRollItem creates a roll-tracked item with rolls at increasing creation
// times, one day apart, so FIFO order is deterministic.
func seedRollItem(t *testing.T, env *testEnv, name string, sqftPerRoll ...string) *model.InventoryItem {
	t.Helper()
	item := &model.InventoryItem{
		Name:     name,
		Category: "PPF",
		Unit:     model.UnitSquareFeet,
	}
	if err := env.db.Create(item).Error; err != nil {
		t.Fatalf("failed to seed item: %v", err)
	}

	total := decimal.Zero
	base := time.Now().Add(-time.Duration(len(sqftPerRoll)) * 24 * time.Hour)
	for i, sqft := range sqftPerRoll {
		size := dec(sqft)
		roll := &model.Roll{
			InventoryItemID: item.ID,
			Name:            fmt.Sprintf("%s Roll %d", name, i+1),
			Unit:            model.UnitSquareFeet,
			Meters:          size.Div(dec("10")),
			SquareFeet:      size,
			RemainingMeters: size.Div(dec("10")),
			RemainingSqft:   size,
			Status:          model.RollAvailable,
		}
		roll.CreatedAt = base.Add(time.Duration(i) * 24 * time.Hour)
		if err := env.db.Create(roll).Error; err != nil {
			t.Fatalf("failed to seed roll: %v", err)
		}
		total = total.Add(size)
	}
	if err := env.db.Model(item).Update("quantity", total).Error; err != nil {
		t.Fatalf("failed to set item quantity: %v", err)
	}
	item.Quantity = total
	return item
}

// seedAccessory creates a counter-tracked item with no rolls.
func seedAccessory(t *testing.T, env *testEnv, name, quantity, price string) *model.InventoryItem {
	t.Helper()
	item := &model.InventoryItem{
		Name:     name,
		Category: "Accessories",
		Unit:     "Pieces",
		Quantity: dec(quantity),
		Price:    decPtr(price),
	}
	if err := env.db.Create(item).Error; err != nil {
		t.Fatalf("failed to seed accessory: %v", err)
	}
	return item
}

func seedCustomer(t *testing.T, env *testEnv, name, phone string) *model.Customer {
	t.Helper()
	customer := &model.Customer{
		Name:  name,
		Phone: phone,
		Vehicles: []model.Vehicle{{
			Idx:         0,
			Make:        "Honda",
			Model:       "City",
			PlateNumber: "KA01AB1234",
		}},
	}
	if err := env.customers.CreateCustomer(customer); err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return customer
}

func mustDecimalEqual(t *testing.T, want, got decimal.Decimal, label string) {
	t.Helper()
	if !want.Equal(got) {
		t.Fatalf("%s: want %s, got %s", label, want, got)
	}
}
