package service

import (
	"errors"
	"testing"

	"detailing-crm/internal/model"
)

func TestCreateCustomerAssignsSequentialIDs(t *testing.T) {
	env := newTestEnv(t)

	first := seedCustomer(t, env, "Asha Rao", "9200000001")
	second := seedCustomer(t, env, "Vikram Shetty", "9200000002")

	if first.CustomerID != "cus001" {
		t.Fatalf("expected cus001, got %s", first.CustomerID)
	}
	if second.CustomerID != "cus002" {
		t.Fatalf("expected cus002, got %s", second.CustomerID)
	}
}

func TestCreateCustomerRejectsDuplicatePhone(t *testing.T) {
	env := newTestEnv(t)
	seedCustomer(t, env, "Asha Rao", "9200000003")

	err := env.customers.CreateCustomer(&model.Customer{
		Name:  "Someone Else",
		Phone: "9200000003",
	})
	if !errors.Is(err, ErrDuplicatePhone) {
		t.Fatalf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestAddVehicleAppendsWithNextIndex(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9200000004")

	updated, err := env.customers.AddVehicle(customer.ID, &model.Vehicle{
		Make:        "Tata",
		Model:       "Nexon",
		PlateNumber: "KA05CD5678",
	})
	if err != nil {
		t.Fatalf("add vehicle failed: %v", err)
	}
	if len(updated.Vehicles) != 2 {
		t.Fatalf("expected 2 vehicles, got %d", len(updated.Vehicles))
	}
	added := updated.VehicleAt(1)
	if added == nil || added.Model != "Nexon" {
		t.Fatal("expected the new vehicle at index 1")
	}
}

func TestVehiclePreferencesRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9200000005")

	_, err := env.customers.UpdateVehiclePreferences(customer.ID, 0, &VehiclePreferences{
		PPFCategory:    "Elite",
		PPFVehicleType: "Sedan",
		PPFWarranty:    "5 Years",
		PPFPrice:       dec("85000"),
		LaborCost:      dec("5000"),
	})
	if err != nil {
		t.Fatalf("update preferences failed: %v", err)
	}

	prefs, err := env.customers.GetVehiclePreferences(customer.ID, 0)
	if err != nil {
		t.Fatalf("get preferences failed: %v", err)
	}
	if prefs.PPFCategory != "Elite" || prefs.PPFWarranty != "5 Years" {
		t.Fatalf("preferences not persisted: %+v", prefs)
	}
	mustDecimalEqual(t, dec("85000"), prefs.PPFPrice, "stored PPF price")
	mustDecimalEqual(t, dec("5000"), prefs.LaborCost, "stored labor cost")
}

func TestVehiclePreferencesUnknownIndex(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9200000006")

	_, err := env.customers.UpdateVehiclePreferences(customer.ID, 7, &VehiclePreferences{PPFCategory: "Elite"})
	if !errors.Is(err, ErrVehicleNotFound) {
		t.Fatalf("expected ErrVehicleNotFound, got %v", err)
	}
}

func TestSearchCustomersByPlate(t *testing.T) {
	env := newTestEnv(t)
	seedCustomer(t, env, "Asha Rao", "9200000007")
	seedCustomer(t, env, "Vikram Shetty", "9200000008")

	results, err := env.customers.SearchCustomers("KA01AB")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both customers to match the shared plate prefix, got %d", len(results))
	}

	results, err = env.customers.SearchCustomers("Vikram")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Vikram Shetty" {
		t.Fatalf("expected a single name match, got %d", len(results))
	}
}

func TestDeleteCustomerCascades(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9200000009")
	seedJob(t, env, customer, &model.Job{})

	if err := env.customers.DeleteCustomer(customer.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	gone, err := env.customers.GetCustomer(customer.ID)
	if err != nil {
		t.Fatalf("lookup errored: %v", err)
	}
	if gone != nil {
		t.Fatal("expected customer to be deleted")
	}

	jobs, err := env.jobs.GetJobsByCustomer(customer.ID)
	if err != nil {
		t.Fatalf("job lookup errored: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected customer's jobs to be removed, got %d", len(jobs))
	}
}
