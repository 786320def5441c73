package service

import (
	"errors"
	"testing"

	"detailing-crm/internal/model"
)

func seedJob(t *testing.T, env *testEnv, customer *model.Customer, job *model.Job) *model.Job {
	t.Helper()
	job.CustomerRef = customer.ID
	if err := env.jobs.CreateJob(job); err != nil {
		t.Fatalf("failed to seed job: %v", err)
	}
	return job
}

func TestCreateJobSnapshotsCustomerAndVehicle(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000001")

	job := seedJob(t, env, customer, &model.Job{VehicleIndex: 0})

	if job.CustomerName != "Asha Rao" {
		t.Fatalf("expected customer name snapshot, got %q", job.CustomerName)
	}
	if job.VehicleName != "Honda City" {
		t.Fatalf("expected vehicle name snapshot, got %q", job.VehicleName)
	}
	if job.PlateNumber != "KA01AB1234" {
		t.Fatalf("expected plate snapshot, got %q", job.PlateNumber)
	}
	if job.Stage != model.StageNewLead {
		t.Fatalf("expected new jobs to start as New Lead, got %s", job.Stage)
	}
}

func TestAddMaterialsBindsRollAudit(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000002")
	item := seedRollItem(t, env, "Elite", "50", "100")
	job := seedJob(t, env, customer, &model.Job{})

	updated, err := env.jobs.AddMaterials(job.ID, []MaterialRequest{
		{InventoryItemID: item.ID, Quantity: dec("70")},
	})
	if err != nil {
		t.Fatalf("add materials failed: %v", err)
	}

	if len(updated.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(updated.Materials))
	}
	material := updated.Materials[0]
	mustDecimalEqual(t, dec("70"), material.Quantity, "material quantity")
	if len(material.RollDetails) != 2 {
		t.Fatalf("expected 2 roll audit entries, got %d", len(material.RollDetails))
	}
	mustDecimalEqual(t, dec("50"), material.RollDetails[0].QuantityUsed, "first roll draw")
	mustDecimalEqual(t, dec("20"), material.RollDetails[1].QuantityUsed, "second roll draw")

	stock, _ := env.inventory.GetItem(item.ID)
	mustDecimalEqual(t, dec("80"), stock.Quantity, "stock after binding")
}

func TestAddMaterialsAccessoryCostsFromPrice(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000003")
	item := seedAccessory(t, env, "Sealant", "20", "150")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Ceramic Coating", Price: dec("1000")}},
	})

	updated, err := env.jobs.AddMaterials(job.ID, []MaterialRequest{
		{InventoryItemID: item.ID, Quantity: dec("2")},
	})
	if err != nil {
		t.Fatalf("add materials failed: %v", err)
	}

	material := updated.Materials[0]
	mustDecimalEqual(t, dec("300"), material.Cost, "material cost from item price")
	if len(material.RollDetails) != 0 {
		t.Fatalf("expected no roll audit for a counted item, got %d entries", len(material.RollDetails))
	}
	mustDecimalEqual(t, dec("1300"), updated.TotalAmount, "total includes material cost")

	stock, _ := env.inventory.GetItem(item.ID)
	mustDecimalEqual(t, dec("18"), stock.Quantity, "counter stock decremented")
}

func TestAddMaterialsTerminalGuard(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000004")
	item := seedRollItem(t, env, "Elite", "50")
	job := seedJob(t, env, customer, &model.Job{})

	if _, err := env.jobs.UpdateStage(job.ID, model.StageCompleted); err != nil {
		t.Fatalf("failed to complete job: %v", err)
	}

	_, err := env.jobs.AddMaterials(job.ID, []MaterialRequest{
		{InventoryItemID: item.ID, Quantity: dec("10")},
	})
	if !errors.Is(err, ErrJobFinalized) {
		t.Fatalf("expected ErrJobFinalized, got %v", err)
	}

	stock, _ := env.inventory.GetItem(item.ID)
	mustDecimalEqual(t, dec("50"), stock.Quantity, "stock untouched by rejected binding")
}

func TestAddMaterialsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000005")
	accessory := seedAccessory(t, env, "Sealant", "20", "150")
	film := seedRollItem(t, env, "Elite", "50")
	job := seedJob(t, env, customer, &model.Job{})

	_, err := env.jobs.AddMaterials(job.ID, []MaterialRequest{
		{InventoryItemID: accessory.ID, Quantity: dec("2")},
		{InventoryItemID: film.ID, Quantity: dec("80")},
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}

	// The satisfiable first item must not have been consumed.
	accStock, _ := env.inventory.GetItem(accessory.ID)
	mustDecimalEqual(t, dec("20"), accStock.Quantity, "accessory stock rolled back")
	filmStock, _ := env.inventory.GetItem(film.ID)
	mustDecimalEqual(t, dec("50"), filmStock.Quantity, "film stock rolled back")

	reloaded, _ := env.jobs.GetJob(job.ID)
	if len(reloaded.Materials) != 0 {
		t.Fatalf("expected no materials bound, got %d", len(reloaded.Materials))
	}
}

func TestAddMaterialsTotalWithGST(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000006")
	item := seedAccessory(t, env, "Sealant", "20", "150")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Full Body PPF", Price: dec("1000"), Discount: dec("100")}},
		LaborCost:    dec("100"),
		RequiresGST:  true,
	})

	updated, err := env.jobs.AddMaterials(job.ID, []MaterialRequest{
		{InventoryItemID: item.ID, Quantity: dec("2")},
	})
	if err != nil {
		t.Fatalf("add materials failed: %v", err)
	}

	// (900 services + 300 materials + 100 labor) * 1.18
	mustDecimalEqual(t, dec("1534"), updated.TotalAmount, "total with GST")
}

func TestJobTotalDiscountAppliedAfterTax(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000011")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Full Body PPF", Price: dec("1000")}},
		Discount:     dec("100"),
		RequiresGST:  true,
	})

	// 1000 * 1.18 - 100, not (1000 - 100) * 1.18
	mustDecimalEqual(t, dec("1080"), job.TotalAmount, "discount comes off the taxed amount")

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{
		TaxRate:  dec("18"),
		Discount: dec("100"),
	})
	if err != nil {
		t.Fatalf("invoice generation failed: %v", err)
	}
	mustDecimalEqual(t, job.TotalAmount, invoice.TotalAmount, "job total and primary invoice agree")
}

func TestUpdateStageTerminalLocked(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000007")
	job := seedJob(t, env, customer, &model.Job{})

	if _, err := env.jobs.UpdateStage(job.ID, model.StageCancelled); err != nil {
		t.Fatalf("failed to cancel job: %v", err)
	}
	_, err := env.jobs.UpdateStage(job.ID, model.StageWorkInProgress)
	if !errors.Is(err, ErrStageLocked) {
		t.Fatalf("expected ErrStageLocked, got %v", err)
	}
}

func TestUpdateStageRejectsUnknownStage(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000008")
	job := seedJob(t, env, customer, &model.Job{})

	_, err := env.jobs.UpdateStage(job.ID, model.JobStage("Half Done"))
	if !errors.Is(err, ErrInvalidStage) {
		t.Fatalf("expected ErrInvalidStage, got %v", err)
	}
}

func TestAddPaymentClampsToRemaining(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000009")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	updated, err := env.jobs.AddPayment(job.ID, &PaymentRequest{Amount: dec("1500"), Mode: model.PayUPI})
	if err != nil {
		t.Fatalf("add payment failed: %v", err)
	}
	mustDecimalEqual(t, dec("1000"), updated.PaidAmount, "paid clamped to total")
	if updated.PaymentStatus != model.PaymentPaid {
		t.Fatalf("expected status Paid, got %s", updated.PaymentStatus)
	}
	if len(updated.Payments) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(updated.Payments))
	}
	mustDecimalEqual(t, dec("1000"), updated.Payments[0].Amount, "ledger records clamped amount")

	// A settled job ignores further payments.
	again, err := env.jobs.AddPayment(job.ID, &PaymentRequest{Amount: dec("50")})
	if err != nil {
		t.Fatalf("second payment errored: %v", err)
	}
	mustDecimalEqual(t, dec("1000"), again.PaidAmount, "no overpayment recorded")
}

func TestAddPaymentMirrorsOntoInvoice(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9000000010")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("invoice generation failed: %v", err)
	}

	if _, err := env.jobs.AddPayment(job.ID, &PaymentRequest{Amount: dec("400"), Mode: model.PayCash}); err != nil {
		t.Fatalf("add payment failed: %v", err)
	}

	mirrored, _ := env.invoices.GetInvoice(invoice.ID)
	mustDecimalEqual(t, dec("400"), mirrored.PaidAmount, "invoice paid amount mirrored")
	if mirrored.PaymentStatus != model.PaymentPartiallyPaid {
		t.Fatalf("expected invoice Partially Paid, got %s", mirrored.PaymentStatus)
	}

	reloaded, _ := env.jobs.GetJob(job.ID)
	if reloaded.PaymentStatus != model.PaymentPartiallyPaid {
		t.Fatalf("expected job Partially Paid, got %s", reloaded.PaymentStatus)
	}
}
