package service

import (
	"testing"

	"detailing-crm/internal/model"
)

func TestGenerateInvoiceBusinessPartition(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000001")
	item := seedAccessory(t, env, "Sealant", "20", "150")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{
			{Name: "Full Body PPF", Price: dec("10000"), AssignedBusiness: model.BusinessAutoGamma},
			{Name: "Window Tinting", Price: dec("3000"), AssignedBusiness: model.BusinessSecond},
		},
		Discount: dec("500"),
	})
	if _, err := env.jobs.AddMaterials(job.ID, []MaterialRequest{
		{InventoryItemID: item.ID, Quantity: dec("2")},
	}); err != nil {
		t.Fatalf("add materials failed: %v", err)
	}

	invoices, err := env.invoices.GenerateForCompletedJob(job.ID)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if len(invoices) != 2 {
		t.Fatalf("expected one invoice per business, got %d", len(invoices))
	}

	byBusiness := map[model.Business]*model.Invoice{}
	for i := range invoices {
		byBusiness[invoices[i].Business] = &invoices[i]
	}
	primary := byBusiness[model.BusinessAutoGamma]
	secondary := byBusiness[model.BusinessSecond]
	if primary == nil || secondary == nil {
		t.Fatal("expected an Auto Gamma and a Business 2 invoice")
	}

	// Service items are partitioned, each appearing exactly once.
	countService := func(inv *model.Invoice, desc string) int {
		n := 0
		for _, it := range inv.Items {
			if it.Type == model.InvoiceItemService && it.Description == desc {
				n++
			}
		}
		return n
	}
	if countService(primary, "Full Body PPF") != 1 || countService(secondary, "Full Body PPF") != 0 {
		t.Fatal("Auto Gamma service item misplaced")
	}
	if countService(secondary, "Window Tinting") != 1 || countService(primary, "Window Tinting") != 0 {
		t.Fatal("Business 2 service item misplaced")
	}

	// Materials and the job-level discount attach to Auto Gamma only.
	materialCount := func(inv *model.Invoice) int {
		n := 0
		for _, it := range inv.Items {
			if it.Type == model.InvoiceItemMaterial {
				n++
			}
		}
		return n
	}
	if materialCount(primary) != 1 {
		t.Fatalf("expected materials on the Auto Gamma invoice, got %d lines", materialCount(primary))
	}
	if materialCount(secondary) != 0 {
		t.Fatalf("expected no materials on the Business 2 invoice, got %d lines", materialCount(secondary))
	}
	mustDecimalEqual(t, dec("500"), primary.Discount, "Auto Gamma discount")
	mustDecimalEqual(t, dec("0"), secondary.Discount, "Business 2 discount zeroed")

	// 10000 + 300 materials - 500 discount, no GST.
	mustDecimalEqual(t, dec("9800"), primary.TotalAmount, "Auto Gamma total")
	mustDecimalEqual(t, dec("3000"), secondary.TotalAmount, "Business 2 total")
}

func TestGenerateInvoiceSkipsBusinessWithoutItems(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000002")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{
		TaxRate:  dec("18"),
		Business: string(model.BusinessSecond),
	})
	if err != nil {
		t.Fatalf("generation errored: %v", err)
	}
	if invoice != nil {
		t.Fatal("expected no invoice for a business with zero assigned items")
	}
}

func TestInvoiceNumbersAreSequential(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000003")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	first, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if first.InvoiceNumber != "INV0001" {
		t.Fatalf("expected INV0001, got %s", first.InvoiceNumber)
	}

	second, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if second.InvoiceNumber != "INV0002" {
		t.Fatalf("expected INV0002, got %s", second.InvoiceNumber)
	}
}

func TestInvoiceNumberingToleratesGaps(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000004")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	seeded := &model.Invoice{
		JobID:         job.ID,
		CustomerRef:   customer.ID,
		InvoiceNumber: "INV0041",
		Business:      model.BusinessAutoGamma,
	}
	if err := env.db.Create(seeded).Error; err != nil {
		t.Fatalf("failed to seed invoice: %v", err)
	}

	next, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if next.InvoiceNumber != "INV0042" {
		t.Fatalf("expected INV0042, got %s", next.InvoiceNumber)
	}
}

func TestGenerateInvoiceLaborLine(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000005")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
		LaborCost:    dec("250"),
	})

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	laborLines := 0
	for _, it := range invoice.Items {
		if it.Description == "Labor Charge" {
			laborLines++
			mustDecimalEqual(t, dec("250"), it.Total, "labor line amount")
		}
	}
	if laborLines != 1 {
		t.Fatalf("expected exactly one labor line, got %d", laborLines)
	}
	mustDecimalEqual(t, dec("1250"), invoice.TotalAmount, "total includes labor")
}

func TestGenerateInvoiceLaborDedup(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000006")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "PPF Labor and Fitting", Price: dec("400")}},
		LaborCost:    dec("250"),
	})

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	for _, it := range invoice.Items {
		if it.Description == "Labor Charge" {
			t.Fatal("expected no synthetic labor line when a service item already bills labor")
		}
	}
	mustDecimalEqual(t, dec("400"), invoice.TotalAmount, "total without duplicate labor")
}

func TestGenerateInvoiceAppliesGST(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000007")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
		RequiresGST:  true,
	})

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	mustDecimalEqual(t, dec("18"), invoice.TaxRate, "applied tax rate")
	mustDecimalEqual(t, dec("180"), invoice.Tax, "tax amount")
	mustDecimalEqual(t, dec("1180"), invoice.TotalAmount, "total with GST")
}

func TestGenerateInvoiceDefaultsTaxRate(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000011")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
		RequiresGST:  true,
	})

	// A request that omits the tax rate still bills GST at the default.
	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	mustDecimalEqual(t, dec("18"), invoice.TaxRate, "tax rate falls back to the GST default")
	mustDecimalEqual(t, dec("180"), invoice.Tax, "tax at the default rate")
	mustDecimalEqual(t, dec("1180"), invoice.TotalAmount, "total with default tax")
}

func TestGenerateInvoicePaymentStateCopy(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000008")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{
			{Name: "Full Body PPF", Price: dec("10000"), AssignedBusiness: model.BusinessAutoGamma},
			{Name: "Window Tinting", Price: dec("3000"), AssignedBusiness: model.BusinessSecond},
		},
	})
	if _, err := env.jobs.AddPayment(job.ID, &PaymentRequest{Amount: dec("4000")}); err != nil {
		t.Fatalf("payment failed: %v", err)
	}

	invoices, err := env.invoices.GenerateForCompletedJob(job.ID)
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	for i := range invoices {
		inv := &invoices[i]
		switch inv.Business {
		case model.BusinessAutoGamma:
			mustDecimalEqual(t, dec("4000"), inv.PaidAmount, "primary invoice copies job payments")
			if inv.PaymentStatus != model.PaymentPartiallyPaid {
				t.Fatalf("expected primary invoice Partially Paid, got %s", inv.PaymentStatus)
			}
		case model.BusinessSecond:
			mustDecimalEqual(t, dec("0"), inv.PaidAmount, "secondary invoice starts unpaid")
			if inv.PaymentStatus != model.PaymentPending {
				t.Fatalf("expected secondary invoice Pending, got %s", inv.PaymentStatus)
			}
		}
	}
}

func TestGenerateInvoiceSyncsJobTotal(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000009")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	// Drift the stored total away from what the snapshot derives.
	if err := env.db.Model(&model.Job{}).Where("id = ?", job.ID).
		Update("total_amount", dec("1")).Error; err != nil {
		t.Fatalf("failed to drift total: %v", err)
	}

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	reloaded, _ := env.jobs.GetJob(job.ID)
	mustDecimalEqual(t, invoice.TotalAmount, reloaded.TotalAmount, "job total resynced from primary invoice")
}

func TestMarkPaidSettlesInvoiceAndJobLedger(t *testing.T) {
	env := newTestEnv(t)
	customer := seedCustomer(t, env, "Asha Rao", "9100000010")
	job := seedJob(t, env, customer, &model.Job{
		ServiceItems: []model.ServiceItem{{Name: "Detailing", Price: dec("1000")}},
	})

	invoice, err := env.invoices.GenerateForJob(job.ID, &GenerateInvoiceRequest{TaxRate: dec("18")})
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	paid, err := env.invoices.MarkPaid(invoice.ID, &MarkPaidRequest{Mode: model.PayUPI})
	if err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	mustDecimalEqual(t, dec("1000"), paid.PaidAmount, "invoice settled in full")
	if paid.PaymentStatus != model.PaymentPaid {
		t.Fatalf("expected invoice Paid, got %s", paid.PaymentStatus)
	}

	reloaded, _ := env.jobs.GetJob(job.ID)
	mustDecimalEqual(t, dec("1000"), reloaded.PaidAmount, "job paid amount updated")
	if reloaded.PaymentStatus != model.PaymentPaid {
		t.Fatalf("expected job Paid, got %s", reloaded.PaymentStatus)
	}
	if len(reloaded.Payments) != 1 {
		t.Fatalf("expected a ledger entry for the settlement, got %d", len(reloaded.Payments))
	}
	if reloaded.Payments[0].Notes != "Invoice "+invoice.InvoiceNumber+" payment" {
		t.Fatalf("unexpected ledger note: %q", reloaded.Payments[0].Notes)
	}
}
