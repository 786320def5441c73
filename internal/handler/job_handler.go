package handler

import (
	"detailing-crm/internal/model"
	"detailing-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type JobHandler struct {
	jobService     service.JobService
	invoiceService service.InvoiceService
}

func NewJobHandler(jobService service.JobService, invoiceService service.InvoiceService) *JobHandler {
	return &JobHandler{jobService: jobService, invoiceService: invoiceService}
}

func (h *JobHandler) CreateJob(c *fiber.Ctx) error {
	var job model.Job
	if err := c.BodyParser(&job); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.jobService.CreateJob(&job); err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Job created", "data": job})
}

func (h *JobHandler) UpdateJob(c *fiber.Ctx) error {
	jobID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}

	var job model.Job
	if err := c.BodyParser(&job); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.jobService.UpdateJob(jobID, &job)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if updated == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}
	return c.JSON(fiber.Map{"message": "Job updated", "data": updated})
}

// UpdateStage moves the job along the funnel. Moving into Completed triggers
// invoice generation, one invoice per business with assigned service items.
func (h *JobHandler) UpdateStage(c *fiber.Ctx) error {
	jobID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}

	var body struct {
		Stage model.JobStage `json:"stage"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	job, err := h.jobService.UpdateStage(jobID, body.Stage)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if job == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}

	if body.Stage == model.StageCompleted {
		invoices, err := h.invoiceService.GenerateForCompletedJob(jobID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "Job completed", "data": job, "invoices": invoices})
	}
	return c.JSON(fiber.Map{"message": "Stage updated", "data": job})
}

func (h *JobHandler) GetJobs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	stage := model.JobStage(c.Query("stage"))

	jobs, total, err := h.jobService.GetJobs(page, limit, stage)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(fiber.Map{"jobs": jobs, "total": total})
}

func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}
	job, err := h.jobService.GetJob(jobID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if job == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}
	return c.JSON(job)
}

func (h *JobHandler) GetJobsByCustomer(c *fiber.Ctx) error {
	customerID, err := parseUUID(c.Params("customerId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	jobs, err := h.jobService.GetJobsByCustomer(customerID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(jobs)
}

func (h *JobHandler) GetLastJobForVehicle(c *fiber.Ctx) error {
	customerID, err := parseUUID(c.Params("customerId"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid customer ID"})
	}
	vehicleIndex := c.QueryInt("vehicle_index", 0)

	job, err := h.jobService.GetLastJobForVehicle(customerID, vehicleIndex)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if job == nil {
		return c.Status(404).JSON(fiber.Map{"error": "No jobs for this vehicle"})
	}
	return c.JSON(job)
}

func (h *JobHandler) AddMaterials(c *fiber.Ctx) error {
	jobID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}

	var body struct {
		Materials []service.MaterialRequest `json:"materials"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	job, err := h.jobService.AddMaterials(jobID, body.Materials)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Materials added", "data": job})
}

func (h *JobHandler) AddPayment(c *fiber.Ctx) error {
	jobID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}

	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	job, err := h.jobService.AddPayment(jobID, &req)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if job == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}
	return c.JSON(fiber.Map{"message": "Payment recorded", "data": job})
}
