package handler

import (
	"detailing-crm/internal/model"
	"detailing-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TechnicianHandler struct {
	service service.TechnicianService
}

func NewTechnicianHandler(s service.TechnicianService) *TechnicianHandler {
	return &TechnicianHandler{service: s}
}

func (h *TechnicianHandler) CreateTechnician(c *fiber.Ctx) error {
	var technician model.Technician
	if err := c.BodyParser(&technician); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateTechnician(&technician); err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Technician created", "data": technician})
}

func (h *TechnicianHandler) UpdateTechnician(c *fiber.Ctx) error {
	technicianID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid technician ID"})
	}

	var technician model.Technician
	if err := c.BodyParser(&technician); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateTechnician(technicianID, &technician)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if updated == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Technician not found"})
	}
	return c.JSON(fiber.Map{"message": "Technician updated", "data": updated})
}

func (h *TechnicianHandler) GetTechnicians(c *fiber.Ctx) error {
	technicians, err := h.service.GetTechnicians()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(technicians)
}

func (h *TechnicianHandler) GetWorkloads(c *fiber.Ctx) error {
	workloads, err := h.service.GetWorkloads()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(workloads)
}
