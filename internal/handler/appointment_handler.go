package handler

import (
	"time"

	"detailing-crm/internal/model"
	"detailing-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AppointmentHandler struct {
	service service.AppointmentService
}

func NewAppointmentHandler(s service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: s}
}

func (h *AppointmentHandler) CreateAppointment(c *fiber.Ctx) error {
	var appointment model.Appointment
	if err := c.BodyParser(&appointment); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateAppointment(&appointment); err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Appointment created", "data": appointment})
}

func (h *AppointmentHandler) UpdateAppointment(c *fiber.Ctx) error {
	appointmentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	var appointment model.Appointment
	if err := c.BodyParser(&appointment); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateAppointment(appointmentID, &appointment)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if updated == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Appointment not found"})
	}
	return c.JSON(fiber.Map{"message": "Appointment updated", "data": updated})
}

func (h *AppointmentHandler) DeleteAppointment(c *fiber.Ctx) error {
	appointmentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}
	if err := h.service.DeleteAppointment(appointmentID); err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "Appointment deleted"})
}

func (h *AppointmentHandler) GetAppointments(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	var date *time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date. Use YYYY-MM-DD"})
		}
		date = &parsed
	}

	appointments, total, err := h.service.GetAppointments(page, limit, date)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	return c.JSON(fiber.Map{"appointments": appointments, "total": total})
}

func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	appointmentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}
	appointment, err := h.service.GetAppointment(appointmentID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
	if appointment == nil {
		return c.Status(404).JSON(fiber.Map{"error": "Appointment not found"})
	}
	return c.JSON(appointment)
}

func (h *AppointmentHandler) ConvertToJob(c *fiber.Ctx) error {
	appointmentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid appointment ID"})
	}

	job, err := h.service.ConvertToJob(appointmentID)
	if err != nil {
		return c.Status(domainStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(fiber.Map{"message": "Appointment converted to job", "data": job})
}
