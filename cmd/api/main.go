package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"detailing-crm/internal/handler"
	"detailing-crm/internal/middleware"
	"detailing-crm/internal/model"
	"detailing-crm/internal/repository"
	"detailing-crm/internal/service"
	"detailing-crm/internal/ws"
	"detailing-crm/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(
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

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	technicianRepo := repository.NewTechnicianRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	saleRepo := repository.NewAccessorySaleRepo(db)
	jobRepo := repository.NewJobRepo(db)
	invoiceRepo := repository.NewInvoiceRepo(db)
	appointmentRepo := repository.NewAppointmentRepo(db)

	authService := service.NewAuthService(userRepo)
	customerService := service.NewCustomerService(customerRepo)
	inventoryService := service.NewInventoryService(inventoryRepo, saleRepo, db, wsHub)
	jobService := service.NewJobService(jobRepo, customerRepo, inventoryRepo, invoiceRepo, inventoryService, db, wsHub)
	invoiceService := service.NewInvoiceService(invoiceRepo, jobRepo, customerRepo, db, wsHub)
	appointmentService := service.NewAppointmentService(appointmentRepo, customerRepo, customerService, jobService)
	technicianService := service.NewTechnicianService(technicianRepo, jobRepo)
	dashboardService := service.NewDashboardService(jobRepo, inventoryRepo, appointmentRepo)

	authHandler := handler.NewAuthHandler(authService)
	customerHandler := handler.NewCustomerHandler(customerService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	jobHandler := handler.NewJobHandler(jobService, invoiceService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	technicianHandler := handler.NewTechnicianHandler(technicianService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Detailing CRM v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Dashboard
	protected.Get("/dashboard/stats", dashboardHandler.GetOverview)

	// Customers & vehicles
	protected.Get("/customers", customerHandler.GetCustomers)
	protected.Get("/customers/search", customerHandler.SearchCustomers)
	protected.Get("/customers/:id", customerHandler.GetCustomer)
	protected.Post("/customers", customerHandler.CreateCustomer)
	protected.Put("/customers/:id", customerHandler.UpdateCustomer)
	protected.Delete("/customers/:id", middleware.RequireRole(model.RoleAdmin), customerHandler.DeleteCustomer)
	protected.Post("/customers/:id/vehicles", customerHandler.AddVehicle)
	protected.Get("/customers/:id/vehicles/:vehicleIndex/preferences", customerHandler.GetVehiclePreferences)
	protected.Put("/customers/:id/vehicles/:vehicleIndex/preferences", customerHandler.UpdateVehiclePreferences)

	// Jobs
	protected.Get("/jobs", jobHandler.GetJobs)
	protected.Get("/jobs/:id", jobHandler.GetJob)
	protected.Post("/jobs", jobHandler.CreateJob)
	protected.Put("/jobs/:id", jobHandler.UpdateJob)
	protected.Patch("/jobs/:id/stage", jobHandler.UpdateStage)
	protected.Post("/jobs/:id/materials", jobHandler.AddMaterials)
	protected.Post("/jobs/:id/payments", jobHandler.AddPayment)
	protected.Get("/customers/:customerId/jobs", jobHandler.GetJobsByCustomer)
	protected.Get("/customers/:customerId/last-job", jobHandler.GetLastJobForVehicle)

	// Inventory
	protected.Get("/inventory", inventoryHandler.GetItems)
	protected.Get("/inventory/low-stock", inventoryHandler.GetLowStockItems)
	protected.Get("/inventory/:id", inventoryHandler.GetItem)
	protected.Post("/inventory", inventoryHandler.CreateItem)
	protected.Put("/inventory/:id", inventoryHandler.UpdateItem)
	protected.Delete("/inventory/:id", middleware.RequireRole(model.RoleAdmin), inventoryHandler.DeleteItem)
	protected.Post("/inventory/:id/adjust", inventoryHandler.AdjustQuantity)
	protected.Post("/inventory/:id/roll", inventoryHandler.AddRoll)
	protected.Delete("/inventory/:id/roll/:rollId", inventoryHandler.DeleteRoll)
	protected.Post("/inventory/:id/consume", inventoryHandler.ConsumeRolls)
	protected.Post("/accessory-sales", inventoryHandler.RecordAccessorySale)
	protected.Get("/accessory-sales", inventoryHandler.GetAccessorySales)

	// Invoices
	protected.Get("/invoices", invoiceHandler.GetInvoices)
	protected.Get("/invoices/:id", invoiceHandler.GetInvoice)
	protected.Post("/jobs/:jobId/invoices", invoiceHandler.GenerateForJob)
	protected.Get("/jobs/:jobId/invoices", invoiceHandler.GetInvoicesByJob)
	protected.Post("/invoices/:id/mark-paid", invoiceHandler.MarkPaid)

	// Appointments
	protected.Get("/appointments", appointmentHandler.GetAppointments)
	protected.Get("/appointments/:id", appointmentHandler.GetAppointment)
	protected.Post("/appointments", appointmentHandler.CreateAppointment)
	protected.Put("/appointments/:id", appointmentHandler.UpdateAppointment)
	protected.Delete("/appointments/:id", appointmentHandler.DeleteAppointment)
	protected.Post("/appointments/:id/convert", appointmentHandler.ConvertToJob)

	// Technicians
	protected.Get("/technicians", technicianHandler.GetTechnicians)
	protected.Get("/technicians/workloads", technicianHandler.GetWorkloads)
	protected.Post("/technicians", technicianHandler.CreateTechnician)
	protected.Put("/technicians/:id", technicianHandler.UpdateTechnician)

	// User Management (admin only)
	protected.Get("/users", middleware.RequireRole(model.RoleAdmin), authHandler.ListUsers)
	protected.Post("/users", middleware.RequireRole(model.RoleAdmin), authHandler.CreateUser)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// seedAdmin creates the default admin account if none exists yet
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	if _, err := userRepo.FindByEmail("admin@example.com"); err == nil {
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}
	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
		return
	}
	log.Println("Admin user created: admin@example.com / admin123")
}
