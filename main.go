package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/citaflow/citabot-backend/database"
	"github.com/citaflow/citabot-backend/internal/booking"
	"github.com/citaflow/citabot-backend/internal/handlers"
	"github.com/citaflow/citabot-backend/internal/jobs"
	"github.com/citaflow/citabot-backend/internal/models"
	"github.com/citaflow/citabot-backend/internal/routes"
	"github.com/citaflow/citabot-backend/internal/schedule"
	"github.com/citaflow/citabot-backend/internal/services"
	"github.com/citaflow/citabot-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("⚠️  No .env file found - checking environment variables")
		}
	}

	// Initialize storage
	var store storage.Store
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		if err := database.DB.AutoMigrate(
			&models.Appointment{},
			&models.Client{},
		); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Twilio is optional in development: without it replies are logged
	// instead of sent.
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio service not initialized: %v", err)
		twilioService = nil
	} else {
		log.Println("✅ Twilio service initialized")
	}

	// The external calendar is optional too; without it availability is
	// decided by the database alone.
	var freeBusy schedule.FreeBusy
	calendarService, err := services.NewCalendarService(context.Background())
	if err != nil {
		log.Printf("⚠️  Calendar service not initialized, operating with database only: %v", err)
	} else {
		freeBusy = calendarService
		log.Println("✅ Google Calendar service initialized")
	}

	mailerService := services.NewMailerService()
	if mailerService == nil {
		log.Println("⚠️  SendGrid not configured - confirmation emails disabled")
	} else {
		log.Println("✅ SendGrid mailer initialized")
	}

	// Booking engine
	resolver := schedule.NewResolver(store, freeBusy)
	timers := booking.NewTimerManager()
	flow := booking.NewFlow(store, resolver, booking.NewMemorySessionStore(), timers)
	if calendarService != nil {
		flow.WithCalendar(calendarService)
	}
	if mailerService != nil {
		flow.WithMailer(mailerService)
	}
	if twilioService != nil {
		flow.WithMessenger(twilioService)
	}
	bot := services.NewBotService(flow)

	// Background sweep for sessions nobody came back to.
	cleanupJob := jobs.NewCleanupJob(flow, 10*time.Minute)
	cleanupJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "CitaBot Backend v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	whatsappHandler := handlers.NewWhatsAppHandler(bot, twilioService)
	healthHandler := handlers.NewHealthHandler(version, storageType(), twilioService != nil, freeBusy != nil)
	routes.SetupRoutes(app, whatsappHandler, healthHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		cleanupJob.Stop()
		timers.CancelAll()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 CitaBot Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Printf("📱 WhatsApp: %s", configuredStatus(twilioService != nil))
	log.Printf("📅 Calendar: %s", configuredStatus(freeBusy != nil))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func configuredStatus(ok bool) string {
	if ok {
		return "Configured"
	}
	return "Not configured"
}
