package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fletes-mx/cotizaciones-backend/internal/handlers"
	"github.com/fletes-mx/cotizaciones-backend/internal/middleware"
	"github.com/fletes-mx/cotizaciones-backend/internal/services"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

const Version = "1.0.0"

// Deps is everything the routes need, built once by the serve command.
type Deps struct {
	Store        storage.Store
	Metrics      *services.Metrics
	Codes        *services.VerificationService
	Quotations   *services.QuotationService
	Clients      *services.ClientService
	Destinations *services.DestinationService
	Origins      *services.OriginService
	Admins       *services.AdminService
	Auth         *services.AuthService

	Environment string
	StorageType string

	// Twilio webhook validation; an empty token disables the status route.
	SMSAuthToken   string
	SMSCallbackURL string
}

// NewApp creates the fiber app with the shared middleware stack.
func NewApp(accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Cotizaciones Backend v" + Version,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, d Deps) {
	health := handlers.NewHealthHandler(d.Store, Version, d.Environment, d.StorageType)
	app.Get("/health", health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	// send-sms is registered before /:destino_id so it is not taken as an id.
	quotations := handlers.NewQuotationHandler(d.Quotations, d.Codes)
	cotizacion := api.Group("/cotizacion")
	cotizacion.Get("/", quotations.List)
	cotizacion.Post("/send-sms/:id", quotations.SendSMS)
	cotizacion.Post("/:cotizacion/aceptacion", quotations.Accept)
	cotizacion.Post("/:cotizacion/rechazo", quotations.Reject)
	cotizacion.Post("/:destino_id", quotations.Create)
	cotizacion.Get("/:id", quotations.Get)
	cotizacion.Put("/:id", quotations.Update)
	cotizacion.Delete("/:id", quotations.Delete)

	clients := handlers.NewClientHandler(d.Clients)
	cliente := api.Group("/cliente")
	cliente.Get("/", clients.List)
	cliente.Post("/", clients.Create)
	cliente.Get("/:id", clients.Get)
	cliente.Put("/:id", clients.Update)
	cliente.Delete("/:id", clients.Delete)

	destinations := handlers.NewDestinationHandler(d.Destinations)
	destino := api.Group("/destino")
	destino.Get("/", destinations.List)
	destino.Post("/", destinations.Create)
	destino.Get("/:id", destinations.Get)
	destino.Put("/:id", destinations.Update)
	destino.Delete("/:id", destinations.Delete)

	origins := handlers.NewOriginHandler(d.Origins)
	origen := api.Group("/origen")
	origen.Get("/", origins.List)
	origen.Post("/", origins.Create)
	origen.Get("/:id", origins.Get)
	origen.Put("/:id", origins.Update)
	origen.Delete("/:id", origins.Delete)

	auth := handlers.NewAuthHandler(d.Auth)
	api.Post("/auth/login", auth.Login)

	admins := handlers.NewAdminHandler(d.Admins, d.Store)
	admin := api.Group("/admin", middleware.RequireAdmin(d.Auth))
	admin.Get("/", admins.List)
	admin.Post("/", admins.Create)
	admin.Get("/me", admins.Me)
	admin.Get("/overview", admins.Overview)
	admin.Get("/:id", admins.Get)
	admin.Put("/:id", admins.Update)
	admin.Delete("/:id", admins.Delete)

	if d.SMSAuthToken != "" {
		status := handlers.NewSMSStatusHandler(d.Metrics)
		app.Post("/webhook/sms/status", middleware.ValidateTwilioSignature(d.SMSAuthToken, d.SMSCallbackURL), status.Handle)
	}
}
