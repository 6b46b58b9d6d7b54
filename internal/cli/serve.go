package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/routes"
	"github.com/fletes-mx/cotizaciones-backend/internal/services"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var accessLog bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(accessLog)
		},
	}

	cmd.Flags().BoolVar(&accessLog, "access-log", true, "log every request")
	return cmd
}

func runServe(accessLog bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return serve(cfg, accessLog)
}

func serve(cfg *config.Config, accessLog bool) error {
	store, storageType, err := openStore(cfg)
	if err != nil {
		return err
	}

	metrics := services.NewMetrics()

	sms, err := services.NewTwilioService(cfg.SMS)
	if err != nil {
		return err
	}
	attachments, err := services.NewAttachmentStore(cfg.Storage)
	if err != nil {
		return err
	}
	templates, err := services.NewTemplateService()
	if err != nil {
		return err
	}
	dispatcher := services.NewDispatcher(sms, services.NewSMTPMailer(cfg.SMTP), attachments, templates, cfg.SMTP.NotifyTo)

	var cache services.PlaceCache
	if cfg.Geocode.RedisURL != "" {
		redisCache, err := services.NewRedisPlaceCache(cfg.Geocode.RedisURL)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		cache = redisCache
	}
	geocoder := services.NewCachedGeocoder(services.NewCopomexClient(cfg.Geocode), cache, metrics)

	codes := services.NewVerificationService(store, dispatcher, metrics)
	admins := services.NewAdminService(store)

	app := routes.NewApp(accessLog)
	routes.SetupRoutes(app, routes.Deps{
		Store:        store,
		Metrics:      metrics,
		Codes:        codes,
		Quotations:   services.NewQuotationService(store, codes, attachments, dispatcher, metrics, cfg.FolioFormat),
		Clients:      services.NewClientService(store, cfg.DefaultCountryCode),
		Destinations: services.NewDestinationService(store, geocoder),
		Origins:      services.NewOriginService(store, geocoder),
		Admins:       admins,
		Auth:         services.NewAuthService(store, cfg.JWTSecret, cfg.JWTTTL),

		Environment: cfg.Environment(),
		StorageType: storageType,

		SMSAuthToken:   cfg.SMS.AuthToken,
		SMSCallbackURL: cfg.SMS.StatusCallbackURL,
	})

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("shutting down server")
		_ = app.Shutdown()
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("storage", storageType).
		Str("environment", cfg.Environment()).
		Str("folio_format", cfg.FolioFormat).
		Bool("geocode_cache", cache != nil).
		Msg("cotizaciones backend starting")

	return app.Listen(":" + cfg.Port)
}
