package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/catalog"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/config"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/events"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/handler"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/logger"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/metrics"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/middleware"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/repository"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/service"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/timeline"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
	"go.uber.org/zap"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "booking",
		Short:        "Telehealth scheduling and recommendation service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger shared by every command
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	log.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("database_driver", cfg.Database.Driver),
	)
	return cfg, log, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := openStorage(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.close()

			return store.migrate(cmd.Context())
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo doctor catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := openStorage(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.close()

			if err := store.migrate(cmd.Context()); err != nil {
				return err
			}
			n, err := repository.SeedDoctors(cmd.Context(), store.doctors, log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d doctors\n", n)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.close()

	if err := store.migrate(ctx); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("booking", registry)

	gateway, err := catalog.NewGateway(store.doctors, catalog.Config{
		CacheSize:        cfg.Catalog.CacheSize,
		MaxRequests:      cfg.Catalog.MaxRequests,
		Interval:         cfg.Catalog.Interval,
		Timeout:          cfg.Catalog.Timeout,
		FailureThreshold: cfg.Catalog.FailureThreshold,
	}, collector, log)
	if err != nil {
		return err
	}

	publisher := newPublisher(cfg.Kafka, collector, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close event publisher", zap.Error(err))
		}
	}()

	availability := service.NewAvailabilityService(store.appointments, service.WorkingHours{
		DayStartHour: cfg.Scheduling.DayStartHour,
		DayEndHour:   cfg.Scheduling.DayEndHour,
		SlotMinutes:        cfg.Scheduling.SlotMinutes,
		MaxDurationMinutes: cfg.Scheduling.MaxDurationMinutes,
	}, log)
	recommendations := service.NewRecommendationService(gateway, cfg.Recommendation.DefaultLimit, collector, log)
	booking := service.NewBookingService(service.BookingDeps{
		Appointments: store.appointments,
		Availability: availability,
		Doctors:      gateway,
		Links:        store.links,
		Timeline:     timeline.NewRecorder(store.timeline, log),
		Events:       publisher,
		Metrics:      collector,
	}, log)

	server := handler.NewServer(
		handler.NewRecommendationHandler(recommendations, log),
		handler.NewSlotHandler(availability, gateway, log),
		handler.NewAppointmentHandler(booking, log),
		handler.NewHealthHandler(store.pinger, log),
	)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TracingMiddleware())
	r.Use(middleware.MetricsMiddleware(collector))
	r.Use(middleware.RequestLoggingMiddleware(log))
	r.Use(middleware.ErrorLoggingMiddleware(log))

	api.RegisterHandlersWithOptions(r, server, api.GinServerOptions{ErrorHandler: handler.ParamErrorHandler})
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

type eventPublisher interface {
	service.EventPublisher
	Close() error
}

func newPublisher(cfg config.KafkaConfig, collector *metrics.Collector, log *zap.Logger) eventPublisher {
	if !cfg.Enabled {
		log.Info("Kafka disabled, appointment events are logged only")
		return events.NewLogPublisher(collector, log)
	}
	log.Info("Publishing appointment events to Kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		WriteTimeout: cfg.WriteTimeout,
	}, collector, log)
}
