package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hectobyte1024/sistema-hospitalario/internal/config"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/chart"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/clinical"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/patient"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/scheduling"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/surgery"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/triage"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/binder"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/db"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/metrics"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/middleware"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/reporting"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hospital-server",
		Short:        "Hospital data coordination API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string, w io.Writer) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// loadConfig reads and validates the configuration shared by every command.
func loadConfig() (*config.Config, *wallclock.Clock, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	return cfg, wallclock.NewClock(loc), nil
}

func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBSchema, cfg.DBMaxConns, cfg.DBMinConns)
}

func shiftWindows(cfg *config.Config) nursing.ShiftWindows {
	return nursing.ShiftWindows{
		MorningStart:   cfg.ShiftMorningStart,
		AfternoonStart: cfg.ShiftAfternoonStart,
		NightStart:     cfg.ShiftNightStart,
	}
}

func assignmentWindow(cfg *config.Config) nursing.WindowConfig {
	w := nursing.DefaultWindowConfig()
	if cfg.AssignmentWindowBefore > 0 {
		w.Before = cfg.AssignmentWindowBefore
	}
	if cfg.AssignmentWindowAfter > 0 {
		w.After = cfg.AssignmentWindowAfter
	}
	return w
}

// newEcho builds the server with global middleware and the liveness route.
// m may be nil.
func newEcho(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = binder.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	if m != nil {
		e.Use(middleware.Metrics(m))
	}
	e.Use(middleware.SecurityHeaders())
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		SigningKey: []byte(cfg.AuthSigningKey),
		Skipper:    auth.AuthSkipper,
	}
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		e.Use(auth.JWTMiddleware(jwtCfg))
	}

	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	return e
}

// registerAPI wires every domain package onto api. m may be nil.
func registerAPI(api *echo.Group, pool *pgxpool.Pool, cfg *config.Config, clock *wallclock.Clock,
	logger zerolog.Logger, m *metrics.Metrics) {
	windows := shiftWindows(cfg)

	// Triage
	triageHandler := triage.NewHandler()
	if m != nil {
		triageHandler.SetRecorder(m)
	}
	triageHandler.RegisterRoutes(api)

	// Patients and transfers
	patientRepo := patient.NewPatientRepoPG(pool)
	transferRepo := patient.NewTransferRepoPG(pool)
	patientSvc := patient.NewService(patientRepo, transferRepo, pool, clock)
	if m != nil {
		patientSvc.SetRecorder(m)
	}
	patient.NewHandler(patientSvc).RegisterRoutes(api)

	// Staff, shifts and assignments
	staffRepo := nursing.NewStaffRepoPG(pool)
	shiftRepo := nursing.NewShiftRepoPG(pool)
	assignmentRepo := nursing.NewAssignmentRepoPG(pool)
	nursingSvc := nursing.NewService(staffRepo, shiftRepo, assignmentRepo, patientSvc, windows,
		logger.With().Str("component", "nursing").Logger())
	resolver := nursing.NewResolver(staffRepo, shiftRepo, assignmentRepo, patientSvc, assignmentWindow(cfg), clock)
	nursing.NewHandler(nursingSvc, resolver).RegisterRoutes(api)

	// Clinical records
	stores := clinical.NewStoresPG(pool)
	gateway := clinical.NewGateway(stores, clock, windows, logger.With().Str("component", "clinical").Logger())
	if m != nil {
		gateway.SetRecorder(m)
	}
	clinical.NewHandler(gateway).RegisterRoutes(api)

	// Appointments
	appointmentRepo := scheduling.NewAppointmentRepoPG(pool)
	schedulingSvc := scheduling.NewService(appointmentRepo, logger.With().Str("component", "scheduling").Logger())
	if m != nil {
		schedulingSvc.SetRecorder(m)
	}
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)

	// Surgery board
	surgerySvc := surgery.NewService(surgery.NewSurgeryRepoPG(pool), surgery.NewRoomRepoPG(pool), clock,
		logger.With().Str("component", "surgery").Logger())
	surgery.NewHandler(surgerySvc).RegisterRoutes(api)

	// Patient chart
	agg := chart.NewAggregator(patientRepo, transferRepo, stores, appointmentRepo, windows)
	chart.NewHandler(agg).RegisterRoutes(api)

	// Reports
	reporting.NewHandler(reporting.NewPoolRunner(pool), func() time.Time { return clock.Now().Time }).RegisterRoutes(api)
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"), os.Stdout)

	cfg, clock, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	var m *metrics.Metrics
	reg := prometheus.NewRegistry()
	if cfg.MetricsEnabled {
		m = metrics.New(reg)
	}

	e := newEcho(cfg, logger, m)
	registerAPI(e.Group("/api/v1"), pool, cfg, clock, logger, m)

	e.GET("/health/db", db.HealthHandler(pool, cfg.DBSchema, func() *db.PoolStats { return db.StatsOf(pool) }))
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(reg)))
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("timezone", clock.Location().String()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
