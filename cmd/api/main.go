package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/app"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/clock"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/config"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/events"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/storage/memory"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/storage/postgres"
	transporthttp "github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/internal/transport/http"
	"github.com/moisesvaloz-oss/channeled-quotas-demo-sub000/migrations"
)

const defaultPort = "8080"
const defaultConfigPath = "config.yaml"
const defaultCORSOrigins = "http://localhost:5173,http://127.0.0.1:5173"
const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("failed to load .env")
	}

	port := os.Getenv("PORT")
	if port == "" {
		logger.Warn().Str("port", defaultPort).Msg("PORT not set, using default")
		port = defaultPort
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		logger.Warn().Str("path", defaultConfigPath).Msg("CONFIG_PATH not set, using default")
		configPath = defaultConfigPath
	}
	tables, err := config.Load(configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", configPath).Msg("load capacity config")
	}

	corsEnv := os.Getenv("CORS_ORIGINS")
	if corsEnv == "" {
		logger.Warn().Msg("CORS_ORIGINS not set, using default local origins")
		corsEnv = defaultCORSOrigins
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		quotaStore  app.QuotaStore
		ledger      app.Ledger
		recordStore app.RecordStore
	)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(startupCtx, dbURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to db")
		}
		defer pool.Close()

		if err := pool.Ping(startupCtx); err != nil {
			logger.Fatal().Err(err).Msg("db ping")
		}
		if err := migrations.Apply(startupCtx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}

		quotaStore = postgres.NewQuotaRepository(pool)
		ledger = postgres.NewLedgerRepository(pool)
		recordStore = postgres.NewRecordRepository(pool)
		logger.Info().Msg("using postgres storage")
	} else {
		store := memory.NewStore()
		quotaStore = store
		ledger = store
		recordStore = store
		logger.Warn().Msg("DATABASE_URL not set, using in-memory storage")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if rabbitURL := os.Getenv("RABBITMQ_URL"); rabbitURL != "" {
		rabbit, err := events.NewRabbitPublisher(rabbitURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to rabbitmq")
		}
		defer rabbit.Close()
		publisher = rabbit
		logger.Info().Msg("publishing reservation events to rabbitmq")
	}

	clk := clock.NewSystem()
	quotaSvc := app.NewQuotaService(quotaStore, ledger, tables, clk)
	availabilitySvc := app.NewAvailabilityService(quotaStore, ledger, tables)
	reservationSvc := app.NewReservationService(quotaStore, ledger, recordStore, tables, publisher, clk)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/groups/", groupRouter(quotaSvc, availabilitySvc))
	mux.Handle("/quotas/", transporthttp.HandleQuotaByID(quotaSvc))
	mux.Handle("/availability", transporthttp.HandleAvailability(availabilitySvc))
	mux.Handle("/reservations", transporthttp.HandleCreateReservation(reservationSvc))
	mux.Handle("/reservations/", transporthttp.HandleReleaseReservation(reservationSvc))
	mux.Handle("/", transporthttp.NotFoundHandler())

	corsOrigins := parseCSV(corsEnv)
	handler := transporthttp.RequestLogger(transporthttp.CORS(corsOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	logger.Info().Str("port", port).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}

// groupRouter dispatches /groups/{group}/quotas and
// /groups/{group}/validate-capacity to their handlers.
func groupRouter(quotaSvc *app.QuotaService, availabilitySvc *app.AvailabilityService) http.Handler {
	quotas := transporthttp.HandleGroupQuotas(quotaSvc, availabilitySvc)
	validate := transporthttp.HandleValidateCapacity(quotaSvc)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/validate-capacity") {
			validate.ServeHTTP(w, r)
			return
		}
		quotas.ServeHTTP(w, r)
	})
}

func parseCSV(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
