package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/example/trip-quoting/internal/config"
	"github.com/example/trip-quoting/internal/disambig"
	"github.com/example/trip-quoting/internal/events"
	"github.com/example/trip-quoting/internal/geocode"
	"github.com/example/trip-quoting/internal/httpapi"
	"github.com/example/trip-quoting/internal/logging"
	"github.com/example/trip-quoting/internal/payments"
	"github.com/example/trip-quoting/internal/prefs"
	"github.com/example/trip-quoting/internal/pricing"
	"github.com/example/trip-quoting/internal/quoting"
	"github.com/example/trip-quoting/internal/route"
	"github.com/example/trip-quoting/internal/storage"
	"github.com/example/trip-quoting/internal/trip"
)

func main() {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		logging.NewLogger("error").Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	if cfg.PGDSN != "" && cfg.RunMigrations {
		if err := runMigrations(cfg.PGDSN); err != nil {
			logger.Error("apply migrations", "error", err)
		} else {
			logger.Info("migrations applied", "file", "001_create_trip_history.sql")
		}
	}

	var (
		tripStore trip.Store
		prefStore prefs.Store
	)
	if cfg.RedisAddr != "" {
		rs := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		tripStore = rs
		prefStore = rs
		logger.Info("using redis session storage", "addr", cfg.RedisAddr)
	} else {
		tripStore = trip.NewMemoryStore()
		prefStore = prefs.NewMemory()
		logger.Info("using in-memory session storage")
	}

	var directions route.Directions
	if cfg.GoogleMapsAPIKey != "" {
		gm := route.NewGoogleMapsClient(cfg.GoogleMapsEndpoint, cfg.GoogleMapsAPIKey)
		gm.Client.Timeout = cfg.ProviderTimeout
		directions = gm
	} else {
		logger.Warn("no directions provider configured, falling back to straight-line estimates")
	}

	surge := &pricing.RandomSurge{
		Probability: cfg.SurgeProbability,
		Min:         cfg.SurgeMin,
		Max:         cfg.SurgeMax,
	}
	quotes := quoting.NewService(
		route.NewService(directions, cfg.AvgSpeedKmh, logger),
		pricing.NewCalculator(surge),
	)

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		logger.Info("trip event publishing enabled", "topic", cfg.KafkaTopic)
	}

	pending := disambig.NewPending()
	srv := httpapi.NewServer(httpapi.Deps{
		Trips:              trip.NewManager(tripStore),
		Quotes:             quotes,
		Prefs:              prefStore,
		Geocoder:           geocode.NewNominatimClient(cfg.NominatimEndpoint),
		Pending:            pending,
		WSReg:              disambig.NewWSRegistry(pending, logger),
		Producer:           producer,
		Payments:           payments.NewStripeClient(cfg.StripeAPIKey),
		DisambigConfidence: cfg.DisambigConfidence,
		Logger:             logger,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("trip-quoting listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	b, err := os.ReadFile(filepath.Join("migrations", "001_create_trip_history.sql"))
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}
