package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"maitred/internal/admission"
	"maitred/internal/api"
	"maitred/internal/assign"
	"maitred/internal/audit"
	"maitred/internal/cache"
	"maitred/internal/config"
	"maitred/internal/database"
	"maitred/internal/events"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("MAITRED_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	bus := events.NewBus()

	var publisher *audit.Publisher
	if rdb != nil {
		publisher = audit.NewPublisher(rdb, audit.PublisherConfig{
			Channel: cfg.Audit.Channel,
			Rate:    cfg.Audit.PublishRate,
			Burst:   cfg.Audit.PublishBurst,
		})
	}
	recorder := audit.NewRecorder(db, publisher, &logger)
	recorder.Attach(bus)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *assign.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics = assign.NewMetrics("maitred", prometheus.DefaultRegisterer)
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	var rulesStore admission.RulesStore = db
	if rdb != nil {
		rulesStore = cache.NewRulesCache(db, rdb, cfg.RulesCacheTTL(), &logger)
	}
	admissionAPI := api.NewServer(admission.NewService(rulesStore, &logger), &logger)
	auditAPI := api.NewAuditServer(recorder, &logger)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, admissionAPI, auditAPI, &logger)

	scheduler := assign.NewScheduler(assign.SchedulerConfig{
		CheckInterval:       cfg.CheckInterval(),
		AssignmentThreshold: cfg.AssignmentThreshold(),
		ConflictBuffer:      cfg.ConflictBuffer(),
		DefaultDuration:     cfg.DefaultDuration(),
	}, db, bus, metrics, &logger)

	backup := database.NewBackupService(db, database.BackupConfig{
		Enabled:       cfg.Backup.Enabled,
		Interval:      cfg.BackupInterval(),
		StoragePath:   cfg.Backup.Path,
		RetentionDays: cfg.Backup.RetentionDays,
	}, &logger)
	go backup.Start(ctx)

	go cleanupLoop(ctx, recorder, cfg.AuditRetention(), &logger)

	logger.Info().Msg("table assignment engine started")
	scheduler.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, admissionAPI *api.Server, auditAPI *api.AuditServer, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	admissionAPI.Register(mux)
	auditAPI.Register(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serve(ctx, fmt.Sprintf(":%d", port), mux, "health server", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	serve(ctx, fmt.Sprintf(":%d", port), mux, "metrics server", logger)
}

func serve(ctx context.Context, addr string, handler http.Handler, name string, logger *zerolog.Logger) {
	srv := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msgf("%s listening", name)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msgf("%s failed", name)
	}
}

// cleanupLoop prunes old audit records once a day.
func cleanupLoop(ctx context.Context, recorder *audit.Recorder, retention time.Duration, logger *zerolog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recorder.Cleanup(ctx, retention)
		}
	}
}
