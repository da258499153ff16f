package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/trialscope-ai/trialsync/pkg/classify"
	"github.com/trialscope-ai/trialsync/pkg/common/config"
	"github.com/trialscope-ai/trialsync/pkg/common/database"
	"github.com/trialscope-ai/trialsync/pkg/common/kafka"
	"github.com/trialscope-ai/trialsync/pkg/common/logger"
	"github.com/trialscope-ai/trialsync/pkg/export"
	"github.com/trialscope-ai/trialsync/pkg/normalizer"
	"github.com/trialscope-ai/trialsync/pkg/pipeline"
	"github.com/trialscope-ai/trialsync/pkg/registry"
	"github.com/trialscope-ai/trialsync/pkg/sponsor"
	"github.com/trialscope-ai/trialsync/pkg/taxonomy"
)

// taxonomyFiles maps the six keyword files to their output columns. The
// condition taxonomy alone falls back to OTHER on no match; the rest report NO.
var taxonomyFiles = []struct {
	File         string
	Column       string
	NoMatchLabel string
}{
	{"condition_keywords.json", "Condition Grouped", "OTHER"},
	{"genetic_keywords.json", "Genetic", "NO"},
	{"advanced_therapies_keywords.json", "Advanced Therapies", "NO"},
	{"cancer_keywords.json", "Cancer", "NO"},
	{"rare_diseases_keywords.json", "Enfermedades Raras", "NO"},
	{"diabetes_keywords.json", "Diabetes", "NO"},
}

func main() {
	logger.Init()
	cfg := config.Load()

	classifiers := make([]classify.Classifier, 0, len(taxonomyFiles))
	for _, tf := range taxonomyFiles {
		tax, err := taxonomy.Load(tf.Column, filepath.Join(cfg.KeywordsDir, tf.File))
		if err != nil {
			logger.Log.WithError(err).WithField("file", tf.File).Fatal("failed to load keyword taxonomy")
		}
		classifiers = append(classifiers, classify.Classifier{
			Column:       tf.Column,
			Taxonomy:     tax,
			NoMatchLabel: tf.NoMatchLabel,
		})
	}

	rules, err := sponsor.LoadRules(cfg.SponsorConfig)
	if err != nil {
		logger.Log.WithError(err).Warn("failed to load sponsor config, using defaults")
	}

	// The sync itself needs no database; a missing one only disables run
	// history, so boot continues with a nil repository instead of dying.
	var repo *pipeline.Repository
	if db, err := database.GetPostgres(); err != nil {
		logger.Log.WithError(err).Warn("postgres unavailable, run history disabled")
	} else {
		repo = pipeline.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Warn("failed to migrate sync tables, run history disabled")
			repo = nil
		}
	}

	state := pipeline.NewStateStore(database.GetRedis(), cfg.RunLockTTL)

	producer := kafka.NewProducer(cfg.SyncTopic)
	defer producer.Close()

	client := registry.NewClient(registry.Options{
		BaseURL:    cfg.RegistryBaseURL,
		Sort:       cfg.RegistrySort,
		PageSize:   cfg.PageSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Timeout:    cfg.RequestTimeout,
	})

	svc := pipeline.NewService(
		client,
		normalizer.NewTransformer(classifiers),
		sponsor.NewHomogenizer(rules),
		export.NewCSVExporter(cfg.OutputDir),
		repo,
		state,
		producer,
		cfg.MaxRecords,
	)

	handler := pipeline.NewHTTPHandler(svc, repo, state)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	handler.Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Sync Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	go scheduleRuns(ctx, svc, cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Sync Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Sync Service stopped")
}

// scheduleRuns fires one sync on startup when configured, then once per
// month at the configured day and hour (UTC).
func scheduleRuns(ctx context.Context, svc *pipeline.Service, cfg *config.Config) {
	if cfg.RunOnStart {
		runOnce(ctx, svc)
	}

	for {
		next := nextMonthlyRun(time.Now().UTC(), cfg.SyncDayOfMonth, cfg.SyncHourUTC)
		logger.Log.WithField("next_run", next.Format(time.RFC3339)).Info("next scheduled sync")

		select {
		case <-time.After(time.Until(next)):
			runOnce(ctx, svc)
		case <-ctx.Done():
			return
		}
	}
}

func runOnce(ctx context.Context, svc *pipeline.Service) {
	runID := uuid.New().String()
	if _, err := svc.Run(ctx, runID); err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			logger.Log.WithField("run_id", runID).Info("scheduled sync skipped, run in progress")
			return
		}
		logger.Log.WithError(err).WithField("run_id", runID).Error("scheduled sync failed")
	}
}

// nextMonthlyRun returns the first day/hour occurrence strictly after now.
func nextMonthlyRun(now time.Time, day, hour int) time.Time {
	next := monthlyAt(now.Year(), now.Month(), day, hour)
	if !next.After(now) {
		next = monthlyAt(now.Year(), now.Month()+1, day, hour)
	}
	return next
}

// monthlyAt clamps day to the month's length so a day-31 schedule fires on
// the last day of shorter months instead of rolling into the next one.
func monthlyAt(year int, month time.Month, day, hour int) time.Time {
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		day = last
	}
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
