package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/spendscan/internal/api"
	"github.com/dvloznov/spendscan/internal/api/handlers"
	"github.com/dvloznov/spendscan/internal/app"
	"github.com/dvloznov/spendscan/internal/config"
	"github.com/dvloznov/spendscan/internal/jobs"
	"github.com/dvloznov/spendscan/internal/jobs/inmemory"
	"github.com/dvloznov/spendscan/internal/logger"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "Optional .env file to load")
		port    = flag.String("port", "", "HTTP server port (overrides PORT)")
		offline = flag.Bool("offline", false, "Do not call Gemini; use the local text parser and fallback insights")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	services, err := app.NewServices(ctx, cfg, app.Options{Offline: *offline})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build analysis services")
	}

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueBuffer, jobStore, inmemory.WithWorkers(cfg.QueueWorkers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	go jobStore.RunJanitor(workerCtx, time.Hour, inmemory.DefaultRetention)

	if err := jobQueue.Start(workerCtx, jobs.NewAnalyzeStatementHandler(services.Analyzer)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job workers")
	}

	statementsCfg := handlers.StatementsConfig{
		Analyzer:       services.Analyzer,
		Extractor:      services.Extractor,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if cfg.GCSBucket != "" {
		statementsCfg.Uploader = services.Storage
		statementsCfg.Publisher = jobQueue
		statementsCfg.Bucket = cfg.GCSBucket
	} else {
		log.Warn().Msg("No GCS bucket configured - statements will be analyzed synchronously")
	}

	handler := api.NewRouter(api.Handlers{
		Analyze:    handlers.NewAnalyzeHandler(services.Analyzer, log),
		Statements: handlers.NewStatementsHandler(statementsCfg, log),
		Jobs:       handlers.NewJobsHandler(jobStore, log),
	}, log)

	// Statement extraction can take a while, so writes get more room than reads.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
