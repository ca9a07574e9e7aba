package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talentos/internal/config"
	"talentos/internal/email/noop"
	"talentos/internal/email/ses"
	"talentos/internal/extractor/gemini"
	"talentos/internal/handler"
	"talentos/internal/matcher"
	"talentos/internal/pipeline"
	"talentos/internal/port"
	"talentos/internal/repository/postgres"
	"talentos/internal/router"
	"talentos/internal/service"
	s3storage "talentos/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Repositories
	batchRepo := postgres.NewBatchRepo(db)
	fileRepo := postgres.NewFileMetaRepo(db)
	candidateRepo := postgres.NewCandidateRepo(db)
	matchRepo := postgres.NewMatchJobRepo(db)

	// Storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// Email
	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender()
	}

	// Extraction pipeline: one client per configured API key.
	extractors := make([]port.DocumentExtractor, 0, len(cfg.Extractor.APIKeys))
	embedders := make([]port.Embedder, 0, len(cfg.Extractor.APIKeys))
	for _, key := range cfg.Extractor.APIKeys {
		client := gemini.NewClient(&cfg.Extractor, &cfg.Embedding, key)
		extractors = append(extractors, client)
		embedders = append(embedders, client)
	}
	pool, err := pipeline.NewCredentialPool(extractors, embedders)
	if err != nil {
		return fmt.Errorf("failed to build credential pool: %w", err)
	}
	retry := pipeline.NewRetryExecutor(pipeline.RetryConfig{
		MaxAttempts: cfg.Extractor.MaxAttempts,
		BaseDelay:   time.Duration(cfg.Extractor.BaseDelaySecs) * time.Second,
		MaxDelay:    time.Duration(cfg.Extractor.MaxDelaySecs) * time.Second,
	})
	gate := pipeline.NewPersistenceGate(candidateRepo)
	pipe := pipeline.New(pool, retry, gate, cfg.Extractor.Strategy, cfg.Extractor.GroupSize)

	// Services
	batchSvc := service.NewBatchService(batchRepo, fileRepo, candidateRepo, s3Client, pipe, emailSender, &cfg.S3)
	candidateSvc := service.NewCandidateService(candidateRepo)
	matchOpener := matcher.NewStreamClient(cfg.Matcher.Endpoint, cfg.Matcher.APIKey,
		time.Duration(cfg.Matcher.TimeoutSecs)*time.Second)
	matchSvc := service.NewMatchService(matchRepo, candidateRepo, matchOpener,
		time.Duration(cfg.Matcher.TimeoutSecs)*time.Second)

	// Queue worker
	worker := service.NewBatchQueueWorker(batchRepo, batchSvc, service.BatchQueueConfig{
		PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
		Concurrency:  cfg.Queue.Concurrency,
	})
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Start(workerCtx)
	}()

	// Handlers
	batchH := handler.NewBatchHandler(batchSvc)
	candidateH := handler.NewCandidateHandler(candidateSvc)
	matchH := handler.NewMatchHandler(matchSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(batchH, candidateH, matchH, healthH, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		stopWorker()
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	matchSvc.Shutdown()
	stopWorker()
	<-workerDone

	return nil
}
