package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/umut/reelsense/internal/config"
	"github.com/umut/reelsense/internal/logger"
	"github.com/umut/reelsense/internal/repository"
	"github.com/umut/reelsense/internal/service"
	"github.com/umut/reelsense/internal/source/tmdb"
	"github.com/umut/reelsense/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "reelsense-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	limit := flag.Int("limit", 1000, "Maximum number of items to ingest")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	if cfg.TMDB.APIKey == "" {
		appLogger.Fatal("TMDB_API_KEY is required for ingestion")
	}

	appLogger.WithFields(logger.Fields{
		"limit":     *limit,
		"max_pages": cfg.TMDB.MaxPages,
	}).Info("Starting ingestion")

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	contentRepo := repository.NewContentRepository(db)
	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:            cfg.Qdrant.Host,
		Port:            cfg.Qdrant.Port,
		Collection:      cfg.Qdrant.Collection,
		APIKey:          cfg.Qdrant.APIKey,
		UseTLS:          cfg.Qdrant.UseTLS,
		VectorDimension: cfg.Embedding.Dimensions,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
	}
	defer qdrantRepo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	// Catalog backup is optional; without it the run just skips the upload.
	var backup storage.ObjectStorage
	if cfg.Backup.Enabled {
		s3Storage, err := storage.NewS3Storage(&storage.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
			UseSSL:    cfg.Backup.UseSSL,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			PublicURL: cfg.Backup.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize backup storage")
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure backup bucket")
		}
		backup = s3Storage
	}

	embeddingService := service.NewEmbeddingService(&service.EmbeddingServiceConfig{
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		Dimensions: cfg.Embedding.Dimensions,
	})

	ingestService := service.NewIngestService(
		contentRepo,
		qdrantRepo,
		embeddingService,
		backup,
		appLogger,
		&service.IngestServiceConfig{
			Workers:   cfg.Ingest.Workers,
			BatchSize: cfg.Ingest.BatchSize,
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	src := tmdb.New(&tmdb.Config{
		APIKey:   cfg.TMDB.APIKey,
		Language: cfg.TMDB.Language,
		MaxPages: cfg.TMDB.MaxPages,
		RPS:      cfg.TMDB.RPS,
	})

	stats, err := ingestService.IngestFromSource(ctx, src, *limit)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to ingest from source")
	}
	appLogger.WithFields(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"failed":    stats.FailedItems,
	}).Info("Ingestion completed")
}
