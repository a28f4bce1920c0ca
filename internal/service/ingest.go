package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/umut/reelsense/internal/domain"
	"github.com/umut/reelsense/internal/logger"
	"github.com/umut/reelsense/internal/repository"
	"github.com/umut/reelsense/internal/source"
	"github.com/umut/reelsense/internal/storage"
)

// IngestService populates the document store and the vector index from a
// catalog source: metadata is upserted, the overview is embedded, and the
// vector is upserted with a type-filterable payload.
type IngestService struct {
	contentRepo *repository.ContentRepository
	qdrantRepo  *repository.QdrantRepository
	embedding   EmbeddingProvider
	backup      storage.ObjectStorage // optional, nil disables backups
	logger      *logger.Logger
	workers     int
	batchSize   int
}

// IngestServiceConfig holds worker-pool settings.
type IngestServiceConfig struct {
	Workers   int
	BatchSize int
}

// NewIngestService creates a new ingest service. backup may be nil.
func NewIngestService(
	contentRepo *repository.ContentRepository,
	qdrantRepo *repository.QdrantRepository,
	embedding EmbeddingProvider,
	backup storage.ObjectStorage,
	log *logger.Logger,
	cfg *IngestServiceConfig,
) *IngestService {
	workers := 5
	batchSize := 20
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
	}
	return &IngestService{
		contentRepo: contentRepo,
		qdrantRepo:  qdrantRepo,
		embedding:   embedding,
		backup:      backup,
		logger:      log,
		workers:     workers,
		batchSize:   batchSize,
	}
}

// IngestStats holds counters for one ingestion run.
type IngestStats struct {
	TotalItems     int64
	ProcessedItems int64
	FailedItems    int64
	StartTime      time.Time
	EndTime        time.Time
}

// IngestFromSource drains a catalog source through the worker pool. Item
// failures are counted and logged; the run continues.
func (s *IngestService) IngestFromSource(ctx context.Context, src source.Source, limit int) (*IngestStats, error) {
	stats := &IngestStats{StartTime: time.Now()}

	s.log(ctx).WithFields(logger.Fields{
		"source": src.ID(),
		"limit":  limit,
	}).Info("Starting catalog ingestion")

	itemsChan := make(chan domain.ContentItem, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemsChan {
				if err := s.processItem(ctx, &item); err != nil {
					atomic.AddInt64(&stats.FailedItems, 1)
					s.log(ctx).WithField("content_id", item.ID).WithError(err).Error("Failed to ingest item")
					continue
				}
				atomic.AddInt64(&stats.ProcessedItems, 1)
			}
		}()
	}

	cursor := ""
	totalFetched := 0
fetch:
	for {
		if ctx.Err() != nil {
			break
		}
		remaining := limit - totalFetched
		if limit > 0 && remaining <= 0 {
			break
		}

		batchLimit := s.batchSize
		if limit > 0 && batchLimit > remaining {
			batchLimit = remaining
		}

		items, nextCursor, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			s.log(ctx).WithError(err).Error("Failed to fetch catalog batch")
			break
		}
		if len(items) == 0 && nextCursor == "" {
			break
		}

		atomic.AddInt64(&stats.TotalItems, int64(len(items)))
		totalFetched += len(items)

		for _, item := range items {
			select {
			case itemsChan <- item:
			case <-ctx.Done():
				break fetch
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	close(itemsChan)
	wg.Wait()

	stats.EndTime = time.Now()
	s.log(ctx).WithFields(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"failed":    stats.FailedItems,
		"duration":  stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Catalog ingestion finished")

	if s.backup != nil && ctx.Err() == nil {
		if err := s.uploadBackup(ctx); err != nil {
			s.log(ctx).WithError(err).Warn("Catalog backup upload failed")
		}
	}

	return stats, nil
}

// processItem writes one catalog item to the document store and the vector
// index.
func (s *IngestService) processItem(ctx context.Context, item *domain.ContentItem) error {
	if err := s.contentRepo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}

	vector, err := s.embedding.Embed(ctx, item.Overview)
	if err != nil {
		return fmt.Errorf("failed to embed overview: %w", err)
	}

	if err := s.qdrantRepo.Upsert(ctx, item.ID, vector, &repository.ContentPayload{
		ContentID: item.ID,
		Type:      item.Type,
		Title:     item.Title,
		Genres:    item.Genres,
	}); err != nil {
		return fmt.Errorf("failed to index vector: %w", err)
	}

	return nil
}

// backupPageSize is how many catalog rows one export page reads.
const backupPageSize = 500

// uploadBackup exports the full catalog as JSON to object storage.
func (s *IngestService) uploadBackup(ctx context.Context) error {
	var all []domain.ContentItem
	for offset := 0; ; offset += backupPageSize {
		page, err := s.contentRepo.ListAll(ctx, backupPageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to read catalog page: %w", err)
		}
		all = append(all, page...)
		if len(page) < backupPageSize {
			break
		}
	}

	payload, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	key := fmt.Sprintf("backups/catalog-%s.json", time.Now().UTC().Format("20060102-150405"))
	if err := s.backup.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		return err
	}

	s.log(ctx).WithFields(logger.Fields{
		logger.FieldCount: len(all),
		logger.FieldSize:  len(payload),
	}).Infof("Catalog backup uploaded: %s", s.backup.GetURL(key))
	return nil
}

func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}
