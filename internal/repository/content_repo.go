package repository

import (
	"context"
	"sync"

	"github.com/umut/reelsense/internal/domain"
	"github.com/umut/reelsense/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lookupChunkSize bounds the number of IDs per SELECT ... IN query.
const lookupChunkSize = 30

// ContentRepository is the document store for catalog items.
type ContentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Upsert creates or updates a content record keyed by ID.
func (r *ContentRepository) Upsert(ctx context.Context, item *domain.ContentItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(item).Error
}

// GetByID retrieves one content item.
func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	var item domain.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDs resolves content metadata for a set of IDs. IDs are deduplicated,
// split into chunks, and the chunks are fetched concurrently. A failing chunk
// is logged and contributes no data; the remaining chunks still resolve.
// IDs absent from the store are simply missing from the result map.
func (r *ContentRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.ContentItem, error) {
	result := make(map[string]*domain.ContentItem)
	chunks := chunkIDs(dedupIDs(ids), lookupChunkSize)
	if len(chunks) == 0 {
		return result, nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			var items []domain.ContentItem
			if err := r.db.WithContext(ctx).Find(&items, "id IN ?", chunk).Error; err != nil {
				logger.CtxWarn(ctx, "Content lookup chunk failed, skipping: size=%d, error=%v", len(chunk), err)
				return
			}
			mu.Lock()
			for i := range items {
				result[items[i].ID] = &items[i]
			}
			mu.Unlock()
		}(chunk)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByType counts catalog items of one type; an empty type counts all.
func (r *ContentRepository) CountByType(ctx context.Context, contentType domain.ContentType) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&domain.ContentItem{})
	if contentType != "" {
		q = q.Where("type = ?", contentType)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListAll streams the whole catalog in pages, for backup export.
func (r *ContentRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	if err := r.db.WithContext(ctx).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func dedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
