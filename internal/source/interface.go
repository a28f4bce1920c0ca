package source

import (
	"context"

	"github.com/umut/reelsense/internal/domain"
)

// Source is a paged catalog provider feeding the ingest pipeline.
type Source interface {
	// ID identifies the source in logs and stats.
	ID() string

	// FetchBatch returns up to limit items starting at cursor, plus the
	// cursor of the next page. An empty next cursor means the source is
	// exhausted.
	FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.ContentItem, string, error)
}
