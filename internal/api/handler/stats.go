package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/umut/reelsense/internal/domain"
)

// ContentCounter reports how many catalog items exist per content type.
type ContentCounter interface {
	CountByType(ctx context.Context, contentType domain.ContentType) (int64, error)
}

type StatsHandler struct {
	content ContentCounter
}

func NewStatsHandler(content ContentCounter) *StatsHandler {
	return &StatsHandler{content: content}
}

// Stats handles GET /api/v1/stats.
func (h *StatsHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	movies, err := h.content.CountByType(ctx, domain.ContentTypeMovie)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read catalog stats"})
		return
	}
	shows, err := h.content.CountByType(ctx, domain.ContentTypeTV)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read catalog stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"movies": movies,
		"tv":     shows,
		"total":  movies + shows,
	})
}
