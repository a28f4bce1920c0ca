package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/umut/reelsense/internal/domain"
	"github.com/umut/reelsense/internal/service"
)

// Recommender is the engine capability the handler needs.
type Recommender interface {
	Recommend(ctx context.Context, req *service.RecommendRequest) (*service.RecommendResponse, error)
}

// RecommendHandler serves the two recommendation endpoints.
type RecommendHandler struct {
	engine Recommender
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(engine Recommender) *RecommendHandler {
	return &RecommendHandler{engine: engine}
}

// Recommendations handles GET /api/v1/recommendations. The free-text query
// is ignored on this endpoint, so it always runs in personal-taste mode.
func (h *RecommendHandler) Recommendations(c *gin.Context) {
	h.serve(c, "")
}

// Discovery handles GET /api/v1/discovery. Genre keywords in the query
// switch the request into discovery mode.
func (h *RecommendHandler) Discovery(c *gin.Context) {
	h.serve(c, c.Query("query"))
}

func (h *RecommendHandler) serve(c *gin.Context, query string) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'userId' is required",
		})
		return
	}

	contentType := domain.ContentType(c.Query("type"))
	if contentType != "" && !contentType.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'type' must be 'movie' or 'tv'",
		})
		return
	}

	resp, err := h.engine.Recommend(c.Request.Context(), &service.RecommendRequest{
		UserID: userID,
		Type:   contentType,
		Query:  query,
	})
	if err != nil {
		h.writeError(c, userID, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeError maps engine errors onto the response taxonomy: unknown user is
// 404, insufficient signal is a successful empty response tagged with a
// reason, everything else is an internal failure.
func (h *RecommendHandler) writeError(c *gin.Context, userID string, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found: " + userID,
		})
	case errors.Is(err, domain.ErrInsufficientSignal):
		c.JSON(http.StatusOK, gin.H{
			"results": []domain.ScoredCandidate{},
			"total":   0,
			"reason":  "insufficient_signal",
			"message": "Not enough resolvable favorites or watched items to build a taste profile",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute recommendations",
		})
	}
}
