package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/umut/reelsense/internal/domain"
)

// UserWriter persists user interaction libraries.
type UserWriter interface {
	Upsert(ctx context.Context, profile *domain.UserProfile) error
}

type LibraryHandler struct {
	users UserWriter
}

func NewLibraryHandler(users UserWriter) *LibraryHandler {
	return &LibraryHandler{users: users}
}

type libraryRequest struct {
	Favorites []domain.InteractionEntry `json:"favorites"`
	Watched   []domain.InteractionEntry `json:"watched"`
	Watchlist []domain.InteractionEntry `json:"watchlist"`
}

// UpdateLibrary handles PUT /api/v1/users/:id/library. It replaces the
// user's interaction lists wholesale.
func (h *LibraryHandler) UpdateLibrary(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User id is required"})
		return
	}

	var req libraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	profile := &domain.UserProfile{
		ID:               userID,
		FavoriteEntries:  req.Favorites,
		WatchedEntries:   req.Watched,
		WatchlistEntries: req.Watchlist,
	}
	if err := h.users.Upsert(c.Request.Context(), profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user library"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "user_id": userID})
}
