package songs

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/songscraper/api/types"
	"github.com/killallgit/songscraper/internal/services/catalog"
)

// BulkRequest is the body of POST /api/songs
type BulkRequest struct {
	Songs []catalog.SongInput `json:"songs"`
}

// PostSongs stores a batch of songs. Songs already in the catalog are skipped.
func PostSongs(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.Catalog == nil {
			types.SendInternalError(c, "Song catalog not configured")
			return
		}

		var req BulkRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}
		if len(req.Songs) == 0 {
			types.SendBadRequest(c, "songs must contain at least one song")
			return
		}

		result, err := deps.Catalog.AddSongs(c.Request.Context(), req.Songs)
		if err != nil {
			slog.Error("failed to add songs", "count", len(req.Songs), "error", err)
			types.SendError(c, err)
			return
		}

		types.SendResult(c, "Songs processed successfully", result)
	}
}
