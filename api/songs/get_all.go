package songs

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/songscraper/api/types"
)

// GetAll returns the whole catalog
func GetAll(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.Catalog == nil {
			types.SendInternalError(c, "Song catalog not configured")
			return
		}

		songs, err := deps.Catalog.ListSongs(c.Request.Context())
		if err != nil {
			slog.Error("failed to list songs", "error", err)
			types.SendInternalError(c, err.Error())
			return
		}

		types.SendSuccess(c, songs)
	}
}
