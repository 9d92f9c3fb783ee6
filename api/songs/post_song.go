package songs

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/songscraper/api/types"
	"github.com/killallgit/songscraper/internal/services/catalog"
	apperrors "github.com/killallgit/songscraper/pkg/errors"
)

// PostSong stores a single song
func PostSong(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps == nil || deps.Catalog == nil {
			types.SendInternalError(c, "Song catalog not configured")
			return
		}

		var input catalog.SongInput
		if !types.BindJSONOrError(c, &input) {
			return
		}

		song, err := deps.Catalog.AddSong(c.Request.Context(), input)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrCodeAlreadyExists) {
				slog.Error("failed to add song", "title", input.Title, "error", err)
			}
			types.SendError(c, err)
			return
		}

		types.SendResult(c, "Song added successfully", song)
	}
}
