package songs

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/songscraper/api/types"
)

// RegisterRoutes registers song catalog routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/songs - List every stored song with its terms
	router.GET("/songs", GetAll(deps))

	// POST /api/song - Add one song
	router.POST("/song", PostSong(deps))

	// POST /api/songs - Add a batch of songs, skipping duplicates
	router.POST("/songs", PostSongs(deps))
}
