package version

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/songscraper/api/types"
)

// RegisterRoutes registers the welcome and version routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	engine.GET("/", Welcome())
	engine.GET("/version", Get(deps))
}
