package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/songscraper/api/types"
)

// WelcomeMessage is served as plain text from the root path
const WelcomeMessage = "Welcome to the song catalog API. Songs are served from /api/songs."

// Welcome handles requests to the root path
func Welcome() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, WelcomeMessage)
	}
}

// Get handles version requests
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var build types.BuildInfo
		if deps != nil {
			build = deps.Build
		}
		if build.Version == "" {
			build.Version = "dev"
		}

		c.JSON(http.StatusOK, gin.H{
			"name":        "songscraper",
			"description": "Song catalog scraper and API",
			"status":      "running",
			"version":     build.Version,
			"git_commit":  build.GitCommit,
			"build_time":  build.BuildTime,
			"go_version":  build.GoVersion,
		})
	}
}
