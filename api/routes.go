package api

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/songscraper/api/health"
	"github.com/killallgit/songscraper/api/songs"
	"github.com/killallgit/songscraper/api/types"
	"github.com/killallgit/songscraper/api/version"
	"github.com/killallgit/songscraper/internal/services/catalog"
	"github.com/killallgit/songscraper/pkg/config"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, limits config.RateLimitConfig, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		return fmt.Errorf("dependencies are nil")
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// Initialize the catalog service if the database is available
	if deps.Catalog == nil && deps.DB != nil && deps.DB.DB != nil {
		deps.Catalog = catalog.NewService(catalog.NewRepository(deps.DB.DB))
	}
	if deps.Catalog == nil {
		return fmt.Errorf("song catalog requires a database")
	}

	apiGroup := engine.Group("/api")
	if limits.Enabled {
		apiGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, limits.RPS, limits.Burst))
	}
	songs.RegisterRoutes(apiGroup, deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
