package types

import (
	"github.com/killallgit/songscraper/internal/database"
	"github.com/killallgit/songscraper/internal/services/catalog"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB      *database.DB
	Catalog catalog.Service
	Build   BuildInfo
}

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}
