package catalog

import (
	"context"

	"github.com/killallgit/songscraper/internal/models"
)

// Store defines the catalog data access used by ingestion and the API
type Store interface {
	// Dedup gate
	SongExists(ctx context.Context, title, owner string) (bool, error)

	// Write operations
	InsertSong(ctx context.Context, song *models.Song) (uint, error)
	UpsertTerm(ctx context.Context, ns Namespace, name string) (uint, error)
	LinkSongTerm(ctx context.Context, ns Namespace, songID, termID uint) error

	// Read operations
	ListSongs(ctx context.Context) ([]models.Song, error)

	// Transaction runs fn against a store bound to a single transaction.
	// Any error returned by fn rolls back every write made through it.
	Transaction(ctx context.Context, fn func(Store) error) error
}

// Service defines the catalog operations exposed over HTTP
type Service interface {
	ListSongs(ctx context.Context) ([]models.Song, error)
	AddSong(ctx context.Context, input SongInput) (*models.Song, error)
	AddSongs(ctx context.Context, inputs []SongInput) (*BulkResult, error)
}
