package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/killallgit/songscraper/internal/models"
	apperrors "github.com/killallgit/songscraper/pkg/errors"
)

// SongInput is a song submitted through the API
type SongInput struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration string `json:"duration"`
}

// BulkResult summarises a bulk add
type BulkResult struct {
	Inserted []models.Song `json:"inserted"`
	Skipped  int           `json:"skipped"`
}

// ServiceImpl implements Service
type ServiceImpl struct {
	store Store
}

// NewService creates a new catalog service
func NewService(store Store) Service {
	return &ServiceImpl{store: store}
}

// ListSongs returns the whole catalog
func (s *ServiceImpl) ListSongs(ctx context.Context) ([]models.Song, error) {
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("list songs", err)
	}
	if songs == nil {
		songs = []models.Song{}
	}
	return songs, nil
}

// AddSong stores a single song unless one with the same title and owner exists
func (s *ServiceImpl) AddSong(ctx context.Context, input SongInput) (*models.Song, error) {
	song, appErr := input.toSong()
	if appErr != nil {
		return nil, appErr
	}

	exists, err := s.store.SongExists(ctx, song.Title, song.OwnerName)
	if err != nil {
		return nil, apperrors.DatabaseError("check song", err)
	}
	if exists {
		return nil, duplicate(song)
	}

	if _, err := s.store.InsertSong(ctx, song); err != nil {
		if errors.Is(err, ErrDuplicateSong) {
			return nil, duplicate(song)
		}
		return nil, apperrors.DatabaseError("insert song", err)
	}
	return song, nil
}

// AddSongs stores a batch in one transaction, skipping songs already present.
// The batch is validated before anything is written.
func (s *ServiceImpl) AddSongs(ctx context.Context, inputs []SongInput) (*BulkResult, error) {
	songs := make([]*models.Song, 0, len(inputs))
	for i, input := range inputs {
		song, appErr := input.toSong()
		if appErr != nil {
			return nil, appErr.WithDetail("index", i)
		}
		songs = append(songs, song)
	}

	result := &BulkResult{Inserted: []models.Song{}}
	err := s.store.Transaction(ctx, func(tx Store) error {
		for _, song := range songs {
			exists, err := tx.SongExists(ctx, song.Title, song.OwnerName)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				continue
			}
			if _, err := tx.InsertSong(ctx, song); err != nil {
				return err
			}
			result.Inserted = append(result.Inserted, *song)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.DatabaseError("insert songs", err)
	}

	slog.Info("bulk add finished", "inserted", len(result.Inserted), "skipped", result.Skipped)
	return result, nil
}

func (in SongInput) toSong() (*models.Song, *apperrors.AppError) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.MissingFieldError("title")
	}

	duration := strings.TrimSpace(in.Duration)
	if duration == "" {
		duration = models.UnknownDuration
	}

	song := &models.Song{
		Title:         title,
		OwnerName:     models.UnknownAuthor,
		Duration:      duration,
		AudioFilename: models.AudioFilename(title),
	}
	if url := strings.TrimSpace(in.URL); url != "" {
		song.AudioURL = &url
	}
	return song, nil
}

func duplicate(song *models.Song) error {
	appErr := apperrors.AlreadyExists("song", fmt.Sprintf("%s / %s", song.Title, song.OwnerName))
	appErr.Cause = ErrDuplicateSong
	return appErr
}
