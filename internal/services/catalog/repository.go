package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/killallgit/songscraper/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RepositoryImpl implements Store on top of gorm
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository
func NewRepository(db *gorm.DB) Store {
	return &RepositoryImpl{db: db}
}

// SongExists reports whether a song with this exact title and owner is stored
func (r *RepositoryImpl) SongExists(ctx context.Context, title, owner string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Song{}).
		Where("title = ? AND owner_name = ?", title, owner).
		Count(&count).Error
	if err != nil {
		return false, classify("checking song", err)
	}
	return count > 0, nil
}

// InsertSong stores a new song and returns its id
func (r *RepositoryImpl) InsertSong(ctx context.Context, song *models.Song) (uint, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(song).Error; err != nil {
		return 0, classify("inserting song", err)
	}
	return song.ID, nil
}

// UpsertTerm returns the id of the named term, creating it when absent
func (r *RepositoryImpl) UpsertTerm(ctx context.Context, ns Namespace, name string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == models.UnknownTerm {
		return 0, fmt.Errorf("upserting %s %q: %w", ns, name, ErrSentinelTerm)
	}

	row, id := ns.termRow(name)
	// The no-op update makes RETURNING yield the existing id on conflict
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(row).Error
	if err != nil {
		return 0, classify(fmt.Sprintf("upserting %s", ns), err)
	}
	if id() != 0 {
		return id(), nil
	}

	// Drivers without RETURNING leave the id unset
	fresh, freshID := ns.termRow(name)
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(fresh).Error; err != nil {
		return 0, classify(fmt.Sprintf("reading %s", ns), err)
	}
	return freshID(), nil
}

// LinkSongTerm records that a song carries a term. Existing links are left alone.
func (r *RepositoryImpl) LinkSongTerm(ctx context.Context, ns Namespace, songID, termID uint) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(ns.linkRow(songID, termID)).Error
	if err != nil {
		return classify(fmt.Sprintf("linking %s", ns), err)
	}
	return nil
}

// ListSongs returns every stored song with its terms
func (r *RepositoryImpl) ListSongs(ctx context.Context) ([]models.Song, error) {
	var songs []models.Song
	err := r.db.WithContext(ctx).
		Preload("Genres", orderByName).
		Preload("Moods", orderByName).
		Preload("Themes", orderByName).
		Order("id ASC").
		Find(&songs).Error
	if err != nil {
		return nil, classify("listing songs", err)
	}
	return songs, nil
}

// Transaction runs fn inside a database transaction
func (r *RepositoryImpl) Transaction(ctx context.Context, fn func(Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RepositoryImpl{db: tx})
	})
}

func orderByName(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}
