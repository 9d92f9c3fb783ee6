package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// UnknownAuthor is stored when the scraped row carries no owner name
	UnknownAuthor = "Unknown Author"
	// UnknownTitle is the summary fallback for a row without a title
	UnknownTitle = "Unknown Title"
	// UnknownDuration is the summary fallback for a row without a duration
	UnknownDuration = "0:00"
	// UnknownTerm marks an absent taxonomy value and is never persisted
	UnknownTerm = "Unknown"
)

// Song represents a catalog entry. (Title, OwnerName) is unique.
type Song struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UUID          string    `json:"uuid" gorm:"uniqueIndex"`
	Title         string    `json:"title" gorm:"not null;uniqueIndex:idx_songs_title_owner"`
	OwnerName     string    `json:"owner_name" gorm:"not null;default:Unknown Author;uniqueIndex:idx_songs_title_owner"`
	Duration      string    `json:"duration" gorm:"default:0:00"`
	AudioURL      *string   `json:"audio_url"`
	CoverImageURL *string   `json:"cover_image_url"`
	AudioFilename string    `json:"audio_filename"`
	CoverFilename *string   `json:"cover_filename"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Genres []Genre `json:"genres,omitempty" gorm:"many2many:song_genres;"`
	Moods  []Mood  `json:"moods,omitempty" gorm:"many2many:song_moods;"`
	Themes []Theme `json:"themes,omitempty" gorm:"many2many:song_themes;"`
}

// BeforeCreate fills the public identifier and derived filenames
func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.New().String()
	}
	if s.OwnerName == "" {
		s.OwnerName = UnknownAuthor
	}
	if s.AudioFilename == "" {
		s.AudioFilename = AudioFilename(s.Title)
	}
	return nil
}

// TableName returns the table name for the Song model
func (Song) TableName() string {
	return "songs"
}
