package models

// Genre is a term in the genre vocabulary
type Genre struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;uniqueIndex"`
}

// TableName returns the table name for the Genre model
func (Genre) TableName() string { return "genres" }

// Mood is a term in the mood vocabulary
type Mood struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;uniqueIndex"`
}

// TableName returns the table name for the Mood model
func (Mood) TableName() string { return "moods" }

// Theme is a term in the theme vocabulary
type Theme struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;uniqueIndex"`
}

// TableName returns the table name for the Theme model
func (Theme) TableName() string { return "themes" }

// SongGenre links a song to a genre
type SongGenre struct {
	SongID  uint `gorm:"primaryKey"`
	GenreID uint `gorm:"primaryKey"`
}

// TableName returns the join table name
func (SongGenre) TableName() string { return "song_genres" }

// SongMood links a song to a mood
type SongMood struct {
	SongID uint `gorm:"primaryKey"`
	MoodID uint `gorm:"primaryKey"`
}

// TableName returns the join table name
func (SongMood) TableName() string { return "song_moods" }

// SongTheme links a song to a theme
type SongTheme struct {
	SongID  uint `gorm:"primaryKey"`
	ThemeID uint `gorm:"primaryKey"`
}

// TableName returns the join table name
func (SongTheme) TableName() string { return "song_themes" }

// All returns every model the catalog schema needs, in migration order
func All() []any {
	return []any{
		&Song{},
		&Genre{},
		&Mood{},
		&Theme{},
		&SongGenre{},
		&SongMood{},
		&SongTheme{},
	}
}
