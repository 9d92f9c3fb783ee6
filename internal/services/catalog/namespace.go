package catalog

import (
	"fmt"

	"github.com/killallgit/songscraper/internal/models"
)

// Namespace selects one of the three term vocabularies
type Namespace int

const (
	Genre Namespace = iota + 1
	Mood
	Theme
)

// Namespaces lists every vocabulary in link order
var Namespaces = []Namespace{Genre, Mood, Theme}

func (n Namespace) String() string {
	switch n {
	case Genre:
		return "genre"
	case Mood:
		return "mood"
	case Theme:
		return "theme"
	default:
		return fmt.Sprintf("namespace(%d)", int(n))
	}
}

// Terms returns the record's names for this namespace
func (n Namespace) Terms(r models.ExtractionRecord) []string {
	switch n {
	case Genre:
		return r.Genres
	case Mood:
		return r.Moods
	case Theme:
		return r.Themes
	default:
		panic(invalidNamespace(n))
	}
}

// termRow returns a new term row and a reader for its id once created
func (n Namespace) termRow(name string) (any, func() uint) {
	switch n {
	case Genre:
		row := &models.Genre{Name: name}
		return row, func() uint { return row.ID }
	case Mood:
		row := &models.Mood{Name: name}
		return row, func() uint { return row.ID }
	case Theme:
		row := &models.Theme{Name: name}
		return row, func() uint { return row.ID }
	default:
		panic(invalidNamespace(n))
	}
}

func (n Namespace) linkRow(songID, termID uint) any {
	switch n {
	case Genre:
		return &models.SongGenre{SongID: songID, GenreID: termID}
	case Mood:
		return &models.SongMood{SongID: songID, MoodID: termID}
	case Theme:
		return &models.SongTheme{SongID: songID, ThemeID: termID}
	default:
		panic(invalidNamespace(n))
	}
}

func invalidNamespace(n Namespace) string {
	return fmt.Sprintf("catalog: invalid %s", n)
}
