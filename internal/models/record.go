package models

import (
	"strings"
)

// ExtractionRecord is a scraped song that has not been persisted yet.
// Its JSON form is the schema of the metadata file and the failure log.
type ExtractionRecord struct {
	Title         string   `json:"title"`
	Filename      string   `json:"filename,omitempty"`
	Author        string   `json:"audioOwnerName"`
	Duration      string   `json:"duration"`
	DetailURL     string   `json:"detailUrl,omitempty"`
	AudioURL      *string  `json:"audioUrl"`
	CoverImageURL *string  `json:"coverImageUrl"`
	CoverFilename *string  `json:"coverfilename"`
	Genres        []string `json:"genres"`
	Moods         []string `json:"moods"`
	Themes        []string `json:"themes"`
}

// Owner returns the author, falling back to UnknownAuthor
func (r ExtractionRecord) Owner() string {
	if strings.TrimSpace(r.Author) == "" {
		return UnknownAuthor
	}
	return r.Author
}

// ToSong builds the Song row for this record
func (r ExtractionRecord) ToSong() *Song {
	duration := r.Duration
	if duration == "" {
		duration = UnknownDuration
	}

	filename := r.Filename
	if filename == "" {
		filename = AudioFilename(r.Title)
	}

	coverFilename := r.CoverFilename
	if coverFilename == nil && r.CoverImageURL != nil && *r.CoverImageURL != "" {
		name := CoverFilename(r.Title)
		coverFilename = &name
	}

	return &Song{
		Title:         r.Title,
		OwnerName:     r.Owner(),
		Duration:      duration,
		AudioURL:      r.AudioURL,
		CoverImageURL: r.CoverImageURL,
		AudioFilename: filename,
		CoverFilename: coverFilename,
	}
}

// CleanTerms trims names and drops empties, the Unknown sentinel and repeats
func CleanTerms(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == UnknownTerm {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}
	return cleaned
}

// SanitizeFilename replaces every character outside [A-Za-z0-9] with an underscore
func SanitizeFilename(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// AudioFilename returns the local audio filename derived from a title
func AudioFilename(title string) string {
	return SanitizeFilename(title) + ".mp3"
}

// CoverFilename returns the local cover filename derived from a title
func CoverFilename(title string) string {
	return SanitizeFilename(title) + ".jpg"
}
