// Package media defines shared types for the unistream application.
package media

import "fmt"

// MediaType represents whether content is a movie or TV show.
type MediaType int

const (
	Movie MediaType = iota
	TV
)

func (m MediaType) String() string {
	switch m {
	case Movie:
		return "movie"
	case TV:
		return "tv"
	default:
		return "unknown"
	}
}

// MarshalText encodes the type as "movie" or "tv".
func (m MediaType) MarshalText() ([]byte, error) {
	if m != Movie && m != TV {
		return nil, fmt.Errorf("invalid media type %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes "movie" or "tv".
func (m *MediaType) UnmarshalText(text []byte) error {
	t, ok := ParseMediaType(string(text))
	if !ok {
		return fmt.Errorf("invalid media type %q", text)
	}
	*m = t
	return nil
}

// ParseMediaType maps "movie"/"tv" path segments onto a MediaType.
func ParseMediaType(s string) (MediaType, bool) {
	switch s {
	case "movie":
		return Movie, true
	case "tv":
		return TV, true
	default:
		return Movie, false
	}
}

// SearchResult represents a single search result from the metadata mirror.
type SearchResult struct {
	ID     string    `json:"id"`     // e.g., "movie/533535" or "tv/1399"
	Title  string    `json:"title"`  // Display title
	Poster string    `json:"poster"` // Absolute poster URL
	Type   MediaType `json:"type"`
}

// Details is the resolved metadata for one title, including its playable units.
// Movies carry a single pseudo-season with one entry.
type Details struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Poster  string    `json:"poster"`
	Type    MediaType `json:"type"`
	Seasons []Season  `json:"seasons"`
}

// Season represents a TV show season.
type Season struct {
	Number   int       `json:"number"`
	Title    string    `json:"title"`
	Poster   string    `json:"poster"`
	Episodes []Episode `json:"episodes"`
}

// Episode is one resolvable unit. Ref is the encoded content reference
// handed to the resolution engine.
type Episode struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Ref    string `json:"ref"`
}

// Stream is a normalized playable stream.
type Stream struct {
	URL       string            `json:"url"`       // m3u8 or direct video URL
	Quality   string            `json:"quality"`   // Provider-prefixed label, e.g. "Primebox - 1080p"
	Subtitles []Subtitle        `json:"subtitles"` // Available subtitle tracks
	Headers   map[string]string `json:"headers"`   // Headers required on playback (Referer/Origin)
}

// Subtitle represents a subtitle track.
type Subtitle struct {
	Label string `json:"label"` // Display label, e.g., "English - SDH"
	File  string `json:"file"`  // URL to the subtitle file (usually VTT)
}
