// Package subtitle narrows the subtitle tracks attached to stream records
// down to a preferred language.
package subtitle

import (
	"strings"

	"github.com/samber/lo"

	"unistream/internal/media"
)

// Filter returns subtitles whose label mentions the preferred language (case-insensitive).
func Filter(subtitles []media.Subtitle, language string) []media.Subtitle {
	if language == "" {
		return subtitles
	}

	lang := strings.ToLower(language)
	return lo.Filter(subtitles, func(sub media.Subtitle, _ int) bool {
		return strings.Contains(strings.ToLower(sub.Label), lang)
	})
}

// BestMatch returns the best matching subtitle for the given language.
// Prefers a non-SDH match, then the first match.
func BestMatch(subtitles []media.Subtitle, language string) *media.Subtitle {
	filtered := Filter(subtitles, language)
	if len(filtered) == 0 {
		return nil
	}

	for _, sub := range filtered {
		label := strings.ToLower(sub.Label)
		if !strings.Contains(label, "sdh") && !strings.Contains(label, "hearing impaired") {
			return &sub
		}
	}

	return &filtered[0]
}

// Apply returns copies of streams with their subtitles narrowed to language.
// The input is not modified.
func Apply(streams []media.Stream, language string) []media.Stream {
	if language == "" {
		return streams
	}
	return lo.Map(streams, func(s media.Stream, _ int) media.Stream {
		subs := Filter(s.Subtitles, language)
		if subs == nil {
			subs = []media.Subtitle{}
		}
		s.Subtitles = subs
		return s
	})
}
