package provider

import (
	"maps"
	"strings"

	"unistream/internal/httputil"
	"unistream/internal/media"
)

// newStream builds a record owning its own copy of headers. It reports false
// when rawURL is not an absolute HTTP(S) URL.
func newStream(rawURL, quality string, subs []media.Subtitle, headers map[string]string) (media.Stream, bool) {
	u := strings.TrimSpace(rawURL)
	if !httputil.IsAbsoluteURL(u) {
		return media.Stream{}, false
	}
	if subs == nil {
		subs = []media.Subtitle{}
	}
	return media.Stream{
		URL:       u,
		Quality:   quality,
		Subtitles: subs,
		Headers:   cloneHeaders(headers),
	}, true
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return map[string]string{}
	}
	return maps.Clone(h)
}

// label joins a provider prefix and a variant, e.g. "Primebox - 1080p".
func label(prefix, variant string) string {
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = "Auto"
	}
	return prefix + " - " + variant
}

// subtitleList copies tracks into a fresh slice, dropping entries without a file.
func subtitleList(tracks []subtitleTrack) []media.Subtitle {
	subs := make([]media.Subtitle, 0, len(tracks))
	for _, t := range tracks {
		file := t.File
		if file == "" {
			file = t.Src
		}
		if strings.TrimSpace(file) == "" {
			continue
		}
		subs = append(subs, media.Subtitle{Label: t.Label, File: file})
	}
	return subs
}

// subtitleTrack is the subtitle shape shared by the xprime endpoints.
type subtitleTrack struct {
	Label string `json:"label"`
	File  string `json:"file"`
	Src   string `json:"src"`
}
