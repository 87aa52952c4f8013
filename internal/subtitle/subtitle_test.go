package subtitle

import (
	"testing"

	"unistream/internal/media"
)

func TestFilter(t *testing.T) {
	subs := []media.Subtitle{
		{Label: "English"},
		{Label: "English - SDH"},
		{Label: "Spanish"},
		{Label: "French"},
	}

	tests := []struct {
		lang     string
		expected int
	}{
		{"english", 2},
		{"ENGLISH", 2},
		{"spanish", 1},
		{"french", 1},
		{"german", 0},
		{"", 4},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := Filter(subs, tt.lang)
			if len(got) != tt.expected {
				t.Errorf("Filter(%q) returned %d subs, want %d", tt.lang, len(got), tt.expected)
			}
		})
	}
}

func TestBestMatch(t *testing.T) {
	subs := []media.Subtitle{
		{Label: "English - SDH", File: "https://example.com/sdh.vtt"},
		{Label: "English", File: "https://example.com/en.vtt"},
		{Label: "Spanish", File: "https://example.com/es.vtt"},
	}

	// Should prefer non-SDH English
	best := BestMatch(subs, "english")
	if best == nil {
		t.Fatal("BestMatch returned nil for english")
	}
	if best.File != "https://example.com/en.vtt" {
		t.Errorf("BestMatch preferred %q, want the non-SDH track", best.Label)
	}

	// Only SDH available
	best = BestMatch(subs[:1], "english")
	if best == nil || best.Label != "English - SDH" {
		t.Errorf("BestMatch = %v, want SDH fallback", best)
	}

	// No match
	if best = BestMatch(subs, "japanese"); best != nil {
		t.Error("BestMatch should return nil for unmatched language")
	}
}

func TestApply(t *testing.T) {
	streams := []media.Stream{
		{URL: "https://a/1", Subtitles: []media.Subtitle{{Label: "English"}, {Label: "Hindi"}}},
		{URL: "https://a/2", Subtitles: []media.Subtitle{{Label: "French"}}},
	}

	got := Apply(streams, "hindi")
	if len(got[0].Subtitles) != 1 || got[0].Subtitles[0].Label != "Hindi" {
		t.Errorf("stream 0 subtitles = %v, want only Hindi", got[0].Subtitles)
	}
	if got[1].Subtitles == nil || len(got[1].Subtitles) != 0 {
		t.Errorf("stream 1 subtitles = %#v, want empty non-nil", got[1].Subtitles)
	}
	if len(streams[0].Subtitles) != 2 {
		t.Error("Apply modified its input")
	}

	if all := Apply(streams, ""); len(all[0].Subtitles) != 2 {
		t.Error("Apply with no language should keep every track")
	}
}
