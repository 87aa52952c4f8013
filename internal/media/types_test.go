package media

import (
	"encoding/json"
	"testing"
)

func TestSearchResultJSONType(t *testing.T) {
	tests := []struct {
		in   SearchResult
		want string
	}{
		{SearchResult{ID: "tv/1399", Title: "GoT", Type: TV}, `{"id":"tv/1399","title":"GoT","poster":"","type":"tv"}`},
		{SearchResult{ID: "movie/533535", Title: "Deadpool", Type: Movie}, `{"id":"movie/533535","title":"Deadpool","poster":"","type":"movie"}`},
	}

	for _, tt := range tests {
		got, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("Marshal(%+v) error: %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal() = %s, want %s", got, tt.want)
		}
	}
}

func TestMediaTypeUnmarshal(t *testing.T) {
	var d Details
	if err := json.Unmarshal([]byte(`{"id":"tv/1","type":"tv"}`), &d); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if d.Type != TV {
		t.Errorf("Type = %v, want tv", d.Type)
	}

	if err := json.Unmarshal([]byte(`{"type":"person"}`), &d); err == nil {
		t.Error("Unmarshal() should reject an unknown media type")
	}
	if _, err := json.Marshal(SearchResult{Type: MediaType(7)}); err == nil {
		t.Error("Marshal() should reject an out-of-range media type")
	}
}
