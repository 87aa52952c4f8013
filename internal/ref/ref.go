// Package ref encodes and decodes the opaque content reference exchanged
// between the metadata layer and stream resolution.
//
// A token is a compact JSON object with the keys id, imdbId, name, year,
// season and episode. Absent fields are omitted rather than sent empty.
package ref

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"unistream/internal/media"
	"unistream/internal/streamerr"
)

// Reference identifies one resolvable unit of content: a movie, or a
// specific episode when both Season and Episode are set.
type Reference struct {
	CatalogID  string // TMDB id
	ExternalID string // IMDb id, e.g. "tt6263850"
	Title      string
	Year       string
	Season     int
	Episode    int
}

// IsEpisode reports whether the reference points at a TV episode.
func (r Reference) IsEpisode() bool {
	return r.Season > 0 && r.Episode > 0
}

// Type returns the media type the reference resolves to.
func (r Reference) Type() media.MediaType {
	if r.IsEpisode() {
		return media.TV
	}
	return media.Movie
}

// String renders a short human-readable form for logs.
func (r Reference) String() string {
	id := r.CatalogID
	if id == "" {
		id = r.ExternalID
	}
	if r.IsEpisode() {
		return fmt.Sprintf("%s %s S%02dE%02d", r.Type(), id, r.Season, r.Episode)
	}
	return fmt.Sprintf("%s %s", r.Type(), id)
}

// Validate checks a well-formed reference for completeness.
func (r Reference) Validate() error {
	if strings.TrimSpace(r.CatalogID) == "" && strings.TrimSpace(r.ExternalID) == "" {
		return streamerr.Invalid("reference has neither catalog id nor external id")
	}
	if r.Season < 0 || r.Episode < 0 {
		return streamerr.Invalid("negative season/episode (%d/%d)", r.Season, r.Episode)
	}
	if (r.Season > 0) != (r.Episode > 0) {
		return streamerr.Invalid("season and episode must be set together (got %d/%d)", r.Season, r.Episode)
	}
	return nil
}

// wireRef is the on-the-wire token shape.
type wireRef struct {
	ID      flexString `json:"id,omitempty"`
	IMDbID  flexString `json:"imdbId,omitempty"`
	Name    flexString `json:"name,omitempty"`
	Year    flexString `json:"year,omitempty"`
	Season  flexInt    `json:"season,omitempty"`
	Episode flexInt    `json:"episode,omitempty"`
}

// Encode serializes a reference into a token.
func Encode(r Reference) (string, error) {
	w := wireRef{
		ID:      flexString(r.CatalogID),
		IMDbID:  flexString(r.ExternalID),
		Name:    flexString(r.Title),
		Year:    flexString(r.Year),
		Season:  flexInt(r.Season),
		Episode: flexInt(r.Episode),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return "", fmt.Errorf("encoding reference: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// MustEncode is Encode for references built from trusted fields.
func MustEncode(r Reference) string {
	token, err := Encode(r)
	if err != nil {
		panic(err)
	}
	return token
}

// Decode parses a token. Malformed input yields a *DecodeError; Decode does
// not check completeness (see Validate).
func Decode(token string) (Reference, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Reference{}, &DecodeError{Token: token, Err: fmt.Errorf("empty token")}
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Reference{}, &DecodeError{Token: token, Err: fmt.Errorf("token is not a JSON object")}
	}

	var w wireRef
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return Reference{}, &DecodeError{Token: token, Err: err}
	}

	return Reference{
		CatalogID:  string(w.ID),
		ExternalID: string(w.IMDbID),
		Title:      string(w.Name),
		Year:       string(w.Year),
		Season:     int(w.Season),
		Episode:    int(w.Episode),
	}, nil
}

// Parse decodes and validates a token in one step.
func Parse(token string) (Reference, error) {
	r, err := Decode(token)
	if err != nil {
		return Reference{}, err
	}
	if err := r.Validate(); err != nil {
		return Reference{}, err
	}
	return r, nil
}

// DecodeError reports a token that is not well-formed structured data.
// It matches streamerr.ErrInvalidReference under errors.Is.
type DecodeError struct {
	Token string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed reference token: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*streamerr.Error)
	return ok && t.Kind == streamerr.InvalidReference && t.Message == ""
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("null")):
		*s = ""
	case len(raw) > 0 && raw[0] == '"':
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		*s = flexString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", raw)
		}
		*s = flexString(n.String())
	}
	return nil
}

// flexInt accepts a JSON integer or a numeric string.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		*i = 0
		return nil
	}
	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
		if text == "" {
			*i = 0
			return nil
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("expected integer, got %s", raw)
	}
	*i = flexInt(n)
	return nil
}
