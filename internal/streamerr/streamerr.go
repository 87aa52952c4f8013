// Package streamerr defines the error kinds surfaced by stream resolution.
// Callers branch on Kind (via errors.Is or KindOf) rather than on message text.
package streamerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a resolution failure.
type Kind int

const (
	Unknown Kind = iota
	InvalidReference
	ProviderUnavailable
	NoStreamsFound
	UpstreamAuthRequired
)

func (k Kind) String() string {
	switch k {
	case InvalidReference:
		return "invalid reference"
	case ProviderUnavailable:
		return "provider unavailable"
	case NoStreamsFound:
		return "no streams found"
	case UpstreamAuthRequired:
		return "upstream auth required"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its own kind.
var (
	ErrInvalidReference     = &Error{Kind: InvalidReference}
	ErrProviderUnavailable  = &Error{Kind: ProviderUnavailable}
	ErrNoStreamsFound       = &Error{Kind: NoStreamsFound}
	ErrUpstreamAuthRequired = &Error{Kind: UpstreamAuthRequired}
)

// Failure records one provider that failed during a resolution attempt.
type Failure struct {
	Provider string `json:"provider"`
	Detail   string `json:"detail"`
}

// Error is a classified resolution error.
type Error struct {
	Kind     Kind
	Provider string    // empty for engine-level errors
	Message  string
	Cause    error
	Failures []Failure // populated for NoStreamsFound
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Provider != "" {
		fmt.Fprintf(&b, " [%s]", e.Provider)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.Failures) > 0 {
		details := make([]string, len(e.Failures))
		for i, f := range e.Failures {
			details[i] = f.Provider + ": " + f.Detail
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(details, "; "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Cause == nil && t.Provider == "" && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, provider, message string, cause error) *Error {
	return &Error{Kind: kind, Provider: provider, Message: message, Cause: cause}
}

// Invalid creates an InvalidReference error.
func Invalid(format string, args ...interface{}) *Error {
	return &Error{Kind: InvalidReference, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an upstream failure of a single provider.
func Unavailable(provider string, cause error) *Error {
	return &Error{Kind: ProviderUnavailable, Provider: provider, Cause: cause}
}

// AuthRequired reports a missing upstream credential.
func AuthRequired(provider, credential string) *Error {
	return &Error{Kind: UpstreamAuthRequired, Provider: provider, Message: credential + " not configured"}
}

// NoStreams builds the aggregate error returned when every provider failed or came back empty.
func NoStreams(failures []Failure) *Error {
	return &Error{Kind: NoStreamsFound, Message: "no playable stream found", Failures: failures}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return Unknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []Kind{InvalidReference, ProviderUnavailable, NoStreamsFound, UpstreamAuthRequired} {
		if errors.Is(err, &Error{Kind: k}) {
			return k
		}
	}
	return Unknown
}
