package citeplug

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"   // Wrong kind of value for a field (type mismatch).
	CodeInvalidEnum   = "invalid_enum"   // Value outside an enumeration (range).
	CodeInvalidFormat = "invalid_format" // Identifier grammar violation.
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key" // Key not recognized in a strictly decoded manifest.
	CodeParseError    = "parse_error" // Malformed manifest document.
)

// Sentinel errors matched by errors.Is against an Issue or Issues.
var (
	ErrInvalidType   = errors.New("citeplug: invalid type")
	ErrInvalidEnum   = errors.New("citeplug: invalid enum value")
	ErrInvalidFormat = errors.New("citeplug: invalid format")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // JSON Pointer into the validated bundle (for example: /input/0/parseType).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: remediation hints.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"field":"dataType", "got":"Blue"})
	// for i18n and observability.
	Params map[string]any
}

func (it Issue) Error() string {
	if it.Path == "" || it.Path == "/" {
		return it.Message
	}
	return it.Message + " at " + it.Path
}

// Unwrap exposes the sentinel for the issue code and the cause, if any.
func (it Issue) Unwrap() []error {
	var out []error
	switch it.Code {
	case CodeInvalidType:
		out = append(out, ErrInvalidType)
	case CodeInvalidEnum:
		out = append(out, ErrInvalidEnum)
	case CodeInvalidFormat:
		out = append(out, ErrInvalidFormat)
	}
	if it.Cause != nil {
		out = append(out, it.Cause)
	}
	return out
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].Error())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap lets errors.Is and errors.As see every contained Issue.
func (iss Issues) Unwrap() []error {
	out := make([]error, len(iss))
	for i := range iss {
		out[i] = iss[i]
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var it Issue
	if errors.As(err, &it) {
		return Issues{it}, true
	}
	return nil, false
}

// orNil converts an empty collection into a nil error.
func (iss Issues) orNil() error {
	if len(iss) == 0 {
		return nil
	}
	return iss
}

// Prefixed rewrites every path so that it is nested below prefix.
func (iss Issues) Prefixed(prefix PathRef) Issues {
	if len(iss) == 0 {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = prefix.Join(it.Path).Pointer()
		out[i] = it
	}
	return out
}
