package citeplug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/citeplug/i18n"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef struct {
	parts []string
}

// Root returns the empty path ("/").
func Root() PathRef { return PathRef{} }

// At parses a JSON Pointer into a PathRef.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	// naive split on '/', ignoring first empty due to leading '/'
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return PathRef{parts: parts}
}

// Field appends an object key.
func (p PathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return PathRef{parts: append(append([]string{}, p.parts...), esc)}
}

// Index appends an array index.
func (p PathRef) Index(i int) PathRef {
	return PathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

// Join appends an already escaped JSON Pointer.
func (p PathRef) Join(pointer string) PathRef {
	q := At(pointer)
	if len(q.parts) == 0 {
		return p
	}
	return PathRef{parts: append(append([]string{}, p.parts...), q.parts...)}
}

// Last returns the unescaped final segment, or "" at the root.
func (p PathRef) Last() string {
	if len(p.parts) == 0 {
		return ""
	}
	last := p.parts[len(p.parts)-1]
	return strings.ReplaceAll(strings.ReplaceAll(last, "~1", "/"), "~0", "~")
}

func (p PathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// Issue creates an Issue at p; kv are alternating param names and values.
func (p PathRef) Issue(code, msg string, kv ...any) Issue {
	m := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m}
}

// Mismatch reports that the field at p held a value of kind got where
// expected was required. The field name is the last path segment.
func (p PathRef) Mismatch(code, got, expected string) Issue {
	field := p.Last()
	msg := i18n.T(code, map[string]string{"field": field, "got": got, "expected": expected})
	return p.Issue(code, msg, "field", field, "got", got, "expected", expected)
}
