package citeplug

import (
	"regexp"
	"strings"
)

// identifierPattern accepts @scope, @scope/name and @scope/name+subname.
var identifierPattern = regexp.MustCompile(`(?i)^@([a-z0-9_.-]+)(?:/([a-z0-9_.-]+)(?:\+([a-z0-9_.-]+))?)?$`)

// IdentifierParts holds the parsed components of a format identifier.
type IdentifierParts struct {
	Scope   string
	Name    string // Empty for @scope.
	Subname string // Empty unless the identifier has a +subname.
}

// String rebuilds the identifier.
func (p IdentifierParts) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(p.Scope)
	if p.Name != "" {
		b.WriteString("/")
		b.WriteString(p.Name)
		if p.Subname != "" {
			b.WriteString("+")
			b.WriteString(p.Subname)
		}
	}
	return b.String()
}

// ValidateIdentifier checks id against the format identifier grammar.
func ValidateIdentifier(id string) error {
	_, err := ParseIdentifier(id)
	return err
}

// ParseIdentifier splits a format identifier into its components.
// Format: @{scope}[/{name}[+{subname}]]
// Example: @doi/list+text
func ParseIdentifier(id string) (IdentifierParts, error) {
	m := identifierPattern.FindStringSubmatch(id)
	if m == nil {
		return IdentifierParts{}, Issues{identifierIssue(Root().Field("format"), id)}
	}
	return IdentifierParts{Scope: m[1], Name: m[2], Subname: m[3]}, nil
}

func identifierIssue(p PathRef, id string) Issue {
	got := id
	if got == "" {
		got = "empty"
	}
	it := p.Mismatch(CodeInvalidFormat, got, "@scope, @scope/name or @scope/name+subname")
	it.Hint = "format identifiers start with '@'"
	return it
}
