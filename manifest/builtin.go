package manifest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/citeplug"
)

// ParserSet names the data parsers a manifest can refer to.
type ParserSet map[string]citeplug.ParseFunc

// FormatterSet names the output formatters a manifest can refer to.
type FormatterSet map[string]citeplug.FormatFunc

// DefaultParsers returns the built-in parsers:
//
//	identity  returns the input unchanged
//	json      decodes a JSON string (numbers as json.Number)
//	lines     splits a string into its non-blank, trimmed lines
//	tokens    splits a string on whitespace
func DefaultParsers() ParserSet {
	return ParserSet{
		"identity": parseIdentity,
		"json":     parseJSON,
		"lines":    parseLines,
		"tokens":   parseTokens,
	}
}

// DefaultFormatters returns the built-in formatters:
//
//	identity  returns the data unchanged
//	json      encodes as JSON; a "pretty" option indents it
//	yaml      encodes as YAML
func DefaultFormatters() FormatterSet {
	return FormatterSet{
		"identity": formatIdentity,
		"json":     formatJSON,
		"yaml":     formatYAML,
	}
}

func (s ParserSet) names() string { return sortedNames(s) }
func (s FormatterSet) names() string { return sortedNames(s) }

func sortedNames[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// async adapts a sync parser for the async slot. It gives up early when ctx
// is already done.
func async(f citeplug.ParseFunc) citeplug.AsyncParseFunc {
	return func(ctx context.Context, input any) (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return f(input)
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

func textInput(name string, v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}
	return "", fmt.Errorf("%s parser: input was %s; expected string", name, citeplug.KindName(v))
}

func parseIdentity(v any) (any, error) { return v, nil }

func parseJSON(v any) (any, error) {
	s, err := textInput("json", v)
	if err != nil {
		return nil, err
	}
	dec := j.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("json parser: %w", err)
	}
	return out, nil
}

func parseLines(v any) (any, error) {
	s, err := textInput("lines", v)
	if err != nil {
		return nil, err
	}
	out := []any{}
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

func parseTokens(v any) (any, error) {
	s, err := textInput("tokens", v)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = f
	}
	return out, nil
}

func formatIdentity(data any, _ ...any) (any, error) { return data, nil }

func formatJSON(data any, options ...any) (any, error) {
	for _, o := range options {
		if o == "pretty" {
			b, err := j.MarshalIndent(data, "", "  ")
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
	}
	b, err := j.Marshal(data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func formatYAML(data any, _ ...any) (any, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.String(), nil
}
