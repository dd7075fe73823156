// Package manifest decodes declarative plugin manifests.
//
// A manifest is a YAML or JSON document describing one plugin: its ref, the
// input formats it contributes (type matchers with regular expressions in
// place of code, data parsers by name), an output formatter by name, a config
// mapping and a delimiter dictionary. Parsers and formatters are looked up in
// a ParserSet and a FormatterSet when the manifest is turned into a
// citeplug.Plugin.
//
//	ms, err := manifest.LoadFile("doi.yaml", manifest.Options{})
//	if err != nil { ... }
//	err = manifest.Register(reg, ms...)
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/citeplug"
	"github.com/reoring/citeplug/i18n"
)

// Format selects the document syntax.
type Format string

const (
	FormatAuto Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Options controls decoding.
type Options struct {
	// Format of the document. FormatAuto tries JSON for input starting with
	// '{' or '[' and falls back to YAML flow syntax; anything else is YAML.
	Format Format
	// Strict reports keys that are not part of the manifest schema.
	Strict bool
}

// Manifest is one decoded plugin description.
type Manifest struct {
	Ref    string
	Input  []Input
	Output string // Formatter name; empty when the plugin has no output.
	Config map[string]any
	Dict   citeplug.Dict
}

// Input is one input format entry. Parse and ParseAsync name parsers.
type Input struct {
	ID         string
	Parse      string
	ParseAsync string
	ParseType  *citeplug.TypeSpec
}

// Decode decodes one or more manifests from data.
func Decode(data []byte, opts Options) ([]Manifest, error) {
	switch opts.Format {
	case FormatJSON:
		return DecodeJSON(data, opts)
	case FormatYAML:
		return DecodeYAML(data, opts)
	case FormatAuto:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
			return DecodeYAML(data, opts)
		}
		// YAML flow mappings also start with '{'; the JSON error is kept
		// when neither syntax parses.
		docs, err := jsonDocs(data)
		if err != nil {
			var yerr error
			if docs, yerr = yamlDocs(data); yerr != nil {
				return nil, err
			}
			if len(docs) == 1 {
				if list, ok := docs[0].([]any); ok {
					docs = list
				}
			}
		}
		return decodeDocs(docs, opts)
	default:
		return nil, citeplug.Issues{citeplug.Root().Field("format").Mismatch(citeplug.CodeInvalidEnum, string(opts.Format), "yaml, json")}
	}
}

// DecodeYAML decodes a YAML stream. Every non-empty document is a manifest.
func DecodeYAML(data []byte, opts Options) ([]Manifest, error) {
	docs, err := yamlDocs(data)
	if err != nil {
		return nil, err
	}
	return decodeDocs(docs, opts)
}

func yamlDocs(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []any
	for {
		var node any
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, citeplug.Issues{parseIssue(err)}
		}
		if node == nil {
			continue
		}
		docs = append(docs, normalize(node))
	}
	return docs, nil
}

// DecodeJSON decodes a JSON object, or an array of objects, into manifests.
// Numbers are kept as json.Number.
func DecodeJSON(data []byte, opts Options) ([]Manifest, error) {
	docs, err := jsonDocs(data)
	if err != nil {
		return nil, err
	}
	return decodeDocs(docs, opts)
}

func jsonDocs(data []byte) ([]any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var node any
	if err := dec.Decode(&node); err != nil {
		return nil, citeplug.Issues{parseIssue(err)}
	}
	if dec.More() {
		return nil, citeplug.Issues{parseIssue(errors.New("unexpected data after top-level value"))}
	}
	if list, ok := node.([]any); ok {
		return list, nil
	}
	return []any{node}, nil
}

// LoadFile reads path and decodes it. Unless opts.Format is set the format
// follows the extension: .json is JSON, .yaml and .yml are YAML, anything
// else is detected from the content.
func LoadFile(path string, opts Options) ([]Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if opts.Format == FormatAuto {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			opts.Format = FormatJSON
		case ".yaml", ".yml":
			opts.Format = FormatYAML
		}
	}
	ms, err := Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return ms, nil
}

// decodeDocs converts every document and reports all problems at once. With
// more than one document, issue paths start with the document index.
func decodeDocs(docs []any, opts Options) ([]Manifest, error) {
	out := make([]Manifest, 0, len(docs))
	var iss citeplug.Issues
	for i, doc := range docs {
		d := &decoder{strict: opts.Strict}
		m := d.manifest(citeplug.Root(), doc)
		if len(docs) > 1 {
			d.iss = d.iss.Prefixed(citeplug.Root().Index(i))
		}
		iss = citeplug.AppendIssues(iss, d.iss...)
		out = append(out, m)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func parseIssue(err error) citeplug.Issue {
	msg := i18n.T(citeplug.CodeParseError, map[string]string{"got": err.Error()})
	return citeplug.Issue{Path: "/", Code: citeplug.CodeParseError, Message: msg, Cause: err}
}

// normalize converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = normalize(t[i])
		}
		return arr
	default:
		return v
	}
}
