package manifest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/citeplug"
	"github.com/reoring/citeplug/manifest"
)

func newRegistry(t *testing.T) *citeplug.Registry {
	t.Helper()
	reg, err := citeplug.New(citeplug.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return reg
}

func loadAll(t *testing.T, files ...string) []manifest.Manifest {
	t.Helper()
	var out []manifest.Manifest
	for _, f := range files {
		ms, err := manifest.LoadFile(filepath.Join("testdata", f), manifest.Options{Strict: true})
		require.NoError(t, err, f)
		out = append(out, ms...)
	}
	return out
}

func issuesOf(t *testing.T, err error) citeplug.Issues {
	t.Helper()
	require.Error(t, err)
	iss, ok := citeplug.AsIssues(err)
	require.True(t, ok, "not Issues: %v", err)
	return iss
}

func TestLoadFile_YAMLStream(t *testing.T) {
	ms := loadAll(t, "doi.yaml")
	require.Len(t, ms, 2)
	assert.Equal(t, "@else", ms[0].Ref)
	assert.Equal(t, "@doi", ms[1].Ref)

	doi := ms[1]
	require.Len(t, doi.Input, 5)
	assert.Equal(t, "@doi/api", doi.Input[0].ID)
	assert.Equal(t, "identity", doi.Input[0].Parse)
	assert.Equal(t, "@else/url", doi.Input[0].ParseType.Extends)
	assert.Equal(t, citeplug.Array, doi.Input[3].ParseType.DataType)
	assert.Nil(t, doi.Input[4].ParseType)
	assert.Equal(t, "json", doi.Output)
	assert.Equal(t, "someone@example.org", doi.Config["mailto"])
	assert.Equal(t, citeplug.Dict{"doi": {"<a>", "</a>"}}, doi.Dict)
}

func TestLoadFile_JSON(t *testing.T) {
	ms := loadAll(t, "csl.json")
	require.Len(t, ms, 1)
	assert.Equal(t, "@csl", ms[0].Ref)
	assert.Equal(t, "yaml", ms[0].Output)
	pcs, ok := ms[0].Input[0].ParseType.PropertyConstraint.([]citeplug.PropertyConstraint)
	require.True(t, ok)
	require.Len(t, pcs, 2)
	assert.Equal(t, []string{"type"}, pcs[0].Props)
	assert.Equal(t, citeplug.MatchSome, pcs[1].Match)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := manifest.LoadFile(filepath.Join("testdata", "nope.yaml"), manifest.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRegister_DOI(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	require.NoError(t, manifest.Register(reg, loadAll(t, "doi.yaml")...))

	assert.Equal(t, []string{"@else", "@doi"}, reg.List())
	tests := map[string]any{
		"https://doi.org/10.1000/182": "@doi/api",
		"http://example.org/":         "@else/url",
		"10.1000/182":                 "@doi/id",
		" 10.1000/182  10.1000/183 ":  "@doi/list+text",
	}
	for in, want := range tests {
		id, ok := reg.Type(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, id, in)
	}
	id, ok := reg.Type([]any{"10.1000/182", "10.1000/183"})
	assert.True(t, ok)
	assert.Equal(t, "@doi/list+object", id)
	_, ok = reg.Type([]any{"10.1000/182", "not a doi"})
	assert.False(t, ok)

	out, ok, err := reg.Data("10.1000/182 10.1000/183", "@doi/list+text")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{"10.1000/182", "10.1000/183"}, out)

	d, ok := reg.DataAsync(ctx, "https://doi.org/10.1000/182", "@doi/api")
	require.True(t, ok)
	out, err = d.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://doi.org/10.1000/182", out)

	formatted, ok, err := reg.Format("@doi", []any{map[string]any{"DOI": "10.1000/182"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"DOI":"10.1000/182"}]`, formatted.(string))

	cfg, ok := reg.Config().Get("@doi")
	require.True(t, ok)
	assert.Equal(t, "someone@example.org", cfg["mailto"])
	assert.True(t, reg.Dict().Has("@doi"))
}

func TestRegister_CSL(t *testing.T) {
	reg := newRegistry(t)
	require.NoError(t, manifest.Register(reg, loadAll(t, "csl.json")...))

	id, ok := reg.Type(map[string]any{"type": "book", "container-title": "Journal"})
	require.True(t, ok)
	assert.Equal(t, "@csl/object", id)
	_, ok = reg.Type(map[string]any{"type": "book"})
	assert.False(t, ok)
	_, ok = reg.Type(`{"type":"book"}`)
	assert.False(t, ok, "parent @else/json is not registered")

	out, ok, err := reg.Data(`{"n": 3}`, "@csl/text")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"n": json.Number("3")}, out)

	formatted, _, err := reg.Format("@csl", map[string]any{"title": "T"})
	require.NoError(t, err)
	assert.Equal(t, "title: T\n", formatted)
}

func TestRegister_IsAtomic(t *testing.T) {
	ms, err := manifest.DecodeYAML([]byte(`
ref: "@good"
input:
  - id: "@good/x"
---
ref: "@bad"
input:
  - id: "@bad/x"
    parse: missing
    parseType:
      dataType: Blue
`), manifest.Options{})
	require.NoError(t, err)

	reg := newRegistry(t)
	iss := issuesOf(t, manifest.Register(reg, ms...))
	require.Len(t, iss, 2)
	assert.Equal(t, "/1/input/0/parse", iss[0].Path)
	assert.Equal(t, "parse was missing; expected one of identity, json, lines, tokens", iss[0].Message)
	assert.Equal(t, "/1/input/0/parseType/dataType", iss[1].Path)
	assert.Equal(t, citeplug.CodeInvalidEnum, iss[1].Code)
	assert.Empty(t, reg.List())
}

func TestManifest_PluginCustomSets(t *testing.T) {
	m := manifest.Manifest{
		Ref:    "@x",
		Input:  []manifest.Input{{ID: "@x/y", Parse: "upper", ParseAsync: "upper"}},
		Output: "count",
	}
	parsers := manifest.ParserSet{"upper": func(v any) (any, error) { return v.(string) + "!", nil }}
	formatters := manifest.FormatterSet{"count": func(data any, _ ...any) (any, error) { return len(data.([]any)), nil }}
	p, err := m.Plugin(parsers, formatters)
	require.NoError(t, err)
	require.Len(t, p.Input, 1)

	out, err := p.Input[0].Parse("a")
	require.NoError(t, err)
	assert.Equal(t, "a!", out)
	out, err = p.Input[0].ParseAsync(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b!", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Input[0].ParseAsync(ctx, "c")
	assert.ErrorIs(t, err, context.Canceled)

	n, err := p.Output([]any{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = m.Plugin(manifest.ParserSet{}, nil)
	iss := issuesOf(t, err)
	require.Len(t, iss, 3)
	assert.Equal(t, "/input/0/parse", iss[0].Path)
	assert.Equal(t, "/input/0/parseAsync", iss[1].Path)
	assert.Equal(t, "/output", iss[2].Path)
	assert.Equal(t, "output was count; expected one of identity, json, yaml", iss[2].Message)
}

func TestManifest_PluginRequiresRef(t *testing.T) {
	_, err := (&manifest.Manifest{}).Plugin(nil, nil)
	iss := issuesOf(t, err)
	assert.Equal(t, citeplug.CodeRequired, iss[0].Code)
	assert.Equal(t, "/ref", iss[0].Path)
}
