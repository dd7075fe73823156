package citeplug_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/citeplug"
)

const (
	fooType = "@test/foo"
	barType = "@test/bar"
)

var sampleData = []any{map[string]any{"foo": 1}}

func parseSample(any) (any, error) { return sampleData, nil }

func parseSampleAsync(context.Context, any) (any, error) { return sampleData, nil }

func TestInputFormat_Validate(t *testing.T) {
	for _, id := range []string{"@foo/bar", "@foo", "@foo/baz+bar"} {
		assert.NoError(t, citeplug.InputFormat{ID: id}.Validate(), id)
	}
	for _, id := range []string{"foo", "foo/bar", "foo/baz+bar"} {
		err := citeplug.InputFormat{ID: id}.Validate()
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, citeplug.ErrInvalidFormat), id)
	}

	err := citeplug.InputFormat{}.Validate()
	iss, ok := citeplug.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, citeplug.CodeRequired, iss[0].Code)
	assert.Equal(t, "/id", iss[0].Path)

	assert.NoError(t, citeplug.InputFormat{ID: "@foo/bar", ParseType: &citeplug.TypeSpec{DataType: citeplug.String}}.Validate())
	err = citeplug.InputFormat{ID: "@foo/bar", ParseType: &citeplug.TypeSpec{DataType: "Blue"}}.Validate()
	iss, ok = citeplug.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/parseType/dataType", iss[0].Path)
	assert.Equal(t, citeplug.CodeInvalidEnum, iss[0].Code)
}

func TestInputStore_TypeParser(t *testing.T) {
	in := newRegistry(t).Input()
	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, ParseType: &citeplug.TypeSpec{Predicate: regexp.MustCompile("foo")}}))

	assert.True(t, in.Has(fooType))
	assert.True(t, in.HasTypeParser(fooType))
	assert.False(t, in.HasDataParser(fooType, false))
	id, ok := in.Type("foo")
	require.True(t, ok)
	assert.Equal(t, fooType, id)

	in.Remove(fooType)
	assert.False(t, in.HasTypeParser(fooType))
	_, ok = in.Type("foo")
	assert.False(t, ok)

	in.Remove("@test/never")
	assert.Empty(t, in.List())
}

func TestInputStore_SubType(t *testing.T) {
	in := newRegistry(t).Input()
	sub := citeplug.InputFormat{ID: barType, ParseType: &citeplug.TypeSpec{Extends: fooType, Predicate: regexp.MustCompile("bar")}}
	require.NoError(t, in.Add(sub))
	assert.True(t, in.HasTypeParser(barType))

	_, ok := in.Type("foobar")
	assert.False(t, ok, "waits on parent type")

	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, ParseType: &citeplug.TypeSpec{Predicate: regexp.MustCompile("foo")}}))
	id, _ := in.Type("foobar")
	assert.Equal(t, barType, id)
	id, _ = in.Type("foo")
	assert.Equal(t, fooType, id, "delegates to parent type")

	parent, ok := in.Parent(barType)
	require.True(t, ok)
	assert.Equal(t, fooType, parent)
	assert.True(t, in.IsA(barType, fooType))

	in.Remove(barType)
	assert.False(t, in.HasTypeParser(barType))
	id, _ = in.Type("foobar")
	assert.Equal(t, fooType, id)
}

func TestInputStore_DataParser(t *testing.T) {
	in := newRegistry(t).Input()
	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, Parse: parseSample}))
	assert.True(t, in.HasDataParser(fooType, false))
	assert.False(t, in.HasDataParser(fooType, true))
	assert.False(t, in.HasTypeParser(fooType))

	out, ok, err := in.Data("foo", fooType)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleData, out)

	in.Remove(fooType)
	assert.False(t, in.HasDataParser(fooType, false))
	out, ok, err = in.Data("foo", fooType)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestInputStore_DataParserError(t *testing.T) {
	in := newRegistry(t).Input()
	fail := errors.New("malformed record")
	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, Parse: func(any) (any, error) { return nil, fail }}))
	_, ok, err := in.Data("foo", fooType)
	assert.True(t, ok)
	assert.ErrorIs(t, err, fail)
}

func TestInputStore_DataAsync(t *testing.T) {
	ctx := context.Background()
	in := newRegistry(t).Input()
	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, ParseAsync: parseSampleAsync}))
	assert.True(t, in.HasDataParser(fooType, true))

	d, ok := in.DataAsync(ctx, "foo", fooType)
	require.True(t, ok)
	out, err := d.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleData, out)

	in.Remove(fooType)
	assert.False(t, in.HasDataParser(fooType, true))
	_, ok = in.DataAsync(ctx, "foo", fooType)
	assert.False(t, ok)
}

func TestInputStore_DataAsyncFallsBackToSync(t *testing.T) {
	ctx := context.Background()
	in := newRegistry(t).Input()
	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, Parse: parseSample}))

	d, ok := in.DataAsync(ctx, "foo", fooType)
	require.True(t, ok)
	out, err := d.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleData, out)

	_, ok, _ = in.Data("foo", fooType)
	assert.True(t, ok)
}

func TestInputStore_DataAsyncPanickingParser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	in := newRegistry(t).Input()
	require.NoError(t, in.Add(citeplug.InputFormat{
		ID: fooType,
		ParseAsync: func(context.Context, any) (any, error) {
			panic("bad state")
		},
	}))
	require.NoError(t, in.Add(citeplug.InputFormat{
		ID:    barType,
		Parse: func(any) (any, error) { panic("bad state") },
	}))

	for _, id := range []string{fooType, barType} {
		d, ok := in.DataAsync(ctx, "foo", id)
		require.True(t, ok, id)
		_, err := d.Await(ctx)
		assert.EqualError(t, err, "citeplug: parser panicked: bad state", id)
	}
}

func TestInputStore_AddReplacesAllParts(t *testing.T) {
	in := newRegistry(t).Input()
	require.NoError(t, in.Add(citeplug.InputFormat{
		ID:         fooType,
		ParseType:  &citeplug.TypeSpec{Predicate: regexp.MustCompile("foo")},
		Parse:      parseSample,
		ParseAsync: parseSampleAsync,
	}))
	require.NoError(t, in.Add(citeplug.InputFormat{ID: barType}))
	require.NoError(t, in.Add(citeplug.InputFormat{ID: fooType, Parse: parseSample}))

	assert.False(t, in.HasTypeParser(fooType))
	assert.True(t, in.HasDataParser(fooType, false))
	assert.False(t, in.HasDataParser(fooType, true))
	assert.Equal(t, []string{fooType, barType}, in.List())

	f, ok := in.Get(fooType)
	require.True(t, ok)
	assert.Nil(t, f.ParseType)
}

func TestInputStore_AddRejectsInvalid(t *testing.T) {
	in := newRegistry(t).Input()
	err := in.Add(citeplug.InputFormat{ID: "foo/bar", Parse: parseSample})
	require.Error(t, err)
	assert.False(t, in.Has("foo/bar"))
	assert.Empty(t, in.List())
}
