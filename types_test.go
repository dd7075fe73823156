package citeplug_test

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/reoring/citeplug"
)

type customRecord struct{ Title string }

func TestDataTypeOf(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  citeplug.DataType
	}{
		{"string", "x", citeplug.String},
		{"empty slice", []any{}, citeplug.Array},
		{"typed slice", []string{"a"}, citeplug.Array},
		{"empty map", map[string]any{}, citeplug.SimpleObject},
		{"regexp", regexp.MustCompile("x"), citeplug.ComplexObject},
		{"date", time.Now(), citeplug.ComplexObject},
		{"struct", customRecord{}, citeplug.ComplexObject},
		{"struct pointer", &customRecord{}, citeplug.ComplexObject},
		{"int keyed map", map[int]string{1: "a"}, citeplug.ComplexObject},
		{"nil", nil, citeplug.Primitive},
		{"undefined", citeplug.Undefined, citeplug.Primitive},
		{"int", 1, citeplug.Primitive},
		{"float", 1.5, citeplug.Primitive},
		{"json number", json.Number("3"), citeplug.Primitive},
		{"bool", true, citeplug.Primitive},
		{"func", func() {}, citeplug.Primitive},
		{"nil map", map[string]any(nil), citeplug.Primitive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, citeplug.DataTypeOf(tt.value))
		})
	}
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, citeplug.KindUndefined, citeplug.TypeOf(citeplug.Undefined))
	assert.Equal(t, citeplug.KindNull, citeplug.TypeOf(nil))
	assert.Equal(t, citeplug.KindNull, citeplug.TypeOf((*customRecord)(nil)))
	assert.Equal(t, citeplug.KindString, citeplug.TypeOf(""))
	assert.Equal(t, citeplug.KindNumber, citeplug.TypeOf(uint8(3)))
	assert.Equal(t, citeplug.KindBoolean, citeplug.TypeOf(false))
	assert.Equal(t, citeplug.KindArray, citeplug.TypeOf([2]int{}))
	assert.Equal(t, citeplug.KindObject, citeplug.TypeOf(map[string]any{}))
	assert.Equal(t, citeplug.KindFunction, citeplug.TypeOf(func(any) bool { return true }))
	assert.Equal(t, citeplug.KindRegExp, citeplug.TypeOf(regexp.MustCompile("a")))
	assert.Equal(t, citeplug.KindDate, citeplug.TypeOf(time.Time{}))
	assert.Equal(t, citeplug.Kind("customRecord"), citeplug.TypeOf(&customRecord{}))
}

func TestDataTypeValid(t *testing.T) {
	for _, d := range citeplug.DataTypes {
		assert.True(t, d.Valid(), d)
	}
	assert.False(t, citeplug.DataType("Blue").Valid())
	assert.False(t, citeplug.DataType("").Valid())
}

func TestDataTypeOf_IsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := rapid.OneOf(
			rapid.Map(rapid.String(), func(s string) any { return s }),
			rapid.Map(rapid.Int(), func(i int) any { return i }),
			rapid.Map(rapid.Bool(), func(b bool) any { return b }),
			rapid.Map(rapid.SliceOf(rapid.String()), func(s []string) any { return s }),
			rapid.Map(rapid.MapOf(rapid.String(), rapid.Int()), func(m map[string]int) any { return m }),
		).Draw(t, "value")
		assert.True(t, citeplug.DataTypeOf(v).Valid())
	})
}
