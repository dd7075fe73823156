package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/reoring/citeplug/i18n"
)

func TestT_English(t *testing.T) {
	msg := i18n.T("invalid_type", map[string]string{"field": "predicate", "got": "string", "expected": "RegExp or function"})
	assert.Equal(t, "predicate was string; expected RegExp or function", msg)

	msg = i18n.T("invalid_enum", map[string]string{"field": "dataType", "got": "Blue", "expected": "String, Array"})
	assert.Equal(t, "dataType was Blue; expected one of String, Array", msg)

	assert.Equal(t, "predicat is not a known key", i18n.T("unknown_key", map[string]string{"field": "predicat"}))
}

func TestT_UnknownCodeFallsBackToCode(t *testing.T) {
	assert.Equal(t, "no_such_code", i18n.T("no_such_code", nil))
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X:" + code }

func TestSetTranslatorAndLanguage(t *testing.T) {
	t.Cleanup(func() { i18n.SetTranslator(nil) })

	i18n.SetLanguage("ja")
	assert.Contains(t, i18n.T("required", map[string]string{"field": "id"}), "id は必須です")

	i18n.SetTranslator(upper{})
	assert.Equal(t, "X:required", i18n.T("required", nil))

	i18n.SetTranslator(nil)
	assert.Equal(t, "id is required", i18n.T("required", map[string]string{"field": "id"}))

	i18n.SetLanguage("fr")
	assert.Equal(t, "id is required", i18n.T("required", map[string]string{"field": "id"}))
}
