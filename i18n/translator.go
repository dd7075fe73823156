package i18n

import "strings"

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message ("field", "got",
// "expected", "value").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var tmpl string
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			tmpl = "{field} の型は {got} でした。期待値: {expected}"
		case "invalid_enum":
			tmpl = "{field} の値は {got} でした。期待値: {expected} のいずれか"
		case "invalid_format":
			tmpl = "{field} の形式が不正です: {got}"
		case "required":
			tmpl = "{field} は必須です"
		case "unknown_key":
			tmpl = "不明なキーです: {field}"
		case "parse_error":
			tmpl = "解析エラー: {got}"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			tmpl = "{field} was {got}; expected {expected}"
		case "invalid_enum":
			tmpl = "{field} was {got}; expected one of {expected}"
		case "invalid_format":
			tmpl = "{field} was {got}; expected {expected}"
		case "required":
			tmpl = "{field} is required"
		case "unknown_key":
			tmpl = "{field} is not a known key"
		case "parse_error":
			tmpl = "parse error: {got}"
		}
	}
	if tmpl == "" {
		return code
	}
	return expand(tmpl, data)
}

func expand(tmpl string, data map[string]string) string {
	if len(data) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
