package citeplug

import "github.com/reoring/citeplug/i18n"

// IssueAt creates an Issue at the given path with provided code, message and params map.
// This is a convenience helper to improve readability at call sites with many parameters.
func IssueAt(p PathRef, code, msg string, params map[string]any) Issue {
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: params}
}

// RequiredAt reports a missing or empty field at p.
func RequiredAt(p PathRef) Issue {
	field := p.Last()
	return IssueAt(p, CodeRequired, i18n.T(CodeRequired, map[string]string{"field": field}), map[string]any{"field": field})
}
