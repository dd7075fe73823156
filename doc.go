// Package citeplug provides:
//
// - A registry of input formats keyed by namespaced identifiers (@scope/name+subname)
// - Type resolution: the most specific registered format for an arbitrary value,
// following extends edges that may be declared before their parent exists
// - Dispatch of values to sync or async data parsers bound to a format
// - Plugin-scoped output formatters, config and delimiter dictionaries
// - Atomic registration and bulk removal of a plugin's contributions
// - A stable error model via Issues (JSON Pointer, code, message)
//
// Design policy:
// - Keep only public APIs in the root package; manifests live under manifest/,
// messages under i18n/ and the CLI under cmd/citeplug.
// - Malformed registrations fail with Issues; lookups that find nothing return
// ok=false instead of an error.
//
// Typical usage:
//
//	reg, _ := citeplug.New()
//	err := reg.Add("@doi", &citeplug.Plugin{Input: []citeplug.InputFormat{{
//		ID:        "@doi/id",
//		ParseType: &citeplug.TypeSpec{Predicate: regexp.MustCompile(`^10\.\d{4,9}/\S+$`)},
//		Parse:     parseDOI,
//	}}})
//	if id, ok := reg.Type(input); ok {
//		model, _, err := reg.Data(input, id)
//	}
package citeplug
