package manifest

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/reoring/citeplug"
	"github.com/reoring/citeplug/i18n"
)

// decoder converts one decoded document, collecting issues instead of
// stopping at the first problem.
type decoder struct {
	strict bool
	iss    citeplug.Issues
}

func (d *decoder) add(it citeplug.Issue) { d.iss = citeplug.AppendIssues(d.iss, it) }

func (d *decoder) mismatch(p citeplug.PathRef, v any, expected string) {
	d.add(p.Mismatch(citeplug.CodeInvalidType, citeplug.KindName(v), expected))
}

// object returns v as a mapping, reporting field as the name of the value.
func (d *decoder) object(p citeplug.PathRef, field string, v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		msg := i18n.T(citeplug.CodeInvalidType, map[string]string{"field": field, "got": citeplug.KindName(v), "expected": "object"})
		d.add(citeplug.IssueAt(p, citeplug.CodeInvalidType, msg, map[string]any{"field": field, "got": citeplug.KindName(v), "expected": "object"}))
	}
	return m, ok
}

// known reports keys of m outside allowed when decoding strictly.
func (d *decoder) known(p citeplug.PathRef, m map[string]any, allowed ...string) {
	if !d.strict {
		return
	}
	set := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		if !set[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fp := p.Field(k)
		msg := i18n.T(citeplug.CodeUnknownKey, map[string]string{"field": k})
		d.add(citeplug.IssueAt(fp, citeplug.CodeUnknownKey, msg, map[string]any{"field": k}))
	}
}

func (d *decoder) str(p citeplug.PathRef, m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.mismatch(p.Field(key), v, "string")
	}
	return s
}

// dataType reports values that are not one of the data type names as a
// range violation, whatever their kind.
func (d *decoder) dataType(p citeplug.PathRef, m map[string]any) citeplug.DataType {
	v, ok := m["dataType"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return citeplug.DataType(s)
	}
	names := make([]string, len(citeplug.DataTypes))
	for i, dt := range citeplug.DataTypes {
		names[i] = string(dt)
	}
	d.add(p.Field("dataType").Mismatch(citeplug.CodeInvalidEnum, fmt.Sprint(v), strings.Join(names, ", ")))
	return ""
}

func (d *decoder) boolean(p citeplug.PathRef, m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		d.mismatch(p.Field(key), v, "boolean")
		return def
	}
	return b
}

// pattern compiles the string at p. A nil result means the issue was
// reported.
func (d *decoder) pattern(p citeplug.PathRef, v any, expected string) *regexp.Regexp {
	s, ok := v.(string)
	if !ok {
		d.mismatch(p, v, expected)
		return nil
	}
	re, err := regexp.Compile(s)
	if err != nil {
		it := p.Mismatch(citeplug.CodeInvalidFormat, s, "a regular expression")
		it.Cause = err
		it.Hint = err.Error()
		d.add(it)
		return nil
	}
	return re
}

func (d *decoder) manifest(p citeplug.PathRef, doc any) Manifest {
	var m Manifest
	root, ok := d.object(p, "manifest", doc)
	if !ok {
		return m
	}
	d.known(p, root, "ref", "input", "output", "config", "dict")

	m.Ref = d.str(p, root, "ref")
	if v, ok := root["input"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			d.mismatch(p.Field("input"), v, "array")
		}
		for i, item := range list {
			m.Input = append(m.Input, d.input(p.Field("input").Index(i), item))
		}
	}
	m.Output = d.str(p, root, "output")
	if v, ok := root["config"]; ok && v != nil {
		if cfg, ok := v.(map[string]any); ok {
			m.Config = cfg
		} else {
			d.mismatch(p.Field("config"), v, "object")
		}
	}
	if v, ok := root["dict"]; ok && v != nil {
		dict, err := citeplug.DictFromValue(v)
		if iss, ok := citeplug.AsIssues(err); ok {
			d.iss = citeplug.AppendIssues(d.iss, iss.Prefixed(p)...)
		}
		m.Dict = dict
	}
	return m
}

func (d *decoder) input(p citeplug.PathRef, v any) Input {
	var in Input
	m, ok := d.object(p, "input", v)
	if !ok {
		return in
	}
	d.known(p, m, "id", "parse", "parseAsync", "parseType")
	in.ID = d.str(p, m, "id")
	in.Parse = d.str(p, m, "parse")
	in.ParseAsync = d.str(p, m, "parseAsync")
	if pt, ok := m["parseType"]; ok && pt != nil {
		in.ParseType = d.typeSpec(p.Field("parseType"), pt)
	}
	return in
}

func (d *decoder) typeSpec(p citeplug.PathRef, v any) *citeplug.TypeSpec {
	m, ok := v.(map[string]any)
	if !ok {
		d.mismatch(p, v, "object")
		return nil
	}
	d.known(p, m, "dataType", "predicate", "tokenList", "propertyConstraint", "elementConstraint", "extends")

	spec := &citeplug.TypeSpec{
		DataType:          d.dataType(p, m),
		ElementConstraint: d.str(p, m, "elementConstraint"),
		Extends:           d.str(p, m, "extends"),
	}
	if pred, ok := m["predicate"]; ok && pred != nil {
		if re := d.pattern(p.Field("predicate"), pred, "RegExp or function"); re != nil {
			spec.Predicate = re
		}
	}
	if tl, ok := m["tokenList"]; ok && tl != nil {
		if list := d.tokenList(p.Field("tokenList"), tl); list != nil {
			spec.TokenList = list
		}
	}
	if pc, ok := m["propertyConstraint"]; ok && pc != nil {
		if cs := d.propertyConstraints(p.Field("propertyConstraint"), pc); cs != nil {
			spec.PropertyConstraint = cs
		}
	}
	return spec
}

func (d *decoder) tokenList(p citeplug.PathRef, v any) *citeplug.TokenList {
	switch t := v.(type) {
	case string:
		re := d.pattern(p, t, "object or RegExp")
		if re == nil {
			return nil
		}
		return &citeplug.TokenList{Token: re}
	case map[string]any:
		d.known(p, t, "token", "split", "trim", "every")
		tl := &citeplug.TokenList{
			NoTrim: !d.boolean(p, t, "trim", true),
			Some:   !d.boolean(p, t, "every", true),
		}
		if tok, ok := t["token"]; ok && tok != nil {
			tl.Token = d.pattern(p.Field("token"), tok, "RegExp")
		}
		if split, ok := t["split"]; ok && split != nil {
			tl.Split = d.pattern(p.Field("split"), split, "RegExp")
		}
		return tl
	default:
		d.mismatch(p, v, "object or RegExp")
		return nil
	}
}

func (d *decoder) propertyConstraints(p citeplug.PathRef, v any) []citeplug.PropertyConstraint {
	switch t := v.(type) {
	case map[string]any:
		return []citeplug.PropertyConstraint{d.propertyConstraint(p, t)}
	case []any:
		out := make([]citeplug.PropertyConstraint, 0, len(t))
		for i, item := range t {
			ip := p.Index(i)
			m, ok := item.(map[string]any)
			if !ok {
				d.mismatch(ip, item, "object")
				continue
			}
			out = append(out, d.propertyConstraint(ip, m))
		}
		return out
	default:
		d.mismatch(p, v, "array or object")
		return nil
	}
}

func (d *decoder) propertyConstraint(p citeplug.PathRef, m map[string]any) citeplug.PropertyConstraint {
	d.known(p, m, "props", "match", "value")
	pc := citeplug.PropertyConstraint{Match: d.str(p, m, "match")}
	switch props := m["props"].(type) {
	case nil:
	case string:
		pc.Props = []string{props}
	case []any:
		for i, prop := range props {
			s, ok := prop.(string)
			if !ok {
				d.mismatch(p.Field("props").Index(i), prop, "string")
				continue
			}
			pc.Props = append(pc.Props, s)
		}
	default:
		d.mismatch(p.Field("props"), props, "string or array")
	}
	if val, ok := m["value"]; ok && val != nil {
		if re := d.pattern(p.Field("value"), val, "RegExp"); re != nil {
			pc.Value = func(v any) bool { return re.MatchString(stringValue(v)) }
		}
	}
	return pc
}
