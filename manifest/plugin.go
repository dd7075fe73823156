package manifest

import (
	"github.com/reoring/citeplug"
)

// Plugin builds the bundle described by m, resolving parser and formatter
// names. Unknown names and everything citeplug.Plugin.Validate rejects are
// reported together. Nil sets fall back to the defaults.
func (m *Manifest) Plugin(parsers ParserSet, formatters FormatterSet) (*citeplug.Plugin, error) {
	if parsers == nil {
		parsers = DefaultParsers()
	}
	if formatters == nil {
		formatters = DefaultFormatters()
	}
	root := citeplug.Root()
	var iss citeplug.Issues
	p := &citeplug.Plugin{Config: m.Config, Dict: m.Dict}

	for i, in := range m.Input {
		ip := root.Field("input").Index(i)
		f := citeplug.InputFormat{ID: in.ID, ParseType: in.ParseType}
		if in.Parse != "" {
			if fn, ok := parsers[in.Parse]; ok {
				f.Parse = fn
			} else {
				iss = citeplug.AppendIssues(iss, ip.Field("parse").Mismatch(citeplug.CodeInvalidEnum, in.Parse, parsers.names()))
			}
		}
		if in.ParseAsync != "" {
			if fn, ok := parsers[in.ParseAsync]; ok {
				f.ParseAsync = async(fn)
			} else {
				iss = citeplug.AppendIssues(iss, ip.Field("parseAsync").Mismatch(citeplug.CodeInvalidEnum, in.ParseAsync, parsers.names()))
			}
		}
		p.Input = append(p.Input, f)
	}
	if m.Output != "" {
		if fn, ok := formatters[m.Output]; ok {
			p.Output = fn
		} else {
			iss = citeplug.AppendIssues(iss, root.Field("output").Mismatch(citeplug.CodeInvalidEnum, m.Output, formatters.names()))
		}
	}

	if vi, ok := citeplug.AsIssues(p.Validate(m.Ref)); ok {
		iss = citeplug.AppendIssues(iss, vi...)
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return p, nil
}

// Register adds every manifest to reg with the default parsers and
// formatters. All manifests are built first; when any of them fails nothing
// is registered and issue paths start with the manifest index.
func Register(reg *citeplug.Registry, manifests ...Manifest) error {
	return RegisterWith(reg, DefaultParsers(), DefaultFormatters(), manifests...)
}

// RegisterWith is Register with explicit parser and formatter sets.
func RegisterWith(reg *citeplug.Registry, parsers ParserSet, formatters FormatterSet, manifests ...Manifest) error {
	plugins := make([]*citeplug.Plugin, len(manifests))
	var iss citeplug.Issues
	for i := range manifests {
		p, err := manifests[i].Plugin(parsers, formatters)
		if err != nil {
			pi, ok := citeplug.AsIssues(err)
			if !ok {
				return err
			}
			iss = citeplug.AppendIssues(iss, pi.Prefixed(citeplug.Root().Index(i))...)
			continue
		}
		plugins[i] = p
	}
	if len(iss) > 0 {
		return iss
	}
	for i, p := range plugins {
		if err := reg.Add(manifests[i].Ref, p); err != nil {
			return err
		}
	}
	return nil
}
