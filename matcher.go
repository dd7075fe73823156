package citeplug

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// Predicate decides whether a value belongs to a format.
type Predicate func(v any) bool

// Property constraint match modes.
const (
	MatchEvery = "every"
	MatchSome  = "some"
)

var defaultTokenSplit = regexp.MustCompile(`\s+`)

// TokenList requires a string to be a list of tokens matching Token.
type TokenList struct {
	Token  *regexp.Regexp // Nil matches any token.
	Split  *regexp.Regexp // Separator; defaults to whitespace.
	NoTrim bool           // Keep leading/trailing whitespace before splitting.
	Some   bool           // At least one token must match instead of every token.
}

// PropertyConstraint requires properties of a string-keyed map.
type PropertyConstraint struct {
	Props []string
	Match string    // MatchEvery (default) or MatchSome.
	Value Predicate // Optional: every checked property value must satisfy it.
}

// TypeSpec is the declarative constraint specification of a format. Fields
// are stored as given and checked by TypeMatcher.Validate.
type TypeSpec struct {
	// DataType is the bucket the format applies to. Inferred when empty.
	DataType DataType
	// Predicate is a Predicate, a func(any) bool or a *regexp.Regexp tested
	// against the stringified value.
	Predicate any
	// TokenList is a TokenList, a *TokenList or a *regexp.Regexp used as the
	// token pattern with default options.
	TokenList any
	// PropertyConstraint is a PropertyConstraint, a *PropertyConstraint or a
	// []PropertyConstraint (all must hold).
	PropertyConstraint any
	// ElementConstraint names the format every array element must resolve to.
	ElementConstraint string
	// Extends names the parent format.
	Extends string
}

// Resolver resolves values to registered format identifiers. It backs
// element constraints.
type Resolver interface {
	Type(v any) (string, bool)
	IsA(id, ancestor string) bool
}

// MatcherOption configures a TypeMatcher.
type MatcherOption func(*TypeMatcher)

// WithResolver binds the resolver used by element constraints.
func WithResolver(r Resolver) MatcherOption {
	return func(m *TypeMatcher) { m.resolver = r }
}

// TypeMatcher compiles a TypeSpec into a single predicate.
type TypeMatcher struct {
	spec     TypeSpec
	resolver Resolver

	once sync.Once
	pred Predicate
}

// NewTypeMatcher stores spec without checking it; call Validate before use.
func NewTypeMatcher(spec TypeSpec, opts ...MatcherOption) *TypeMatcher {
	m := &TypeMatcher{spec: spec}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Spec returns the stored specification.
func (m *TypeMatcher) Spec() TypeSpec { return m.spec }

// Extends returns the parent format identifier, or "".
func (m *TypeMatcher) Extends() string { return m.spec.Extends }

// DataType returns the declared bucket or the one inferred from the present
// constraints: a token list or a pattern predicate means String, an element
// constraint means Array, anything else Primitive.
func (m *TypeMatcher) DataType() DataType {
	switch {
	case m.spec.DataType != "":
		return m.spec.DataType
	case m.spec.TokenList != nil:
		return String
	case isPattern(m.spec.Predicate):
		return String
	case m.spec.ElementConstraint != "":
		return Array
	default:
		return Primitive
	}
}

// Predicate returns the AND of every present constraint. It is compiled on
// first use.
func (m *TypeMatcher) Predicate() Predicate {
	m.once.Do(m.compile)
	return m.pred
}

// Match is shorthand for m.Predicate()(v).
func (m *TypeMatcher) Match(v any) bool { return m.Predicate()(v) }

func (m *TypeMatcher) bindDefault(r Resolver) {
	if m.resolver == nil {
		m.resolver = r
	}
}

func (m *TypeMatcher) compile() {
	var preds []Predicate
	if m.spec.Predicate != nil {
		preds = append(preds, rawPredicate(m.spec.Predicate))
	}
	if m.spec.TokenList != nil {
		preds = append(preds, tokenListPredicate(m.spec.TokenList))
	}
	if m.spec.PropertyConstraint != nil {
		preds = append(preds, propertyPredicate(m.spec.PropertyConstraint))
	}
	if m.spec.ElementConstraint != "" {
		preds = append(preds, m.elementPredicate(m.spec.ElementConstraint))
	}
	m.pred = func(v any) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

func never(any) bool { return false }

func rawPredicate(p any) Predicate {
	switch t := p.(type) {
	case Predicate:
		if t != nil {
			return t
		}
	case func(any) bool:
		if t != nil {
			return t
		}
	case *regexp.Regexp:
		if t != nil {
			return func(v any) bool { return t.MatchString(stringify(v)) }
		}
	}
	return never
}

func tokenListPredicate(tl any) Predicate {
	var opts TokenList
	switch t := tl.(type) {
	case TokenList:
		opts = t
	case *TokenList:
		if t == nil {
			return never
		}
		opts = *t
	case *regexp.Regexp:
		if t == nil {
			return never
		}
		opts = TokenList{Token: t}
	default:
		return never
	}
	split := opts.Split
	if split == nil {
		split = defaultTokenSplit
	}
	return func(v any) bool {
		s := stringify(v)
		if !opts.NoTrim {
			s = strings.TrimSpace(s)
		}
		tokens := split.Split(s, -1)
		match := func(tok string) bool { return opts.Token == nil || opts.Token.MatchString(tok) }
		if opts.Some {
			for _, tok := range tokens {
				if match(tok) {
					return true
				}
			}
			return false
		}
		for _, tok := range tokens {
			if !match(tok) {
				return false
			}
		}
		return true
	}
}

func propertyPredicate(pc any) Predicate {
	var list []PropertyConstraint
	switch t := pc.(type) {
	case PropertyConstraint:
		list = []PropertyConstraint{t}
	case *PropertyConstraint:
		if t == nil {
			return never
		}
		list = []PropertyConstraint{*t}
	case []PropertyConstraint:
		list = t
	default:
		return never
	}
	return func(v any) bool {
		rv := reflect.ValueOf(v)
		if TypeOf(v) != KindObject {
			return false
		}
		for _, c := range list {
			if !c.holds(rv) {
				return false
			}
		}
		return true
	}
}

// holds evaluates c against a string-keyed map value.
func (c PropertyConstraint) holds(rv reflect.Value) bool {
	check := func(prop string) bool {
		e := rv.MapIndex(reflect.ValueOf(prop).Convert(rv.Type().Key()))
		if !e.IsValid() {
			return false
		}
		return c.Value == nil || c.Value(e.Interface())
	}
	if c.Match == MatchSome {
		for _, p := range c.Props {
			if check(p) {
				return true
			}
		}
		return false
	}
	for _, p := range c.Props {
		if !check(p) {
			return false
		}
	}
	return true
}

func (m *TypeMatcher) elementPredicate(target string) Predicate {
	return func(v any) bool {
		if TypeOf(v) != KindArray {
			return false
		}
		rv := reflect.ValueOf(v)
		if rv.Len() == 0 {
			return true
		}
		r := m.resolver
		if r == nil {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			id, ok := r.Type(rv.Index(i).Interface())
			if !ok || (id != target && !r.IsA(id, target)) {
				return false
			}
		}
		return true
	}
}

func isPattern(v any) bool {
	re, ok := v.(*regexp.Regexp)
	return ok && re != nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Validate checks the stored specification and reports every problem.
// Wrong kinds are CodeInvalidType issues, an unknown data type is a
// CodeInvalidEnum issue.
func (m *TypeMatcher) Validate() error {
	return m.validateAt(Root()).orNil()
}

func (m *TypeMatcher) validateAt(root PathRef) Issues {
	var iss Issues
	s := m.spec

	if s.DataType != "" && !s.DataType.Valid() {
		iss = AppendIssues(iss, root.Field("dataType").Mismatch(CodeInvalidEnum, string(s.DataType), dataTypeList()))
	}

	switch t := s.Predicate.(type) {
	case nil, Predicate, func(any) bool:
	case *regexp.Regexp:
		if t == nil {
			iss = AppendIssues(iss, root.Field("predicate").Mismatch(CodeInvalidType, "null", "RegExp or function"))
		}
	default:
		expected := "RegExp or function"
		if TypeOf(t) == KindFunction {
			expected = "RegExp or func(any) bool"
		}
		iss = AppendIssues(iss, root.Field("predicate").Mismatch(CodeInvalidType, observed(t), expected))
	}

	switch t := s.TokenList.(type) {
	case nil, TokenList, *regexp.Regexp:
	case *TokenList:
		if t == nil {
			iss = AppendIssues(iss, root.Field("tokenList").Mismatch(CodeInvalidType, "null", "object or RegExp"))
		}
	default:
		iss = AppendIssues(iss, root.Field("tokenList").Mismatch(CodeInvalidType, observed(t), "object or RegExp"))
	}

	switch t := s.PropertyConstraint.(type) {
	case nil:
	case PropertyConstraint:
		iss = AppendIssues(iss, t.validateAt(root.Field("propertyConstraint"))...)
	case *PropertyConstraint:
		if t == nil {
			iss = AppendIssues(iss, root.Field("propertyConstraint").Mismatch(CodeInvalidType, "null", "array or object"))
		} else {
			iss = AppendIssues(iss, t.validateAt(root.Field("propertyConstraint"))...)
		}
	case []PropertyConstraint:
		for i, c := range t {
			iss = AppendIssues(iss, c.validateAt(root.Field("propertyConstraint").Index(i))...)
		}
	default:
		iss = AppendIssues(iss, root.Field("propertyConstraint").Mismatch(CodeInvalidType, observed(t), "array or object"))
	}

	if s.ElementConstraint != "" && ValidateIdentifier(s.ElementConstraint) != nil {
		iss = AppendIssues(iss, identifierIssue(root.Field("elementConstraint"), s.ElementConstraint))
	}
	if s.Extends != "" && ValidateIdentifier(s.Extends) != nil {
		iss = AppendIssues(iss, identifierIssue(root.Field("extends"), s.Extends))
	}
	return iss
}

func (c PropertyConstraint) validateAt(p PathRef) Issues {
	switch c.Match {
	case "", MatchEvery, MatchSome:
		return nil
	}
	return Issues{p.Field("match").Mismatch(CodeInvalidEnum, c.Match, MatchEvery+", "+MatchSome)}
}

// observed names the kind of v, using the Go signature for functions.
func observed(v any) string {
	if TypeOf(v) == KindFunction {
		return reflect.TypeOf(v).String()
	}
	return KindName(v)
}

func dataTypeList() string {
	names := make([]string, len(DataTypes))
	for i, d := range DataTypes {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}
