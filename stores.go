package citeplug

import (
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// refStore is an insertion-ordered map keyed by plugin ref or format
// identifier. Re-setting a key keeps its position.
type refStore[V any] struct {
	order []string
	items map[string]V
}

func newRefStore[V any]() refStore[V] {
	return refStore[V]{items: make(map[string]V)}
}

func (s *refStore[V]) set(key string, v V) {
	if _, ok := s.items[key]; !ok {
		s.order = append(s.order, key)
	}
	s.items[key] = v
}

func (s *refStore[V]) get(key string) (V, bool) {
	v, ok := s.items[key]
	return v, ok
}

func (s *refStore[V]) has(key string) bool {
	_, ok := s.items[key]
	return ok
}

func (s *refStore[V]) remove(key string) bool {
	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *refStore[V]) list() []string { return append([]string(nil), s.order...) }

func (s *refStore[V]) len() int { return len(s.order) }

func validateRef(p PathRef, ref string) Issues {
	if ref == "" {
		return Issues{RequiredAt(p)}
	}
	return nil
}

// FormatFunc converts the canonical model into an output representation.
type FormatFunc func(data any, options ...any) (any, error)

// OutputStore maps plugin refs to output formatters.
type OutputStore struct {
	mu     *sync.RWMutex
	items  refStore[FormatFunc]
	logger *slog.Logger
}

func newOutputStore(mu *sync.RWMutex, logger *slog.Logger) *OutputStore {
	return &OutputStore{mu: mu, items: newRefStore[FormatFunc](), logger: logger}
}

func validateFormatter(p PathRef, ref string, f FormatFunc) Issues {
	iss := validateRef(p.Field("ref"), ref)
	if f == nil {
		iss = AppendIssues(iss, p.Field("formatter").Mismatch(CodeInvalidType, "null", "function"))
	}
	return iss
}

// Add registers f under ref, replacing any previous formatter.
func (s *OutputStore) Add(ref string, f FormatFunc) error {
	if err := validateFormatter(Root(), ref, f).orNil(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.set(ref, f)
	s.logger.Debug("output formatter registered", "plugin", ref)
	return nil
}

// Get returns the formatter registered under ref.
func (s *OutputStore) Get(ref string) (FormatFunc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.get(ref)
}

// Format runs the formatter registered under ref. ok is false when ref is
// unknown.
func (s *OutputStore) Format(ref string, data any, options ...any) (out any, ok bool, err error) {
	f, ok := s.Get(ref)
	if !ok {
		return nil, false, nil
	}
	out, err = f(data, options...)
	return out, true, err
}

// Has reports whether ref has a formatter.
func (s *OutputStore) Has(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.has(ref)
}

// Remove deletes the formatter under ref; unknown refs are ignored.
func (s *OutputStore) Remove(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.remove(ref)
}

// List returns refs in registration order.
func (s *OutputStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.list()
}

// ConfigStore maps plugin refs to configuration mappings.
type ConfigStore struct {
	mu    *sync.RWMutex
	items refStore[map[string]any]
}

func newConfigStore(mu *sync.RWMutex) *ConfigStore {
	return &ConfigStore{mu: mu, items: newRefStore[map[string]any]()}
}

func validateConfig(p PathRef, ref string, cfg map[string]any) Issues {
	iss := validateRef(p.Field("ref"), ref)
	if cfg == nil {
		iss = AppendIssues(iss, p.Field("config").Mismatch(CodeInvalidType, "null", "object"))
	}
	return iss
}

// Add registers cfg under ref, replacing any previous config.
func (s *ConfigStore) Add(ref string, cfg map[string]any) error {
	if err := validateConfig(Root(), ref, cfg).orNil(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.set(ref, cfg)
	return nil
}

// Get returns the config registered under ref.
func (s *ConfigStore) Get(ref string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.get(ref)
}

// Has reports whether ref has a config.
func (s *ConfigStore) Has(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.has(ref)
}

// Remove deletes the config under ref; unknown refs are ignored.
func (s *ConfigStore) Remove(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.remove(ref)
}

// List returns refs in registration order.
func (s *ConfigStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.list()
}

// Delimiters is an opening and closing delimiter pair.
type Delimiters [2]string

// Dict is a plugin dictionary: keys mapped to delimiter pairs.
type Dict map[string]Delimiters

// DictFromValue converts a dynamically typed value (decoded YAML or JSON) into
// a Dict. The value must be a string-keyed map whose values are pairs of
// strings.
func DictFromValue(v any) (Dict, error) {
	iss := Issues{}
	d := dictFromValue(Root().Field("dict"), v, &iss)
	if len(iss) > 0 {
		return nil, iss
	}
	return d, nil
}

func dictFromValue(p PathRef, v any, iss *Issues) Dict {
	switch t := v.(type) {
	case Dict:
		return t
	case map[string]Delimiters:
		return Dict(t)
	}
	if TypeOf(v) != KindObject {
		*iss = AppendIssues(*iss, p.Mismatch(CodeInvalidType, KindName(v), "object"))
		return nil
	}
	rv := reflect.ValueOf(v)
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	out := make(Dict, len(keys))
	for _, k := range keys {
		val := rv.MapIndex(k).Interface()
		pair, ok := delimitersFrom(val)
		if !ok {
			*iss = AppendIssues(*iss, p.Field(k.String()).Mismatch(CodeInvalidType, KindName(val), "[string, string]"))
			continue
		}
		out[k.String()] = pair
	}
	return out
}

func delimitersFrom(v any) (Delimiters, bool) {
	switch t := v.(type) {
	case Delimiters:
		return t, true
	case [2]string:
		return t, true
	case []string:
		if len(t) == 2 {
			return Delimiters{t[0], t[1]}, true
		}
	case []any:
		if len(t) == 2 {
			a, ok1 := t[0].(string)
			b, ok2 := t[1].(string)
			if ok1 && ok2 {
				return Delimiters{a, b}, true
			}
		}
	}
	return Delimiters{}, false
}

// DictStore maps plugin refs to dictionaries.
type DictStore struct {
	mu    *sync.RWMutex
	items refStore[Dict]
}

func newDictStore(mu *sync.RWMutex) *DictStore {
	return &DictStore{mu: mu, items: newRefStore[Dict]()}
}

func validateDict(p PathRef, ref string, d Dict) Issues {
	iss := validateRef(p.Field("ref"), ref)
	if d == nil {
		iss = AppendIssues(iss, p.Field("dict").Mismatch(CodeInvalidType, "null", "object"))
	}
	return iss
}

// Add registers d under ref, replacing any previous dictionary.
func (s *DictStore) Add(ref string, d Dict) error {
	if err := validateDict(Root(), ref, d).orNil(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.set(ref, d)
	return nil
}

// Get returns the dictionary registered under ref.
func (s *DictStore) Get(ref string) (Dict, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.get(ref)
}

// Has reports whether ref has a dictionary.
func (s *DictStore) Has(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.has(ref)
}

// Remove deletes the dictionary under ref; unknown refs are ignored.
func (s *DictStore) Remove(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.remove(ref)
}

// List returns refs in registration order.
func (s *DictStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.list()
}
