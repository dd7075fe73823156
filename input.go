package citeplug

import (
	"context"
	"log/slog"
	"sync"
)

// InputFormat is one input format contribution. Any of ParseType, Parse and
// ParseAsync may be omitted.
type InputFormat struct {
	ID         string
	ParseType  *TypeSpec
	Parse      ParseFunc
	ParseAsync AsyncParseFunc
}

// validateAt checks the identifier and the type spec.
func (f InputFormat) validateAt(p PathRef) Issues {
	var iss Issues
	if f.ID == "" {
		iss = AppendIssues(iss, RequiredAt(p.Field("id")))
	} else if ValidateIdentifier(f.ID) != nil {
		iss = AppendIssues(iss, identifierIssue(p.Field("id"), f.ID))
	}
	if f.ParseType != nil {
		iss = AppendIssues(iss, NewTypeMatcher(*f.ParseType).validateAt(p.Field("parseType"))...)
	}
	return iss
}

// Validate checks the format without registering it.
func (f InputFormat) Validate() error { return f.validateAt(Root()).orNil() }

// InputStore holds input formats: type matchers in a TypeGraph and the data
// parsers bound to each identifier.
type InputStore struct {
	mu      *sync.RWMutex
	formats refStore[InputFormat]
	graph   *TypeGraph
	parsers map[string]*DataParser
	async   map[string]*DataParser
	cache   *typeCache
	metrics *Metrics
	logger  *slog.Logger
}

func newInputStore(mu *sync.RWMutex, o *options) *InputStore {
	s := &InputStore{
		mu:      mu,
		formats: newRefStore[InputFormat](),
		graph:   NewTypeGraph(),
		parsers: make(map[string]*DataParser),
		async:   make(map[string]*DataParser),
		metrics: o.metrics,
		logger:  o.logger,
	}
	if o.cacheTTL > 0 {
		s.cache = newTypeCache(o.cacheTTL)
	}
	return s
}

// Add validates and registers f. Registering an identifier again replaces
// all of its previous parts.
func (s *InputStore) Add(f InputFormat) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(f)
	return nil
}

func (s *InputStore) add(f InputFormat) {
	s.formats.set(f.ID, f)
	if f.ParseType != nil {
		s.graph.Add(f.ID, NewTypeMatcher(*f.ParseType))
	} else {
		s.graph.Remove(f.ID)
	}
	delete(s.parsers, f.ID)
	delete(s.async, f.ID)
	if f.Parse != nil {
		s.parsers[f.ID] = NewDataParser(f.Parse, false)
	}
	if f.ParseAsync != nil {
		s.async[f.ID] = NewDataParser(f.ParseAsync, true)
	}
	s.cache.flush()
	s.metrics.setFormats(s.formats.len())
	s.logger.Debug("input format registered", "format", f.ID,
		"typeParser", f.ParseType != nil, "parse", f.Parse != nil, "parseAsync", f.ParseAsync != nil)
}

// Remove deletes id with its type matcher and parsers. Unknown ids are
// ignored.
func (s *InputStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
}

func (s *InputStore) remove(id string) {
	if !s.formats.remove(id) {
		return
	}
	s.graph.Remove(id)
	delete(s.parsers, id)
	delete(s.async, id)
	s.cache.flush()
	s.metrics.setFormats(s.formats.len())
	s.logger.Debug("input format removed", "format", id)
}

// Has reports whether id is registered.
func (s *InputStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formats.has(id)
}

// HasTypeParser reports whether id has a type matcher.
func (s *InputStore) HasTypeParser(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Has(id)
}

// HasDataParser reports whether id has a parser in the sync or async slot.
func (s *InputStore) HasDataParser(id string, async bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if async {
		_, ok := s.async[id]
		return ok
	}
	_, ok := s.parsers[id]
	return ok
}

// Get returns the registered format.
func (s *InputStore) Get(id string) (InputFormat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formats.get(id)
}

// List returns identifiers in registration order.
func (s *InputStore) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formats.list()
}

// Parent returns the identifier id extends, if any.
func (s *InputStore) Parent(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.Parent(id)
}

// IsA reports whether id extends ancestor, directly or transitively.
func (s *InputStore) IsA(id, ancestor string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.graph.IsA(id, ancestor)
}

// Type resolves v to the most specific registered format. ok is false when
// nothing matches.
func (s *InputStore) Type(v any) (id string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if res, hit := s.cache.get(v); hit {
		s.metrics.resolved(resultCached)
		return res.id, res.ok
	}
	id, ok = s.graph.Type(v)
	s.cache.set(v, typeResult{id: id, ok: ok})
	if ok {
		s.metrics.resolved(resultMatch)
	} else {
		s.metrics.resolved(resultMiss)
	}
	return id, ok
}

// Data parses v with the sync parser bound to id. ok is false when id has
// no sync parser; err is the parser's own error.
func (s *InputStore) Data(v any, id string) (out any, ok bool, err error) {
	s.mu.RLock()
	p, ok := s.parsers[id]
	s.mu.RUnlock()
	if !ok {
		s.metrics.parsed(false, statusUnbound)
		return nil, false, nil
	}
	out, err = p.Parse(v)
	s.observe(false, id, err)
	return out, true, err
}

// DataAsync parses v with the async parser bound to id, falling back to the
// sync parser on a separate goroutine. ok is false when id has neither.
func (s *InputStore) DataAsync(ctx context.Context, v any, id string) (*Deferred, bool) {
	s.mu.RLock()
	p, ok := s.async[id]
	if !ok {
		p, ok = s.parsers[id]
	}
	s.mu.RUnlock()
	if !ok {
		s.metrics.parsed(true, statusUnbound)
		return nil, false
	}
	return Go(ctx, func(ctx context.Context) (any, error) {
		out, err := p.asyncFunc()(ctx, v)
		s.observe(true, id, err)
		return out, err
	}), true
}

func (s *InputStore) observe(async bool, id string, err error) {
	if err != nil {
		s.metrics.parsed(async, statusError)
		s.logger.Warn("data parser failed", "format", id, "async", async, "error", err)
		return
	}
	s.metrics.parsed(async, statusOK)
}
