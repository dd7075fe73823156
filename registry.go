package citeplug

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Plugin is the bundle of contributions a plugin registers under its ref.
// Every section is optional.
type Plugin struct {
	Input  []InputFormat
	Output FormatFunc
	Config map[string]any
	Dict   Dict
}

// pluginRecord tracks what a plugin created, for bulk removal.
type pluginRecord struct {
	formats refStore[struct{}]
	output  bool
	config  bool
	dict    bool
}

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    *Metrics
	cacheTTL   time.Duration
}

// Option configures a Registry.
type Option func(*options)

// WithLogger sets the structured logger (defaults to slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers the registry collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTypeCache memoizes type resolution of string inputs for ttl. The cache
// is flushed whenever input formats change.
func WithTypeCache(ttl time.Duration) Option {
	return func(o *options) { o.cacheTTL = ttl }
}

// Registry ties plugin refs to their contributions. A single lock guards
// all stores: mutations are exclusive and lookups share the lock.
type Registry struct {
	mu      sync.RWMutex
	input   *InputStore
	output  *OutputStore
	config  *ConfigStore
	dict    *DictStore
	plugins refStore[*pluginRecord]
	metrics *Metrics
	logger  *slog.Logger
}

// New creates an empty Registry. It fails only when the metrics collectors
// cannot be registered.
func New(opts ...Option) (*Registry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.registerer != nil {
		o.metrics = NewMetrics()
		if err := o.metrics.register(o.registerer); err != nil {
			return nil, err
		}
	}
	r := &Registry{
		plugins: newRefStore[*pluginRecord](),
		metrics: o.metrics,
		logger:  o.logger,
	}
	r.input = newInputStore(&r.mu, o)
	r.output = newOutputStore(&r.mu, o.logger)
	r.config = newConfigStore(&r.mu)
	r.dict = newDictStore(&r.mu)
	return r, nil
}

// Input returns the input format store.
func (r *Registry) Input() *InputStore { return r.input }

// Output returns the output formatter store.
func (r *Registry) Output() *OutputStore { return r.output }

// Config returns the config store.
func (r *Registry) Config() *ConfigStore { return r.config }

// Dict returns the dictionary store.
func (r *Registry) Dict() *DictStore { return r.dict }

func (p *Plugin) validateAt(root PathRef, ref string) Issues {
	iss := validateRef(root.Field("ref"), ref)
	if p == nil {
		return iss
	}
	for i, f := range p.Input {
		iss = AppendIssues(iss, f.validateAt(root.Field("input").Index(i))...)
	}
	return iss
}

// Validate checks the bundle as Add would register it under ref.
func (p *Plugin) Validate(ref string) error {
	return p.validateAt(Root(), ref).orNil()
}

// Add validates the whole bundle and then registers it under ref. Nothing is
// registered when validation fails. A nil bundle registers ref alone. Adding
// a ref again overwrites the entries it names and keeps the others.
func (r *Registry) Add(ref string, p *Plugin) error {
	if err := p.Validate(ref); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.plugins.get(ref)
	if !ok {
		rec = &pluginRecord{formats: newRefStore[struct{}]()}
		r.plugins.set(ref, rec)
	}
	if p != nil {
		for _, f := range p.Input {
			r.input.add(f)
			rec.formats.set(f.ID, struct{}{})
		}
		if p.Output != nil {
			r.output.items.set(ref, p.Output)
			rec.output = true
		}
		if p.Config != nil {
			r.config.items.set(ref, p.Config)
			rec.config = true
		}
		if p.Dict != nil {
			r.dict.items.set(ref, p.Dict)
			rec.dict = true
		}
	}
	r.metrics.setPlugins(r.plugins.len())
	r.logger.Debug("plugin registered", "plugin", ref, "formats", rec.formats.len(),
		"output", rec.output, "config", rec.config, "dict", rec.dict)
	return nil
}

// Remove deletes ref and everything registered through it. Unknown refs are
// ignored.
func (r *Registry) Remove(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.plugins.get(ref)
	if !ok {
		return
	}
	for _, id := range rec.formats.list() {
		r.input.remove(id)
	}
	if rec.output {
		r.output.items.remove(ref)
	}
	if rec.config {
		r.config.items.remove(ref)
	}
	if rec.dict {
		r.dict.items.remove(ref)
	}
	r.plugins.remove(ref)
	r.metrics.setPlugins(r.plugins.len())
	r.logger.Debug("plugin removed", "plugin", ref)
}

// Has reports whether ref is a registered plugin.
func (r *Registry) Has(ref string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins.has(ref)
}

// List returns plugin refs in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins.list()
}

// Formats returns the identifiers registered through ref.
func (r *Registry) Formats(ref string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.plugins.get(ref)
	if !ok {
		return nil
	}
	return rec.formats.list()
}

// Type is shorthand for r.Input().Type(v).
func (r *Registry) Type(v any) (string, bool) { return r.input.Type(v) }

// Data is shorthand for r.Input().Data(v, id).
func (r *Registry) Data(v any, id string) (any, bool, error) { return r.input.Data(v, id) }

// DataAsync is shorthand for r.Input().DataAsync(ctx, v, id).
func (r *Registry) DataAsync(ctx context.Context, v any, id string) (*Deferred, bool) {
	return r.input.DataAsync(ctx, v, id)
}

// Format is shorthand for r.Output().Format(ref, data, options...).
func (r *Registry) Format(ref string, data any, options ...any) (any, bool, error) {
	return r.output.Format(ref, data, options...)
}
