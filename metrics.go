package citeplug

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolve results recorded by Metrics.
const (
	resultMatch  = "match"
	resultMiss   = "miss"
	resultCached = "cached"
)

// Parse statuses recorded by Metrics.
const (
	statusOK      = "ok"
	statusError   = "error"
	statusUnbound = "unbound"
)

// Metrics contains the registry collectors.
type Metrics struct {
	Plugins  prometheus.Gauge
	Formats  prometheus.Gauge
	Resolves *prometheus.CounterVec
	Parses   *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Plugins: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "citeplug",
			Subsystem: "registry",
			Name:      "plugins",
			Help:      "Number of registered plugins",
		}),
		Formats: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "citeplug",
			Subsystem: "registry",
			Name:      "formats",
			Help:      "Number of registered input formats",
		}),
		Resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citeplug",
			Name:      "resolve_total",
			Help:      "Type resolutions by result (match, miss, cached)",
		}, []string{"result"}),
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citeplug",
			Name:      "parse_total",
			Help:      "Data parser invocations by mode (sync, async) and status (ok, error, unbound)",
		}, []string{"mode", "status"}),
	}
}

// register adds every collector to reg. A collector that is already
// registered is replaced by the existing one so several registries can share
// one Registerer.
func (m *Metrics) register(reg prometheus.Registerer) error {
	var err error
	m.Plugins, err = registerOrReuse(reg, m.Plugins)
	if err != nil {
		return err
	}
	m.Formats, err = registerOrReuse(reg, m.Formats)
	if err != nil {
		return err
	}
	m.Resolves, err = registerOrReuse(reg, m.Resolves)
	if err != nil {
		return err
	}
	m.Parses, err = registerOrReuse(reg, m.Parses)
	return err
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// The helpers below accept a nil receiver so call sites need no guard.

func (m *Metrics) resolved(result string) {
	if m != nil {
		m.Resolves.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) parsed(async bool, status string) {
	if m == nil {
		return
	}
	mode := "sync"
	if async {
		mode = "async"
	}
	m.Parses.WithLabelValues(mode, status).Inc()
}

func (m *Metrics) setPlugins(n int) {
	if m != nil {
		m.Plugins.Set(float64(n))
	}
}

func (m *Metrics) setFormats(n int) {
	if m != nil {
		m.Formats.Set(float64(n))
	}
}
