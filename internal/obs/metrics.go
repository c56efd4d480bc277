package obs

import (
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// PromMeter bridges Meter to a prometheus Registerer. Collectors are
// created lazily on first use of a metric name and cached; each name
// must always be emitted with the same label keys.
type PromMeter struct {
	Reg prometheus.Registerer

	mu    sync.Mutex
	count map[string]*prometheus.CounterVec
	hist  map[string]*prometheus.HistogramVec
}

// NewPromMeter registers metrics on reg, or the default registerer when
// reg is nil.
func NewPromMeter(reg prometheus.Registerer) *PromMeter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PromMeter{
		Reg:   reg,
		count: make(map[string]*prometheus.CounterVec),
		hist:  make(map[string]*prometheus.HistogramVec),
	}
}

func (m *PromMeter) Counter(name string, value float64, labels ...Label) {
	keys, vals := splitLabels(labels)
	m.mu.Lock()
	cv, ok := m.count[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{Name: sanitizeName(name)}, keys)
		if err := m.Reg.Register(cv); err != nil {
			if are, dup := err.(prometheus.AlreadyRegisteredError); dup {
				cv = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				m.mu.Unlock()
				return
			}
		}
		m.count[name] = cv
	}
	m.mu.Unlock()
	c, err := cv.GetMetricWithLabelValues(vals...)
	if err != nil {
		return
	}
	c.Add(value)
}

func (m *PromMeter) Histogram(name string, value float64, labels ...Label) {
	keys, vals := splitLabels(labels)
	m.mu.Lock()
	hv, ok := m.hist[name]
	if !ok {
		hv = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    sanitizeName(name),
			Buckets: prometheus.DefBuckets,
		}, keys)
		if err := m.Reg.Register(hv); err != nil {
			if are, dup := err.(prometheus.AlreadyRegisteredError); dup {
				hv = are.ExistingCollector.(*prometheus.HistogramVec)
			} else {
				m.mu.Unlock()
				return
			}
		}
		m.hist[name] = hv
	}
	m.mu.Unlock()
	h, err := hv.GetMetricWithLabelValues(vals...)
	if err != nil {
		return
	}
	h.Observe(value)
}

func splitLabels(labels []Label) (keys, vals []string) {
	if len(labels) == 0 {
		return nil, nil
	}
	sorted := make([]Label, len(labels))
	copy(sorted, labels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	for _, l := range sorted {
		keys = append(keys, l.Key)
		vals = append(vals, l.Value)
	}
	return keys, vals
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		default:
			return '_'
		}
	}, s)
}
