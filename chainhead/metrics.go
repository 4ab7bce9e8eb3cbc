package chainhead

import "github.com/prometheus/client_golang/prometheus"

// metrics bundles the registry's prometheus instrumentation. A nil
// registerer (the zero value of *metrics, via newMetrics(nil)) makes
// every call a no-op, so tests and callers who don't care about metrics
// never have to wire a registry.
type metrics struct {
	pinnedBlocks       prometheus.Gauge
	liveSubscriptions  prometheus.Gauge
	evictedByCapacity  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	m := &metrics{
		pinnedBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chainhead",
			Name:      "pinned_blocks",
			Help:      "Number of distinct block hashes currently pinned across all subscriptions.",
		}),
		liveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chainhead",
			Name:      "live_subscriptions",
			Help:      "Number of subscriptions currently registered.",
		}),
		evictedByCapacity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chainhead",
			Name:      "subscriptions_evicted_total",
			Help:      "Subscriptions terminated by the global pinned-block cap.",
		}),
	}
	reg.MustRegister(m.pinnedBlocks, m.liveSubscriptions, m.evictedByCapacity)
	return m
}

func (m *metrics) setPinnedBlocks(n int) {
	if m == nil {
		return
	}
	m.pinnedBlocks.Set(float64(n))
}

func (m *metrics) setLiveSubscriptions(n int) {
	if m == nil {
		return
	}
	m.liveSubscriptions.Set(float64(n))
}

func (m *metrics) addEvicted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.evictedByCapacity.Add(float64(n))
}
