// Package prom is a Prometheus backend for the observability hooks.
//
// It is wired in by main, never by library packages, so the core stays free
// of a hard Prometheus dependency.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/vaultgraph/pkg/observability"
)

// Hooks implements the observability hook interfaces on top of Prometheus
// collectors.
type Hooks struct {
	tickDuration    prometheus.Histogram
	tickErrors      prometheus.Counter
	syncDuration    *prometheus.HistogramVec
	syncNodesAdded  prometheus.Counter
	syncLinksAdded  prometheus.Counter
	syncLinksPruned prometheus.Counter
	bufferGrowths   *prometheus.CounterVec
	bufferCapacity  *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheWrites *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	_ observability.ViewHooks   = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
	_ observability.ServerHooks = (*Hooks)(nil)
)

// New creates hooks registered against the given registerer.
func New(reg prometheus.Registerer) *Hooks {
	factory := promauto.With(reg)
	return &Hooks{
		tickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vaultgraph",
			Subsystem: "view",
			Name:      "tick_duration_seconds",
			Help:      "Duration of render loop ticks.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		tickErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "view",
			Name:      "tick_errors_total",
			Help:      "Number of ticks that ended with an error.",
		}),
		syncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vaultgraph",
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Duration of graph synchronization passes.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"scope"}),
		syncNodesAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "sync",
			Name:      "nodes_added_total",
			Help:      "Nodes added to the graph by synchronization.",
		}),
		syncLinksAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "sync",
			Name:      "links_added_total",
			Help:      "Links added to the graph by synchronization.",
		}),
		syncLinksPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "sync",
			Name:      "links_pruned_total",
			Help:      "Links removed from the graph by synchronization.",
		}),
		bufferGrowths: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "render",
			Name:      "buffer_growths_total",
			Help:      "Number of grow-and-swap operations per buffer.",
		}, []string{"buffer"}),
		bufferCapacity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vaultgraph",
			Subsystem: "render",
			Name:      "buffer_capacity",
			Help:      "Current capacity of each growable buffer.",
		}, []string{"buffer"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Cache hits by key type.",
		}, []string{"key_type"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Cache misses by key type.",
		}, []string{"key_type"}),
		cacheWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache writes by key type.",
		}, []string{"key_type"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vaultgraph",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Control API requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vaultgraph",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Control API request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Install registers h as the process-wide observability backend.
func (h *Hooks) Install() {
	observability.SetViewHooks(h)
	observability.SetCacheHooks(h)
	observability.SetServerHooks(h)
}

func (h *Hooks) OnTickStart(context.Context) {}

func (h *Hooks) OnTickComplete(_ context.Context, d time.Duration, err error) {
	h.tickDuration.Observe(d.Seconds())
	if err != nil {
		h.tickErrors.Inc()
	}
}

func (h *Hooks) OnSyncStart(context.Context, string) {}

func (h *Hooks) OnSyncComplete(_ context.Context, scope string, nodesAdded, linksAdded, linksRemoved int, d time.Duration, err error) {
	h.syncDuration.WithLabelValues(scope).Observe(d.Seconds())
	if err != nil {
		return
	}
	h.syncNodesAdded.Add(float64(nodesAdded))
	h.syncLinksAdded.Add(float64(linksAdded))
	h.syncLinksPruned.Add(float64(linksRemoved))
}

func (h *Hooks) OnBufferGrow(_ context.Context, buffer string, _, newCapacity int) {
	h.bufferGrowths.WithLabelValues(buffer).Inc()
	h.bufferCapacity.WithLabelValues(buffer).Set(float64(newCapacity))
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheHits.WithLabelValues(keyType).Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheMisses.WithLabelValues(keyType).Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	h.cacheWrites.WithLabelValues(keyType).Inc()
}

func (h *Hooks) OnRequest(context.Context, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, method, path string, statusCode int, d time.Duration) {
	h.requests.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	h.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
