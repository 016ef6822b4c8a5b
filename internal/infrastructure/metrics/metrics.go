package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder groups the service collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	sessionsCreated prometheus.Counter
	mutations       *prometheus.CounterVec
	mutationLatency prometheus.Histogram
	spinsStarted    prometheus.Counter
	spinsCompleted  prometheus.Counter
	connections     prometheus.Gauge
	replication     *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	sessionsReaped  prometheus.Counter
	goroutines      prometheus.Gauge
	sysMemoryAlloc  prometheus.Gauge
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinwheel_sessions_created_total",
			Help: "Sessions created on this instance.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spinwheel_mutations_total",
			Help: "Session mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		mutationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spinwheel_mutation_duration_seconds",
			Help:    "Time spent holding the session lock for one mutation.",
			Buckets: prometheus.DefBuckets,
		}),
		spinsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinwheel_spins_started_total",
			Help: "Spins started.",
		}),
		spinsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinwheel_spins_completed_total",
			Help: "Spins finalized with a winner.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spinwheel_ws_connections",
			Help: "Live websocket connections on this instance.",
		}),
		replication: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spinwheel_replication_envelopes_total",
			Help: "Replication envelopes by direction.",
		}, []string{"direction"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spinwheel_rate_limited_total",
			Help: "Rejected requests by scope.",
		}, []string{"scope"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spinwheel_http_requests_total",
			Help: "HTTP requests by method and status.",
		}, []string{"method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spinwheel_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		sessionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spinwheel_sessions_reaped_total",
			Help: "Expired sessions deleted by the reaper.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "app_go_routines",
			Help: "Number of goroutines at scrape time.",
		}),
		sysMemoryAlloc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "app_sys_memory_alloc",
			Help: "Bytes of allocated heap objects at scrape time.",
		}),
	}

	reg.MustRegister(
		r.sessionsCreated, r.mutations, r.mutationLatency,
		r.spinsStarted, r.spinsCompleted, r.connections,
		r.replication, r.rateLimited, r.httpRequests, r.httpDuration,
		r.sessionsReaped, r.goroutines, r.sysMemoryAlloc,
	)

	return r
}

func (r *Recorder) SessionCreated() {
	if r == nil {
		return
	}
	r.sessionsCreated.Inc()
}

func (r *Recorder) Mutation(op, outcome string, held time.Duration) {
	if r == nil {
		return
	}
	r.mutations.WithLabelValues(op, outcome).Inc()
	r.mutationLatency.Observe(held.Seconds())
}

func (r *Recorder) SpinStarted() {
	if r == nil {
		return
	}
	r.spinsStarted.Inc()
}

func (r *Recorder) SpinCompleted() {
	if r == nil {
		return
	}
	r.spinsCompleted.Inc()
}

func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.connections.Inc()
}

func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connections.Dec()
}

// Replication counts envelopes; direction is "published", "received", "ignored"
// or "resubscribed" for a lost subscription.
func (r *Recorder) Replication(direction string) {
	if r == nil {
		return
	}
	r.replication.WithLabelValues(direction).Inc()
}

func (r *Recorder) RateLimited(scope string) {
	if r == nil {
		return
	}
	r.rateLimited.WithLabelValues(scope).Inc()
}

func (r *Recorder) SessionsReaped(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.sessionsReaped.Add(float64(n))
}

func (r *Recorder) HTTPRequest(method string, status int, took time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method).Observe(took.Seconds())
}

// Handler serves the registry, sampling runtime gauges on every scrape.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}

	inner := promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		r.goroutines.Set(float64(runtime.NumGoroutine()))
		r.sysMemoryAlloc.Set(float64(stats.Alloc))

		inner.ServeHTTP(w, req)
	})
}

// Registry is exposed for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
