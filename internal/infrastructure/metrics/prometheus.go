package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerMetrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	gatherer        prometheus.Gatherer
}

type BoardMetrics struct {
	MethodCount    *prometheus.CounterVec
	MethodDuration *prometheus.HistogramVec
	AdsTotal       prometheus.Gauge
}

type StoreMetrics struct {
	OpCount    *prometheus.CounterVec
	OpDuration *prometheus.HistogramVec
	BytesSaved prometheus.Histogram
}

func NewHandlerMetrics(reg prometheus.Registerer, gatherer prometheus.Gatherer) *HandlerMetrics {
	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handler_requests_total",
			Help: "Total number of HTTP requests handled by the handler layer.",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handler_request_duration_seconds",
			Help:    "Histogram of response latency for handler in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	reg.MustRegister(requestCount, requestDuration)

	return &HandlerMetrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		gatherer:        gatherer,
	}
}

func NewBoardMetrics(reg prometheus.Registerer) *BoardMetrics {
	methodCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_operations_total",
			Help: "Total number of board controller operations executed.",
		},
		[]string{"method", "status"},
	)

	methodDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "board_operation_duration_seconds",
			Help:    "Histogram of board controller operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	adsTotal := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "board_ads",
		Help: "Number of ads in the canonical collection.",
	})

	reg.MustRegister(methodCount, methodDuration, adsTotal)

	return &BoardMetrics{
		MethodCount:    methodCount,
		MethodDuration: methodDuration,
		AdsTotal:       adsTotal,
	}
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	opCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operations_total",
			Help: "Total number of persistent store operations executed.",
		},
		[]string{"op", "status"},
	)

	opDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Histogram of persistent store operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)

	bytesSaved := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "store_saved_bytes",
		Help:    "Size of the serialized ad collection written to the store.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})

	reg.MustRegister(opCount, opDuration, bytesSaved)

	return &StoreMetrics{
		OpCount:    opCount,
		OpDuration: opDuration,
		BytesSaved: bytesSaved,
	}
}

func (hm *HandlerMetrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(hm.gatherer, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records count and latency per chi route pattern.
func (hm *HandlerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				endpoint = pattern
			}
		}

		status := strconv.Itoa(rec.status)
		duration := time.Since(startTime).Seconds()
		hm.RequestCount.WithLabelValues(r.Method, endpoint, status).Inc()
		hm.RequestDuration.WithLabelValues(r.Method, endpoint, status).Observe(duration)
	})
}
