package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	TenantConnections    prometheus.Gauge
	TenantConnectErrors  prometheus.Counter
	ProvisioningFailures *prometheus.CounterVec
	AuthzDecisions       *prometheus.CounterVec

	initOnce sync.Once
)

// Init 注册全部指标，只生效一次；未调用 Init 时下面的记录函数均为空操作
func Init(prefix string) {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		)

		TenantConnections = promauto.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_tenant_connections",
			Help: "Number of cached tenant database connections",
		})

		TenantConnectErrors = promauto.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_tenant_connect_errors_total",
			Help: "Total number of failed tenant database connection attempts",
		})

		ProvisioningFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_provisioning_failures_total",
				Help: "Total number of failed collection provisioning steps",
			},
			[]string{"kind"},
		)

		AuthzDecisions = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_authz_decisions_total",
				Help: "Permission evaluation outcomes",
			},
			[]string{"decision"},
		)
	})
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

func ObserveRequest(method, path, status string, d time.Duration) {
	if HTTPRequestsTotal == nil {
		return
	}
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func SetTenantConnections(n int) {
	if TenantConnections != nil {
		TenantConnections.Set(float64(n))
	}
}

func IncTenantConnectErrors() {
	if TenantConnectErrors != nil {
		TenantConnectErrors.Inc()
	}
}

func IncProvisioningFailure(kind string) {
	if ProvisioningFailures != nil {
		ProvisioningFailures.WithLabelValues(kind).Inc()
	}
}

func IncAuthzDecision(decision string) {
	if AuthzDecisions != nil {
		AuthzDecisions.WithLabelValues(decision).Inc()
	}
}
