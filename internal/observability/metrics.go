package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics группирует все Prometheus-метрики сервиса.
// Методы безопасны для nil-получателя: без метрик сервис работает так же.
type Metrics struct {
	MemoryOps    *prometheus.CounterVec
	Commands     *prometheus.CounterVec
	Completions  *prometheus.CounterVec
	Replies      *prometheus.CounterVec
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MemoryOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_operations_total",
			Help:      "Session memory operations by backend, operation and result.",
		}, []string{"backend", "op", "result"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Handled bot commands by name.",
		}, []string{"command"}),
		Completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Language model completions by result.",
		}, []string{"result"}),
		Replies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies sent to the chat platform by result.",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Inbound HTTP requests by method and status.",
		}, []string{"method", "status"}),
	}
}

func (m *Metrics) MemoryOp(backend, op string, err error) {
	if m == nil {
		return
	}
	m.MemoryOps.WithLabelValues(backend, op, result(err)).Inc()
}

func (m *Metrics) Command(name string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(name).Inc()
}

func (m *Metrics) Completion(err error) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) Reply(err error) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) HTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler отдаёт метрики из gatherer в формате Prometheus.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
