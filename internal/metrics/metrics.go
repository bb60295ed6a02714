// Package metrics exposes Prometheus instrumentation for rule validation and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firewall-rule-engine/internal/model"
)

// Collector owns a private registry so tests and embedded servers never
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	validations      *prometheus.CounterVec
	rulesParsed      prometheus.Counter
	validationErrors prometheus.Counter

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "fwrules"
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Rule documents validated, by outcome",
			},
			[]string{"outcome"},
		),
		rulesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_parsed_total",
			Help:      "Rules that parsed successfully",
		}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Validation errors reported",
		}),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests handled, by route and status code",
			},
			[]string{"route", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"route"},
		),
	}
	c.registry.MustRegister(
		c.validations,
		c.rulesParsed,
		c.validationErrors,
		c.requestsTotal,
		c.requestDuration,
	)
	return c
}

// ObserveValidation records one validated document.
func (c *Collector) ObserveValidation(res model.ValidationResult) {
	if c == nil {
		return
	}
	outcome := "valid"
	if !res.Valid {
		outcome = "invalid"
	}
	c.validations.WithLabelValues(outcome).Inc()
	c.rulesParsed.Add(float64(res.RuleCount))
	c.validationErrors.Add(float64(len(res.Errors)))
}

func (c *Collector) ObserveRequest(route string, code int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
