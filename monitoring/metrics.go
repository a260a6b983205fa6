package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 预测服务指标
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     prometheus.Histogram
	cacheHits   prometheus.Counter
	probability prometheus.Histogram
}

// NewMetrics 创建指标收集器，使用独立的registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditrisk",
			Name:      "predictions_total",
			Help:      "Completed predictions by risk label, cache hits included.",
		}, []string{"label"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "creditrisk",
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by stage.",
		}, []string{"stage"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "creditrisk",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent scaling and classifying one vector.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "creditrisk",
			Name:      "prediction_cache_hits_total",
			Help:      "Predictions served from the memo cache.",
		}),
		probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "creditrisk",
			Name:      "prediction_probability",
			Help:      "Distribution of HighRisk probabilities returned.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
	}
	registry.MustRegister(
		m.predictions,
		m.failures,
		m.latency,
		m.cacheHits,
		m.probability,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePrediction 记录一次成功预测
func (m *Metrics) ObservePrediction(label string, probability float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(label).Inc()
	m.probability.Observe(probability)
	m.latency.Observe(duration.Seconds())
}

// ObserveFailure 记录一次失败预测
func (m *Metrics) ObserveFailure(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}

// ObserveCacheHit 记录缓存命中
func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// Registry 返回底层registry，便于测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
