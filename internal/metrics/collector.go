// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 指标收集器
type Collector struct {
	// 生成指标
	generationsTotal    *prometheus.CounterVec
	generationDuration  *prometheus.HistogramVec
	attemptsPerTask     *prometheus.HistogramVec
	retriesTotal        *prometheus.CounterVec
	violationsTotal     *prometheus.CounterVec

	// LLM 请求指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器。
// reg 为 nil 时注册到默认 Registry。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 生成指标
	c.generationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of structured generation tasks by outcome",
		},
		[]string{"provider", "model", "outcome"},
	)

	c.generationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "End-to-end structured generation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.attemptsPerTask = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempts_per_task",
			Help:      "Number of generation attempts consumed per task",
			Buckets:   []float64{1, 2},
		},
		[]string{"provider", "model"},
	)

	c.retriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Total number of validation-driven retries",
		},
		[]string{"provider", "model"},
	)

	c.violationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of schema violations by constraint",
		},
		[]string{"constraint"},
	)

	// LLM 请求指标
	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"provider", "model", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "model", "type"},
	)

	return c
}

// RecordGeneration 记录一次生成任务的结果。
func (c *Collector) RecordGeneration(provider, model, outcome string, attempts int, duration time.Duration) {
	c.generationsTotal.WithLabelValues(provider, model, outcome).Inc()
	c.generationDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	c.attemptsPerTask.WithLabelValues(provider, model).Observe(float64(attempts))
}

// RecordRetry 记录一次校验驱动的重试。
func (c *Collector) RecordRetry(provider, model string) {
	c.retriesTotal.WithLabelValues(provider, model).Inc()
}

// RecordViolation 按约束名记录一条违规。
func (c *Collector) RecordViolation(constraint string) {
	c.violationsTotal.WithLabelValues(constraint).Inc()
}

// RecordLLMRequest 记录一次 LLM 请求。
func (c *Collector) RecordLLMRequest(provider, model, status string, duration time.Duration) {
	c.llmRequestsTotal.WithLabelValues(provider, model, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordTokens 记录 token 用量。
func (c *Collector) RecordTokens(provider, model string, promptTokens, completionTokens int) {
	c.llmTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	c.llmTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
}
