package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prodpilot/prodpilot/pkg/metrics"
)

type Metrics struct {
	apiResponseTime   *prometheus.HistogramVec
	apiErrorCounter   *prometheus.CounterVec
	embeddingTime     *prometheus.HistogramVec
	embeddingError    *prometheus.CounterVec
	documentsIngested *prometheus.CounterVec
	ingestQueueDepth  *prometheus.GaugeVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:   metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:   metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		embeddingTime:     metrics.NewHistogramVec("embedding_request_time", []string{"model"}),
		embeddingError:    metrics.NewCounterVec("embedding_error", []string{"model"}),
		documentsIngested: metrics.NewCounterVec("documents_ingested", []string{"result"}),
		ingestQueueDepth:  metrics.NewGaugeVec("ingest_queue_depth", nil),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) EmbeddingTimer(model string) *prometheus.Timer {
	return prometheus.NewTimer(m.embeddingTime.WithLabelValues(model))
}

func (m *Metrics) EmbeddingErrorInc(model string) {
	m.embeddingError.WithLabelValues(model).Inc()
}

func (m *Metrics) DocumentIngestedInc(result string) {
	m.documentsIngested.WithLabelValues(result).Inc()
}

func (m *Metrics) SetIngestQueueDepth(depth int) {
	m.ingestQueueDepth.WithLabelValues().Set(float64(depth))
}
