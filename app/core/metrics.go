package core

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vieagent/vieagent/pkg/metrics"
)

type Metrics struct {
	documentsIndexed *prometheus.CounterVec
	chunksStored     *prometheus.CounterVec
	indexTime        *prometheus.HistogramVec
	embeddingTime    *prometheus.HistogramVec
	searchTime       *prometheus.HistogramVec
	searchCacheHits  *prometheus.CounterVec
	searchFallbacks  *prometheus.CounterVec
	parseRecoveries  *prometheus.CounterVec
	batchDuration    *prometheus.HistogramVec
	retentionDeleted *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		documentsIndexed: metrics.NewCounterVec("documents_indexed", []string{"collection", "stage"}),
		chunksStored:     metrics.NewCounterVec("chunks_stored", []string{"collection"}),
		indexTime:        metrics.NewHistogramVec("index_time", []string{"collection"}),
		embeddingTime:    metrics.NewHistogramVec("embedding_time", []string{"driver"}),
		searchTime:       metrics.NewHistogramVec("search_time", []string{"collection"}),
		searchCacheHits:  metrics.NewCounterVec("search_cache_hits", []string{"collection"}),
		searchFallbacks:  metrics.NewCounterVec("search_fallbacks", []string{"collection"}),
		parseRecoveries:  metrics.NewCounterVec("parse_encoding_recoveries", []string{"source"}),
		batchDuration:    metrics.NewHistogramVec("batch_duration", []string{"mode"}),
		retentionDeleted: metrics.NewCounterVec("retention_deleted", []string{"table"}),
	}

	return m
}

func (m *Metrics) DocumentIndexedInc(collection, stage string) {
	m.documentsIndexed.WithLabelValues(collection, stage).Inc()
}

func (m *Metrics) ChunksStoredAdd(collection string, n int) {
	m.chunksStored.WithLabelValues(collection).Add(float64(n))
}

func (m *Metrics) IndexTimer(collection string) *prometheus.Timer {
	return prometheus.NewTimer(m.indexTime.WithLabelValues(collection))
}

func (m *Metrics) EmbeddingTimer(driver string) *prometheus.Timer {
	return prometheus.NewTimer(m.embeddingTime.WithLabelValues(driver))
}

func (m *Metrics) SearchTimer(collection string) *prometheus.Timer {
	return prometheus.NewTimer(m.searchTime.WithLabelValues(collection))
}

func (m *Metrics) SearchCacheHitInc(collection string) {
	m.searchCacheHits.WithLabelValues(collection).Inc()
}

func (m *Metrics) SearchFallbackInc(collection string) {
	m.searchFallbacks.WithLabelValues(collection).Inc()
}

func (m *Metrics) ParseRecoveryInc(source string) {
	m.parseRecoveries.WithLabelValues(source).Inc()
}

func (m *Metrics) BatchTimer(mode string) *prometheus.Timer {
	return prometheus.NewTimer(m.batchDuration.WithLabelValues(mode))
}

func (m *Metrics) RetentionDeletedAdd(table string, n int64) {
	m.retentionDeleted.WithLabelValues(table).Add(float64(n))
}
