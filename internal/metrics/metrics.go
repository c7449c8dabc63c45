// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics holds the Prometheus instrumentation for the pipeline,
// following the teacher's pattern of a package-scoped struct of counters
// and histograms guarded by sync.Once and registered exactly once, with
// small record* helper functions called from the stage and orchestrator
// code instead of every package touching prometheus directly.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StageName identifies a pipeline stage for per-stage counters/histograms.
type StageName string

const (
	StageInputAdapter    StageName = "input_adapter"
	StageSpellCorrect    StageName = "spell_correct"
	StageTokenize        StageName = "tokenize"
	StageLanguageID      StageName = "language_id"
	StageScriptTag       StageName = "script_tag"
	StageCodeMix         StageName = "code_mix"
	StageTransliteration StageName = "transliteration"
	StageFeatureExtract  StageName = "feature_extract"
	StageSynonym         StageName = "synonym"
	StageEmbedding       StageName = "embedding"
	StageVectorSearch    StageName = "vector_search"
	StageProductResolve  StageName = "product_resolve"
)

type pipelineMetrics struct {
	once sync.Once

	stageInvocations *prometheus.CounterVec
	stageSkips       *prometheus.CounterVec
	stageErrors      *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec

	earlyExits     prometheus.Counter
	requestsTotal  prometheus.Counter
	requestsFailed prometheus.Counter

	stageDuration *prometheus.HistogramVec
	totalDuration prometheus.Histogram
}

var m pipelineMetrics

// buckets spans the 5ms CPU-bound stages through multi-second cold
// transliteration calls, matching the ladder the teacher uses for its own
// ingestion durations.
var buckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

func (pm *pipelineMetrics) init() {
	pm.once.Do(func() {
		pm.stageInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preprocess_stage_invocations_total",
			Help: "Number of times each pipeline stage ran to completion",
		}, []string{"stage"})

		pm.stageSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preprocess_stage_skips_total",
			Help: "Number of times each pipeline stage was skipped",
		}, []string{"stage"})

		pm.stageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preprocess_stage_errors_total",
			Help: "Number of per-request faults raised by each stage",
		}, []string{"stage"})

		pm.cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preprocess_cache_hits_total",
			Help: "Cache hits per named cache",
		}, []string{"cache"})

		pm.cacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "preprocess_cache_misses_total",
			Help: "Cache misses per named cache",
		}, []string{"cache"})

		pm.earlyExits = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preprocess_early_exits_total",
			Help: "Requests resolved via the product-code early exit",
		})

		pm.requestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preprocess_requests_total",
			Help: "Total pipeline requests processed",
		})

		pm.requestsFailed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "preprocess_requests_failed_total",
			Help: "Total pipeline requests that raised a hard fault",
		})

		pm.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "preprocess_stage_duration_seconds",
			Help:    "Per-stage latency",
			Buckets: buckets,
		}, []string{"stage"})

		pm.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "preprocess_total_duration_seconds",
			Help:    "End-to-end pipeline latency",
			Buckets: buckets,
		})

		prometheus.MustRegister(
			pm.stageInvocations, pm.stageSkips, pm.stageErrors,
			pm.cacheHits, pm.cacheMisses,
			pm.earlyExits, pm.requestsTotal, pm.requestsFailed,
			pm.stageDuration, pm.totalDuration,
		)
	})
}

// RecordStageRun records that a stage ran and how long it took.
func RecordStageRun(stage StageName, seconds float64) {
	m.init()
	m.stageInvocations.WithLabelValues(string(stage)).Inc()
	m.stageDuration.WithLabelValues(string(stage)).Observe(seconds)
}

// RecordStageSkip records that a stage was bypassed by skip logic.
func RecordStageSkip(stage StageName) {
	m.init()
	m.stageSkips.WithLabelValues(string(stage)).Inc()
}

// RecordStageError records a per-request fault raised by a stage.
func RecordStageError(stage StageName) {
	m.init()
	m.stageErrors.WithLabelValues(string(stage)).Inc()
}

// RecordCacheHit/RecordCacheMiss track hit rate per named cache, feeding the
// orchestrator's aggregate cache_hit_rate metric (spec.md §6.6).
func RecordCacheHit(cacheName string) {
	m.init()
	m.cacheHits.WithLabelValues(cacheName).Inc()
}

func RecordCacheMiss(cacheName string) {
	m.init()
	m.cacheMisses.WithLabelValues(cacheName).Inc()
}

// RecordEarlyExit records a request resolved via the product-code early exit.
func RecordEarlyExit() {
	m.init()
	m.earlyExits.Inc()
}

// RecordRequest records a completed request and its total latency.
func RecordRequest(seconds float64, failed bool) {
	m.init()
	m.requestsTotal.Inc()
	m.totalDuration.Observe(seconds)
	if failed {
		m.requestsFailed.Inc()
	}
}
