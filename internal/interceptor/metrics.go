package interceptor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 网关指标，暴露在私有监听端口的 /metrics
var (
	metricCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notevault",
		Subsystem: "interceptor",
		Name:      "cache_hits_total",
		Help:      "Responses served from the generation cache.",
	}, []string{"class"})

	metricCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notevault",
		Subsystem: "interceptor",
		Name:      "cache_misses_total",
		Help:      "Cache lookups that fell through to the network or asset source.",
	}, []string{"class"})

	metricFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notevault",
		Subsystem: "interceptor",
		Name:      "fallbacks_total",
		Help:      "Synthesized replacement responses.",
	}, []string{"class"})

	metricFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notevault",
		Subsystem: "interceptor",
		Name:      "fetch_failures_total",
		Help:      "Upstream fetches that failed or timed out.",
	})

	metricNetworkOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "notevault",
		Subsystem: "interceptor",
		Name:      "network_online",
		Help:      "Last probe result, 1 when upstream network is reachable.",
	})
)
