package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ops counts domain operations by name and outcome ("ok", "client_error",
// "error"). Exposed on /metrics via the default registry.
var Ops = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classtrack_ops_total",
	Help: "Domain operations processed, by operation and outcome.",
}, []string{"op", "outcome"})

// CacheHits counts read-through cache hits and misses for the date-keyed
// list endpoints.
var CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classtrack_cache_requests_total",
	Help: "Cache lookups for date-keyed list queries, by query and result.",
}, []string{"query", "result"})
