package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set holds every collector the core emits. The registry is injected so
// tests can construct isolated instances; a nil *Set disables recording.
type Set struct {
	EmbedCalls      *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	Matches         prometheus.Counter
	NoMatches       prometheus.Counter
	PoolExhausted   prometheus.Counter
	IndexedRecords  prometheus.Gauge
	EligibleCredits prometheus.Gauge
}

func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)

	return &Set{
		EmbedCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qabot_embed_calls_total",
			Help: "Outbound embedding calls by outcome.",
		}, []string{"outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "qabot_vector_cache_hits_total",
			Help: "Vector cache lookups served without an embedding call.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "qabot_vector_cache_misses_total",
			Help: "Vector cache lookups that required a fresh embedding.",
		}),
		Matches: factory.NewCounter(prometheus.CounterOpts{
			Name: "qabot_matches_total",
			Help: "Messages answered by a knowledge-base match.",
		}),
		NoMatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "qabot_no_matches_total",
			Help: "Messages with no match above the similarity threshold.",
		}),
		PoolExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "qabot_pool_exhausted_total",
			Help: "Embedding calls that found no eligible credential.",
		}),
		IndexedRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qabot_indexed_records",
			Help: "Records searchable in the current index snapshot.",
		}),
		EligibleCredits: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qabot_eligible_credentials",
			Help: "Credentials currently eligible for embedding calls.",
		}),
	}
}

func (s *Set) RecordEmbed(outcome string) {
	if s == nil {
		return
	}
	s.EmbedCalls.WithLabelValues(outcome).Inc()
}

func (s *Set) RecordCacheHit(hit bool) {
	if s == nil {
		return
	}
	if hit {
		s.CacheHits.Inc()
	} else {
		s.CacheMisses.Inc()
	}
}

func (s *Set) RecordMatch(matched bool) {
	if s == nil {
		return
	}
	if matched {
		s.Matches.Inc()
	} else {
		s.NoMatches.Inc()
	}
}

func (s *Set) RecordExhausted() {
	if s == nil {
		return
	}
	s.PoolExhausted.Inc()
}

func (s *Set) SetIndexedRecords(n int) {
	if s == nil {
		return
	}
	s.IndexedRecords.Set(float64(n))
}

func (s *Set) SetEligibleCredentials(n int) {
	if s == nil {
		return
	}
	s.EligibleCredits.Set(float64(n))
}
