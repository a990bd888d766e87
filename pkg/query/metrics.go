package query

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	hits          *prometheus.CounterVec
	staleHits     *prometheus.CounterVec
	misses        *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
	dropped       *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	purges        prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	vec := func(name, help string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "codestack",
			Subsystem: "query_cache",
			Name:      name,
			Help:      help,
		}, []string{"resource"})
	}

	return &metrics{
		hits:          vec("hits_total", "Reads served from a fresh entry"),
		staleHits:     vec("stale_hits_total", "Reads served from a stale entry while revalidating"),
		misses:        vec("misses_total", "Reads with no usable entry"),
		fetches:       vec("fetches_total", "Requests issued to the backend"),
		fetchErrors:   vec("fetch_errors_total", "Requests that failed"),
		dropped:       vec("dropped_responses_total", "Responses discarded because a newer generation exists"),
		invalidations: vec("invalidations_total", "Entries marked stale by a mutation"),
		purges: f.NewCounter(prometheus.CounterOpts{
			Namespace: "codestack",
			Subsystem: "query_cache",
			Name:      "purges_total",
			Help:      "Full cache purges after an authorization failure",
		}),
	}
}

// Stats is the cache counters summed over every resource.
type Stats struct {
	Hits          int
	StaleHits     int
	Misses        int
	Fetches       int
	FetchErrors   int
	Dropped       int
	Invalidations int
	Purges        int
}

// Stats gathers the registry and totals each counter.
func (c *Cache) Stats() (Stats, error) {
	families, err := c.reg.Gather()
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	for _, mf := range families {
		total := 0.0
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		n := int(total)

		switch strings.TrimPrefix(mf.GetName(), "codestack_query_cache_") {
		case "hits_total":
			s.Hits = n
		case "stale_hits_total":
			s.StaleHits = n
		case "misses_total":
			s.Misses = n
		case "fetches_total":
			s.Fetches = n
		case "fetch_errors_total":
			s.FetchErrors = n
		case "dropped_responses_total":
			s.Dropped = n
		case "invalidations_total":
			s.Invalidations = n
		case "purges_total":
			s.Purges = n
		}
	}
	return s, nil
}
