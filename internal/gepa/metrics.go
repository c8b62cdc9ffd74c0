package gepa

import "github.com/prometheus/client_golang/prometheus"

var (
	iterationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gepa_iterations_total",
		Help: "Total main-loop iterations executed.",
	})

	acceptancesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_acceptances_total",
		Help: "Accepted vs rejected iterations.",
	}, []string{"accepted", "operator"})

	prefilterRerunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gepa_prefilter_reruns_total",
		Help: "Number of adaptive prefilter re-runs triggered by stagnation.",
	})
)

// RegisterMetrics registers every engine collector with reg. Safe to
// call once per process; a nil reg registers nothing.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	registerBudgetMetrics(reg)
	registerBanditMetrics(reg)
	for _, c := range []prometheus.Collector{iterationsTotal, acceptancesTotal, prefilterRerunsTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				continue
			}
		}
	}
}
