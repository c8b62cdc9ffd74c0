package gepa

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	budgetDecrements = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_budget_decrements_total",
		Help: "LLM call budget decrements, attributed by tag.",
	}, []string{"tag"})

	budgetRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gepa_budget_remaining",
		Help: "Remaining LLM call budget for the active run.",
	})
)

// registerBudgetMetrics registers the budget collectors with reg,
// tolerating a collector that is already registered (re-registration
// happens across tests in the same process).
func registerBudgetMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{budgetDecrements, budgetRemaining} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				continue
			}
		}
	}
}

// BudgetAccountant is the single authority for remaining LLM call
// budget. It is always authoritative: a budget of zero on construction
// is the engine's cancellation signal, not a request to disable
// enforcement.
type BudgetAccountant struct {
	mu        sync.Mutex
	remaining int
	decrements map[string]int
}

// NewBudgetAccountant constructs an accountant with the given total
// budget. A negative total is clamped to zero.
func NewBudgetAccountant(total int) *BudgetAccountant {
	if total < 0 {
		total = 0
	}
	return &BudgetAccountant{
		remaining:  total,
		decrements: make(map[string]int),
	}
}

// Remaining reports the current remaining budget.
func (b *BudgetAccountant) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// CanAfford reports whether n further calls can be made without going
// negative.
func (b *BudgetAccountant) CanAfford(n int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining >= n
}

// Dec decrements the budget by n, attributed to tag for telemetry. It is
// the caller's responsibility to have already checked CanAfford; Dec
// clamps at zero rather than going negative.
func (b *BudgetAccountant) Dec(n int, tag string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tag == "" {
		tag = "untagged"
	}
	b.decrements[tag] += n
	b.remaining -= n
	if b.remaining < 0 {
		b.remaining = 0
	}
	budgetDecrements.WithLabelValues(tag).Add(float64(n))
	budgetRemaining.Set(float64(b.remaining))
}

// Decrements returns a snapshot of per-tag decrement totals.
func (b *BudgetAccountant) Decrements() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.decrements))
	for k, v := range b.decrements {
		out[k] = v
	}
	return out
}
