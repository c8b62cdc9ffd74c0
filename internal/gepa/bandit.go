package gepa

import (
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var sqrt2 = math.Sqrt2

var (
	banditPulls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gepa_bandit_pulls_total",
		Help: "Number of times each bandit arm has been pulled.",
	}, []string{"arm"})

	banditMeanReward = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gepa_bandit_mean_reward",
		Help: "Running mean reward for each bandit arm.",
	}, []string{"arm"})
)

func registerBanditMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{banditPulls, banditMeanReward} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				continue
			}
		}
	}
}

// ArmStat is one bandit arm's pull count and running mean reward.
type ArmStat struct {
	ID   string  `json:"id"`
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
}

// BanditState is the serializable form of a Bandit.
type BanditState struct {
	T     int       `json:"t"`
	Stats []ArmStat `json:"stats"`
}

// Bandit is a UCB1 multi-armed bandit over a fixed set of strategy ids.
type Bandit struct {
	mu    sync.Mutex
	t     int
	order []string
	stats map[string]*ArmStat
}

// NewBandit constructs a bandit over the given arm ids, each starting
// unpulled.
func NewBandit(ids []string) *Bandit {
	b := &Bandit{
		order: append([]string{}, ids...),
		stats: make(map[string]*ArmStat, len(ids)),
	}
	for _, id := range ids {
		b.stats[id] = &ArmStat{ID: id}
	}
	return b
}

// Pick returns the arm id maximizing mean + c*sqrt(ln(t)/n), c = sqrt(2).
// An unpulled arm has infinite priority. Ties broken by arm order.
func (b *Bandit) Pick() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	best := ""
	bestScore := math.Inf(-1)
	for _, id := range b.order {
		s := b.stats[id]
		var score float64
		if s.N == 0 {
			score = math.Inf(1)
		} else {
			score = s.Mean + sqrt2*math.Sqrt(math.Log(float64(max(b.t, 1)))/float64(s.N))
		}
		if score > bestScore {
			bestScore = score
			best = id
		}
	}
	return best
}

// Update clamps reward to [0,1] and folds it into arm id's running mean.
// A no-op for an unknown id.
func (b *Bandit) Update(id string, reward float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.stats[id]
	if !ok {
		return
	}
	if reward < 0 {
		reward = 0
	}
	if reward > 1 {
		reward = 1
	}
	b.t++
	s.N++
	s.Mean += (reward - s.Mean) / float64(s.N)

	banditPulls.WithLabelValues(id).Inc()
	banditMeanReward.WithLabelValues(id).Set(s.Mean)
}

// Serialize returns a snapshot suitable for JSON persistence.
func (b *Bandit) Serialize() BanditState {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := make([]ArmStat, 0, len(b.order))
	for _, id := range b.order {
		stats = append(stats, *b.stats[id])
	}
	return BanditState{T: b.t, Stats: stats}
}

// DeserializeBandit reconstructs a Bandit from a snapshot, preserving
// arm order as it appears in the snapshot.
func DeserializeBandit(state BanditState) *Bandit {
	order := make([]string, 0, len(state.Stats))
	stats := make(map[string]*ArmStat, len(state.Stats))
	for _, s := range state.Stats {
		sc := s
		order = append(order, s.ID)
		stats[s.ID] = &sc
	}
	return &Bandit{t: state.T, order: order, stats: stats}
}

// Arms returns the arm ids in their constructed order.
func (b *Bandit) Arms() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.order...)
}
