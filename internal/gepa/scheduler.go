package gepa

import "sync"

// SchedulerConfig holds the adaptive-scheduler tunables from the
// strategySchedule configuration block.
type SchedulerConfig struct {
	WindowSize               int     `json:"windowSize"`
	SlowdownThreshold        float64 `json:"slowdownThreshold"`
	BaseExploreProb          float64 `json:"baseExploreProb"`
	MaxExploreProb           float64 `json:"maxExploreProb"`
	BaseNoHintProb           float64 `json:"baseNoHintProb"`
	MaxNoHintProb            float64 `json:"maxNoHintProb"`
	DefaultCoreTopK          int     `json:"defaultCoreTopK"`
	PrefilterThreshold       float64 `json:"prefilterThreshold"`
	PrefilterTopK            int     `json:"prefilterTopK"`
	ReprefilterCooldownIters int     `json:"reprefilterCooldownIters"`
}

// DefaultSchedulerConfig mirrors typical GEPA defaults observed across
// the literature this engine follows: mild exploration, rare no-hint
// rounds, and a short cooldown between re-prefilter attempts.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		WindowSize:               10,
		SlowdownThreshold:        0.01,
		BaseExploreProb:          0.05,
		MaxExploreProb:           0.3,
		BaseNoHintProb:           0.0,
		MaxNoHintProb:            0.15,
		DefaultCoreTopK:          3,
		PrefilterThreshold:       0.3,
		PrefilterTopK:            0,
		ReprefilterCooldownIters: 20,
	}
}

// AdaptiveScheduler tracks a sliding window of per-iteration uplift
// (sigma' - sigma) and derives explore/no-hint probabilities from it.
type AdaptiveScheduler struct {
	mu     sync.Mutex
	cfg    SchedulerConfig
	window []float64
}

func NewAdaptiveScheduler(cfg SchedulerConfig) *AdaptiveScheduler {
	return &AdaptiveScheduler{cfg: cfg}
}

// Push records a new uplift value, evicting the oldest once the window
// is full.
func (s *AdaptiveScheduler) Push(uplift float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = append(s.window, uplift)
	if len(s.window) > s.cfg.WindowSize && s.cfg.WindowSize > 0 {
		s.window = s.window[len(s.window)-s.cfg.WindowSize:]
	}
}

func (s *AdaptiveScheduler) meanLocked() float64 {
	if len(s.window) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.window {
		sum += v
	}
	return sum / float64(len(s.window))
}

// Probabilities returns the current (exploreProb, noHintProb) pair.
func (s *AdaptiveScheduler) Probabilities() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mean := s.meanLocked()
	if mean <= s.cfg.SlowdownThreshold {
		return s.cfg.MaxExploreProb, s.cfg.MaxNoHintProb
	}

	ratio := clamp(s.cfg.SlowdownThreshold/mean, 0, 1)
	explore := s.cfg.BaseExploreProb + ratio*(s.cfg.MaxExploreProb-s.cfg.BaseExploreProb)
	noHint := s.cfg.BaseNoHintProb + ratio*(s.cfg.MaxNoHintProb-s.cfg.BaseNoHintProb)
	if explore > s.cfg.MaxExploreProb {
		explore = s.cfg.MaxExploreProb
	}
	if noHint > s.cfg.MaxNoHintProb {
		noHint = s.cfg.MaxNoHintProb
	}
	return explore, noHint
}

// Window returns a copy of the current uplift window, for checkpoint
// diagnostics and tests.
func (s *AdaptiveScheduler) Window() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64{}, s.window...)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
