package gepa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveScheduler_EmptyWindowUsesMaxProbabilities(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	s := NewAdaptiveScheduler(cfg)

	explore, noHint := s.Probabilities()
	assert.Equal(t, cfg.MaxExploreProb, explore)
	assert.Equal(t, cfg.MaxNoHintProb, noHint)
}

func TestAdaptiveScheduler_StagnationUsesMaxProbabilities(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.SlowdownThreshold = 0.01
	s := NewAdaptiveScheduler(cfg)

	for i := 0; i < 5; i++ {
		s.Push(0.0)
	}

	explore, noHint := s.Probabilities()
	assert.Equal(t, cfg.MaxExploreProb, explore)
	assert.Equal(t, cfg.MaxNoHintProb, noHint)
}

func TestAdaptiveScheduler_HealthyProgressInterpolatesDown(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.SlowdownThreshold = 0.01
	cfg.BaseExploreProb = 0.05
	cfg.MaxExploreProb = 0.3
	s := NewAdaptiveScheduler(cfg)

	for i := 0; i < 5; i++ {
		s.Push(0.1) // mean >> slowdownThreshold: strong progress
	}

	explore, _ := s.Probabilities()
	assert.Less(t, explore, cfg.MaxExploreProb)
	assert.GreaterOrEqual(t, explore, cfg.BaseExploreProb)
}

func TestAdaptiveScheduler_WindowEvictsOldest(t *testing.T) {
	cfg := DefaultSchedulerConfig()
	cfg.WindowSize = 3
	s := NewAdaptiveScheduler(cfg)

	s.Push(1)
	s.Push(2)
	s.Push(3)
	s.Push(4)

	assert.Equal(t, []float64{2, 3, 4}, s.Window())
}
