package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:8000/v1", cfg.LLM.URL)
	assert.Equal(t, 4096, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)

	assert.Equal(t, 200, cfg.GEPA.Budget)
	assert.Equal(t, 4, cfg.GEPA.MinibatchSize)
	assert.Equal(t, 20, cfg.GEPA.ParetoSize)
	assert.Equal(t, "muf", cfg.GEPA.ScoreForPareto)
	assert.Equal(t, "json", cfg.GEPA.CheckpointFormat)
	assert.True(t, cfg.GEPA.MufCosts)
	assert.False(t, cfg.GEPA.ParallelMinibatch)

	require.NoError(t, cfg.Validate())
}

func TestToEngineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GEPA.Budget = 50
	cfg.GEPA.ScoreForPareto = "mu"
	cfg.GEPA.CheckpointFormat = "msgpack"

	engineCfg := cfg.GEPA.ToEngineConfig()

	assert.Equal(t, 50, engineCfg.Budget)
	assert.Equal(t, "mu", string(engineCfg.ScoreForPareto))
	assert.Equal(t, "msgpack", string(engineCfg.CheckpointFormat))
	// fields not exposed at the CLI layer still get engine defaults
	assert.NotZero(t, engineCfg.StrategySchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEPA_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("GEPA_LLM_URL", "http://example.com/v1")
	t.Setenv("GEPA_LLM_MODEL", "test-model")
	t.Setenv("GEPA_BUDGET", "500")
	t.Setenv("GEPA_MINIBATCH_SIZE", "8")
	t.Setenv("GEPA_MUF_COSTS", "false")
	t.Setenv("GEPA_SCORE_FOR_PARETO", "mu")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/v1", cfg.LLM.URL)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	assert.Equal(t, 500, cfg.GEPA.Budget)
	assert.Equal(t, 8, cfg.GEPA.MinibatchSize)
	assert.False(t, cfg.GEPA.MufCosts)
	assert.Equal(t, "mu", cfg.GEPA.ScoreForPareto)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"llm":{"url":"http://file.example/v1","model":"file-model","max_tokens":1024,"temperature":0.5},"gepa":{"budget":75,"minibatch_size":3,"pareto_size":10,"holdout_size":2,"epsilon_holdout":0,"score_for_pareto":"mu","crossover_probability":0.2,"checkpoint_format":"json"}}`), 0o644))
	t.Setenv("GEPA_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://file.example/v1", cfg.LLM.URL)
	assert.Equal(t, "file-model", cfg.LLM.Model)
	assert.Equal(t, 75, cfg.GEPA.Budget)
	assert.Equal(t, 3, cfg.GEPA.MinibatchSize)
}

func TestValidate_LLMURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://localhost:8000/v1", false},
		{"valid https", "https://api.example.com/v1", false},
		{"empty", "", true},
		{"no scheme", "localhost:8000", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.URL = tt.url
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_LLMTemperature(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		wantErr     bool
	}{
		{"zero", 0.0, false},
		{"mid", 1.0, false},
		{"max", 2.0, false},
		{"negative", -0.1, true},
		{"too high", 2.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LLM.Temperature = tt.temperature
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_LLMMaxTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.MaxTokens = 0
	assert.Error(t, cfg.Validate())

	cfg.LLM.MaxTokens = -1
	assert.Error(t, cfg.Validate())

	cfg.LLM.MaxTokens = 1
	assert.NoError(t, cfg.Validate())
}

func TestValidate_GEPABudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GEPA.Budget = -1
	assert.Error(t, cfg.Validate())

	cfg.GEPA.Budget = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidate_GEPAMinibatchSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GEPA.MinibatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg.GEPA.MinibatchSize = -1
	assert.Error(t, cfg.Validate())

	cfg.GEPA.MinibatchSize = 1
	assert.NoError(t, cfg.Validate())
}

func TestValidate_GEPACrossoverProbability(t *testing.T) {
	tests := []struct {
		name    string
		prob    float64
		wantErr bool
	}{
		{"zero", 0.0, false},
		{"one", 1.0, false},
		{"mid", 0.5, false},
		{"negative", -0.01, true},
		{"above one", 1.01, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.GEPA.CrossoverProbability = tt.prob
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_GEPAScoreForPareto(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GEPA.ScoreForPareto = "mu"
	assert.NoError(t, cfg.Validate())

	cfg.GEPA.ScoreForPareto = "muf"
	assert.NoError(t, cfg.Validate())

	cfg.GEPA.ScoreForPareto = "bogus"
	assert.Error(t, cfg.Validate())
}

func TestValidate_GEPACheckpointFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GEPA.CheckpointFormat = "json"
	assert.NoError(t, cfg.Validate())

	cfg.GEPA.CheckpointFormat = "msgpack"
	assert.NoError(t, cfg.Validate())

	cfg.GEPA.CheckpointFormat = "xml"
	assert.Error(t, cfg.Validate())
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, isValidURL("http://localhost:8000"))
	assert.True(t, isValidURL("https://api.example.com/v1"))
	assert.False(t, isValidURL(""))
	assert.False(t, isValidURL("not-a-url"))
	assert.False(t, isValidURL("http://"))
}

func TestGetConfigPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("GEPA_CONFIG", "/tmp/custom-config.json")
		assert.Equal(t, "/tmp/custom-config.json", getConfigPath())
	})

	t.Run("default", func(t *testing.T) {
		t.Setenv("GEPA_CONFIG", "")
		path := getConfigPath()
		assert.Contains(t, path, "config.json")
	})
}
