package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	sharedconfig "github.com/gepaopt/gepa/shared/config"

	"github.com/gepaopt/gepa/internal/gepa"
)

// Config holds all configuration for the gepa CLI.
type Config struct {
	LLM  LLMConfig  `json:"llm"`
	GEPA GEPAConfig `json:"gepa"`
}

// LLMConfig holds the actor/judge chat backend configuration.
type LLMConfig struct {
	URL         string  `json:"url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// GEPAConfig mirrors gepa.Config as a flat, env-overridable block. See
// ToEngineConfig for the mapping into the engine's own option type.
type GEPAConfig struct {
	Budget               int     `json:"budget"`
	MinibatchSize        int     `json:"minibatch_size"`
	ParetoSize           int     `json:"pareto_size"`
	HoldoutSize          int     `json:"holdout_size"`
	EpsilonHoldout       float64 `json:"epsilon_holdout"`
	MufCosts             bool    `json:"muf_costs"`
	ScoreForPareto       string  `json:"score_for_pareto"` // "mu" or "muf"
	CrossoverProbability float64 `json:"crossover_probability"`
	StrategiesPath       string  `json:"strategies_path"`
	ParallelMinibatch    bool    `json:"parallel_minibatch"`
	CheckpointFormat     string  `json:"checkpoint_format"` // "json" or "msgpack"
	LogLevel             string  `json:"log_level"`
	MetricsEnabled       bool    `json:"metrics_enabled"`
}

// ToEngineConfig converts the flat, serializable GEPAConfig into the
// engine's own gepa.Config, defaulting StrategySchedule since it is not
// exposed as a top-level CLI/env setting.
func (c GEPAConfig) ToEngineConfig() gepa.Config {
	cfg := gepa.DefaultConfig()
	cfg.Budget = c.Budget
	cfg.MinibatchSize = c.MinibatchSize
	cfg.ParetoSize = c.ParetoSize
	cfg.HoldoutSize = c.HoldoutSize
	cfg.EpsilonHoldout = c.EpsilonHoldout
	cfg.MufCosts = c.MufCosts
	cfg.CrossoverProbability = c.CrossoverProbability
	cfg.StrategiesPath = c.StrategiesPath
	cfg.ParallelMinibatch = c.ParallelMinibatch
	cfg.LogLevel = c.LogLevel
	cfg.MetricsEnabled = c.MetricsEnabled
	if c.ScoreForPareto == string(gepa.ScoreModeMu) {
		cfg.ScoreForPareto = gepa.ScoreModeMu
	} else {
		cfg.ScoreForPareto = gepa.ScoreModeMuF
	}
	if c.CheckpointFormat == string(gepa.FormatMsgpack) {
		cfg.CheckpointFormat = gepa.FormatMsgpack
	} else {
		cfg.CheckpointFormat = gepa.FormatJSON
	}
	return cfg
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	engineDefaults := gepa.DefaultConfig()

	return &Config{
		LLM: LLMConfig{
			URL:         "http://localhost:8000/v1",
			APIKey:      "",
			Model:       "Qwen/Qwen3-8B-AWQ",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		GEPA: GEPAConfig{
			Budget:               engineDefaults.Budget,
			MinibatchSize:        engineDefaults.MinibatchSize,
			ParetoSize:           engineDefaults.ParetoSize,
			HoldoutSize:          engineDefaults.HoldoutSize,
			EpsilonHoldout:       engineDefaults.EpsilonHoldout,
			MufCosts:             engineDefaults.MufCosts,
			ScoreForPareto:       string(engineDefaults.ScoreForPareto),
			CrossoverProbability: engineDefaults.CrossoverProbability,
			StrategiesPath:       "",
			ParallelMinibatch:    engineDefaults.ParallelMinibatch,
			CheckpointFormat:     string(engineDefaults.CheckpointFormat),
			LogLevel:             engineDefaults.LogLevel,
			MetricsEnabled:       engineDefaults.MetricsEnabled,
		},
	}
}

// Load loads configuration from a config file (if present) and then
// GEPA_-prefixed environment variables, which take precedence.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	cfg.LLM.URL = sharedconfig.GetEnv("GEPA_LLM_URL", cfg.LLM.URL)
	cfg.LLM.APIKey = sharedconfig.GetEnv("GEPA_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = sharedconfig.GetEnv("GEPA_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxTokens = sharedconfig.GetEnvInt("GEPA_LLM_MAX_TOKENS", cfg.LLM.MaxTokens)
	cfg.LLM.Temperature = sharedconfig.GetEnvFloat("GEPA_LLM_TEMPERATURE", cfg.LLM.Temperature)

	cfg.GEPA.Budget = sharedconfig.GetEnvInt("GEPA_BUDGET", cfg.GEPA.Budget)
	cfg.GEPA.MinibatchSize = sharedconfig.GetEnvInt("GEPA_MINIBATCH_SIZE", cfg.GEPA.MinibatchSize)
	cfg.GEPA.ParetoSize = sharedconfig.GetEnvInt("GEPA_PARETO_SIZE", cfg.GEPA.ParetoSize)
	cfg.GEPA.HoldoutSize = sharedconfig.GetEnvInt("GEPA_HOLDOUT_SIZE", cfg.GEPA.HoldoutSize)
	cfg.GEPA.EpsilonHoldout = sharedconfig.GetEnvFloat("GEPA_EPSILON_HOLDOUT", cfg.GEPA.EpsilonHoldout)
	cfg.GEPA.MufCosts = sharedconfig.GetEnvBool("GEPA_MUF_COSTS", cfg.GEPA.MufCosts)
	cfg.GEPA.ScoreForPareto = sharedconfig.GetEnv("GEPA_SCORE_FOR_PARETO", cfg.GEPA.ScoreForPareto)
	cfg.GEPA.CrossoverProbability = sharedconfig.GetEnvFloat("GEPA_CROSSOVER_PROBABILITY", cfg.GEPA.CrossoverProbability)
	cfg.GEPA.StrategiesPath = sharedconfig.GetEnv("GEPA_STRATEGIES_PATH", cfg.GEPA.StrategiesPath)
	cfg.GEPA.ParallelMinibatch = sharedconfig.GetEnvBool("GEPA_PARALLEL_MINIBATCH", cfg.GEPA.ParallelMinibatch)
	cfg.GEPA.CheckpointFormat = sharedconfig.GetEnv("GEPA_CHECKPOINT_FORMAT", cfg.GEPA.CheckpointFormat)
	cfg.GEPA.LogLevel = sharedconfig.GetEnv("GEPA_LOG_LEVEL", cfg.GEPA.LogLevel)
	cfg.GEPA.MetricsEnabled = sharedconfig.GetEnvBool("GEPA_METRICS_ENABLED", cfg.GEPA.MetricsEnabled)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	var errs []string

	if c.LLM.URL == "" {
		errs = append(errs, "LLM URL is required")
	} else if !isValidURL(c.LLM.URL) {
		errs = append(errs, "LLM URL must be a valid URL")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "LLM temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "LLM max_tokens must be positive")
	}

	if c.GEPA.Budget < 0 {
		errs = append(errs, "gepa budget must be non-negative")
	}
	if c.GEPA.MinibatchSize < 1 {
		errs = append(errs, "gepa minibatch_size must be positive")
	}
	if c.GEPA.ParetoSize < 1 {
		errs = append(errs, "gepa pareto_size must be positive")
	}
	if c.GEPA.HoldoutSize < 0 {
		errs = append(errs, "gepa holdout_size must be non-negative")
	}
	if c.GEPA.CrossoverProbability < 0 || c.GEPA.CrossoverProbability > 1 {
		errs = append(errs, "gepa crossover_probability must be between 0 and 1")
	}
	if c.GEPA.ScoreForPareto != "mu" && c.GEPA.ScoreForPareto != "muf" {
		errs = append(errs, "gepa score_for_pareto must be 'mu' or 'muf'")
	}
	if c.GEPA.CheckpointFormat != "json" && c.GEPA.CheckpointFormat != "msgpack" {
		errs = append(errs, "gepa checkpoint_format must be 'json' or 'msgpack'")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if path := os.Getenv("GEPA_CONFIG"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}

	configDir := filepath.Join(homeDir, ".config", "gepa")
	configPath := filepath.Join(configDir, "config.json")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	altPath := filepath.Join(homeDir, ".gepa", "config.json")
	if _, err := os.Stat(altPath); err == nil {
		return altPath
	}

	return configPath
}
