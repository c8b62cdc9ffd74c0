package gepa

// Config holds every recognized engine option (§6 External Interfaces),
// following the project's config-struct-of-structs + DefaultConfig()
// convention.
type Config struct {
	Budget                int              `json:"budget"`
	MinibatchSize         int              `json:"minibatchSize"`
	ParetoSize            int              `json:"paretoSize"`
	HoldoutSize           int              `json:"holdoutSize"`
	EpsilonHoldout        float64          `json:"epsilonHoldout"`
	MufCosts              bool             `json:"mufCosts"`
	ScoreForPareto        ScoreMode        `json:"scoreForPareto"`
	CrossoverProbability  float64          `json:"crossoverProbability"`
	StrategySchedule      SchedulerConfig  `json:"strategySchedule"`
	StrategiesPath        string           `json:"strategiesPath"`
	ParallelMinibatch     bool             `json:"parallelMinibatch"`
	CheckpointFormat      CheckpointFormat `json:"checkpointFormat"`
	LogLevel              string           `json:"logLevel"`
	MetricsEnabled        bool             `json:"metricsEnabled"`
}

// DefaultConfig returns the engine's out-of-the-box configuration.
func DefaultConfig() Config {
	return Config{
		Budget:               200,
		MinibatchSize:        4,
		ParetoSize:           20,
		HoldoutSize:          10,
		EpsilonHoldout:       0.0,
		MufCosts:             true,
		ScoreForPareto:       ScoreModeMuF,
		CrossoverProbability: 0.1,
		StrategySchedule:     DefaultSchedulerConfig(),
		StrategiesPath:       "",
		ParallelMinibatch:    false,
		CheckpointFormat:     FormatJSON,
		LogLevel:             "info",
		MetricsEnabled:       true,
	}
}
