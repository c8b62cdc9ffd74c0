package main

import (
	"fmt"
	"os"

	"github.com/gepaopt/gepa/internal/config"
	"github.com/gepaopt/gepa/internal/gepa/llmcollab"
	"github.com/gepaopt/gepa/internal/llm"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gepa",
		Short: "GEPA - Genetic-Pareto prompt optimization CLI",
		Long: `GEPA runs budget-bounded evolutionary search over LLM instruction text:
Pareto-dominance parent selection, LLM-reflection mutation/crossover, and
a UCB1 bandit over named rewrite strategies.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			llmClient = llm.NewClient(
				cfg.LLM.URL,
				cfg.LLM.APIKey,
				cfg.LLM.Model,
				cfg.LLM.MaxTokens,
				cfg.LLM.Temperature,
			)
			collab = llmcollab.New(llmClient)

			return nil
		},
	}

	rootCmd.AddCommand(
		configCmd(),
		runCmd(),
		resumeCmd(),
		showCmd(),
		bestCmd(),
		candidatesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("LLM:")
			fmt.Printf("  URL:         %s\n", cfg.LLM.URL)
			fmt.Printf("  Model:       %s\n", cfg.LLM.Model)
			fmt.Printf("  Max Tokens:  %d\n", cfg.LLM.MaxTokens)
			fmt.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
			fmt.Printf("  API Key:     %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Println()

			fmt.Println("GEPA:")
			fmt.Printf("  Budget:                %d\n", cfg.GEPA.Budget)
			fmt.Printf("  Minibatch Size:        %d\n", cfg.GEPA.MinibatchSize)
			fmt.Printf("  Pareto Size:           %d\n", cfg.GEPA.ParetoSize)
			fmt.Printf("  Holdout Size:          %d\n", cfg.GEPA.HoldoutSize)
			fmt.Printf("  Epsilon Holdout:       %.4f\n", cfg.GEPA.EpsilonHoldout)
			fmt.Printf("  Muf Costs:             %t\n", cfg.GEPA.MufCosts)
			fmt.Printf("  Score For Pareto:      %s\n", cfg.GEPA.ScoreForPareto)
			fmt.Printf("  Crossover Probability: %.2f\n", cfg.GEPA.CrossoverProbability)
			fmt.Printf("  Parallel Minibatch:    %t\n", cfg.GEPA.ParallelMinibatch)
			fmt.Printf("  Checkpoint Format:     %s\n", cfg.GEPA.CheckpointFormat)
			fmt.Println()

			fmt.Println("Environment variables:")
			fmt.Println("  GEPA_LLM_URL, GEPA_LLM_API_KEY, GEPA_LLM_MODEL, GEPA_LLM_MAX_TOKENS, GEPA_LLM_TEMPERATURE")
			fmt.Println("  GEPA_BUDGET, GEPA_MINIBATCH_SIZE, GEPA_PARETO_SIZE, GEPA_HOLDOUT_SIZE")
			fmt.Println("  GEPA_EPSILON_HOLDOUT, GEPA_MUF_COSTS, GEPA_SCORE_FOR_PARETO")
			fmt.Println("  GEPA_CROSSOVER_PROBABILITY, GEPA_STRATEGIES_PATH, GEPA_PARALLEL_MINIBATCH")
			fmt.Println("  GEPA_CHECKPOINT_FORMAT, GEPA_LOG_LEVEL, GEPA_METRICS_ENABLED")

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gepa %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
