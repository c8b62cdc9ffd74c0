package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gepaopt/gepa/internal/gepa"
	"github.com/gepaopt/gepa/shared/id"
)

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadTaskItems(path string) ([]gepa.TaskItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task input file: %w", err)
	}
	var items []gepa.TaskItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, gepa.NewEngineError(gepa.ErrMalformedInputFile, err.Error())
	}
	return items, nil
}

func loadStrategies(path string) ([]gepa.Strategy, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategies file: %w", err)
	}
	var strategies []gepa.Strategy
	if err := json.Unmarshal(data, &strategies); err != nil {
		return nil, fmt.Errorf("parsing strategies file: %w", err)
	}
	return strategies, nil
}

// loadSeed resolves the seed candidate from either raw text or a file.
// A seed file that parses as a JSON module array becomes a Modular
// candidate; otherwise its raw contents become a Single instruction.
func loadSeed(text, path string) (gepa.Candidate, error) {
	if text != "" {
		return gepa.NewSingle(text), nil
	}
	if path == "" {
		return gepa.Candidate{}, fmt.Errorf("one of --seed or --seed-file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return gepa.Candidate{}, fmt.Errorf("reading seed file: %w", err)
	}
	var modules []gepa.Module
	if err := json.Unmarshal(data, &modules); err == nil && len(modules) > 0 {
		return gepa.NewModular(modules), nil
	}
	return gepa.NewSingle(string(data)), nil
}

func runCmd() *cobra.Command {
	var (
		inputPath      string
		seedText       string
		seedFile       string
		strategiesPath string
		runDir         string
		watch          bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a new optimization run",
		Long: `Start a new GEPA optimization run against a task input file and a
seed instruction, checkpointing progress to --run-dir after every
iteration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			items, err := loadTaskItems(inputPath)
			if err != nil {
				return err
			}

			seed, err := loadSeed(seedText, seedFile)
			if err != nil {
				return err
			}

			if strategiesPath == "" {
				strategiesPath = cfg.GEPA.StrategiesPath
			}
			strategies, err := loadStrategies(strategiesPath)
			if err != nil {
				return err
			}

			engineCfg := cfg.GEPA.ToEngineConfig()

			runID := id.NewRun()
			if runDir == "" {
				runDir = filepath.Join("runs", runID)
			}

			store, err := gepa.OpenRunStore(runDir, engineCfg.CheckpointFormat)
			if err != nil {
				return fmt.Errorf("opening run store: %w", err)
			}
			defer store.Close()

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(engineCfg.LogLevel),
			}))

			if engineCfg.MetricsEnabled {
				registry := prometheus.NewRegistry()
				gepa.RegisterMetrics(registry)
			}

			engine, err := gepa.NewEngine(
				engineCfg,
				gepa.Collaborators{Actor: collab, Judge: collab, Exec: collab, Mu: collab, MuF: collab},
				items,
				seed,
				strategies,
				runID,
				store,
				gepa.WithLogger(logger),
				gepa.WithMetricsRegistry(engineCfg.MetricsEnabled),
			)
			if err != nil {
				return fmt.Errorf("constructing engine: %w", err)
			}

			if err := store.WriteRunMeta(gepa.RunMeta{
				RunID:          runID,
				CreatedAt:      time.Now().UTC().Format(time.RFC3339),
				TaskInputPath:  inputPath,
				Config:         engineCfg,
				StrategiesPath: strategiesPath,
			}); err != nil {
				return fmt.Errorf("writing run metadata: %w", err)
			}
			if data, err := json.MarshalIndent(items, "", "  "); err == nil {
				if err := store.WriteInput(data); err != nil {
					return fmt.Errorf("writing task input copy: %w", err)
				}
			}

			engine.RunPrefilter(ctx)
			if err := engine.RunSeeding(ctx); err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			engine.EnsureSeedRow(ctx)

			if watch {
				ch, unsubscribe := engine.Subscribe()
				defer unsubscribe()
				go func() {
					for event := range ch {
						fmt.Printf("iter %d: accepted=%t operator=%s reward=%.4f budgetLeft=%d\n",
							event.Iter, event.Accepted, event.Operator, event.Reward, event.BudgetLeftAfter)
					}
				}()
			}

			best, err := engine.Run(ctx)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			fmt.Printf("Run complete: %s\n", runID)
			fmt.Printf("Run directory: %s\n", runDir)
			fmt.Println("Best candidate:")
			fmt.Println(best.Concatenate())

			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Path to a JSON array of task items (required)")
	cmd.Flags().StringVar(&seedText, "seed", "", "Seed instruction text")
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "Path to a seed instruction (plain text or a JSON module array)")
	cmd.Flags().StringVar(&strategiesPath, "strategies", "", "Path to a JSON array of strategies")
	cmd.Flags().StringVar(&runDir, "run-dir", "", "Run directory (default runs/<run-id>)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Stream per-iteration progress events to stdout")
	cmd.MarkFlagRequired("input")

	return cmd
}
