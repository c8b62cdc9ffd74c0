package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gepaopt/gepa/internal/gepa"
)

func resumeCmd() *cobra.Command {
	var (
		runDir string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume an interrupted optimization run",
		Long:  `Resume an optimization run from its last checkpoint in --run-dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			probe, err := gepa.OpenRunStore(runDir, gepa.FormatJSON)
			if err != nil {
				return fmt.Errorf("opening run store: %w", err)
			}
			meta, err := probe.ReadRunMeta()
			if err != nil {
				probe.Close()
				return fmt.Errorf("reading run metadata: %w", err)
			}
			probe.Close()

			store, err := gepa.OpenRunStore(runDir, meta.Config.CheckpointFormat)
			if err != nil {
				return fmt.Errorf("reopening run store: %w", err)
			}
			defer store.Close()

			if !store.HasCheckpoint() {
				return fmt.Errorf("no checkpoint found in %s", runDir)
			}

			items, err := loadTaskItems(filepath.Join(runDir, "input.json"))
			if err != nil {
				return fmt.Errorf("reloading task input: %w", err)
			}
			strategies, _ := loadStrategies(meta.StrategiesPath)

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: parseLogLevel(meta.Config.LogLevel),
			}))

			engine, err := gepa.NewEngine(
				meta.Config,
				gepa.Collaborators{Actor: collab, Judge: collab, Exec: collab, Mu: collab, MuF: collab},
				items,
				gepa.NewSingle("placeholder-overwritten-by-resume"),
				strategies,
				meta.RunID,
				store,
				gepa.WithLogger(logger),
				gepa.WithMetricsRegistry(meta.Config.MetricsEnabled),
			)
			if err != nil {
				return fmt.Errorf("constructing engine: %w", err)
			}

			if err := engine.Resume(); err != nil {
				return fmt.Errorf("resuming from checkpoint: %w", err)
			}

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

			fmt.Printf("Run complete: %s\n", meta.RunID)
			fmt.Println("Best candidate:")
			fmt.Println(best.Concatenate())

			return nil
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "Run directory to resume (required)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Stream per-iteration progress events to stdout")
	cmd.MarkFlagRequired("run-dir")

	return cmd
}
