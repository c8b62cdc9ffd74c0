package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"os"

	"github.com/spf13/cobra"

	"github.com/gepaopt/gepa/internal/gepa"
)

// openRunForInspection opens run-dir under its single-writer lock
// without writing any checkpoint, resolving the checkpoint format from
// run.json before reading state.
func openRunForInspection(runDir string) (*gepa.RunStore, gepa.RunMeta, gepa.GEPAState, error) {
	probe, err := gepa.OpenRunStore(runDir, gepa.FormatJSON)
	if err != nil {
		return nil, gepa.RunMeta{}, gepa.GEPAState{}, fmt.Errorf("opening run store: %w", err)
	}
	meta, err := probe.ReadRunMeta()
	if err != nil {
		probe.Close()
		return nil, gepa.RunMeta{}, gepa.GEPAState{}, fmt.Errorf("reading run metadata: %w", err)
	}
	probe.Close()

	store, err := gepa.OpenRunStore(runDir, meta.Config.CheckpointFormat)
	if err != nil {
		return nil, gepa.RunMeta{}, gepa.GEPAState{}, fmt.Errorf("reopening run store: %w", err)
	}

	st, err := store.ReadState()
	if err != nil {
		store.Close()
		return nil, gepa.RunMeta{}, gepa.GEPAState{}, fmt.Errorf("reading checkpoint state: %w", err)
	}

	return store, meta, st, nil
}

func showCmd() *cobra.Command {
	var runDir string
	var showJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show optimization run details",
		Long:  `Show the run metadata and current checkpoint state for --run-dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, meta, st, err := openRunForInspection(runDir)
			if err != nil {
				return err
			}
			defer store.Close()

			if showJSON {
				data, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling state: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Run:             %s\n", meta.RunID)
			fmt.Printf("Created:         %s\n", meta.CreatedAt)
			fmt.Printf("Task input:      %s\n", meta.TaskInputPath)
			fmt.Printf("Iteration:       %d\n", st.Iter)
			fmt.Printf("Budget left:     %d\n", st.BudgetLeft)
			fmt.Printf("Population size: %d\n", len(st.Psystems))
			fmt.Printf("Best candidate:  #%d\n", st.BestIdx)
			fmt.Printf("Pareto set size: %d\n", len(st.DparetoIdx))
			fmt.Printf("Holdout size:    %d\n", len(st.DholdIdx))
			fmt.Printf("Feedback size:   %d\n", len(st.DfbIdx))
			fmt.Printf("Strategies:      %d\n", len(st.Strategies))

			return nil
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "Run directory (required)")
	cmd.Flags().BoolVar(&showJSON, "json", false, "Output the raw checkpoint state as JSON")
	cmd.MarkFlagRequired("run-dir")

	return cmd
}

func bestCmd() *cobra.Command {
	var runDir string
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Show the best candidate for a run",
		Long:  `Show the highest mean-scoring candidate in --run-dir's checkpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, st, err := openRunForInspection(runDir)
			if err != nil {
				return err
			}
			defer store.Close()

			if st.BestIdx < 0 || st.BestIdx >= len(st.Psystems) {
				return fmt.Errorf("best index %d out of range for population of %d", st.BestIdx, len(st.Psystems))
			}
			best := st.Psystems[st.BestIdx]
			row := st.S[st.BestIdx]

			mean := 0.0
			for _, v := range row {
				mean += v
			}
			if len(row) > 0 {
				mean /= float64(len(row))
			}

			fmt.Printf("Best candidate: #%d\n", st.BestIdx)
			fmt.Printf("Kind:           %s\n", best.Kind)
			fmt.Printf("Modules:        %d\n", best.ModuleCount())
			fmt.Printf("Mean score:     %.4f (n=%d)\n", mean, len(row))
			fmt.Println()

			if showPrompt {
				fmt.Println("Instruction text:")
				fmt.Println("---")
				fmt.Println(best.Concatenate())
				fmt.Println("---")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "Run directory (required)")
	cmd.Flags().BoolVarP(&showPrompt, "prompt", "p", false, "Show the full instruction text")
	cmd.MarkFlagRequired("run-dir")

	return cmd
}

func candidatesCmd() *cobra.Command {
	var runDir string
	var showJSON bool

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List every candidate in the population",
		Long:  `List every candidate in --run-dir's checkpoint with its mean Pareto score and lineage parent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, st, err := openRunForInspection(runDir)
			if err != nil {
				return err
			}
			defer store.Close()

			if showJSON {
				data, err := json.MarshalIndent(st.Psystems, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling candidates: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			parentOf := make(map[int]string, len(st.Lineage))
			for _, entry := range st.Lineage {
				if entry.ParentIndex != nil {
					parentOf[entry.CandidateIndex] = fmt.Sprintf("%d", *entry.ParentIndex)
				} else {
					parentOf[entry.CandidateIndex] = "-"
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "IDX\tKIND\tMODULES\tMEAN SCORE\tN\tPARENT\tBEST")
			fmt.Fprintln(w, "---\t----\t-------\t----------\t-\t------\t----")

			for i, c := range st.Psystems {
				row := st.S[i]
				mean := 0.0
				for _, v := range row {
					mean += v
				}
				if len(row) > 0 {
					mean /= float64(len(row))
				}
				parent := parentOf[i]
				if parent == "" {
					parent = "-"
				}
				isBest := ""
				if i == st.BestIdx {
					isBest = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%.4f\t%d\t%s\t%s\n",
					i, c.Kind, c.ModuleCount(), mean, len(row), parent, isBest)
			}

			w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&runDir, "run-dir", "", "Run directory (required)")
	cmd.Flags().BoolVar(&showJSON, "json", false, "Output the raw candidate population as JSON")
	cmd.MarkFlagRequired("run-dir")

	return cmd
}
