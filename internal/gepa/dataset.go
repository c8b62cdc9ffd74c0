package gepa

import "math/rand/v2"

// TaskItem is one input the engine can execute a candidate against and
// score. Meta is opaque to the engine; collaborators may use it.
type TaskItem struct {
	ID   string         `json:"id"`
	User string         `json:"user"`
	Meta map[string]any `json:"meta,omitempty"`
}

// DatasetSplit holds the disjoint index partitions computed once at run
// start and persisted for determinism across resumes.
type DatasetSplit struct {
	ParetoIdx []int `json:"paretoIdx"`
	HoldIdx   []int `json:"holdIdx"`
	FbIdx     []int `json:"fbIdx"`
}

// ComputeSplit shuffles 0..n and partitions it into Pareto, holdout, and
// feedback index sets per the sizing rule: Pareto gets up to nPareto items
// (leaving at least one item for the rest when n > 1), holdout gets up to
// holdoutSize of what remains, feedback gets the remainder. If feedback
// ends up empty while Pareto is non-empty, feedback falls back to reusing
// the Pareto indices.
func ComputeSplit(n, nPareto, holdoutSize int, rng *rand.Rand) (DatasetSplit, error) {
	if n <= 0 {
		return DatasetSplit{}, NewEngineError(ErrSplitImpossible, "empty dataset")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

	maxParetoRoom := n
	if n > 1 {
		maxParetoRoom = n - 1
	}
	paretoEff := min(nPareto, max(1, maxParetoRoom))
	holdMax := max(0, n-paretoEff-1)
	holdEff := min(holdoutSize, holdMax)

	split := DatasetSplit{
		ParetoIdx: append([]int{}, order[:paretoEff]...),
		HoldIdx:   append([]int{}, order[paretoEff:paretoEff+holdEff]...),
		FbIdx:     append([]int{}, order[paretoEff+holdEff:]...),
	}

	if len(split.FbIdx) == 0 && len(split.ParetoIdx) > 0 {
		split.FbIdx = append([]int{}, split.ParetoIdx...)
	}

	return split, nil
}
