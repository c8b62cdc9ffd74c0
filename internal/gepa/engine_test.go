package gepa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type incrementingExecute struct{}

func (incrementingExecute) Run(ctx context.Context, candidate Candidate, item TaskItem) (ExecuteResult, error) {
	return ExecuteResult{Output: candidate.Concatenate(), Traces: map[string]any{"len": len(candidate.Concatenate())}}, nil
}

// lengthJudge scores an output by a deterministic function of its
// length, so a mutation whose rewritten text is longer than the seed
// scores higher — enough to exercise acceptance without a real LLM.
type lengthJudge struct{}

func (lengthJudge) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return `{"score": 0.5, "feedback": "ok"}`, nil
}

func (lengthJudge) Score(ctx context.Context, output string, meta map[string]any) (float64, error) {
	return clamp(float64(len(output))/100.0, 0, 1), nil
}

func (lengthJudge) ScoreWithFeedback(ctx context.Context, item TaskItem, output string, traces map[string]any) (MuFResult, error) {
	return MuFResult{Score: clamp(float64(len(output))/100.0, 0, 1), FeedbackText: "ok"}, nil
}

func growingActor(suffix string) *fakeActor {
	return &fakeActor{reply: "```instruction\n" + suffix + "\n```"}
}

func testItems(n int) []TaskItem {
	items := make([]TaskItem, n)
	for i := range items {
		items[i] = TaskItem{ID: string(rune('a' + i)), User: "do the task"}
	}
	return items
}

func testCollaborators() Collaborators {
	j := lengthJudge{}
	return Collaborators{
		Actor: growingActor("a longer rewritten instruction that scores higher"),
		Judge: j,
		Exec:  incrementingExecute{},
		Mu:    j,
		MuF:   j,
	}
}

func TestEngine_ZeroBudgetReturnsSeedUnchanged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget = 0
	dir := t.TempDir()
	store, err := OpenRunStore(dir, FormatJSON)
	require.NoError(t, err)
	defer store.Close()

	seed := NewSingle("seed instruction")
	e, err := NewEngine(cfg, testCollaborators(), testItems(5), seed, []Strategy{{ID: "s1", Hint: "h"}}, "run1", store)
	require.NoError(t, err)

	best, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seed, best)
}

func TestEngine_RunExhaustsBudgetAndCheckpointsNonNegative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget = 30
	cfg.MinibatchSize = 2
	cfg.HoldoutSize = 0
	cfg.ParetoSize = 3
	cfg.MufCosts = true
	cfg.CrossoverProbability = 0

	dir := t.TempDir()
	store, err := OpenRunStore(dir, FormatJSON)
	require.NoError(t, err)
	defer store.Close()

	seed := NewSingle("seed instruction")
	strategies := []Strategy{{ID: "s1", Hint: "be terse", Core: true}, {ID: "s2", Hint: "be thorough"}}
	e, err := NewEngine(cfg, testCollaborators(), testItems(10), seed, strategies, "run2", store)
	require.NoError(t, err)

	e.EnsureSeedRow(context.Background())

	best, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, best.Concatenate())

	assert.GreaterOrEqual(t, e.budget.Remaining(), 0)

	loaded, err := store.ReadState()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, loaded.BudgetLeft, 0)

	for k, row := range loaded.S {
		assert.LessOrEqual(t, len(row), len(loaded.DparetoIdx))
		for _, v := range row {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		_ = k
	}

	for _, entry := range loaded.Lineage {
		assert.Less(t, entry.CandidateIndex, len(loaded.Psystems))
		if entry.ParentIndex != nil {
			assert.Less(t, *entry.ParentIndex, entry.CandidateIndex)
		}
	}
}

func TestEngine_CrossoverNeverUsedWithSinglePopulation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget = 10
	cfg.MinibatchSize = 2
	cfg.HoldoutSize = 0
	cfg.CrossoverProbability = 1.0 // would always attempt crossover if |P|>1

	dir := t.TempDir()
	store, err := OpenRunStore(dir, FormatJSON)
	require.NoError(t, err)
	defer store.Close()

	// A judge that never accepts anything keeps the population at size 1
	// (seed only), so every iteration must fall back to mutation despite
	// crossoverProbability=1.
	neverImproves := neverAcceptJudge{}
	collab := Collaborators{
		Actor: growingActor("slightly different instruction"),
		Judge: neverImproves,
		Exec:  incrementingExecute{},
		Mu:    neverImproves,
		MuF:   neverImproves,
	}

	seed := NewSingle("seed instruction")
	e, err := NewEngine(cfg, collab, testItems(6), seed, []Strategy{{ID: "s1", Hint: "h", Core: true}}, "run3", store)
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, e.P, 1, "no crossover partner should ever exist with a stagnant population")
}

// TestEngine_MidMinibatchExhaustionBreaksBeforeAcceptance implements the
// spec's literal scenario 6: budget=2, minibatch=3, mufCosts=true. The
// first item's execute+judge consume the whole budget; the second
// item's execute is refused. The iteration must break immediately —
// no propose, no after-scoring, no acceptance — and the engine returns
// the seed as its best-to-date candidate with budgetLeft=0.
func TestEngine_MidMinibatchExhaustionBreaksBeforeAcceptance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget = 2
	cfg.MinibatchSize = 3
	cfg.ParetoSize = 1
	cfg.HoldoutSize = 0
	cfg.MufCosts = true
	cfg.CrossoverProbability = 0

	dir := t.TempDir()
	store, err := OpenRunStore(dir, FormatJSON)
	require.NoError(t, err)
	defer store.Close()

	seed := NewSingle("seed instruction")
	e, err := NewEngine(cfg, testCollaborators(), testItems(10), seed, []Strategy{{ID: "s1", Hint: "h", Core: true}}, "run-scenario-6", store)
	require.NoError(t, err)

	best, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, seed, best)
	assert.Len(t, e.P, 1, "no child should ever be proposed or accepted")
	assert.Equal(t, 0, e.budget.Remaining())
}

// countingCollab counts Run/ScoreWithFeedback invocations so tests can
// assert no collaborator call is made when the budget accountant
// refuses it.
type countingCollab struct {
	execCalls  int
	judgeCalls int
}

func (c *countingCollab) Run(ctx context.Context, candidate Candidate, item TaskItem) (ExecuteResult, error) {
	c.execCalls++
	return ExecuteResult{Output: "out"}, nil
}

func (c *countingCollab) ScoreWithFeedback(ctx context.Context, item TaskItem, output string, traces map[string]any) (MuFResult, error) {
	c.judgeCalls++
	return MuFResult{Score: 0.5, FeedbackText: "ok"}, nil
}

func (c *countingCollab) Score(ctx context.Context, output string, meta map[string]any) (float64, error) {
	c.judgeCalls++
	return 0.5, nil
}

func TestScoreOnParetoItem_RefusesWithoutAnyCallWhenBudgetExhausted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Budget = 0
	cfg.ParetoSize = 1
	cfg.HoldoutSize = 0

	dir := t.TempDir()
	store, err := OpenRunStore(dir, FormatJSON)
	require.NoError(t, err)
	defer store.Close()

	cc := &countingCollab{}
	collab := Collaborators{Actor: growingActor("x"), Judge: cc, Exec: cc, Mu: cc, MuF: cc}

	seed := NewSingle("seed instruction")
	e, err := NewEngine(cfg, collab, testItems(5), seed, []Strategy{{ID: "s1", Hint: "h"}}, "run-pareto-guard", store)
	require.NoError(t, err)

	score, ok := e.scoreOnParetoItem(context.Background(), seed, e.items[0])
	assert.False(t, ok)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, 0, cc.execCalls, "Exec.Run must not be called when CanAfford refuses up front")
	assert.Equal(t, 0, cc.judgeCalls)

	e.EnsureSeedRow(context.Background())
	assert.Empty(t, e.S[0], "row stays ragged (no entries) rather than padded with unscored zeros")
}

func TestScoreCandidateParallel_DoesNotDoubleDecrementBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParallelMinibatch = true
	cfg.MufCosts = true
	cfg.Budget = 100
	cfg.ParetoSize = 1
	cfg.HoldoutSize = 0

	dir := t.TempDir()
	store, err := OpenRunStore(dir, FormatJSON)
	require.NoError(t, err)
	defer store.Close()

	seed := NewSingle("seed instruction")
	e, err := NewEngine(cfg, testCollaborators(), testItems(5), seed, []Strategy{{ID: "s1", Hint: "h"}}, "run-parallel-budget", store)
	require.NoError(t, err)

	batch := testItems(4)
	_, exhausted := e.scoreCandidate(context.Background(), seed, batch, "before")
	require.False(t, exhausted)

	// cost = len(batch) executes + len(batch) judge calls (mufCosts=true);
	// a double-decrement would leave remaining at 100 - 2*cost instead.
	wantCost := len(batch) * 2
	assert.Equal(t, 100-wantCost, e.budget.Remaining())
	assert.Equal(t, wantCost, e.budget.Decrements()["execute+judge:before"])
}

type neverAcceptJudge struct{}

func (neverAcceptJudge) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	return `{"score": 0.1, "feedback": "bad"}`, nil
}
func (neverAcceptJudge) Score(ctx context.Context, output string, meta map[string]any) (float64, error) {
	return 0.1, nil
}
func (neverAcceptJudge) ScoreWithFeedback(ctx context.Context, item TaskItem, output string, traces map[string]any) (MuFResult, error) {
	return MuFResult{Score: 0.1, FeedbackText: "bad"}, nil
}
