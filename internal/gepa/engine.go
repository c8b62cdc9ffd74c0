package gepa

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Collaborators bundles the five external contracts the engine depends
// on but never implements itself.
type Collaborators struct {
	Actor Actor
	Judge ChatJudge
	Exec  Execute
	Mu    Mu
	MuF   MuF
}

// Option configures an Engine at construction time.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithTracer(tracer Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

func WithRNG(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithProgressPublisher(p *ProgressPublisher) Option {
	return func(e *Engine) { e.progress = p }
}

func WithMetricsRegistry(enabled bool) Option {
	return func(e *Engine) { e.metricsEnabled = enabled }
}

// Engine is a value that owns a single run's entire mutable state: the
// population, score matrix, lineage, bandit, and budget. Callers
// instantiate one per run.
type Engine struct {
	cfg     Config
	collab  Collaborators
	store   *RunStore
	runID   string
	logger  *slog.Logger
	tracer  Tracer
	rng     *rand.Rand
	progress *ProgressPublisher
	metricsEnabled bool

	items []TaskItem
	split DatasetSplit

	budget *BudgetAccountant
	bandit *Bandit
	sched  *AdaptiveScheduler

	P             []Candidate
	S             [][]float64
	lineage       Lineage
	triedTriplets map[string]bool
	bestIdx       int
	seeded        bool
	moduleIndex   int
	moduleCount   int
	strategies    []Strategy
	lastPrefilterIter int
	iter          int

	fallbackLoggedOnce bool
}

// NewEngine constructs a fresh engine for a new run. For resuming an
// existing run, use NewEngine then Resume.
func NewEngine(cfg Config, collab Collaborators, items []TaskItem, seed Candidate, strategies []Strategy, runID string, store *RunStore, opts ...Option) (*Engine, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:           cfg,
		collab:        collab,
		store:         store,
		runID:         runID,
		logger:        slog.Default(),
		tracer:        NoOpTracer{},
		rng:           rand.New(rand.NewPCG(1, 2)),
		progress:      NewProgressPublisher(),
		metricsEnabled: cfg.MetricsEnabled,
		items:         items,
		triedTriplets: make(map[string]bool),
		strategies:    strategies,
	}
	for _, opt := range opts {
		opt(e)
	}

	split, err := ComputeSplit(len(items), cfg.ParetoSize, cfg.HoldoutSize, e.rng)
	if err != nil {
		return nil, err
	}
	e.split = split

	e.budget = NewBudgetAccountant(cfg.Budget)
	e.bandit = NewBandit(strategyIDs(strategies))
	e.sched = NewAdaptiveScheduler(cfg.StrategySchedule)

	e.P = []Candidate{seed.Clone()}
	e.S = [][]float64{nil}
	e.moduleCount = seed.ModuleCount()

	if len(e.split.FbIdx) == 0 && len(e.split.ParetoIdx) > 0 {
		if !e.fallbackLoggedOnce {
			e.logger.Warn("feedback set empty, falling back to Pareto set for minibatches", "run_id", e.runID)
			e.fallbackLoggedOnce = true
		}
	}

	return e, nil
}

func strategyIDs(strategies []Strategy) []string {
	ids := make([]string, len(strategies))
	for i, s := range strategies {
		ids[i] = s.ID
	}
	return ids
}

// Resume reloads an existing run's state from the run store, overriding
// the freshly-initialized population/split/bandit/lineage.
func (e *Engine) Resume() error {
	st, err := e.store.ReadState()
	if err != nil {
		return err
	}
	e.budget = NewBudgetAccountant(st.BudgetLeft)
	e.iter = st.Iter
	e.P = st.Psystems
	e.S = st.S
	e.split = DatasetSplit{ParetoIdx: st.DparetoIdx, FbIdx: st.DfbIdx, HoldIdx: st.DholdIdx}
	e.bestIdx = st.BestIdx
	e.seeded = st.Seeded
	e.bandit = DeserializeBandit(st.Bandit)
	e.moduleIndex = st.ModuleIndex
	e.moduleCount = st.ModuleCount
	e.lineage = st.Lineage
	if len(st.Strategies) > 0 {
		e.strategies = st.Strategies
	}
	for _, u := range st.UpliftWindow {
		e.sched.Push(u)
	}
	e.lastPrefilterIter = st.LastPrefilterIter
	return nil
}

// feedbackPool returns the index set minibatches are drawn from: Dfb, or
// Dpareto as a fallback when Dfb is empty.
func (e *Engine) feedbackPool() []int {
	if len(e.split.FbIdx) > 0 {
		return e.split.FbIdx
	}
	return e.split.ParetoIdx
}

// drawMinibatch samples b items without replacement from the feedback
// pool (or all of it, if b >= its size).
func (e *Engine) drawMinibatch(b int) []TaskItem {
	pool := e.feedbackPool()
	if b >= len(pool) {
		out := make([]TaskItem, len(pool))
		for i, idx := range pool {
			out[i] = e.items[idx]
		}
		return out
	}
	order := append([]int{}, pool...)
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	out := make([]TaskItem, b)
	for i := 0; i < b; i++ {
		out[i] = e.items[order[i]]
	}
	return out
}

type itemScore struct {
	ID           string
	Score        float64
	Feedback     string
	Output       string
	TraceSummary string
}

// scoreCandidate runs candidate against each item in batch, executing
// and judging with budget discipline. Returns the per-item scores
// completed before the accountant refused (possibly short of len(batch))
// and whether the budget was exhausted mid-batch.
func (e *Engine) scoreCandidate(ctx context.Context, candidate Candidate, batch []TaskItem, tag string) ([]itemScore, bool) {
	if e.cfg.ParallelMinibatch {
		return e.scoreCandidateParallel(ctx, candidate, batch, tag)
	}
	return e.scoreCandidateSequential(ctx, candidate, batch, tag)
}

func (e *Engine) scoreCandidateSequential(ctx context.Context, candidate Candidate, batch []TaskItem, tag string) ([]itemScore, bool) {
	var out []itemScore
	for _, item := range batch {
		if !e.budget.CanAfford(1) {
			return out, true
		}
		res, err := e.collab.Exec.Run(ctx, candidate, item)
		e.budget.Dec(1, "execute:"+tag)
		if err != nil {
			e.logger.Warn("execute failed", "run_id", e.runID, "item", item.ID, "error", err)
			continue
		}
		if e.cfg.MufCosts && !e.budget.CanAfford(1) {
			return out, true
		}

		score, feedback := e.judgeOutput(ctx, item, res, tag)
		out = append(out, itemScore{ID: item.ID, Score: score, Feedback: feedback, Output: res.Output, TraceSummary: SummarizeTrace(res.Traces, 2000)})
	}
	return out, false
}

// scoreCandidateParallel runs execute+judge for every minibatch item
// concurrently via errgroup. CanAfford is checked up-front for the
// whole batch and Dec issued once after all goroutines complete, so
// concurrent scoring never overspends the accountant.
func (e *Engine) scoreCandidateParallel(ctx context.Context, candidate Candidate, batch []TaskItem, tag string) ([]itemScore, bool) {
	cost := len(batch)
	if e.cfg.MufCosts {
		cost *= 2
	}
	if !e.budget.CanAfford(cost) {
		return nil, true
	}

	results := make([]itemScore, len(batch))
	ok := make([]bool, len(batch))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range batch {
		i, item := i, item
		g.Go(func() error {
			res, err := e.collab.Exec.Run(gctx, candidate, item)
			if err != nil {
				e.logger.Warn("execute failed", "run_id", e.runID, "item", item.ID, "error", err)
				return nil
			}
			score, feedback := e.judgeOutputUnaccounted(gctx, item, res, tag)
			mu.Lock()
			results[i] = itemScore{ID: item.ID, Score: score, Feedback: feedback, Output: res.Output, TraceSummary: SummarizeTrace(res.Traces, 2000)}
			ok[i] = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	e.budget.Dec(cost, "execute+judge:"+tag)

	var out []itemScore
	for i, v := range ok {
		if v {
			out = append(out, results[i])
		}
	}
	return out, false
}

// judgeOutput scores execRes.Output via the chat judge, decrementing
// budget for the judge call only when mufCosts is true. Used by the
// sequential path, where each item is accounted for individually.
func (e *Engine) judgeOutput(ctx context.Context, item TaskItem, execRes ExecuteResult, tag string) (float64, string) {
	if e.cfg.MufCosts && !e.budget.CanAfford(1) {
		return 0, ""
	}
	score, feedback := e.judgeOutputUnaccounted(ctx, item, execRes, tag)
	if e.cfg.MufCosts {
		e.budget.Dec(1, "judge:"+tag)
	}
	return score, feedback
}

// judgeOutputUnaccounted scores execRes.Output via the chat judge
// without touching the budget accountant. Used by the parallel path,
// where scoreCandidateParallel already reserved and decremented the
// aggregate cost for the whole batch up front; accounting here too
// would double-spend it.
func (e *Engine) judgeOutputUnaccounted(ctx context.Context, item TaskItem, execRes ExecuteResult, tag string) (float64, string) {
	res, err := e.collab.MuF.ScoreWithFeedback(ctx, item, execRes.Output, execRes.Traces)
	if err != nil {
		e.logger.Warn("judge failed", "run_id", e.runID, "item", item.ID, "error", err)
		return 0, ""
	}
	return res.Score, res.FeedbackText
}

func mean(scores []itemScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}

// Run executes the main loop until the budget is exhausted, returning
// the best-to-date candidate. A budget of zero on entry returns the
// seed unchanged.
func (e *Engine) Run(ctx context.Context) (Candidate, error) {
	if !e.budget.CanAfford(1) {
		return e.P[0], nil
	}

	for e.budget.CanAfford(1) {
		ctx, span := e.tracer.Start(ctx, "iteration")
		accepted, err := e.runIteration(ctx)
		span.SetAttribute("accepted", accepted)
		span.End()
		if err != nil {
			return e.P[e.bestIdx], err
		}
		if e.metricsEnabled {
			iterationsTotal.Inc()
		}
		if !e.budget.CanAfford(1) {
			break
		}
	}
	return e.P[e.bestIdx], nil
}

func (e *Engine) runIteration(ctx context.Context) (bool, error) {
	k := SelectParent(e.P, e.S, e.rng)
	parent := e.P[k]

	batch := e.drawMinibatch(e.cfg.MinibatchSize)

	before, exhausted := e.scoreCandidate(ctx, parent, batch, "before")
	if exhausted {
		return false, nil
	}
	sigma := mean(before)

	operator := "mutation"
	var child Candidate
	var changedModules []int
	var chosenStrategyID string
	noHint := false

	if len(e.P) > 1 && e.rng.Float64() < e.cfg.CrossoverProbability {
		if c, _, changed, ok := e.tryCrossover(k); ok {
			child = c
			operator = "crossover"
			changedModules = changed
		}
	}

	if operator == "mutation" {
		var strat string
		child, strat, noHint = e.mutate(ctx, parent)
		chosenStrategyID = strat
		changedModules = []int{e.moduleIndex}
		e.moduleIndex = (e.moduleIndex + 1) % max(e.moduleCount, 1)
	}

	after, _ := e.scoreCandidate(ctx, child, batch, "after")
	sigmaAfter := mean(after)

	reward := clamp((sigmaAfter-sigma+1)/2, 0, 1)
	if operator == "mutation" && !noHint {
		e.bandit.Update(chosenStrategyID, reward)
	}
	e.sched.Push(sigmaAfter - sigma)

	e.maybeReprefilter(ctx)

	holdoutPassed := true
	if len(e.split.HoldIdx) > 0 {
		holdoutPassed = e.holdoutGate(ctx, parent, child)
	}

	accepted := sigmaAfter > sigma && holdoutPassed

	if accepted {
		e.acceptChild(ctx, child, changedModules, k)
	}

	e.iter++
	event := IterationEvent{
		RunID: e.runID, Iter: e.iter, Accepted: accepted, Operator: operator,
		ChosenStrategyID: chosenStrategyID, SigmaBefore: sigma, SigmaAfter: sigmaAfter,
		Reward: reward, BudgetLeftAfter: e.budget.Remaining(),
	}
	if e.metricsEnabled {
		acceptancesTotal.WithLabelValues(fmt.Sprintf("%t", accepted), operator).Inc()
	}
	if err := e.checkpoint(event); err != nil {
		return accepted, err
	}
	e.progress.Publish(event)

	return accepted, nil
}

// tryCrossover attempts a crossover child against a second Pareto-selected
// parent k'. Returns ok=false whenever any abort condition in §4.8's
// operator-choice step fires, in which case the caller falls back to
// mutation.
func (e *Engine) tryCrossover(k int) (Candidate, int, []int, bool) {
	kPrime := SelectParent(e.P, e.S, e.rng)
	if kPrime == k {
		return Candidate{}, 0, nil, false
	}
	if e.lineage.AreDirectRelatives(k, kPrime) {
		return Candidate{}, 0, nil, false
	}
	ancestor, ok := e.lineage.SharedAncestor(k, kPrime)
	if !ok {
		return Candidate{}, 0, nil, false
	}
	tripletKey := tripletKey(k, kPrime, ancestor)
	if e.triedTriplets[tripletKey] {
		return Candidate{}, 0, nil, false
	}

	scoreA, scoreB := rowMean(e.S, k), rowMean(e.S, kPrime)
	changedA := e.lineage.ChangedModules(k)
	changedB := e.lineage.ChangedModules(kPrime)

	child, err := Merge(e.P[k], e.P[kPrime], changedA, changedB, scoreA, scoreB)
	if err != nil {
		return Candidate{}, 0, nil, false
	}
	if !isNovel(child, e.P[k], e.P[kPrime]) {
		return Candidate{}, 0, nil, false
	}

	e.triedTriplets[tripletKey] = true
	union := unionInts(changedA, changedB)
	return child, kPrime, union, true
}

func tripletKey(a, b, ancestor int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d:%d", a, b, ancestor)
}

func rowMean(s [][]float64, k int) float64 {
	if k < 0 || k >= len(s) || len(s[k]) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s[k] {
		sum += v
	}
	return sum / float64(len(s[k]))
}

func unionInts(a, b []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range append(append([]int{}, a...), b...) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// isNovel reports whether child differs from both parents: equal to
// either parent's effective instruction disqualifies it.
func isNovel(child, a, b Candidate) bool {
	eff := child.Concatenate()
	return eff != a.Concatenate() && eff != b.Concatenate()
}

// mutate performs the mutation operator: bandit pick with explore
// override, optional no-hint mode, round-robin module targeting, one
// actor call.
func (e *Engine) mutate(ctx context.Context, parent Candidate) (Candidate, string, bool) {
	exploreProb, noHintProb := e.sched.Probabilities()

	chosenID := e.bandit.Pick()
	if e.rng.Float64() < exploreProb {
		chosenID = e.corePoolSample()
	}

	noHint := e.rng.Float64() < noHintProb
	hint := ""
	if !noHint {
		hint = hintFor(e.strategies, chosenID)
	}

	var currentText string
	var allModules []Module
	if parent.Kind == KindModular {
		currentText = parent.Modules[e.moduleIndex].Prompt
		allModules = parent.Modules
	} else {
		currentText = parent.Single
	}

	prompt := BuildReflectionPrompt(currentText, hint, nil, allModules, e.moduleIndex)

	if !e.budget.CanAfford(1) {
		return parent.Clone(), chosenID, noHint
	}
	reply, err := e.collab.Actor.Complete(ctx, prompt)
	e.budget.Dec(1, "propose")
	if err != nil {
		e.logger.Warn("actor propose failed, reusing parent", "run_id", e.runID, "error", err)
		return parent.Clone(), chosenID, noHint
	}

	newText := ParseReflectionReply(reply)
	return parent.SetModule(e.moduleIndex, newText), chosenID, noHint
}

func hintFor(strategies []Strategy, id string) string {
	for _, s := range strategies {
		if s.ID == id {
			return s.Hint
		}
	}
	return ""
}

// corePoolSample uniformly samples from strategies marked core, or the
// first defaultCoreTopK by list order if none are marked.
func (e *Engine) corePoolSample() string {
	var core []Strategy
	for _, s := range e.strategies {
		if s.Core {
			core = append(core, s)
		}
	}
	if len(core) == 0 {
		topK := e.cfg.StrategySchedule.DefaultCoreTopK
		if topK > len(e.strategies) {
			topK = len(e.strategies)
		}
		core = e.strategies[:topK]
	}
	if len(core) == 0 {
		return ""
	}
	return core[e.rng.IntN(len(core))].ID
}

// maybeReprefilter reruns the strategy prefilter when the recent-window
// mean uplift has stagnated and the cooldown has elapsed.
func (e *Engine) maybeReprefilter(ctx context.Context) {
	window := e.sched.Window()
	if len(window) == 0 {
		return
	}
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	meanUplift := sum / float64(len(window))

	cooldown := e.cfg.StrategySchedule.ReprefilterCooldownIters
	if meanUplift > e.cfg.StrategySchedule.SlowdownThreshold {
		return
	}
	if e.iter-e.lastPrefilterIter < cooldown {
		return
	}

	preview := make([]string, 0, len(e.feedbackPool()))
	for _, idx := range e.feedbackPool() {
		preview = append(preview, e.items[idx].User)
	}

	newStrategies, err := PrefilterStrategies(ctx, e.collab.Actor, e.strategies, preview, e.cfg.StrategySchedule.PrefilterThreshold, e.cfg.StrategySchedule.PrefilterTopK, e.logger)
	if err != nil || len(newStrategies) == 0 {
		return
	}

	e.strategies = newStrategies
	e.bandit = NewBandit(strategyIDs(newStrategies))
	e.lastPrefilterIter = e.iter
	if e.metricsEnabled {
		prefilterRerunsTotal.Inc()
	}
	e.logger.Info("reprefiltered strategies", "run_id", e.runID, "iter", e.iter, "count", len(newStrategies))
}

// holdoutGate computes mean judge score for parent and child over Dhold
// and reports whether child's score plus epsilonHoldout is at least
// parent's.
func (e *Engine) holdoutGate(ctx context.Context, parent, child Candidate) bool {
	holdItems := make([]TaskItem, len(e.split.HoldIdx))
	for i, idx := range e.split.HoldIdx {
		holdItems[i] = e.items[idx]
	}

	parentScores, _ := e.scoreCandidate(ctx, parent, holdItems, "holdout")
	childScores, _ := e.scoreCandidate(ctx, child, holdItems, "holdout")

	return mean(childScores)+e.cfg.EpsilonHoldout >= mean(parentScores)
}

// acceptChild appends child to P, computes its Pareto row via the
// configured scorer, updates bestIdx, and records a lineage entry
// pointing back at parentIdx (the primary selected parent; for a
// crossover child this is k, not k').
func (e *Engine) acceptChild(ctx context.Context, child Candidate, changedModules []int, parentIdx int) {
	newIdx := len(e.P)
	e.P = append(e.P, child)

	row := make([]float64, 0, len(e.split.ParetoIdx))
	for _, idx := range e.split.ParetoIdx {
		item := e.items[idx]
		score, ok := e.scoreOnParetoItem(ctx, child, item)
		if !ok {
			break
		}
		row = append(row, score)
	}
	e.S = append(e.S, row)

	pIdx := parentIdx
	entry := LineageEntry{CandidateIndex: newIdx, ChangedModules: changedModules, ParentIndex: &pIdx}
	e.lineage = append(e.lineage, entry)

	st := GEPAState{S: e.S}
	st.RecomputeBestIdx()
	e.bestIdx = st.BestIdx
}

// scoreOnParetoItem scores child on item using whichever scorer
// scoreForPareto selects, uniformly for the whole run. The full cost
// (execute, plus the judge call when scoring via muf and mufCosts is
// true) is checked with CanAfford before any collaborator call is made;
// ok is false, with no calls issued, when the accountant refuses.
func (e *Engine) scoreOnParetoItem(ctx context.Context, child Candidate, item TaskItem) (score float64, ok bool) {
	cost := 1
	if e.cfg.ScoreForPareto == ScoreModeMuF && e.cfg.MufCosts {
		cost = 2
	}
	if !e.budget.CanAfford(cost) {
		return 0, false
	}

	res, err := e.collab.Exec.Run(ctx, child, item)
	e.budget.Dec(1, "pareto")
	if err != nil {
		return 0, true
	}
	if e.cfg.ScoreForPareto == ScoreModeMu {
		muScore, err := e.collab.Mu.Score(ctx, res.Output, item.Meta)
		if err != nil {
			return 0, true
		}
		return muScore, true
	}
	if e.cfg.MufCosts {
		e.budget.Dec(1, "pareto")
	}
	mufRes, err := e.collab.MuF.ScoreWithFeedback(ctx, item, res.Output, res.Traces)
	if err != nil {
		return 0, true
	}
	return mufRes.Score, true
}

func (e *Engine) checkpoint(event IterationEvent) error {
	st := GEPAState{
		BudgetLeft:   e.budget.Remaining(),
		Iter:         e.iter,
		Psystems:     e.P,
		S:            e.S,
		DparetoIdx:   e.split.ParetoIdx,
		DfbIdx:       e.split.FbIdx,
		DholdIdx:     e.split.HoldIdx,
		BestIdx:      e.bestIdx,
		Seeded:       e.seeded,
		Bandit:       e.bandit.Serialize(),
		ModuleIndex:  e.moduleIndex,
		ModuleCount:  e.moduleCount,
		Lineage:      e.lineage,
		Strategies:   e.strategies,
		UpliftWindow: e.sched.Window(),
		LastPrefilterIter: e.lastPrefilterIter,
	}
	if err := e.store.WriteState(st); err != nil {
		return err
	}
	return e.store.WriteIterationSummary(event)
}

// RunSeeding runs the one-shot seeder (if not already done) and appends
// its variants to the population.
func (e *Engine) RunSeeding(ctx context.Context) error {
	if e.seeded {
		return nil
	}
	screenSize := ScreenSize(len(e.feedbackPool()))
	pool := e.feedbackPool()
	screen := make([]TaskItem, 0, screenSize)
	for i := 0; i < screenSize && i < len(pool); i++ {
		screen = append(screen, e.items[pool[i]])
	}

	variants, _, err := Seed(ctx, e.P[0], screen, e.strategies, min(len(e.strategies), 5), e.collab.Actor, e.collab.Exec, e.collab.Judge, e.budget)
	if err != nil {
		return err
	}
	for _, v := range variants[1:] {
		row := make([]float64, 0, len(e.split.ParetoIdx))
		for _, idx := range e.split.ParetoIdx {
			score, ok := e.scoreOnParetoItem(ctx, v, e.items[idx])
			if !ok {
				break
			}
			row = append(row, score)
		}
		e.P = append(e.P, v)
		e.S = append(e.S, row)
		e.lineage = append(e.lineage, LineageEntry{CandidateIndex: len(e.P) - 1, ChangedModules: nil})
	}
	e.seeded = true
	return nil
}

// RunPrefilter runs the initial strategy prefilter (tolerant on
// failure) and, on success, narrows the active strategy set and
// reinitializes the bandit.
func (e *Engine) RunPrefilter(ctx context.Context) {
	preview := make([]string, 0, len(e.feedbackPool()))
	for _, idx := range e.feedbackPool() {
		preview = append(preview, e.items[idx].User)
	}
	kept, err := PrefilterStrategies(ctx, e.collab.Actor, e.strategies, preview, e.cfg.StrategySchedule.PrefilterThreshold, e.cfg.StrategySchedule.PrefilterTopK, e.logger)
	if err != nil || len(kept) == 0 {
		return
	}
	e.strategies = kept
	e.bandit = NewBandit(strategyIDs(kept))
}

// EnsureSeedRow computes the seed's Pareto row if missing (fresh run).
func (e *Engine) EnsureSeedRow(ctx context.Context) {
	if len(e.S) > 0 && e.S[0] != nil {
		return
	}
	row := make([]float64, 0, len(e.split.ParetoIdx))
	for _, idx := range e.split.ParetoIdx {
		score, ok := e.scoreOnParetoItem(ctx, e.P[0], e.items[idx])
		if !ok {
			break
		}
		row = append(row, score)
	}
	e.S[0] = row

	st := GEPAState{S: e.S}
	st.RecomputeBestIdx()
	e.bestIdx = st.BestIdx
}

// BestCandidate returns the current best-scoring candidate.
func (e *Engine) BestCandidate() Candidate {
	return e.P[e.bestIdx]
}

// Subscribe exposes the engine's progress publisher for a CLI --watch
// mode or future HTTP handler.
func (e *Engine) Subscribe() (<-chan IterationEvent, func()) {
	return e.progress.Subscribe(e.runID)
}
