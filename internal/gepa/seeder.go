package gepa

import (
	"context"
	"sort"
)

const (
	maxSeederVariants  = 4
	seederMinScreenLen = 3
)

// SeedResult is one proposed variant from the seeder along with the
// mean judge score it achieved on the screen set.
type SeedResult struct {
	Candidate Candidate
	Uplift    float64
}

// Seed generates up to K candidate variants from the leading strategies
// in active, scores each on a small screen set, and returns the seed
// followed by up to 4 top-scoring variants (5 total at most). Every
// actor/execute/judge call is decremented from budget here under the
// "seeding" tag; callsUsed reports exactly how many such calls were made.
func Seed(ctx context.Context, seed Candidate, screen []TaskItem, active []Strategy, k int, actor Actor, exec Execute, judge ChatJudge, budget *BudgetAccountant) ([]Candidate, int, error) {
	callsUsed := 0
	results := []SeedResult{}

	limit := k
	if limit > len(active) {
		limit = len(active)
	}

	for i := 0; i < limit; i++ {
		strat := active[i]

		// Each strategy round costs one propose call plus one
		// execute+judge pair per screen item.
		roundCost := 1 + 2*len(screen)
		if !budget.CanAfford(roundCost) {
			break
		}

		examples := make([]ReflectionExample, len(screen))
		for j, item := range screen {
			examples[j] = ReflectionExample{User: item.User, Output: "", Feedback: "(no prior attempt)"}
		}
		prompt := BuildReflectionPrompt(seed.Concatenate(), strat.Hint, examples, nil, 0)

		reply, err := actor.Complete(ctx, prompt)
		budget.Dec(1, "seeding")
		callsUsed++
		if err != nil {
			continue
		}
		variant := NewSingle(ParseReflectionReply(reply))
		if seed.Kind == KindModular {
			variant = seed.SetModule(0, ParseReflectionReply(reply))
		}

		total := 0.0
		for _, item := range screen {
			execRes, err := exec.Run(ctx, variant, item)
			budget.Dec(1, "seeding")
			callsUsed++
			if err != nil {
				continue
			}
			score, err := judgeScore(ctx, judge, item, execRes.Output)
			budget.Dec(1, "seeding")
			callsUsed++
			if err == nil {
				total += score
			}
		}
		mean := 0.0
		if len(screen) > 0 {
			mean = total / float64(len(screen))
		}
		results = append(results, SeedResult{Candidate: variant, Uplift: mean})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Uplift > results[j].Uplift })
	if len(results) > maxSeederVariants {
		results = results[:maxSeederVariants]
	}

	out := []Candidate{seed}
	for _, r := range results {
		out = append(out, r.Candidate)
	}
	return out, callsUsed, nil
}

// ScreenSize computes the seeder's screen-set size from the feedback set
// length: max(3, floor(0.1 * |Dfb|)).
func ScreenSize(feedbackLen int) int {
	n := feedbackLen / 10
	if n < seederMinScreenLen {
		n = seederMinScreenLen
	}
	return n
}

// judgeScore calls the chat judge and tolerantly parses {score,
// feedback}, recovering to score 0 on any parse failure.
func judgeScore(ctx context.Context, judge ChatJudge, item TaskItem, output string) (float64, error) {
	reply, err := judge.Chat(ctx, []ChatMessage{
		{Role: "user", Content: "Task: " + item.User + "\nOutput: " + output + "\nReply with JSON {\"score\": <0..1>, \"feedback\": \"...\"}."},
	})
	if err != nil {
		return 0, err
	}
	res := ParseJudgeReply(reply)
	return res.Score, nil
}
