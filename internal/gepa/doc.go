// Package gepa implements a budget-bounded evolutionary search over textual
// instructions for a downstream LLM task: a candidate population, a
// Pareto-based parent selector, a UCB1 strategy bandit, a mutation/crossover
// propose-evaluate-accept loop, a budget accountant, and a resumable
// checkpoint protocol.
package gepa
