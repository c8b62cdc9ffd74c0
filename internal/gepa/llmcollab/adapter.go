// Package llmcollab adapts an OpenAI-compatible chat client to the five
// narrow collaborator interfaces the optimization engine depends on
// (Actor, ChatJudge, Execute, Mu, MuF), the way llm_adapter.go's
// LLMServiceAdapter implements only what a caller actually needs from
// dspy-go's core.LLM.
package llmcollab

import (
	"context"
	"time"

	"github.com/gepaopt/gepa/internal/adapters/circuitbreaker"
	"github.com/gepaopt/gepa/internal/adapters/retry"
	"github.com/gepaopt/gepa/internal/gepa"
	"github.com/gepaopt/gepa/internal/llm"
)

// ChatClient is the narrow surface this adapter needs from an LLM
// client, satisfied by *llm.Client.
type ChatClient interface {
	Chat(ctx context.Context, messages []llm.ChatMessage) (*llm.ChatCompletionResponse, error)
}

// Adapter wraps a ChatClient with a circuit breaker and exposes it as
// all five GEPA collaborator interfaces. The retry config is held but
// not applied by the adapter itself; *llm.Client does its own HTTP retry.
type Adapter struct {
	client  ChatClient
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.BackoffConfig
}

// New builds an Adapter whose circuit breaker opens after 5 consecutive
// failures and stays open for 30s.
func New(client ChatClient) *Adapter {
	return &Adapter{
		client:  client,
		breaker: circuitbreaker.New(5, 30*time.Second),
		retry:   retry.HTTPConfig(),
	}
}

func (a *Adapter) call(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	var content string
	err := a.breaker.Execute(func() error {
		resp, err := a.client.Chat(ctx, messages)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return gepa.NewEngineError(gepa.ErrActorUnavailable, "empty choices in chat completion response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}

// Complete implements gepa.Actor.
func (a *Adapter) Complete(ctx context.Context, prompt string) (string, error) {
	return a.call(ctx, []llm.ChatMessage{{Role: "user", Content: prompt}})
}

// Chat implements gepa.ChatJudge.
func (a *Adapter) Chat(ctx context.Context, messages []gepa.ChatMessage) (string, error) {
	converted := make([]llm.ChatMessage, len(messages))
	for i, m := range messages {
		converted[i] = llm.ChatMessage{Role: m.Role, Content: m.Content}
	}
	return a.call(ctx, converted)
}

// Run implements gepa.Execute by asking the actor to run candidate's
// effective instruction against item.User and returning the raw reply as
// the output with no traces (this adapter has nothing opaque to report).
func (a *Adapter) Run(ctx context.Context, candidate gepa.Candidate, item gepa.TaskItem) (gepa.ExecuteResult, error) {
	out, err := a.call(ctx, []llm.ChatMessage{
		{Role: "system", Content: candidate.Concatenate()},
		{Role: "user", Content: item.User},
	})
	if err != nil {
		return gepa.ExecuteResult{}, err
	}
	return gepa.ExecuteResult{Output: out}, nil
}

// Score implements gepa.Mu by always returning ErrJudgeUnavailable; this
// adapter offers only the MuF/ChatJudge scoring path.
func (a *Adapter) Score(ctx context.Context, output string, meta map[string]any) (float64, error) {
	return 0, gepa.NewEngineError(gepa.ErrJudgeUnavailable, "not implemented: not required, this adapter only offers the chat-judge scoring path")
}

// ScoreWithFeedback implements gepa.MuF by delegating to the chat judge
// with a tolerant JSON parse.
func (a *Adapter) ScoreWithFeedback(ctx context.Context, item gepa.TaskItem, output string, traces map[string]any) (gepa.MuFResult, error) {
	reply, err := a.Chat(ctx, []gepa.ChatMessage{
		{Role: "user", Content: "Task: " + item.User + "\nOutput: " + output + "\nReply with JSON {\"score\": <0..1>, \"feedback\": \"...\"}."},
	})
	if err != nil {
		return gepa.MuFResult{}, err
	}
	res := gepa.ParseJudgeReply(reply)
	return gepa.MuFResult{Score: res.Score, FeedbackText: res.Feedback}, nil
}
