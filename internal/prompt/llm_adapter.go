package prompt

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
)

// ChatBackend is the narrow surface this adapter needs from a chat
// client in order to satisfy dspy-go's core.LLM interface. Satisfied by
// internal/gepa/llmcollab.Adapter.
type ChatBackend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMServiceAdapter adapts a ChatBackend to dspy-go's core.LLM
// interface, implementing only the narrow surface GEPA needs
// (Generate) and stubbing the rest with a documented "not required"
// error rather than a real implementation that would never be
// exercised.
type LLMServiceAdapter struct {
	backend ChatBackend
}

// NewLLMServiceAdapter creates a new LLM service adapter.
func NewLLMServiceAdapter(backend ChatBackend) *LLMServiceAdapter {
	return &LLMServiceAdapter{backend: backend}
}

// Generate implements the dspy-go LLM interface.
func (a *LLMServiceAdapter) Generate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	content, err := a.backend.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("chat backend completion failed: %w", err)
	}
	return &core.LLMResponse{Content: content}, nil
}

// GenerateWithJSON is not required: the engine only ever rewrites or
// executes free-text instructions, never structured-JSON dspy-go
// modules.
func (a *LLMServiceAdapter) GenerateWithJSON(ctx context.Context, prompt string, opts ...core.GenerateOption) (map[string]interface{}, error) {
	return nil, fmt.Errorf("GenerateWithJSON not implemented: not required for instruction optimization")
}

// GenerateWithFunctions is not required: GEPA never calls tools through
// dspy-go's function-calling surface.
func (a *LLMServiceAdapter) GenerateWithFunctions(ctx context.Context, prompt string, functions []map[string]interface{}, opts ...core.GenerateOption) (map[string]interface{}, error) {
	return nil, fmt.Errorf("GenerateWithFunctions not implemented: not required for instruction optimization")
}

// CreateEmbedding is not required: nothing in this engine computes
// embeddings.
func (a *LLMServiceAdapter) CreateEmbedding(ctx context.Context, input string, opts ...core.EmbeddingOption) (*core.EmbeddingResult, error) {
	return nil, fmt.Errorf("CreateEmbedding not implemented: not required for instruction optimization")
}

// CreateEmbeddings is not required, see CreateEmbedding.
func (a *LLMServiceAdapter) CreateEmbeddings(ctx context.Context, inputs []string, opts ...core.EmbeddingOption) (*core.BatchEmbeddingResult, error) {
	return nil, fmt.Errorf("CreateEmbeddings not implemented: not required for instruction optimization")
}

// StreamGenerate is not required: the engine's collaborator contracts
// are synchronous request/response, never streamed.
func (a *LLMServiceAdapter) StreamGenerate(ctx context.Context, prompt string, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	return nil, fmt.Errorf("StreamGenerate not implemented: not required for instruction optimization")
}

// GenerateWithContent is not required: candidates are text-only.
func (a *LLMServiceAdapter) GenerateWithContent(ctx context.Context, content []core.ContentBlock, opts ...core.GenerateOption) (*core.LLMResponse, error) {
	return nil, fmt.Errorf("GenerateWithContent not implemented: not required for instruction optimization")
}

// StreamGenerateWithContent is not required, see GenerateWithContent and
// StreamGenerate.
func (a *LLMServiceAdapter) StreamGenerateWithContent(ctx context.Context, content []core.ContentBlock, opts ...core.GenerateOption) (*core.StreamResponse, error) {
	return nil, fmt.Errorf("StreamGenerateWithContent not implemented: not required for instruction optimization")
}

// ProviderName returns the provider name.
func (a *LLMServiceAdapter) ProviderName() string {
	return "gepa"
}

// ModelID returns the model identifier.
func (a *LLMServiceAdapter) ModelID() string {
	return "gepa-chat-backend"
}

// Capabilities returns the capabilities of this LLM.
func (a *LLMServiceAdapter) Capabilities() []core.Capability {
	return []core.Capability{core.CapabilityChat, core.CapabilityCompletion}
}
