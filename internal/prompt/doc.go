// Package prompt provides dspy-go interop for the optimization engine:
// signatures, a traced Predict wrapper, and an LLM adapter so a GEPA
// candidate's effective instruction can be lifted into a dspy-go
// core.Program and handed to dspy-go's own tooling.
//
// # Core components
//
// Signature: declarative input/output specification for an LLM module.
//
//	sig := prompt.MustParseSignature("question -> answer")
//	sig := prompt.InstructionFollowing // predefined signature
//
// Modules: a traced Predict wrapper.
//
//	predict := prompt.NewGEPAPredict(sig, prompt.WithTracer(tracer))
//	outputs, err := predict.Process(ctx, inputs)
//	program := predict.ToProgram("instruction")
//
// LLM adapter: exposes a chat backend as dspy-go's core.LLM; only the
// Generate surface is real, the rest documents why it isn't needed here.
//
//	adapter := prompt.NewLLMServiceAdapter(backend)
package prompt
