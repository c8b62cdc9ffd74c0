package gepa

import (
	"context"

	dspycore "github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/gepaopt/gepa/internal/prompt"
)

// ToDspyProgram lifts a Candidate's effective instruction into a dspy-go
// core.Program bound to backend, using the InstructionFollowing
// signature. This is used only for interop with dspy-go's own tooling
// (e.g. running dspy-go's optimizers.GEPA for comparison); the engine's
// own main loop never calls through this path.
func ToDspyProgram(candidate Candidate, backend prompt.ChatBackend) dspycore.Program {
	predict := prompt.NewGEPAPredict(prompt.InstructionFollowing)
	adapter := prompt.NewLLMServiceAdapter(backend)
	_ = adapter // not used further: forward below calls backend.Complete directly

	instruction := candidate.Concatenate()

	modules := map[string]dspycore.Module{"instruction": predict.Predict}
	forward := func(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
		user, _ := inputs["user"].(string)
		fullPrompt := instruction + "\n\n" + user
		resp, err := backend.Complete(ctx, fullPrompt)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"response": resp}, nil
	}

	return dspycore.NewProgram(modules, forward)
}
