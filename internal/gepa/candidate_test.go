package gepa

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_ValidateSingle(t *testing.T) {
	assert.NoError(t, NewSingle("do the task").Validate())
	assert.Error(t, NewSingle("   ").Validate())
}

func TestCandidate_ValidateModular(t *testing.T) {
	ok := NewModular([]Module{{ID: "a", Prompt: "p1"}, {ID: "b", Prompt: "p2"}})
	require.NoError(t, ok.Validate())

	empty := NewModular(nil)
	assert.Error(t, empty.Validate())

	badModule := NewModular([]Module{{ID: "", Prompt: "p1"}})
	assert.Error(t, badModule.Validate())
}

func TestCandidate_Concatenate(t *testing.T) {
	single := NewSingle("instruction text")
	assert.Equal(t, "instruction text", single.Concatenate())

	modular := NewModular([]Module{{ID: "a", Prompt: "first"}, {ID: "b", Prompt: "second"}})
	assert.Equal(t, "first\n\nsecond", modular.Concatenate())
}

func TestCandidate_ModuleCount(t *testing.T) {
	assert.Equal(t, 1, NewSingle("x").ModuleCount())
	assert.Equal(t, 3, NewModular([]Module{{ID: "a", Prompt: "1"}, {ID: "b", Prompt: "2"}, {ID: "c", Prompt: "3"}}).ModuleCount())
}

func TestCandidate_SetModule(t *testing.T) {
	single := NewSingle("old")
	updated := single.SetModule(0, "new")
	assert.Equal(t, "new", updated.Single)
	assert.Equal(t, "old", single.Single, "original is untouched")

	modular := NewModular([]Module{{ID: "a", Prompt: "p1"}, {ID: "b", Prompt: "p2"}})
	updatedModular := modular.SetModule(1, "p2-rewritten")
	assert.Equal(t, "p1", updatedModular.Modules[0].Prompt)
	assert.Equal(t, "p2-rewritten", updatedModular.Modules[1].Prompt)
	assert.Equal(t, "p2", modular.Modules[1].Prompt, "original is untouched")
}

func TestCandidate_CloneIsDeep(t *testing.T) {
	modular := NewModular([]Module{{ID: "a", Prompt: "p1"}})
	clone := modular.Clone()
	clone.Modules[0].Prompt = "mutated"
	assert.Equal(t, "p1", modular.Modules[0].Prompt)
}

func TestCandidate_SerializeRoundTrip(t *testing.T) {
	single := NewSingle("plain instruction")
	data, err := json.Marshal(single)
	require.NoError(t, err)
	assert.Equal(t, `"plain instruction"`, string(data))

	var decodedSingle Candidate
	require.NoError(t, json.Unmarshal(data, &decodedSingle))
	assert.Equal(t, single, decodedSingle)

	modular := NewModular([]Module{{ID: "a", Prompt: "p1"}, {ID: "b", Prompt: "p2"}})
	data, err = json.Marshal(modular)
	require.NoError(t, err)

	var decodedModular Candidate
	require.NoError(t, json.Unmarshal(data, &decodedModular))
	assert.Equal(t, modular.Kind, decodedModular.Kind)
	assert.Equal(t, modular.Modules, decodedModular.Modules)
}

func TestCandidate_DeserializeUntaggedStringIsSingle(t *testing.T) {
	var c Candidate
	require.NoError(t, json.Unmarshal([]byte(`"legacy raw string"`), &c))
	assert.Equal(t, KindSingle, c.Kind)
	assert.Equal(t, "legacy raw string", c.Single)
}

func TestMerge_RejectsStructureMismatch(t *testing.T) {
	single := NewSingle("x")
	modular := NewModular([]Module{{ID: "a", Prompt: "p1"}})
	_, err := Merge(single, modular, nil, nil, 0.5, 0.5)
	assert.ErrorIs(t, err, ErrStructureMismatch)
}

func TestMerge_RejectsModuleCountMismatch(t *testing.T) {
	a := NewModular([]Module{{ID: "a", Prompt: "p1"}})
	b := NewModular([]Module{{ID: "a", Prompt: "p1"}, {ID: "b", Prompt: "p2"}})
	_, err := Merge(a, b, nil, nil, 0.5, 0.5)
	assert.ErrorIs(t, err, ErrModuleCountMismatch)
}

func TestMerge_SingleCopiesHigherScoringParent(t *testing.T) {
	a := NewSingle("from-a")
	b := NewSingle("from-b")

	merged, err := Merge(a, b, nil, nil, 0.3, 0.9)
	require.NoError(t, err)
	assert.Equal(t, "from-b", merged.Single)

	merged, err = Merge(a, b, nil, nil, 0.9, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "from-a", merged.Single)
}

func TestMerge_ModularDisjointChanges(t *testing.T) {
	a := NewModular([]Module{{ID: "m0", Prompt: "p1"}, {ID: "m1", Prompt: "p2"}, {ID: "m2", Prompt: "p3"}})
	b := NewModular([]Module{{ID: "m0", Prompt: "q1"}, {ID: "m1", Prompt: "q2"}, {ID: "m2", Prompt: "q3"}})

	merged, err := Merge(a, b, []int{0}, []int{1}, 0.4, 0.9)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "q2", "p3"}, promptsOf(merged))
}

func TestMerge_ModularBothChangedTakesHigherScore(t *testing.T) {
	a := NewModular([]Module{{ID: "m0", Prompt: "p1"}})
	b := NewModular([]Module{{ID: "m0", Prompt: "q1"}})

	merged, err := Merge(a, b, []int{0}, []int{0}, 0.2, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "q1", merged.Modules[0].Prompt)

	merged, err = Merge(a, b, []int{0}, []int{0}, 0.8, 0.2)
	require.NoError(t, err)
	assert.Equal(t, "p1", merged.Modules[0].Prompt)
}

func TestMerge_ModularTiesDefaultToA(t *testing.T) {
	a := NewModular([]Module{{ID: "m0", Prompt: "p1"}})
	b := NewModular([]Module{{ID: "m0", Prompt: "q1"}})

	merged, err := Merge(a, b, []int{0}, []int{0}, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "p1", merged.Modules[0].Prompt)
}

func TestMerge_IdempotentOnIdenticalParents(t *testing.T) {
	a := NewModular([]Module{{ID: "m0", Prompt: "p1"}, {ID: "m1", Prompt: "p2"}})
	merged, err := Merge(a, a, []int{0}, []int{1}, 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, promptsOf(a), promptsOf(merged))
}

func promptsOf(c Candidate) []string {
	out := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		out[i] = m.Prompt
	}
	return out
}
