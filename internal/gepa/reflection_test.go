package gepa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeTrace_SortsKeysAndIndents(t *testing.T) {
	got := SummarizeTrace(map[string]any{"b": 2, "a": 1, "c": 3}, 1000)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2,\n  \"c\": 3\n}", got)
}

func TestSummarizeTrace_TruncatesAtBoundary(t *testing.T) {
	got := SummarizeTrace(map[string]any{"b": 2, "a": 1, "c": 3}, 10)
	assert.True(t, len(got) <= 13)
	assert.Contains(t, got, "...")
}

func TestSummarizeTrace_NilIsAbsent(t *testing.T) {
	assert.Equal(t, "", SummarizeTrace(nil, 100))
}

func TestSummarizeTrace_Deterministic(t *testing.T) {
	data := map[string]any{"z": "last", "a": "first", "m": 42}
	first := SummarizeTrace(data, 200)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, SummarizeTrace(data, 200))
	}
}

func TestParseReflectionReply_FencedBlock(t *testing.T) {
	reply := "Sure thing.\n```instruction\nDo the thing carefully.\n```\nDone."
	assert.Equal(t, "Do the thing carefully.", ParseReflectionReply(reply))
}

func TestParseReflectionReply_TaggedPrefix(t *testing.T) {
	reply := "REWRITTEN_INSTRUCTION: Always answer in one sentence."
	assert.Equal(t, "Always answer in one sentence.", ParseReflectionReply(reply))
}

func TestParseReflectionReply_FallsBackToTrimmedRaw(t *testing.T) {
	reply := "  Here's the new prompt: Be concise.  "
	assert.Equal(t, "Be concise.", ParseReflectionReply(reply))
}

func TestParseReflectionReply_RawReplyWithNoMarker(t *testing.T) {
	reply := "  Just answer directly.  "
	assert.Equal(t, "Just answer directly.", ParseReflectionReply(reply))
}

func TestParseJudgeReply_ValidJSON(t *testing.T) {
	r := ParseJudgeReply(`{"score": 0.75, "feedback": "good but verbose"}`)
	assert.Equal(t, 0.75, r.Score)
	assert.Equal(t, "good but verbose", r.Feedback)
}

func TestParseJudgeReply_ClampsScore(t *testing.T) {
	r := ParseJudgeReply(`{"score": 5, "feedback": "x"}`)
	assert.Equal(t, 1.0, r.Score)
}

func TestParseJudgeReply_ExtractsEmbeddedJSON(t *testing.T) {
	r := ParseJudgeReply("Here is my evaluation:\n```json\n{\"score\": 0.4, \"feedback\": \"ok\"}\n```")
	assert.Equal(t, 0.4, r.Score)
	assert.Equal(t, "ok", r.Feedback)
}

func TestParseJudgeReply_ParseFailureRecoversToZero(t *testing.T) {
	r := ParseJudgeReply("not json at all")
	assert.Equal(t, JudgeResult{}, r)
}

func TestBuildReflectionPrompt_ModularMarksTarget(t *testing.T) {
	modules := []Module{{ID: "intro", Prompt: "Greet the user."}, {ID: "body", Prompt: "Answer the question."}}
	prompt := BuildReflectionPrompt("Answer the question.", "be terse", nil, modules, 1)

	assert.Contains(t, prompt, "-> module[1] (body)")
	assert.Contains(t, prompt, "  module[0] (intro)")
	assert.Contains(t, prompt, "be terse")
}

func TestBuildReflectionPrompt_SingleHasNoModuleMarkers(t *testing.T) {
	prompt := BuildReflectionPrompt("Do the task.", "", nil, nil, 0)
	assert.Contains(t, prompt, "Do the task.")
	assert.NotContains(t, prompt, "module[")
}
