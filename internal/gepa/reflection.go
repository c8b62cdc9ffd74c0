package gepa

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	instructionBlockOpen  = "```instruction"
	instructionBlockClose = "```"
)

var (
	rewrittenBlockRe = regexp.MustCompile("(?s)```instruction\\s*\\n(.*?)\\n```")
	taggedReplyRe    = regexp.MustCompile(`(?s)REWRITTEN_INSTRUCTION:\s*(.*)`)
	leadingMarkerRe  = regexp.MustCompile(`(?i)^\s*(here(?:'s| is) (?:the )?new[\w\s]*prompt:?|new instruction:?)\s*`)
)

// ReflectionExample is one before/after example shown to the actor.
type ReflectionExample struct {
	User         string
	Output       string
	Feedback     string
	TraceSummary string
}

// BuildReflectionPrompt assembles the meta-prompt asking the actor to
// rewrite currentText (an instruction or a single module). For modular
// candidates, allModules/targetIndex let the prompt show the full module
// list with a marker on the one being rewritten.
func BuildReflectionPrompt(currentText string, strategyHint string, examples []ReflectionExample, allModules []Module, targetIndex int) string {
	var b strings.Builder

	b.WriteString("REWRITE the instruction below to improve task performance.\n\n")

	if len(allModules) > 1 {
		b.WriteString("This instruction is one of several modules. Only the marked module may change; reproduce the others verbatim if asked to restate them.\n\n")
		for i, m := range allModules {
			marker := "  "
			if i == targetIndex {
				marker = "->"
			}
			fmt.Fprintf(&b, "%s module[%d] (%s):\n%s\n\n", marker, i, m.ID, m.Prompt)
		}
	} else {
		fmt.Fprintf(&b, "Current instruction:\n%s\n%s\n%s\n\n", instructionBlockOpen, currentText, instructionBlockClose)
	}

	if strategyHint != "" {
		fmt.Fprintf(&b, "Strategy hint: %s\n\n", strategyHint)
	}

	if len(examples) > 0 {
		b.WriteString("Examples:\n")
		for _, ex := range examples {
			fmt.Fprintf(&b, "- user: %s\n  assistant: %s\n  feedback: %s\n", ex.User, ex.Output, ex.Feedback)
			if ex.TraceSummary != "" {
				fmt.Fprintf(&b, "  trace: %s\n", ex.TraceSummary)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("Reply with the rewritten instruction in a fenced block:\n")
	b.WriteString(instructionBlockOpen + "\n<new instruction>\n" + instructionBlockClose + "\n")

	return b.String()
}

// ParseReflectionReply extracts the new instruction text from the
// actor's reply. It accepts the fenced ```instruction block, the
// REWRITTEN_INSTRUCTION: tagged prefix, and otherwise falls back to the
// trimmed raw reply, stripping a leading "here's the new prompt" style
// marker if present.
func ParseReflectionReply(reply string) string {
	if m := rewrittenBlockRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := taggedReplyRe.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	trimmed := strings.TrimSpace(reply)
	trimmed = leadingMarkerRe.ReplaceAllString(trimmed, "")
	return strings.TrimSpace(trimmed)
}

// JudgeResult is the tolerant parse of a chat judge's reply.
type JudgeResult struct {
	Score    float64
	Feedback string
}

type judgeReplyPayload struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// ParseJudgeReply parses a judge's JSON reply into {score, feedback},
// clamping score to [0,1]. Any parse failure recovers to {0, ""}.
func ParseJudgeReply(reply string) JudgeResult {
	var payload judgeReplyPayload
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &payload); err != nil {
		return JudgeResult{}
	}
	return JudgeResult{Score: clamp(payload.Score, 0, 1), Feedback: payload.Feedback}
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// extractJSONObject returns the span of s from its first "{" to its last
// "}", or s unchanged if there is no such span, tolerating judge replies that wrap JSON in prose or a
// fenced block.
func extractJSONObject(s string) string {
	if m := jsonObjectRe.FindString(s); m != "" {
		return m
	}
	return s
}

// SummarizeTrace produces a deterministic, size-bounded string from an
// opaque key-value mapping: keys sorted lexicographically, body
// serialized as indented JSON, truncated at a structural boundary near
// the high-80% region of maxSize when too long.
func SummarizeTrace(data map[string]any, maxSize int) string {
	if data == nil {
		return ""
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make(map[string]any, len(data))
	for _, k := range keys {
		ordered[k] = data[k]
	}

	body, err := marshalIndentSorted(keys, ordered)
	if err != nil {
		body = fmt.Sprintf("%v", data)
	}

	if len(body) <= maxSize {
		return body
	}
	return truncateAtBoundary(body, maxSize)
}

// marshalIndentSorted builds "{\n  \"k\": v,\n  ...\n}" with keys in the
// given (already sorted) order — encoding/json alone does not guarantee
// map key order across Go versions, so this writes the object by hand
// using json.Marshal only for each value.
func marshalIndentSorted(keys []string, data map[string]any) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	for i, k := range keys {
		valBytes, err := json.Marshal(data[k])
		if err != nil {
			return "", err
		}
		keyBytes, _ := json.Marshal(k)
		fmt.Fprintf(&b, "  %s: %s", string(keyBytes), string(valBytes))
		if i < len(keys)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String(), nil
}

// truncateAtBoundary truncates body to fit within maxSize (including a
// trailing "..."), preferring to cut at a structural boundary (",", "}",
// "\n") within the high-80% region of the budget.
func truncateAtBoundary(body string, maxSize int) string {
	budget := maxSize - 3
	if budget < 0 {
		budget = 0
	}
	if budget >= len(body) {
		return body[:len(body)] + "..."
	}

	lowBound := (budget * 8) / 10
	cut := budget
	for i := budget - 1; i >= lowBound && i < len(body); i-- {
		c := body[i]
		if c == ',' || c == '}' || c == '\n' {
			cut = i + 1
			break
		}
	}
	if cut > len(body) {
		cut = len(body)
	}
	return strings.TrimRight(body[:cut], "\n") + "..."
}
