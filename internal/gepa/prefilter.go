package gepa

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
)

const maxPreviewItems = 8

var looseScoreRe = regexp.MustCompile(`"([a-zA-Z0-9_\-]+)"\s*:\s*([01](?:\.\d+)?)`)

// PrefilterStrategies rates each catalog strategy against a preview of
// task texts via the actor, keeps those scoring >= threshold (sorted
// descending, optionally capped to topK). Empty inputs return an empty
// result without calling the actor. Parse failures fall back to a loose
// substring match; total failure keeps every strategy and logs.
func PrefilterStrategies(ctx context.Context, actor Actor, catalog []Strategy, previewTexts []string, threshold float64, topK int, logger *slog.Logger) ([]Strategy, error) {
	if len(catalog) == 0 || len(previewTexts) == 0 {
		return nil, nil
	}

	preview := previewTexts
	if len(preview) > maxPreviewItems {
		preview = preview[:maxPreviewItems]
	}

	prompt := buildPrefilterPrompt(catalog, preview)
	reply, err := actor.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("prefilter actor call failed, keeping all strategies", "error", err)
		return append([]Strategy{}, catalog...), nil
	}

	scores, parseErr := parsePrefilterReply(reply, catalog)
	if parseErr != nil {
		logger.Warn("prefilter reply failed to parse, keeping all strategies", "error", parseErr)
		return append([]Strategy{}, catalog...), nil
	}

	type scored struct {
		s     Strategy
		score float64
	}
	kept := make([]scored, 0, len(catalog))
	for _, s := range catalog {
		sc := scores[s.ID]
		if sc >= threshold {
			kept = append(kept, scored{s, sc})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}

	out := make([]Strategy, len(kept))
	for i, k := range kept {
		out[i] = k.s
	}
	return out, nil
}

func buildPrefilterPrompt(catalog []Strategy, preview []string) string {
	payload := map[string]any{"strategies": catalog, "taskPreview": preview}
	b, _ := json.Marshal(payload)
	return "Score each strategy id in [0,1] for fit against the task preview. Reply with strict JSON: {\"id\": score, ...}.\n\n" + string(b)
}

// parsePrefilterReply parses a strict JSON id->score map, defaulting
// missing ids to 0 and clamping present scores to [0,1]. On JSON parse
// failure it tries a loose "id": score substring match.
func parsePrefilterReply(reply string, catalog []Strategy) (map[string]float64, error) {
	out := make(map[string]float64, len(catalog))
	for _, s := range catalog {
		out[s.ID] = 0
	}

	var raw map[string]float64
	if err := json.Unmarshal([]byte(reply), &raw); err == nil {
		for id, v := range raw {
			out[id] = clamp(v, 0, 1)
		}
		return out, nil
	}

	matches := looseScoreRe.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return nil, NewEngineError(ErrMalformedPrefilterReply, "no id:score pairs found in prefilter reply")
	}
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			out[m[1]] = clamp(v, 0, 1)
		}
	}
	return out, nil
}
