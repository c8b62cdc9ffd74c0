package gepa

import (
	"encoding/json"
	"strings"
)

// CandidateKind discriminates the two Candidate variants. Serialized
// explicitly, never inferred from field absence.
type CandidateKind string

const (
	KindSingle  CandidateKind = "single"
	KindModular CandidateKind = "modular"
)

// Module is one named instruction fragment of a Modular candidate.
type Module struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// Candidate is a polymorphic instruction value: exactly one of Single (a
// plain instruction string) or Modular (an ordered, non-empty list of
// Modules). The kind is fixed at construction and never changes across a
// candidate's lineage.
type Candidate struct {
	Kind    CandidateKind
	Single  string
	Modules []Module
}

func NewSingle(instruction string) Candidate {
	return Candidate{Kind: KindSingle, Single: instruction}
}

func NewModular(modules []Module) Candidate {
	cp := make([]Module, len(modules))
	copy(cp, modules)
	return Candidate{Kind: KindModular, Modules: cp}
}

// Validate checks the candidate resolves to exactly one well-formed
// variant.
func (c Candidate) Validate() error {
	switch c.Kind {
	case KindSingle:
		if strings.TrimSpace(c.Single) == "" {
			return NewEngineError(ErrEmptySeed, "single candidate has empty instruction")
		}
		return nil
	case KindModular:
		if len(c.Modules) == 0 {
			return NewEngineError(ErrInvalidCandidate, "modular candidate has no modules")
		}
		for _, m := range c.Modules {
			if strings.TrimSpace(m.ID) == "" || strings.TrimSpace(m.Prompt) == "" {
				return NewEngineError(ErrInvalidModule, "module id or prompt is empty")
			}
		}
		return nil
	default:
		return NewEngineError(ErrInvalidCandidate, "unknown candidate kind")
	}
}

// Clone returns a deep copy so mutation of the returned value never
// affects the original.
func (c Candidate) Clone() Candidate {
	out := Candidate{Kind: c.Kind, Single: c.Single}
	if c.Modules != nil {
		out.Modules = make([]Module, len(c.Modules))
		copy(out.Modules, c.Modules)
	}
	return out
}

// Concatenate produces the effective instruction: the raw string for
// Single, or module prompts joined by a blank line for Modular.
func (c Candidate) Concatenate() string {
	if c.Kind == KindSingle {
		return c.Single
	}
	parts := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		parts[i] = m.Prompt
	}
	return strings.Join(parts, "\n\n")
}

// ModuleCount is 1 for Single, len(Modules) for Modular.
func (c Candidate) ModuleCount() int {
	if c.Kind == KindSingle {
		return 1
	}
	return len(c.Modules)
}

// SetModule returns a new candidate with module i replaced by newText.
// For Single, i=0 replaces the whole instruction.
func (c Candidate) SetModule(i int, newText string) Candidate {
	out := c.Clone()
	if out.Kind == KindSingle {
		out.Single = newText
		return out
	}
	if i >= 0 && i < len(out.Modules) {
		out.Modules[i].Prompt = newText
	}
	return out
}

// serializedCandidate is the tagged-object wire form for Modular
// candidates. Single candidates serialize as their raw JSON string, with
// no wrapping object.
type serializedCandidate struct {
	Tag     string   `json:"tag"`
	Modules []Module `json:"modules"`
}

const modularTag = "modular"

// MarshalJSON writes Single as a bare string and Modular as a tagged
// object so the deserializer can tell them apart unambiguously.
func (c Candidate) MarshalJSON() ([]byte, error) {
	if c.Kind == KindModular {
		return json.Marshal(serializedCandidate{Tag: modularTag, Modules: c.Modules})
	}
	return json.Marshal(c.Single)
}

// UnmarshalJSON recognizes the tagged Modular form and otherwise treats
// the payload as a Single string.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		c.Kind = KindSingle
		c.Single = asString
		c.Modules = nil
		return nil
	}

	var tagged serializedCandidate
	if err := json.Unmarshal(data, &tagged); err != nil {
		return NewEngineError(err, "candidate payload is neither a string nor a tagged object")
	}
	c.Kind = KindModular
	c.Single = ""
	c.Modules = tagged.Modules
	return nil
}

// changedSet converts a slice of changed-module indices into a lookup
// set.
func changedSet(idxs []int) map[int]bool {
	s := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		s[i] = true
	}
	return s
}

// Merge combines two candidates of identical structure into a child,
// preferring per-module the parent that changed it, the higher-scoring
// parent when both changed it (ties favor A), and A when neither did.
func Merge(a, b Candidate, changedA, changedB []int, scoreA, scoreB float64) (Candidate, error) {
	if a.Kind != b.Kind {
		return Candidate{}, NewEngineError(ErrStructureMismatch, "cannot merge single with modular")
	}

	higher := a
	if scoreB > scoreA {
		higher = b
	}

	if a.Kind == KindSingle {
		return higher.Clone(), nil
	}

	if len(a.Modules) != len(b.Modules) {
		return Candidate{}, NewEngineError(ErrModuleCountMismatch, "modular candidates have different module counts")
	}

	setA := changedSet(changedA)
	setB := changedSet(changedB)

	out := a.Clone()
	for i := range out.Modules {
		inA, inB := setA[i], setB[i]
		switch {
		case inA && !inB:
			out.Modules[i] = a.Modules[i]
		case inB && !inA:
			out.Modules[i] = b.Modules[i]
		case inA && inB:
			if scoreB > scoreA {
				out.Modules[i] = b.Modules[i]
			} else {
				out.Modules[i] = a.Modules[i]
			}
		default:
			out.Modules[i] = a.Modules[i]
		}
	}
	return out, nil
}
