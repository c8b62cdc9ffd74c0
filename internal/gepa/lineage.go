package gepa

// LineageEntry records how candidateIndex came to exist: which module
// indices it changed relative to its parent (mutation: one index;
// crossover: the union from both parents), and an optional parent index.
// A flat, append-only sequence — never a back-pointer graph — avoids
// representing the ancestry DAG cyclically.
type LineageEntry struct {
	CandidateIndex int   `json:"candidateIndex"`
	ChangedModules []int `json:"changedModules"`
	ParentIndex    *int  `json:"parentIndex,omitempty"`
}

// Lineage is the append-only ancestry record for a run's population.
type Lineage []LineageEntry

// entryFor returns the lineage entry recorded for candidate index k, if
// any. Seed candidates (and any candidate added before lineage tracking
// began) have no entry and are treated as roots.
func (l Lineage) entryFor(k int) (LineageEntry, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].CandidateIndex == k {
			return l[i], true
		}
	}
	return LineageEntry{}, false
}

// ancestors returns the chain of ancestor indices for k, nearest first,
// walking ParentIndex pointers.
func (l Lineage) ancestors(k int) []int {
	var chain []int
	seen := map[int]bool{k: true}
	for {
		entry, ok := l.entryFor(k)
		if !ok || entry.ParentIndex == nil {
			return chain
		}
		parent := *entry.ParentIndex
		if seen[parent] {
			return chain
		}
		seen[parent] = true
		chain = append(chain, parent)
		k = parent
	}
}

// IsAncestor reports whether a is an ancestor of b along the lineage
// chain.
func (l Lineage) IsAncestor(a, b int) bool {
	for _, anc := range l.ancestors(b) {
		if anc == a {
			return true
		}
	}
	return false
}

// AreDirectRelatives reports whether either of a, b is an ancestor of the
// other.
func (l Lineage) AreDirectRelatives(a, b int) bool {
	return l.IsAncestor(a, b) || l.IsAncestor(b, a)
}

// SharedAncestor returns the most recent common ancestor of a and b, or
// (0, false) if none exists.
func (l Lineage) SharedAncestor(a, b int) (int, bool) {
	chainA := append([]int{a}, l.ancestors(a)...)
	chainB := append([]int{b}, l.ancestors(b)...)

	seen := make(map[int]bool, len(chainA))
	for _, x := range chainA {
		seen[x] = true
	}
	for _, y := range chainB {
		if seen[y] {
			return y, true
		}
	}
	return 0, false
}

// ChangedModules returns the changed-module indices recorded for
// candidate k, or nil if k has no lineage entry.
func (l Lineage) ChangedModules(k int) []int {
	entry, ok := l.entryFor(k)
	if !ok {
		return nil
	}
	return entry.ChangedModules
}
