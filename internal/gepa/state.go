package gepa

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/vmihailenco/msgpack/v5"
)

const stateVersion = 1

// CheckpointFormat selects the on-disk codec for state.json.
type CheckpointFormat string

const (
	FormatJSON    CheckpointFormat = "json"
	FormatMsgpack CheckpointFormat = "msgpack"
)

// GEPAState is the versioned, resumable snapshot of an entire engine
// run.
type GEPAState struct {
	Version     int            `json:"version"`
	BudgetLeft  int            `json:"budgetLeft"`
	Iter        int            `json:"iter"`
	Psystems    []Candidate    `json:"psystems"`
	S           [][]float64    `json:"s"`
	DparetoIdx  []int          `json:"dparetoIdx"`
	DfbIdx      []int          `json:"dfbIdx"`
	DholdIdx    []int          `json:"dholdIdx"`
	BestIdx     int            `json:"bestIdx"`
	Seeded      bool           `json:"seeded"`
	Bandit      BanditState    `json:"bandit"`
	ModuleIndex int            `json:"moduleIndex"`
	ModuleCount int            `json:"moduleCount"`
	Lineage     Lineage        `json:"lineage"`
	Strategies  []Strategy     `json:"strategies"`
	UpliftWindow []float64     `json:"upliftWindow,omitempty"`
	LastPrefilterIter int      `json:"lastPrefilterIter,omitempty"`
}

// RecomputeBestIdx sets BestIdx to argmax_k mean(S[k]).
func (st *GEPAState) RecomputeBestIdx() {
	best := 0
	bestMean := negInf
	for k, row := range st.S {
		if len(row) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		mean := sum / float64(len(row))
		if mean > bestMean {
			bestMean = mean
			best = k
		}
	}
	st.BestIdx = best
}

// RunMeta is persisted once at run-directory creation alongside
// input.json/config.json.
type RunMeta struct {
	RunID         string `json:"runId"`
	CreatedAt     string `json:"createdAt"`
	TaskInputPath string `json:"taskInputPath"`
	Config        Config `json:"config"`
	StrategiesPath string `json:"strategiesPath"`
}

// RunStore is a single run directory on disk: input.json, config.json,
// run.json, state.json, and iterations/iter-NNNN.json.
type RunStore struct {
	dir        string
	format     CheckpointFormat
	lockFile   *os.File
}

// OpenRunStore creates (if absent) the run directory and acquires an
// advisory single-writer lock on it.
func OpenRunStore(dir string, format CheckpointFormat) (*RunStore, error) {
	if format == "" {
		format = FormatJSON
	}
	if err := os.MkdirAll(filepath.Join(dir, "iterations"), 0o755); err != nil {
		return nil, NewEngineError(err, "creating run directory")
	}

	lockPath := filepath.Join(dir, ".lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, NewEngineError(err, "opening lock file")
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, NewEngineErrorWithCode(ErrLockHeld, fmt.Sprintf("run directory %s is locked by another process", dir), "LOCK_HELD")
	}

	return &RunStore{dir: dir, format: format, lockFile: f}, nil
}

// Close releases the run directory lock.
func (rs *RunStore) Close() error {
	if rs.lockFile == nil {
		return nil
	}
	syscall.Flock(int(rs.lockFile.Fd()), syscall.LOCK_UN)
	return rs.lockFile.Close()
}

func (rs *RunStore) path(name string) string {
	return filepath.Join(rs.dir, name)
}

// WriteRunMeta persists run.json, and the run's resolved Config as
// config.json, once, at run creation.
func (rs *RunStore) WriteRunMeta(meta RunMeta) error {
	if err := writeJSONFile(rs.path("config.json"), meta.Config); err != nil {
		return err
	}
	return writeJSONFile(rs.path("run.json"), meta)
}

// ReadRunMeta loads run.json.
func (rs *RunStore) ReadRunMeta() (RunMeta, error) {
	var meta RunMeta
	err := readJSONFile(rs.path("run.json"), &meta)
	return meta, err
}

// WriteInput persists the raw task input file.
func (rs *RunStore) WriteInput(data []byte) error {
	return os.WriteFile(rs.path("input.json"), data, 0o644)
}

// WriteState atomically writes state.json (or state.msgpack) using the
// store's configured codec: write to a unique temp file under the same
// directory, then rename over the target.
func (rs *RunStore) WriteState(st GEPAState) error {
	st.Version = stateVersion

	var payload []byte
	var err error
	target := rs.path("state.json")
	switch rs.format {
	case FormatMsgpack:
		payload, err = msgpack.Marshal(st)
		target = rs.path("state.msgpack")
	default:
		payload, err = json.MarshalIndent(st, "", "  ")
	}
	if err != nil {
		return NewEngineError(err, "marshaling state")
	}

	tmp, err := os.CreateTemp(rs.dir, "state-*.tmp")
	if err != nil {
		return NewEngineErrorWithCode(ErrCheckpointWrite, "creating temp checkpoint file", "CHECKPOINT_WRITE")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return NewEngineErrorWithCode(ErrCheckpointWrite, "writing temp checkpoint file", "CHECKPOINT_WRITE")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return NewEngineErrorWithCode(ErrCheckpointWrite, "closing temp checkpoint file", "CHECKPOINT_WRITE")
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return NewEngineErrorWithCode(ErrCheckpointWrite, "renaming checkpoint file into place", "CHECKPOINT_WRITE")
	}
	return nil
}

// ReadState loads the most recent checkpoint from the file of the
// store's configured format only (state.json or state.msgpack).
func (rs *RunStore) ReadState() (GEPAState, error) {
	var st GEPAState
	switch rs.format {
	case FormatMsgpack:
		data, err := os.ReadFile(rs.path("state.msgpack"))
		if err != nil {
			return st, err
		}
		if err := msgpack.Unmarshal(data, &st); err != nil {
			return st, NewEngineError(err, "unmarshaling msgpack state")
		}
	default:
		if err := readJSONFile(rs.path("state.json"), &st); err != nil {
			return st, err
		}
	}
	if st.Version != stateVersion {
		return st, NewEngineError(ErrStateVersion, fmt.Sprintf("checkpoint version %d, expected %d", st.Version, stateVersion))
	}
	return st, nil
}

// HasCheckpoint reports whether a prior checkpoint exists in this run
// directory.
func (rs *RunStore) HasCheckpoint() bool {
	for _, name := range []string{"state.json", "state.msgpack"} {
		if _, err := os.Stat(rs.path(name)); err == nil {
			return true
		}
	}
	return false
}

// WriteIterationSummary writes iterations/iter-NNNN.json.
func (rs *RunStore) WriteIterationSummary(event IterationEvent) error {
	name := filepath.Join("iterations", fmt.Sprintf("iter-%04d.json", event.Iter))
	return writeJSONFile(rs.path(name), event)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return NewEngineError(err, "marshaling "+path)
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
