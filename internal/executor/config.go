package executor

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// childVerb is the hidden os.Args[1] value a re-exec'd child recognizes.
// A CLI front-end embedding this package must check for it (typically
// first thing in main) and call RunChild instead of its normal command
// dispatch. It is keyed off argv rather than the environment so the
// hidden verb can never collide with a real subcommand a user types by
// accident.
const childVerb = "__udfrun_exec_child__"

// ChildVerb is the argv[1] value the child re-exec uses. Exported so a
// cmd/udfrun-style front-end can recognize it without importing an
// unexported identifier.
const ChildVerb = childVerb

// childEnvKey names the environment variable the parent uses to pass the
// child its configuration. Environment, not argv, because the payload
// (dataset names, dtypes, dimension tuples) is unbounded in a way a
// single argv entry handles awkwardly.
const childEnvKey = "UDFRUN_CHILD_CONFIG"

// childDataset describes one dataset slot (output at index 0, inputs
// after it) as handed across the exec boundary: everything the child
// needs to populate rtabi's tables, plus which inherited file descriptor
// backs its shared region.
type childDataset struct {
	Name     string  `json:"name"`
	DType    string  `json:"dtype"`
	Dims     []int64 `json:"dims"`
	ElemSize int64   `json:"elem_size"`
	FDIndex  int     `json:"fd_index"` // position within cmd.ExtraFiles
	Size     int64   `json:"size"`     // region size in bytes
}

// childConfig is the full payload serialized into childEnvKey.
type childConfig struct {
	SOPath         string         `json:"so_path"`
	Datasets       []childDataset `json:"datasets"` // index 0 is output
	SandboxEnabled bool           `json:"sandbox_enabled"`
	// DiagFDIndex is the ExtraFiles position of the write end of the
	// diagnostic pipe (internal/resultfd), or -1 if none was set up.
	DiagFDIndex int `json:"diag_fd_index"`
}

func (c *childConfig) marshal() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", xerrors.Errorf("marshal child config: %w", err)
	}
	return string(b), nil
}

func unmarshalChildConfig(s string) (*childConfig, error) {
	var c childConfig
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil, xerrors.Errorf("unmarshal child config: %w", err)
	}
	return &c, nil
}
