package main

import (
	"encoding/json"
	"os"

	"golang.org/x/xerrors"
)

// datasetSpec names one dataset's on-disk binary file alongside the
// metadata needed to build a udfrun.Dataset from it.
type datasetSpec struct {
	Name  string  `json:"name"`
	DType string  `json:"dtype"`
	Dims  []int64 `json:"dims"`
	Path  string  `json:"path"`
}

// jobSpec describes one run() invocation end to end: which blob to load,
// its output and input datasets, and the sandbox policy reference to
// use. A single `udfrun run` invocation accepts many job files and runs
// them concurrently, since the core permits any number of concurrent
// invocations that use disjoint shared regions.
type jobSpec struct {
	Blob       string      `json:"blob"`
	Output     datasetSpec `json:"output"`
	Inputs     []datasetSpec `json:"inputs"`
	PolicyFile string      `json:"policy_file"`
	Sandbox    bool        `json:"sandbox"`
}

func loadJobSpec(path string) (*jobSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read job spec %s: %w", path, err)
	}
	var j jobSpec
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, xerrors.Errorf("parse job spec %s: %w", path, err)
	}
	return &j, nil
}
