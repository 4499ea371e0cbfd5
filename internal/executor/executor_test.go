package executor

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gridsynth/udfrun/internal/dataset"
)

func TestChildConfigRoundTrip(t *testing.T) {
	cfg := &childConfig{
		SOPath: "/tmp/udfrun-artifact-deadbeef.so",
		Datasets: []childDataset{
			{Name: "output", DType: "int32", Dims: []int64{4}, ElemSize: 4, FDIndex: 0, Size: 16},
			{Name: "src", DType: "int32", Dims: []int64{3}, ElemSize: 4, FDIndex: 1, Size: 12},
		},
		SandboxEnabled: true,
		DiagFDIndex:    2,
	}
	s, err := cfg.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := unmarshalChildConfig(s)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMapRegionsOutputFirstThenInputsInOrder(t *testing.T) {
	output, err := dataset.New("result", dataset.Int32, []int64{4}, make([]byte, 16))
	if err != nil {
		t.Fatalf("new output descriptor: %v", err)
	}
	a, err := dataset.New("a", dataset.Int32, []int64{3}, []byte{1, 0, 0, 0, 2, 0, 0, 0, 3, 0, 0, 0})
	if err != nil {
		t.Fatalf("new input descriptor: %v", err)
	}

	regions, cfgDatasets, cleanup, err := mapRegions(output, []*dataset.Descriptor{a})
	if err != nil {
		t.Fatalf("mapRegions: %v", err)
	}
	defer cleanup()

	if len(regions) != 2 || len(cfgDatasets) != 2 {
		t.Fatalf("got %d regions / %d dataset entries, want 2 / 2", len(regions), len(cfgDatasets))
	}
	if cfgDatasets[0].Name != "result" || cfgDatasets[0].FDIndex != 0 {
		t.Fatalf("cfgDatasets[0] = %+v, want output descriptor at index 0", cfgDatasets[0])
	}
	if cfgDatasets[1].Name != "a" || cfgDatasets[1].FDIndex != 1 {
		t.Fatalf("cfgDatasets[1] = %+v, want input descriptor at index 1", cfgDatasets[1])
	}

	// The output region starts zero-filled; the input region carries a's data.
	for _, b := range regions[0].Bytes() {
		if b != 0 {
			t.Fatalf("output region not zero-initialized: %v", regions[0].Bytes())
		}
	}
	if got := regions[1].Bytes(); string(got) != string(a.Data) {
		t.Fatalf("input region = %v, want %v", got, a.Data)
	}
}

func TestMaterializeProducesUniqueExecutableFiles(t *testing.T) {
	soBytes := []byte("not a real shared object, just bytes")
	path1, cleanup1, err := materialize(soBytes)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	defer cleanup1()
	path2, cleanup2, err := materialize(soBytes)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	defer cleanup2()

	if path1 == path2 {
		t.Fatalf("materialize produced the same path twice: %s", path1)
	}

	got, err := os.ReadFile(path1)
	if err != nil {
		t.Fatalf("read materialized file: %v", err)
	}
	if string(got) != string(soBytes) {
		t.Fatalf("materialized contents = %q, want %q", got, soBytes)
	}

	info, err := os.Stat(path1)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Fatalf("materialized file mode = %v, want 0755", info.Mode().Perm())
	}

	cleanup1()
	if _, err := os.Stat(path1); !os.IsNotExist(err) {
		t.Fatalf("cleanup did not remove %s", path1)
	}
}
