package depgraph

import "testing"

func TestCheckAcyclicAcceptsDAG(t *testing.T) {
	udfs := []UDF{
		{Produces: "normalized", DependsOn: []string{"raw"}},
		{Produces: "smoothed", DependsOn: []string{"normalized"}},
	}
	if err := CheckAcyclic(udfs); err != nil {
		t.Fatalf("CheckAcyclic() = %v, want nil for a DAG", err)
	}
}

func TestCheckAcyclicAcceptsLeafDependencies(t *testing.T) {
	udfs := []UDF{
		{Produces: "sum", DependsOn: []string{"a", "b"}},
	}
	if err := CheckAcyclic(udfs); err != nil {
		t.Fatalf("CheckAcyclic() = %v, want nil when dependencies aren't themselves UDFs", err)
	}
}

func TestCheckAcyclicRejectsCycle(t *testing.T) {
	udfs := []UDF{
		{Produces: "a", DependsOn: []string{"b"}},
		{Produces: "b", DependsOn: []string{"a"}},
	}
	if err := CheckAcyclic(udfs); err == nil {
		t.Fatal("CheckAcyclic() = nil, want an error for a 2-cycle")
	}
}

func TestCheckAcyclicRejectsSelfDependency(t *testing.T) {
	udfs := []UDF{
		{Produces: "a", DependsOn: []string{"a"}},
	}
	if err := CheckAcyclic(udfs); err == nil {
		t.Fatal("CheckAcyclic() = nil, want an error for a self-loop")
	}
}
