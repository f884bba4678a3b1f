package orchestration

import "testing"

func TestDAGValidateAcceptsValidGraph(t *testing.T) {
	d := newDAG([]Subtask{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
		{ID: "c", Dependencies: []string{"a", "b"}},
	})
	if err := d.validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDAGValidateRejectsUnknownDependency(t *testing.T) {
	d := newDAG([]Subtask{
		{ID: "a", Dependencies: []string{"ghost"}},
	})
	if err := d.validate(); err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func TestDAGValidateRejectsCycle(t *testing.T) {
	d := newDAG([]Subtask{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	})
	err := d.validate()
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if _, ok := err.(*PlanCycleError); !ok {
		t.Errorf("expected *PlanCycleError, got %T", err)
	}
}

func TestDAGTopologicalOrder(t *testing.T) {
	d := newDAG([]Subtask{
		{ID: "c", Dependencies: []string{"b"}},
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
	})
	order := d.topologicalOrder()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("topological order violated: %v", order)
	}
}

func TestDAGExecutionLevels(t *testing.T) {
	d := newDAG([]Subtask{
		{ID: "a"},
		{ID: "b"},
		{ID: "c", Dependencies: []string{"a", "b"}},
	})
	levels := d.executionLevels()
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d: %v", len(levels), levels)
	}
	if len(levels[0]) != 2 {
		t.Errorf("expected first level to contain both roots, got %v", levels[0])
	}
	if len(levels[1]) != 1 || levels[1][0] != "c" {
		t.Errorf("expected second level to be [c], got %v", levels[1])
	}
}
