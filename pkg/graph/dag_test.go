package graph

import (
	"testing"

	"github.com/kroengine/rgde/pkg/ref"
)

func resourceDependingOn(id string, deps ...string) *Resource {
	r := validResource(id)
	data := map[string]any{}
	for i, dep := range deps {
		data[string(rune('a'+i))] = ref.New(dep, "status.id")
	}
	r.Manifest["data"] = data
	return r
}

func TestBuildDAG(t *testing.T) {
	tests := []struct {
		name    string
		graph   *Graph
		wantErr bool
	}{
		{
			name: "simple linear dependency",
			graph: &Graph{
				Name: "test", Kind: "T",
				Resources: []*Resource{
					resourceDependingOn("a"),
					resourceDependingOn("b", "a"),
				},
			},
			wantErr: false,
		},
		{
			name: "diamond dependency",
			graph: &Graph{
				Name: "test", Kind: "T",
				Resources: []*Resource{
					resourceDependingOn("a"),
					resourceDependingOn("b", "a"),
					resourceDependingOn("c", "a"),
					resourceDependingOn("d", "b", "c"),
				},
			},
			wantErr: false,
		},
		{
			name: "cycle detection",
			graph: &Graph{
				Name: "test", Kind: "T",
				Resources: []*Resource{
					resourceDependingOn("a", "b"),
					resourceDependingOn("b", "a"),
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dag, err := BuildDAG(tt.graph)
			if (err != nil) != tt.wantErr {
				t.Errorf("BuildDAG() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && dag == nil {
				t.Error("BuildDAG() returned nil DAG without error")
			}
		})
	}
}

func createLinearGraph(n int) *Graph {
	resources := make([]*Resource, n)
	for i := 0; i < n; i++ {
		id := idFor(i)
		if i == 0 {
			resources[i] = resourceDependingOn(id)
		} else {
			resources[i] = resourceDependingOn(id, idFor(i-1))
		}
	}
	return &Graph{Name: "benchmark", Kind: "T", Resources: resources}
}

func idFor(i int) string {
	id := string(rune('a' + i%26))
	if i >= 26 {
		id += string(rune('0' + i/26))
	}
	return id
}

func createWideGraph(n int) *Graph {
	resources := make([]*Resource, n)
	resources[0] = resourceDependingOn("root")
	for i := 1; i < n; i++ {
		resources[i] = resourceDependingOn(idFor(i)+"x", "root")
	}
	return &Graph{Name: "benchmark", Kind: "T", Resources: resources}
}

func BenchmarkBuildDAG_10Resources(b *testing.B) {
	g := createLinearGraph(10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildDAG(g)
	}
}

func BenchmarkBuildDAG_100Resources(b *testing.B) {
	g := createLinearGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildDAG(g)
	}
}

func BenchmarkBuildDAG_WideGraph_100Resources(b *testing.B) {
	g := createWideGraph(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildDAG(g)
	}
}

func BenchmarkDAG_Order_100Resources(b *testing.B) {
	g := createLinearGraph(100)
	dag, _ := BuildDAG(g)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dag.Order()
	}
}

func BenchmarkDAG_Levels_100Resources(b *testing.B) {
	g := createWideGraph(100)
	dag, _ := BuildDAG(g)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dag.Levels()
	}
}

func TestDAGOperations(t *testing.T) {
	// a -> b -> d
	// a -> c -> d
	g := &Graph{
		Name: "test", Kind: "T",
		Resources: []*Resource{
			resourceDependingOn("a"),
			resourceDependingOn("b", "a"),
			resourceDependingOn("c", "a"),
			resourceDependingOn("d", "b", "c"),
		},
	}

	dag, err := BuildDAG(g)
	if err != nil {
		t.Fatalf("BuildDAG() failed: %v", err)
	}

	t.Run("GetResource", func(t *testing.T) {
		r, found := dag.GetResource("a")
		if !found {
			t.Error("GetResource('a') not found")
		}
		if r.ID != "a" {
			t.Errorf("GetResource('a') returned wrong resource: %s", r.ID)
		}

		_, found = dag.GetResource("nonexistent")
		if found {
			t.Error("GetResource('nonexistent') should not be found")
		}
	})

	t.Run("Order", func(t *testing.T) {
		order := dag.Order()
		if len(order) != 4 {
			t.Errorf("Order() returned %d resources, want 4", len(order))
		}

		idx := map[string]int{}
		for i, id := range order {
			idx[id] = i
		}
		if idx["a"] > idx["b"] || idx["a"] > idx["c"] || idx["a"] > idx["d"] {
			t.Error("'a' must come before 'b', 'c', and 'd' in topological order")
		}
		if idx["b"] > idx["d"] || idx["c"] > idx["d"] {
			t.Error("'b' and 'c' must come before 'd' in topological order")
		}
	})

	t.Run("Levels", func(t *testing.T) {
		levels := dag.Levels()
		if len(levels) != 3 {
			t.Fatalf("Levels() returned %d levels, want 3", len(levels))
		}
		if len(levels[0]) != 1 || levels[0][0] != "a" {
			t.Errorf("level 0 = %v, want [a]", levels[0])
		}
		if len(levels[1]) != 2 || levels[1][0] != "b" || levels[1][1] != "c" {
			t.Errorf("level 1 = %v, want [b c]", levels[1])
		}
		if len(levels[2]) != 1 || levels[2][0] != "d" {
			t.Errorf("level 2 = %v, want [d]", levels[2])
		}
	})

	t.Run("RollbackOrder", func(t *testing.T) {
		order := dag.Order()
		rollback := dag.RollbackOrder()
		if len(rollback) != len(order) {
			t.Fatalf("RollbackOrder() length mismatch")
		}
		for i, id := range rollback {
			if id != order[len(order)-1-i] {
				t.Errorf("RollbackOrder() is not the exact reverse of Order()")
				break
			}
		}
	})

	t.Run("Dependencies", func(t *testing.T) {
		deps, err := dag.Dependencies("d")
		if err != nil {
			t.Errorf("Dependencies('d') failed: %v", err)
		}
		if len(deps) != 2 {
			t.Errorf("Dependencies('d') returned %d deps, want 2", len(deps))
		}
	})

	t.Run("Dependents", func(t *testing.T) {
		dependents, err := dag.Dependents("a")
		if err != nil {
			t.Errorf("Dependents('a') failed: %v", err)
		}
		if len(dependents) != 2 {
			t.Errorf("Dependents('a') returned %d dependents, want 2", len(dependents))
		}

		dependents, err = dag.Dependents("d")
		if err != nil {
			t.Errorf("Dependents('d') failed: %v", err)
		}
		if len(dependents) != 0 {
			t.Errorf("Dependents('d') returned %d dependents, want 0", len(dependents))
		}
	})

	t.Run("Size", func(t *testing.T) {
		if dag.Size() != 4 {
			t.Errorf("Size() = %d, want 4", dag.Size())
		}
	})

	t.Run("RootNodes", func(t *testing.T) {
		roots := dag.RootNodes()
		if len(roots) != 1 || roots[0] != "a" {
			t.Errorf("RootNodes() = %v, want [a]", roots)
		}
	})

	t.Run("LeafNodes", func(t *testing.T) {
		leaves := dag.LeafNodes()
		if len(leaves) != 1 || leaves[0] != "d" {
			t.Errorf("LeafNodes() = %v, want [d]", leaves)
		}
	})
}

func TestBuildDAGCyclePath(t *testing.T) {
	g := &Graph{
		Name: "test", Kind: "T",
		Resources: []*Resource{
			resourceDependingOn("a", "b"),
			resourceDependingOn("b", "c"),
			resourceDependingOn("c", "a"),
		},
	}

	_, err := BuildDAG(g)
	if err == nil {
		t.Fatal("expected a cycle error")
	}
}
