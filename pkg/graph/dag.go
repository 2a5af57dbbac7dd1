/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package graph

import (
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/kroengine/rgde/pkg/rgerr"
)

// DAG is the dependency graph built from a Graph's resources, grounded on
// the teacher's dominikbraun/graph-based DAG (pkg/graph/dag.go in the
// source project) but deriving edges from embedded References instead of
// an explicit DependsOn list, and running its own cycle detection up front
// so a cycle is reported as a full path (rgerr.CircularDependencyError)
// rather than dominikbraun/graph's single-edge PreventCycles error.
type DAG struct {
	g       graph.Graph[string, string]
	nodeMap map[string]*Resource
	order   []string // topological order
	levels  [][]string
}

// BuildDAG constructs the dependency DAG for rg's resources. It returns a
// *rgerr.CircularDependencyError if the reference graph has a cycle.
func BuildDAG(rg *Graph) (*DAG, error) {
	nodeMap := make(map[string]*Resource, len(rg.Resources))
	edges := make(map[string][]string, len(rg.Resources))
	for _, r := range rg.Resources {
		nodeMap[r.ID] = r
	}
	for _, r := range rg.Resources {
		for _, depID := range ResourceRefs(r) {
			if _, ok := nodeMap[depID]; ok {
				edges[r.ID] = append(edges[r.ID], depID)
			}
		}
	}

	if cycle := findCycle(nodeMap, edges); cycle != nil {
		return nil, &rgerr.CircularDependencyError{Cycle: cycle}
	}

	dg := graph.New(graph.StringHash, graph.Directed())
	for id := range nodeMap {
		_ = dg.AddVertex(id)
	}
	for from, deps := range edges {
		for _, to := range deps {
			// dependency edge: from depends on to, so to must be applied
			// first — point the DAG edge to -> from.
			_ = dg.AddEdge(to, from)
		}
	}

	order, err := graph.TopologicalSort(dg)
	if err != nil {
		return nil, err
	}

	d := &DAG{g: dg, nodeMap: nodeMap, order: order}
	d.levels = computeLevels(nodeMap, edges, order)
	return d, nil
}

// findCycle runs a DFS over the dependency edges (r -> its dependencies)
// looking for a back-edge, returning the cycle as an ordered slice of
// resource ids (first == last) if found, or nil.
func findCycle(nodeMap map[string]*Resource, edges map[string][]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodeMap))
	parent := make(map[string]string, len(nodeMap))

	ids := make([]string, 0, len(nodeMap))
	for id := range nodeMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var cyclePath []string
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		deps := append([]string(nil), edges[id]...)
		sort.Strings(deps)
		for _, dep := range deps {
			switch color[dep] {
			case white:
				parent[dep] = id
				if visit(dep) {
					return true
				}
			case gray:
				// Found a back edge id -> dep; reconstruct the cycle by
				// walking parents from id back up to dep.
				path := []string{dep, id}
				cur := id
				for cur != dep {
					cur = parent[cur]
					path = append(path, cur)
				}
				cyclePath = reverseStrings(path)
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, id := range ids {
		if color[id] == white {
			if visit(id) {
				return cyclePath
			}
		}
	}
	return nil
}

func reverseStrings(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}

// computeLevels groups ids into bounded-parallelism levels: an id's level
// is one more than the max level of its dependencies (0 for roots). Within
// a level, ids are ordered lexicographically for determinism.
func computeLevels(nodeMap map[string]*Resource, edges map[string][]string, order []string) [][]string {
	level := make(map[string]int, len(nodeMap))
	for _, id := range order {
		max := -1
		for _, dep := range edges[id] {
			if level[dep] > max {
				max = level[dep]
			}
		}
		level[id] = max + 1
	}

	var maxLevel int
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}
	levels := make([][]string, maxLevel+1)
	for id, l := range level {
		levels[l] = append(levels[l], id)
	}
	for _, l := range levels {
		sort.Strings(l)
	}
	return levels
}

// GetResource returns the resource with the given id.
func (d *DAG) GetResource(id string) (*Resource, bool) {
	r, ok := d.nodeMap[id]
	return r, ok
}

// Order returns the full topological order (dependencies before dependents).
func (d *DAG) Order() []string {
	return append([]string(nil), d.order...)
}

// Levels returns the bounded-parallelism levels: resources within a level
// have no dependency relationship to each other and may be applied
// concurrently; levels themselves must be processed in order.
func (d *DAG) Levels() [][]string {
	out := make([][]string, len(d.levels))
	for i, l := range d.levels {
		out[i] = append([]string(nil), l...)
	}
	return out
}

// RollbackOrder returns the exact reverse of the topological order, i.e.
// the order in which deployed resources should be torn down.
func (d *DAG) RollbackOrder() []string {
	out := make([]string, len(d.order))
	for i, id := range d.order {
		out[len(d.order)-1-i] = id
	}
	return out
}

// Dependencies returns the ids that id directly depends on.
func (d *DAG) Dependencies(id string) ([]string, error) {
	preds, err := d.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	var deps []string
	for from := range preds[id] {
		deps = append(deps, from)
	}
	sort.Strings(deps)
	return deps, nil
}

// Dependents returns the ids that directly depend on id.
func (d *DAG) Dependents(id string) ([]string, error) {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	var deps []string
	for to := range adj[id] {
		deps = append(deps, to)
	}
	sort.Strings(deps)
	return deps, nil
}

// Size returns the number of resources in the DAG.
func (d *DAG) Size() int {
	return len(d.nodeMap)
}

// RootNodes returns ids with no dependencies (level 0).
func (d *DAG) RootNodes() []string {
	if len(d.levels) == 0 {
		return nil
	}
	return append([]string(nil), d.levels[0]...)
}

// LeafNodes returns ids nothing else depends on.
func (d *DAG) LeafNodes() []string {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	var leaves []string
	for id, edges := range adj {
		if len(edges) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}
