// Package graph represents a resource graph — the ordered collection of
// Resource entries, the graph's schema and status closure — and builds the
// dependency DAG implied by the References embedded in those resources'
// manifests: topological order, bounded-parallelism levels, reverse
// rollback order, and cycle detection.
//
// This generalizes the teacher's fixed DependsOn-edge DAG (pkg/graph/dag.go
// in the source project) to edges discovered by walking manifests for
// embedded References, and keeps its dominikbraun/graph-based topological
// sort. Execution state tracking lives in pkg/deploy, not here.
package graph
