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

import "github.com/kroengine/rgde/pkg/ref"

// WalkRefs visits every ref.Reference reachable from v, descending into
// maps, slices, and ref.Expression argument lists. pkg/resolve reuses this
// to find the leaves it needs to substitute; pkg/graph itself uses it to
// discover the dependency edges implied by a Resource's manifest and
// readiness expressions.
func WalkRefs(v any, visit func(ref.Reference)) {
	switch val := v.(type) {
	case ref.Reference:
		visit(val)
	case ref.Expression:
		for _, r := range val.References() {
			visit(r)
		}
	case map[string]any:
		for _, child := range val {
			WalkRefs(child, visit)
		}
	case []any:
		for _, child := range val {
			WalkRefs(child, visit)
		}
	}
}

// ResourceRefs returns the distinct non-schema resource ids that r's
// manifest, IncludeWhen, and ReadyWhen expressions reference — the edge
// set BuildDAG uses to order r relative to its dependencies.
func ResourceRefs(r *Resource) []string {
	seen := make(map[string]bool)
	var order []string
	record := func(rr ref.Reference) {
		if rr.IsSchema() {
			return
		}
		id := rr.ResourceID()
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}

	WalkRefs(map[string]any(r.Manifest), record)
	for _, iw := range r.IncludeWhen {
		WalkRefs(iw, record)
	}
	for _, rw := range r.ReadyWhen {
		if rw.Expr != nil {
			WalkRefs(*rw.Expr, record)
		}
	}
	return order
}
