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

package serialize

import (
	"fmt"

	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/ref"
	"github.com/kroengine/rgde/pkg/resolve"
)

// buildStatusBlock runs the graph's status closure once, against its own
// build-time resources, and keeps only the fields that depend on another
// resource's output (§4.5's "dynamic" status fields) — the rest are
// constants or pure schema reads the status hydrator (C8) recomputes at
// runtime, so serializing them would just be dead weight in the document.
func buildStatusBlock(g *graph.Graph) (map[string]any, error) {
	if g.StatusFn == nil {
		return nil, nil
	}
	raw, err := g.StatusFn(g.ByID())
	if err != nil {
		return nil, fmt.Errorf("serialize: evaluating status closure: %w", err)
	}

	dynamic := make(map[string]any)
	for field, v := range raw {
		if !dependsOnResource(v) {
			continue
		}
		tok, err := resolve.Clone(v, tokenizeReference, tokenizeExpression)
		if err != nil {
			return nil, fmt.Errorf("serialize: status field %q: %w", field, err)
		}
		dynamic[field] = tok
	}
	if len(dynamic) == 0 {
		return nil, nil
	}
	return dynamic, nil
}

// dependsOnResource reports whether v contains any Reference targeting
// another resource, or any Expression that isn't schema-only — i.e.
// whether v is a "dynamic" status field per §4.5.
func dependsOnResource(v any) bool {
	switch val := v.(type) {
	case ref.Reference:
		return !val.IsSchema()
	case ref.Expression:
		return !val.IsSchemaOnly()
	case map[string]any:
		for _, child := range val {
			if dependsOnResource(child) {
				return true
			}
		}
		return false
	case []any:
		for _, child := range val {
			if dependsOnResource(child) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
