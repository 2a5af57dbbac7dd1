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

package resolve

import "github.com/kroengine/rgde/pkg/ref"

// Clone walks v (typically a graph.Resource's Manifest, treated as the
// teacher treats an unstructured.Unstructured payload: an opaque tree of
// map[string]any/[]any/scalars) and returns a deep copy with every
// ref.Reference and ref.Expression leaf replaced by the value resolveRef /
// resolveExpr produce for it. Every other value is copied structurally so
// the original manifest is never mutated by resolution.
func Clone(v any, resolveRef func(ref.Reference) (any, error), resolveExpr func(ref.Expression) (any, error)) (any, error) {
	switch val := v.(type) {
	case ref.Reference:
		return resolveRef(val)

	case ref.Expression:
		return resolveExpr(val)

	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			resolved, err := Clone(child, resolveRef, resolveExpr)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			resolved, err := Clone(child, resolveRef, resolveExpr)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return val, nil
	}
}
