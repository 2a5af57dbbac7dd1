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

package status

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/metrics"
	"github.com/kroengine/rgde/pkg/ref"
	"github.com/kroengine/rgde/pkg/resolve"
)

// Hydrator computes a graph's status block by running its StatusClosure
// and resolving the resulting literal/Reference/Expression tree against
// live objects (§4.8).
type Hydrator struct {
	source ObjectSource
}

// NewHydrator constructs a Hydrator that fetches live objects through
// source.
func NewHydrator(source ObjectSource) *Hydrator {
	return &Hydrator{source: source}
}

// Hydrate runs g's StatusClosure to get the status template, then
// resolves each top-level field independently: a field whose evaluation
// fails (a broken reference, a missing resource, a 404 on a tracked
// object) is logged and left at its value in previous, while every other
// field still updates. previous may be nil on first hydration.
func (h *Hydrator) Hydrate(ctx context.Context, g *graph.Graph, instance, previous map[string]any) (map[string]any, error) {
	if g.StatusFn == nil {
		return previous, nil
	}

	template, err := g.StatusFn(g.ByID())
	if err != nil {
		metrics.RecordStatusHydrationFailure(g.Name)
		return previous, fmt.Errorf("status: build template for %s: %w", g.Name, err)
	}

	logger := log.FromContext(ctx).WithValues("graph", g.Name)
	resolver := resolve.NewResolver(instance)

	result := make(map[string]any, len(template))
	for field, prev := range previous {
		result[field] = prev
	}

	for field, tmpl := range template {
		resolved, err := h.resolveField(ctx, resolver, tmpl)
		if err != nil {
			metrics.RecordStatusHydrationFailure(g.Name)
			logger.Error(err, "status field evaluation failed, keeping previous value", "field", field)
			continue
		}
		result[field] = resolved
	}

	return result, nil
}

// resolveField fetches only the live objects tmpl's References/
// Expressions actually depend on, then resolves tmpl against them.
func (h *Hydrator) resolveField(ctx context.Context, resolver *resolve.Resolver, tmpl any) (any, error) {
	ids := map[string]bool{}
	collectResourceIDs(tmpl, ids)

	known := make(map[string]*unstructured.Unstructured, len(ids))
	for id := range ids {
		obj, err := h.source.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		known[id] = obj
	}

	return resolver.ResolveValue(tmpl, known)
}

// collectResourceIDs gathers every non-schema resource id tmpl's
// References/Expressions depend on. Structurally the same walk as
// pkg/serialize's dependsOnResource, but collecting ids instead of a
// boolean — status hydration needs to know *which* live objects to fetch,
// not merely whether the field is dynamic.
func collectResourceIDs(v any, ids map[string]bool) {
	switch val := v.(type) {
	case ref.Reference:
		if !val.IsSchema() {
			ids[val.ResourceID()] = true
		}
	case ref.Expression:
		for _, r := range val.References() {
			if !r.IsSchema() {
				ids[r.ResourceID()] = true
			}
		}
	case map[string]any:
		for _, vv := range val {
			collectResourceIDs(vv, ids)
		}
	case []any:
		for _, vv := range val {
			collectResourceIDs(vv, ids)
		}
	}
}
