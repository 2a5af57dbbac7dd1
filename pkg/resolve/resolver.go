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

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/ref"
	"github.com/kroengine/rgde/pkg/rgerr"
)

// Resolver implements deploy.Resolver (and is accepted anywhere pkg/status
// or pkg/builder need the same substitution: StatusClosure results and
// IncludeWhen bodies go through ResolveValue directly). One Resolver is
// scoped to a single deployment/status-hydration pass; it is not safe to
// reuse concurrently across unrelated instances since it carries that
// instance's schema values.
type Resolver struct {
	// instance is bound to ref.SchemaResourceID references — the graph
	// instance's own spec (and, during status hydration, its
	// partially-built status).
	instance map[string]any
}

// NewResolver creates a Resolver scoped to one instance's spec/status tree.
func NewResolver(instance map[string]any) *Resolver {
	if instance == nil {
		instance = map[string]any{}
	}
	return &Resolver{instance: instance}
}

// Resolve implements deploy.Resolver: it substitutes every Reference and
// Expression in r's manifest using known (the resources already deployed
// earlier in the DAG) and this Resolver's instance schema, returning a
// ready-to-apply object.
func (rv *Resolver) Resolve(ctx context.Context, r *graph.Resource, known map[string]*unstructured.Unstructured) (*unstructured.Unstructured, error) {
	resolved, err := rv.ResolveValue(r.Manifest, known)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", r.ID, err)
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("resolve %s: manifest did not resolve to an object", r.ID)
	}
	return &unstructured.Unstructured{Object: m}, nil
}

// ResolveValue resolves every Reference/Expression reachable from v — a
// resource manifest, a StatusClosure's returned literal tree, or an
// IncludeWhen body — against known and this Resolver's instance schema.
func (rv *Resolver) ResolveValue(v any, known map[string]*unstructured.Unstructured) (any, error) {
	return Clone(v,
		func(r ref.Reference) (any, error) { return rv.resolveReference(r, known) },
		func(e ref.Expression) (any, error) { return rv.resolveExpression(e, known) },
	)
}

func (rv *Resolver) resolveReference(r ref.Reference, known map[string]*unstructured.Unstructured) (any, error) {
	root, err := rv.rootFor(r.ResourceID(), known)
	if err != nil {
		return nil, err
	}

	val, found, err := ref.Get(root, r.FieldPath())
	if err != nil {
		return nil, &rgerr.ReferenceResolutionError{
			ResourceID: r.ResourceID(),
			FieldPath:  r.FieldPath(),
			Reason:     err.Error(),
		}
	}
	if !found {
		return nil, &rgerr.ReferenceResolutionError{
			ResourceID: r.ResourceID(),
			FieldPath:  r.FieldPath(),
			Reason:     "field not present on resolved resource",
		}
	}
	return val, nil
}

func (rv *Resolver) resolveExpression(e ref.Expression, known map[string]*unstructured.Unstructured) (any, error) {
	bindings := make(map[string]any, len(e.References())+1)
	for _, r := range e.References() {
		id := r.ResourceID()
		if _, bound := bindings[id]; bound {
			continue
		}
		root, err := rv.rootFor(id, known)
		if err != nil {
			return nil, err
		}
		if r.IsSchema() {
			bindings[ref.SchemaResourceID] = root
		} else {
			bindings[id] = root
		}
	}

	out, err := evalExpression(e, bindings)
	if err != nil {
		return nil, &rgerr.ReferenceResolutionError{
			ResourceID: "<expression>",
			FieldPath:  e.Body(),
			Reason:     err.Error(),
		}
	}
	return out, nil
}

// rootFor returns the object a Reference/Expression's resourceID resolves
// against: the instance schema for ref.SchemaResourceID, or the
// already-deployed resource's object from known.
func (rv *Resolver) rootFor(resourceID string, known map[string]*unstructured.Unstructured) (any, error) {
	if resourceID == ref.SchemaResourceID {
		return rv.instance, nil
	}
	obj, ok := known[resourceID]
	if !ok {
		candidates := make([]string, 0, len(known))
		for id := range known {
			candidates = append(candidates, id)
		}
		return nil, &rgerr.ReferenceResolutionError{
			ResourceID: resourceID,
			Reason:     "resource not yet deployed or unknown to this graph",
			Candidates: candidates,
		}
	}
	return obj.Object, nil
}
