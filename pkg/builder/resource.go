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

package builder

import (
	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/ref"
)

// Resource is the explicit manifest wrapper that replaces the source's
// dynamic-proxy reads (Design Notes §9(a)). It wraps a *graph.Resource
// under construction.
type Resource struct {
	r *graph.Resource
}

// newResource wraps manifest in a Resource with the given id/kind/apiVersion.
// manifest is taken by reference, not copied: Set mutates it directly so a
// caller holding the literal map sees the same writes the Resource makes.
func newResource(id, kind, apiVersion string, manifest map[string]any) *Resource {
	if manifest == nil {
		manifest = map[string]any{}
	}
	return &Resource{r: &graph.Resource{
		ID:         id,
		Kind:       kind,
		APIVersion: apiVersion,
		Manifest:   manifest,
	}}
}

// ID satisfies compose.Registrable.
func (b *Resource) ID() string { return b.r.ID }

// Unwrap returns the underlying graph.Resource, for New to collect once the
// user closure returns and for callers needing direct access to
// ApplyPolicy/ReadyWhen/IncludeWhen.
func (b *Resource) Unwrap() *graph.Resource { return b.r }

// Field always mints a Reference tagged with this resource's id at path —
// a synthetic read, per SPEC_FULL §4.2. Use this when building another
// resource's manifest from this one's eventual output; it never inspects
// whether path is already concrete on this resource (use Get for that).
func (b *Resource) Field(path string, typ ...ref.TypeTag) ref.Reference {
	return ref.New(b.r.ID, path, typ...)
}

// Status is shorthand for Field("status." + fieldPath, ...), the common
// case of referencing another resource's status.
func (b *Resource) Status(fieldPath string, typ ...ref.TypeTag) ref.Reference {
	return b.Field("status."+fieldPath, typ...)
}

// Set writes a literal, ref.Reference, or ref.Expression into this
// resource's manifest at path (dotted/indexed, per ref.ParsePath's
// grammar), creating intermediate maps/slices as needed.
func (b *Resource) Set(path string, value any) error {
	return ref.Set(b.r.Manifest, path, value)
}

// Get reads path from this resource's own manifest as it stands right now:
// a literal previously written with Set or present in the seed manifest, or
// a Reference/Expression previously Set at that exact path. It returns
// (nil, false, nil) if path is absent, mirroring ref.Get.
func (b *Resource) Get(path string) (any, bool, error) {
	return ref.Get(b.r.Manifest, path)
}

// WithApplyPolicy sets how this resource is applied (§4.6 step 3).
func (b *Resource) WithApplyPolicy(p graph.ApplyPolicy) *Resource {
	b.r.ApplyPolicy = p
	return b
}

// WithReadyWhen appends readiness predicates this resource must satisfy
// before the deployment engine considers it ready.
func (b *Resource) WithReadyWhen(rw ...graph.ReadyWhen) *Resource {
	b.r.ReadyWhen = append(b.r.ReadyWhen, rw...)
	return b
}

// WithIncludeWhen appends schema-only gating expressions (§4.3 kro parity);
// all must evaluate true for this resource to be materialized.
func (b *Resource) WithIncludeWhen(exprs ...ref.Expression) *Resource {
	b.r.IncludeWhen = append(b.r.IncludeWhen, exprs...)
	return b
}

// Spec mints a Reference into the graph's own instance schema
// (resourceId == ref.SchemaResourceID), for reading the user-supplied spec
// from inside a resource manifest or a status closure.
func Spec(fieldPath string, typ ...ref.TypeTag) ref.Reference {
	return ref.Schema("spec."+fieldPath, typ...)
}

// SchemaField is the unprefixed form of Spec, for reading any path under
// the instance schema (including status, for status closures that derive
// one field from another already-published one).
func SchemaField(fieldPath string, typ ...ref.TypeTag) ref.Reference {
	return ref.Schema(fieldPath, typ...)
}
