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
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/kroengine/rgde/pkg/ref"
)

// Graph is the resource graph (§3): an ordered collection of Resource
// entries keyed by id, the graph's schema, and a status closure that is
// evaluated once resources are deployed.
type Graph struct {
	// Name identifies the graph (becomes the ResourceGraphDefinition's
	// metadata.name when serialized).
	Name string `json:"name"`

	// APIVersion/Kind are the user's instance type, i.e. what consumers of
	// the emitted ResourceGraphDefinition will create.
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`

	// Resources holds every Resource entry in registration order.
	Resources []*Resource `json:"resources"`

	// Schema is an opaque description of the user's spec/status shapes
	// (populated by pkg/builder; pkg/graph never inspects its contents,
	// only passes it through to pkg/serialize).
	Schema any `json:"-"`

	// StatusFn computes the aggregate status (§3, "status closure") given
	// a read-only view of resources keyed by id. Its result's leaves
	// are literals, ref.Reference, or ref.Expression.
	StatusFn StatusClosure `json:"-"`
}

// StatusClosure is the user-supplied function that derives the graph's
// aggregate status shape.
type StatusClosure func(resources map[string]*Resource) (map[string]any, error)

// ByID returns the resources indexed by id for O(1) lookups.
func (g *Graph) ByID() map[string]*Resource {
	m := make(map[string]*Resource, len(g.Resources))
	for _, r := range g.Resources {
		m[r.ID] = r
	}
	return m
}

// ApplyMode determines how a resource is applied to the cluster (§4.6 step 3).
type ApplyMode string

const (
	// ApplyModeApply uses Server-Side Apply. Default.
	ApplyModeApply ApplyMode = "Apply"
	// ApplyModeCreate only creates the resource if it doesn't already exist.
	ApplyModeCreate ApplyMode = "Create"
	// ApplyModeAdopt takes ownership of an existing resource via SSA with
	// forced ownership, falling back to Create if it doesn't exist.
	ApplyModeAdopt ApplyMode = "Adopt"
)

// ConflictPolicy controls behavior on a field-manager conflict during SSA.
type ConflictPolicy string

const (
	ConflictPolicyError ConflictPolicy = "Error"
	ConflictPolicyForce ConflictPolicy = "Force"
)

// ApplyPolicy is the kind-aware apply policy referenced by §4.6 step 3.
type ApplyPolicy struct {
	Mode           ApplyMode      `json:"mode,omitempty"`
	ConflictPolicy ConflictPolicy `json:"conflictPolicy,omitempty"`
	FieldManager   string         `json:"fieldManager,omitempty"`
}

// Validate checks and fills in policy defaults.
func (p *ApplyPolicy) Validate() error {
	if p.Mode == "" {
		p.Mode = ApplyModeApply
	}
	if p.ConflictPolicy == "" {
		p.ConflictPolicy = ConflictPolicyError
	}
	if p.FieldManager == "" {
		p.FieldManager = "rgde"
	}
	switch p.Mode {
	case ApplyModeApply, ApplyModeCreate, ApplyModeAdopt:
	default:
		return fmt.Errorf("invalid apply mode: %s", p.Mode)
	}
	switch p.ConflictPolicy {
	case ConflictPolicyError, ConflictPolicyForce:
	default:
		return fmt.Errorf("invalid conflict policy: %s", p.ConflictPolicy)
	}
	return nil
}

// PredicateType names a built-in readiness preset, grounded on the
// teacher's pkg/readiness predicates.
type PredicateType string

const (
	PredicateTypeConditionMatch       PredicateType = "ConditionMatch"
	PredicateTypeDeploymentAvailable  PredicateType = "DeploymentAvailable"
	PredicateTypeExists               PredicateType = "Exists"
	PredicateTypeExpression           PredicateType = "Expression"
)

// ReadyWhen is one readiness condition a Resource must satisfy before the
// deployment engine considers it ready (§3 "readiness predicate", §4.6
// step 4). Either a built-in Type is used (with its own parameters) or
// Type is PredicateTypeExpression and Expr is evaluated against the live
// object, matching kro's `readyWhen: - ${cluster.status.status == "Active"}`
// style conditions.
type ReadyWhen struct {
	Type            PredicateType  `json:"type"`
	ConditionType   string         `json:"conditionType,omitempty"`
	ConditionStatus string         `json:"conditionStatus,omitempty"`
	Expr            *ref.Expression `json:"-"`
	TimeoutSeconds  int            `json:"timeoutSeconds,omitempty"`
}

// Validate checks a ReadyWhen's shape.
func (rw *ReadyWhen) Validate() error {
	switch rw.Type {
	case PredicateTypeConditionMatch:
		if rw.ConditionType == "" || rw.ConditionStatus == "" {
			return fmt.Errorf("ConditionMatch readyWhen requires conditionType and conditionStatus")
		}
	case PredicateTypeExpression:
		if rw.Expr == nil {
			return fmt.Errorf("Expression readyWhen requires Expr")
		}
	case PredicateTypeDeploymentAvailable, PredicateTypeExists:
	default:
		return fmt.Errorf("invalid readyWhen type: %s", rw.Type)
	}
	if rw.TimeoutSeconds < 0 {
		return fmt.Errorf("readyWhen timeout must be non-negative")
	}
	return nil
}

// Resource is one entry in the graph (§3 "Resource entry"): a stable id, a
// kind/apiVersion pair, a manifest that may embed References/Expressions
// anywhere, and the policies governing how it's applied and when it's
// considered ready.
type Resource struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	APIVersion string         `json:"apiVersion"`
	Manifest   map[string]any `json:"manifest"`

	ApplyPolicy ApplyPolicy `json:"applyPolicy"`
	ReadyWhen   []ReadyWhen `json:"readyWhen,omitempty"`

	// IncludeWhen, if non-empty, are schema-only Expressions (§4.3 kro
	// parity) gating whether this resource is materialized at all; all
	// must evaluate true. Unlike ReadyWhen these are resolved once, up
	// front, against the instance spec only.
	IncludeWhen []ref.Expression `json:"-"`
}

// GraphID returns the resource's id. It is not named ID, so *Resource does
// not itself satisfy compose.Registrable; builder.Resource, which wraps a
// *Resource, is what a Composer registers.
func (r *Resource) GraphID() string { return r.ID }

// Name/Namespace read the resource's metadata.name/namespace out of the
// manifest, returning "" if either is absent or still an unresolved
// Reference (callers needing the materialized value should resolve the
// manifest first).
func (r *Resource) Name() string      { return stringField(r.Manifest, "metadata", "name") }
func (r *Resource) Namespace() string { return stringField(r.Manifest, "metadata", "namespace") }

func stringField(m map[string]any, path ...string) string {
	cur := any(m)
	for _, p := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = mm[p]
	}
	s, _ := cur.(string)
	return s
}

// ComputeHash hashes the resource's manifest and policy for drift
// detection, grounded on the teacher's Graph.ComputeHash (pkg/graph's
// xxhash-over-JSON idiom), narrowed from whole-graph to per-resource so a
// single changed resource doesn't appear to invalidate its siblings.
func (r *Resource) ComputeHash() string {
	type hashable struct {
		Kind        string         `json:"kind"`
		APIVersion  string         `json:"apiVersion"`
		Manifest    map[string]any `json:"manifest"`
		ApplyPolicy ApplyPolicy    `json:"applyPolicy"`
	}
	data, err := json.Marshal(hashable{r.Kind, r.APIVersion, r.Manifest, r.ApplyPolicy})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}
