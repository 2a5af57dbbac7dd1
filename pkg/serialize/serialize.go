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
	"sort"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"sigs.k8s.io/yaml"

	"github.com/kroengine/rgde/pkg/builder"
	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/rgd"
)

// Serialize renders g as a cluster-side ResourceGraphDefinition document
// (§4.5). Resources are emitted in g.Resources order, which C3 already
// assigns deterministically; map keys introduced here (schema properties,
// status fields) are sorted before marshaling since Go map iteration order
// is not itself deterministic (§4.5, "Deterministic output").
func Serialize(g *graph.Graph) (*rgd.Document, error) {
	schema, err := buildSchema(g.Schema)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}

	status, err := buildStatusBlock(g)
	if err != nil {
		return nil, err
	}

	resources := make([]rgd.Resource, len(g.Resources))
	for i, res := range g.Resources {
		tmpl, err := tokenizeManifest(res.Manifest)
		if err != nil {
			return nil, fmt.Errorf("serialize: resource %q: %w", res.ID, err)
		}
		readyWhen, err := encodeReadyWhenList(res.ReadyWhen)
		if err != nil {
			return nil, fmt.Errorf("serialize: resource %q: %w", res.ID, err)
		}
		includeWhen, err := encodeIncludeWhenList(res.IncludeWhen)
		if err != nil {
			return nil, fmt.Errorf("serialize: resource %q: %w", res.ID, err)
		}
		resources[i] = rgd.Resource{
			ID:          res.ID,
			Template:    tmpl,
			ReadyWhen:   readyWhen,
			IncludeWhen: includeWhen,
		}
	}

	return &rgd.Document{
		APIVersion: rgd.APIVersion,
		Kind:       rgd.Kind,
		Metadata:   rgd.Metadata{Name: g.Name},
		Spec: rgd.Spec{
			Schema:    schema,
			Status:    status,
			Resources: resources,
		},
	}, nil
}

// buildSchema type-asserts g.Schema (opaque per pkg/graph's doc comment)
// back to builder.Schema, the only producer pkg/builder gives callers. A
// graph assembled by hand with some other Schema value is a caller error,
// not a partial-output case, since the resulting document would have no
// spec/status shape to validate instances against.
func buildSchema(s any) (rgd.Schema, error) {
	bs, ok := s.(builder.Schema)
	if !ok {
		return rgd.Schema{}, fmt.Errorf("unsupported schema type %T, want builder.Schema", s)
	}

	spec := buildJSONSchema(bs.Spec)
	sortSchemaKeys(&spec)

	schema := rgd.Schema{Spec: spec}
	if bs.Status != nil {
		status := buildJSONSchema(bs.Status)
		sortSchemaKeys(&status)
		schema.Status = &status
	}
	return schema, nil
}

// sortSchemaKeys is a no-op on the data (map iteration order doesn't affect
// equality) but documents that Properties keys are marshaled in sorted
// order: encoding/json (which sigs.k8s.io/yaml delegates to) already sorts
// map[string]T keys when marshaling, so there is nothing left to do here
// beyond recursing for completeness and future-proofing a manual marshaler.
func sortSchemaKeys(s *apiextensionsv1.JSONSchemaProps) {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p := s.Properties[k]
		sortSchemaKeys(&p)
		s.Properties[k] = p
	}
}

// Marshal renders a Document as YAML, the teacher's wire format
// (sigs.k8s.io/yaml, already a transitive dependency via controller-runtime;
// SPEC_FULL §4.5 makes it direct).
func Marshal(doc *rgd.Document) ([]byte, error) {
	return yaml.Marshal(doc)
}
