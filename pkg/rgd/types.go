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

package rgd

import apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"

// APIVersion/Kind are the fixed TypeMeta values of every serialized
// document, mirroring the teacher's ResourceGraph TypeMeta convention.
const (
	APIVersion = "rgde.kroengine.io/v1alpha1"
	Kind       = "ResourceGraphDefinition"
)

// Document is the top-level serialized artifact (§4.5): a graph's name, API
// group/version/kind, instance schema, and ordered resource templates.
type Document struct {
	APIVersion string   `json:"apiVersion"`
	Kind       string   `json:"kind"`
	Metadata   Metadata `json:"metadata"`
	Spec       Spec     `json:"spec"`
}

// Metadata names the document; it is not a Kubernetes ObjectMeta since this
// document is never itself applied as a Kubernetes object (§1 Non-goals).
type Metadata struct {
	Name string `json:"name"`
}

// Spec carries the instance schema, the dynamic status template, and the
// resource templates that make up the graph.
type Spec struct {
	Schema    Schema         `json:"schema"`
	Status    map[string]any `json:"status,omitempty"`
	Resources []Resource     `json:"resources"`
}

// Schema names the instance's own apiVersion/kind and its spec/status
// shapes, rendered as OpenAPI schema (apiextensionsv1.JSONSchemaProps) by
// pkg/serialize from the builder.Schema Go struct values (§4.5, "fed by Go
// struct reflection"). This is the full status *type* shape the graph
// declares; Spec.Status above carries only the subset of status *values*
// that depend on a resource (§4.5's static/dynamic split) — the rest are
// recomputed by the status hydrator (C8) at runtime and never serialized.
type Schema struct {
	APIVersion string                          `json:"apiVersion"`
	Kind       string                          `json:"kind"`
	Spec       apiextensionsv1.JSONSchemaProps  `json:"spec"`
	Status     *apiextensionsv1.JSONSchemaProps `json:"status,omitempty"`
}

// Resource is one templated manifest in the graph: id, full manifest (with
// every Reference/Expression rewritten to the `${...}` cluster dialect),
// and the readiness/inclusion gates carried over from graph.Resource.
type Resource struct {
	ID          string         `json:"id"`
	Template    map[string]any `json:"template"`
	ReadyWhen   []string       `json:"readyWhen,omitempty"`
	IncludeWhen []string       `json:"includeWhen,omitempty"`
}
