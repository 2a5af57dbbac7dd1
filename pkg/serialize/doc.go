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

// Package serialize emits a *graph.Graph as a cluster-side
// ResourceGraphDefinition document (§4.5): resource manifests with every
// ref.Reference/ref.Expression rewritten to the `${...}` cluster dialect,
// an instance schema rendered as apiextensionsv1.JSONSchemaProps from Go
// struct shapes, and the static/dynamic status split.
package serialize
