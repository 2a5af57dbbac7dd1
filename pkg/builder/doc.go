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

// Package builder is the graph builder surface (§4.2): a user closure
// constructs resources through a *Builder, reading and writing their
// manifests through the explicit *Resource wrapper described in Design
// Notes §9(a), and New assembles everything the closure registered into a
// *graph.Graph.
package builder
