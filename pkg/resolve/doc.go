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

// Package resolve implements the reference resolver and expression
// evaluator (§4.4): given a resource's manifest and the set of resources
// already deployed earlier in the DAG, it substitutes every embedded
// ref.Reference with the concrete value it names and evaluates every
// ref.Expression with github.com/google/cel-go, producing a plain
// *unstructured.Unstructured ready to apply.
package resolve
