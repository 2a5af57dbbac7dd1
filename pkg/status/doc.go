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

// Package status hydrates a graph's status block (§4.8): it runs the
// graph's StatusClosure against live, currently-tracked objects and
// resolves every Reference/Expression the closure's output contains.
// Hydration is field-level: one field's evaluation failing leaves that
// field at its previous value without blocking the rest.
package status
