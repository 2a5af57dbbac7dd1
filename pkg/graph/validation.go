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

import "fmt"

// Validate checks the structural integrity of a Graph: required metadata,
// unique resource ids, and that cross-resource References only name ids
// that exist. Cycle detection itself happens in BuildDAG, since it needs
// the full edge set to report a path.
func (g *Graph) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("graph name is required")
	}
	if g.Kind == "" {
		return fmt.Errorf("graph kind is required")
	}

	ids := make(map[string]bool, len(g.Resources))
	for _, r := range g.Resources {
		if r.ID == "" {
			return fmt.Errorf("resource id is required")
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate resource id: %s", r.ID)
		}
		ids[r.ID] = true
	}

	for _, r := range g.Resources {
		if err := r.Validate(ids); err != nil {
			return fmt.Errorf("resource %s: %w", r.ID, err)
		}
	}
	return nil
}

// Validate checks a single Resource, including that every id its manifest
// and readiness/inclusion expressions reference exists in allIDs.
func (r *Resource) Validate(allIDs map[string]bool) error {
	if r.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if r.APIVersion == "" {
		return fmt.Errorf("apiVersion is required")
	}

	if err := r.ApplyPolicy.Validate(); err != nil {
		return fmt.Errorf("applyPolicy: %w", err)
	}

	for i := range r.ReadyWhen {
		if err := r.ReadyWhen[i].Validate(); err != nil {
			return fmt.Errorf("readyWhen[%d]: %w", i, err)
		}
	}

	for _, depID := range ResourceRefs(r) {
		if !allIDs[depID] {
			return fmt.Errorf("references non-existent resource id: %s", depID)
		}
	}

	return nil
}
