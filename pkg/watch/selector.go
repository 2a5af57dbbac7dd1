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

package watch

import (
	"fmt"
	"sort"

	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Followed is one resource the pipeline has been asked to track, the unit
// Pipeline.Follow registers. The stream itself watches core v1.Event
// objects whose InvolvedObject names one of these, not the resource's own
// object — that's how cluster event history is actually exposed.
type Followed struct {
	ID        string
	GVK       schema.GroupVersionKind
	Namespace string
	Name      string
}

// groupKey identifies one Connection: followed resources sharing a
// (kind, namespace) pair share a single Event watch stream (§4.7
// mechanism: "For each unique (kind, namespace), compute a field selector
// covering all followed resources in that namespace").
type groupKey struct {
	GVK       schema.GroupVersionKind
	Namespace string
}

// fieldSelectorFor computes the Event field selector for one (kind,
// namespace) group: always scoped to involvedObject.kind, additionally to
// involvedObject.name when the group follows exactly one resource (a
// precise, cheap-to-serve filter); a multi-resource group is scoped by
// kind alone (broader than necessary, pruned client-side by Connection.handle,
// since the Event API can't OR together multiple involvedObject.name
// terms).
func fieldSelectorFor(key groupKey, group []Followed) fields.Selector {
	terms := []fields.Selector{
		fields.OneTermEqualSelector("involvedObject.kind", key.GVK.Kind),
	}
	if len(group) == 1 {
		terms = append(terms, fields.OneTermEqualSelector("involvedObject.name", group[0].Name))
	}
	return fields.AndSelectors(terms...)
}

// groupByKindNamespace partitions followed resources into their watch
// groups.
func groupByKindNamespace(followed []Followed) map[groupKey][]Followed {
	groups := make(map[groupKey][]Followed)
	for _, f := range followed {
		k := groupKey{GVK: f.GVK, Namespace: f.Namespace}
		groups[k] = append(groups[k], f)
	}
	return groups
}

// sortedGroupKeys returns groups' keys in a deterministic order so
// Pipeline's per-connection reconnect/backoff state is assigned
// consistently across runs with the same followed set.
func sortedGroupKeys(groups map[groupKey][]Followed) []groupKey {
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

func (k groupKey) String() string {
	return fmt.Sprintf("%s/%s", k.GVK.String(), k.Namespace)
}
