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
	"context"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
)

// Source opens an Event watch stream for one field selector, narrow
// enough to fake in tests without a real cluster — the same
// interface-injection idiom pkg/deploy uses for Resolver/Applier/
// ReadinessChecker.
type Source interface {
	Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error)
}

// decodeEvent extracts the fields this pipeline cares about from a watched
// core/v1.Event. Only Added/Modified deltas carry new information; Deleted
// (eviction by the events GC) and Bookmark/Error are handled by the caller.
func decodeEvent(obj *corev1.Event) Event {
	typ := EventType(obj.Type)
	if typ != EventTypeNormal && typ != EventTypeWarning {
		typ = EventTypeWarning
	}
	return Event{
		Kind:      obj.InvolvedObject.Kind,
		Namespace: obj.InvolvedObject.Namespace,
		Name:      obj.InvolvedObject.Name,
		Reason:    obj.Reason,
		Message:   obj.Message,
		Type:      typ,
		Priority:  classify(typ, obj.Reason),
		Seen:      lastObserved(obj),
	}
}

// lastObserved prefers the series' LastObservedTime, falling back through
// LastTimestamp to EventTime, mirroring the Event API's own deprecation
// chain (EventTime superseding LastTimestamp since events/v1).
func lastObserved(obj *corev1.Event) time.Time {
	if obj.Series != nil && !obj.Series.LastObservedTime.IsZero() {
		return obj.Series.LastObservedTime.Time
	}
	if !obj.LastTimestamp.IsZero() {
		return obj.LastTimestamp.Time
	}
	return obj.EventTime.Time
}
