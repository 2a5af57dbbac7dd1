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
	"time"

	"github.com/cespare/xxhash/v2"
)

// EventType is the allow-listable Kubernetes event type (§4.7 Type
// filtering). "Error" is not a Kubernetes core Event Type value, and
// decodeEvent maps every type other than Normal and Warning to Warning, so
// events decoded from a watch never carry it; TypeFilter accepts it and
// classify ranks it highest.
type EventType string

const (
	EventTypeNormal  EventType = "Normal"
	EventTypeWarning EventType = "Warning"
	EventTypeError   EventType = "Error"
)

// Priority orders events for dispatch (§4.7 Priority): Error > critical
// Warning > Warning > important Normal > other Normal.
type Priority int

const (
	PriorityOtherNormal Priority = iota
	PriorityImportantNormal
	PriorityWarning
	PriorityCriticalWarning
	PriorityError
)

// Event is one filtered, classified cluster event the pipeline dispatches
// to a consumer.
type Event struct {
	Kind      string
	Namespace string
	Name      string
	Reason    string
	Message   string
	Type      EventType
	Priority  Priority
	Seen      time.Time
}

// criticalReasons names Warning reasons promoted to PriorityCriticalWarning,
// grounded on the readiness predicates' own vocabulary of failure signals
// (pkg/deploy/readiness) — a workload stuck on these reasons is the same
// class of problem §4.6 step 4's readiness gating is watching for.
var criticalReasons = map[string]bool{
	"FailedScheduling": true,
	"BackOff":          true,
	"Failed":           true,
	"FailedMount":      true,
	"Unhealthy":        true,
}

// importantNormalReasons are Normal reasons worth a higher dispatch
// priority than routine chatter (scaling/creation milestones).
var importantNormalReasons = map[string]bool{
	"Created":           true,
	"Started":           true,
	"ScalingReplicaSet": true,
	"SuccessfulCreate":  true,
}

// classify assigns Priority from Type and Reason.
func classify(typ EventType, reason string) Priority {
	switch typ {
	case EventTypeError:
		return PriorityError
	case EventTypeWarning:
		if criticalReasons[reason] {
			return PriorityCriticalWarning
		}
		return PriorityWarning
	default:
		if importantNormalReasons[reason] {
			return PriorityImportantNormal
		}
		return PriorityOtherNormal
	}
}

// TypeFilter is the configurable allow-list of event types (§4.7 Type
// filtering).
type TypeFilter map[EventType]bool

// DefaultTypeFilter allows every type.
func DefaultTypeFilter() TypeFilter {
	return TypeFilter{EventTypeNormal: true, EventTypeWarning: true, EventTypeError: true}
}

func (f TypeFilter) Allows(t EventType) bool {
	if len(f) == 0 {
		return true
	}
	return f[t]
}

// dedupKey hashes the (kind, namespace, name, reason, message) tuple (§4.7
// Deduplication) with xxhash, the same fast-hash idiom
// (*graph.Resource).ComputeHash already uses for content hashing in this
// module.
func dedupKey(e Event) uint64 {
	s := fmt.Sprintf("%s/%s/%s/%s/%s", e.Kind, e.Namespace, e.Name, e.Reason, e.Message)
	return xxhash.Sum64String(s)
}

// Deduplicator coalesces identical events seen within window (§4.7
// Deduplication). It is not safe for concurrent use; Connection owns one
// per watch stream, serializing access the way §5 requires for
// watch-connection state.
type Deduplicator struct {
	window time.Duration
	last   map[uint64]time.Time
}

func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{window: window, last: make(map[uint64]time.Time)}
}

// Allow reports whether e should be dispatched: true the first time a key
// is seen, or again once window has elapsed since the last occurrence.
func (d *Deduplicator) Allow(e Event) bool {
	key := dedupKey(e)
	if last, ok := d.last[key]; ok && e.Seen.Sub(last) < d.window {
		return false
	}
	d.last[key] = e.Seen
	return true
}
