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

package deploy

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// ResourceState is the execution state of a resource in the deployment.
type ResourceState string

const (
	ResourceStatePending      ResourceState = "Pending"
	ResourceStateApplying     ResourceState = "Applying"
	ResourceStateWaitingReady ResourceState = "WaitingReady"
	ResourceStateReady        ResourceState = "Ready"
	ResourceStateError        ResourceState = "Error"
)

// ResourceStatus is the execution status of a single resource.
type ResourceStatus struct {
	State         ResourceState
	Error         string
	StartTime     *time.Time
	ReadyTime     *time.Time
	RetryCount    int
	LastRetryTime *time.Time
}

// ExecutionState tracks the deployment progress of every resource in a DAG,
// grounded on the teacher's pkg/graph/state.go ExecutionState — kept its
// state-machine validation and locking idiom, extended with a store of
// resolved live objects so references into an already-deployed resource's
// status can be read by the resolver as later levels are applied.
type ExecutionState struct {
	mu sync.RWMutex

	statuses map[string]*ResourceStatus
	resolved map[string]*unstructured.Unstructured

	startTime time.Time
	endTime   *time.Time
}

// NewExecutionState creates a new execution state tracker for the given
// resource ids, all starting Pending.
func NewExecutionState(ids []string) *ExecutionState {
	statuses := make(map[string]*ResourceStatus, len(ids))
	for _, id := range ids {
		statuses[id] = &ResourceStatus{State: ResourceStatePending}
	}

	return &ExecutionState{
		statuses:  statuses,
		resolved:  make(map[string]*unstructured.Unstructured),
		startTime: time.Now(),
	}
}

func (es *ExecutionState) GetState(id string) (ResourceState, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	status, found := es.statuses[id]
	if !found {
		return "", fmt.Errorf("resource %s not found", id)
	}
	return status.State, nil
}

func (es *ExecutionState) GetStatus(id string) (*ResourceStatus, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	status, found := es.statuses[id]
	if !found {
		return nil, fmt.Errorf("resource %s not found", id)
	}
	statusCopy := *status
	return &statusCopy, nil
}

// SetState updates a resource's state, validating the transition.
func (es *ExecutionState) SetState(id string, newState ResourceState) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	status, found := es.statuses[id]
	if !found {
		return fmt.Errorf("resource %s not found", id)
	}

	if err := validateStateTransition(status.State, newState); err != nil {
		return fmt.Errorf("invalid state transition for resource %s: %w", id, err)
	}

	status.State = newState

	now := time.Now()
	switch newState {
	case ResourceStateApplying:
		if status.StartTime == nil {
			status.StartTime = &now
		}
	case ResourceStateReady:
		status.ReadyTime = &now
	}

	return nil
}

func (es *ExecutionState) SetError(id string, err error) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	status, found := es.statuses[id]
	if !found {
		return fmt.Errorf("resource %s not found", id)
	}

	status.State = ResourceStateError
	status.Error = err.Error()
	return nil
}

func (es *ExecutionState) IncrementRetry(id string) error {
	es.mu.Lock()
	defer es.mu.Unlock()

	status, found := es.statuses[id]
	if !found {
		return fmt.Errorf("resource %s not found", id)
	}

	status.RetryCount++
	now := time.Now()
	status.LastRetryTime = &now
	return nil
}

// SetResolved records the live object a resource was applied as, so
// downstream References can read its status.
func (es *ExecutionState) SetResolved(id string, obj *unstructured.Unstructured) {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.resolved[id] = obj
}

// Resolved returns a snapshot of every resource applied so far, keyed by id.
func (es *ExecutionState) Resolved() map[string]*unstructured.Unstructured {
	es.mu.RLock()
	defer es.mu.RUnlock()
	out := make(map[string]*unstructured.Unstructured, len(es.resolved))
	for id, obj := range es.resolved {
		out[id] = obj
	}
	return out
}

func (es *ExecutionState) GetResourcesInState(state ResourceState) []string {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var ids []string
	for id, status := range es.statuses {
		if status.State == state {
			ids = append(ids, id)
		}
	}
	return ids
}

func (es *ExecutionState) GetAllStates() map[string]ResourceState {
	es.mu.RLock()
	defer es.mu.RUnlock()

	states := make(map[string]ResourceState, len(es.statuses))
	for id, status := range es.statuses {
		states[id] = status.State
	}
	return states
}

func (es *ExecutionState) IsComplete() bool {
	es.mu.RLock()
	defer es.mu.RUnlock()

	for _, status := range es.statuses {
		if status.State != ResourceStateReady && status.State != ResourceStateError {
			return false
		}
	}
	return true
}

func (es *ExecutionState) HasErrors() bool {
	es.mu.RLock()
	defer es.mu.RUnlock()

	for _, status := range es.statuses {
		if status.State == ResourceStateError {
			return true
		}
	}
	return false
}

// ExecutionSummary summarizes the current state of a deployment.
type ExecutionSummary struct {
	Total        int
	Pending      int
	Applying     int
	WaitingReady int
	Ready        int
	Error        int
	StartTime    time.Time
	EndTime      *time.Time
}

func (es *ExecutionState) GetSummary() ExecutionSummary {
	es.mu.RLock()
	defer es.mu.RUnlock()

	summary := ExecutionSummary{
		Total:     len(es.statuses),
		StartTime: es.startTime,
		EndTime:   es.endTime,
	}

	for _, status := range es.statuses {
		switch status.State {
		case ResourceStatePending:
			summary.Pending++
		case ResourceStateApplying:
			summary.Applying++
		case ResourceStateWaitingReady:
			summary.WaitingReady++
		case ResourceStateReady:
			summary.Ready++
		case ResourceStateError:
			summary.Error++
		}
	}

	return summary
}

func (es *ExecutionState) MarkComplete() {
	es.mu.Lock()
	defer es.mu.Unlock()
	now := time.Now()
	es.endTime = &now
}

func validateStateTransition(from, to ResourceState) error {
	validTransitions := map[ResourceState][]ResourceState{
		ResourceStatePending: {
			ResourceStateApplying,
			ResourceStateError,
		},
		ResourceStateApplying: {
			ResourceStateWaitingReady,
			ResourceStateReady,
			ResourceStateError,
		},
		ResourceStateWaitingReady: {
			ResourceStateReady,
			ResourceStateError,
		},
		ResourceStateReady: {},
		ResourceStateError: {
			ResourceStatePending,
		},
	}

	allowed, found := validTransitions[from]
	if !found {
		return fmt.Errorf("unknown state: %s", from)
	}

	for _, a := range allowed {
		if a == to {
			return nil
		}
	}

	return fmt.Errorf("cannot transition from %s to %s", from, to)
}
