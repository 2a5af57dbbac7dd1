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

package factory

import (
	"github.com/kroengine/rgde/pkg/deploy"
	"github.com/kroengine/rgde/pkg/inventory"
)

// Instance is one deployed instance of a direct-mode graph: the spec it
// was deployed with, its last-hydrated status, and the inventory of
// resources deployed for it (transiently owned by the deployment engine
// per §3 "Ownership").
type Instance struct {
	Name    string
	Spec    map[string]any
	Status  map[string]any
	Tracker *inventory.Tracker

	// ExecutionState is the raw per-resource state from the most recent
	// Deploy or DryRun, kept for callers that want finer-grained detail
	// than Status exposes.
	ExecutionState *deploy.ExecutionState
}

// ProgressEvent is the factory-level projection of a deployment's
// progress (§6), naming the instance alongside the underlying
// deploy.ProgressEvent.
type ProgressEvent struct {
	Instance string
	deploy.ProgressEvent
}

// OrchestratorScope is the optional external-ownership registry (§6):
// "An optional object with set(id, value), get(id), delete(id), run(fn)."
// Its semantics beyond method presence are opaque to this package — the
// direct factory only ever calls these methods, never inspects what they
// do.
type OrchestratorScope interface {
	Set(id string, value any)
	Get(id string) (any, bool)
	Delete(id string)
	Run(fn func() error) error
}
