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
	"context"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	"github.com/kroengine/rgde/pkg/deploy"
	"github.com/kroengine/rgde/pkg/deploy/apply"
	"github.com/kroengine/rgde/pkg/deploy/readiness"
	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/inventory"
	"github.com/kroengine/rgde/pkg/resolve"
	"github.com/kroengine/rgde/pkg/rgerr"
	"github.com/kroengine/rgde/pkg/status"
)

// DirectFactory drives a graph's resources itself, through pkg/deploy and
// pkg/status, without handing off to a cluster controller. It is the
// "direct" of the two factory shapes in §4.9.
type DirectFactory struct {
	graph  *graph.Graph
	client client.Client
	opts   Options

	mu        sync.RWMutex
	instances map[string]*Instance
}

// NewDirectFactory builds a DirectFactory for g, applying resources through
// c.
func NewDirectFactory(g *graph.Graph, c client.Client, opts ...Option) *DirectFactory {
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &DirectFactory{
		graph:     g,
		client:    c,
		opts:      o,
		instances: make(map[string]*Instance),
	}
}

// Deploy applies every resource in the graph for one named instance, in
// dependency order, and hydrates its status once deployment completes.
func (f *DirectFactory) Deploy(ctx context.Context, name string, spec map[string]any) (*Instance, error) {
	return f.deploy(ctx, name, spec, false)
}

// DryRun runs the same pipeline as Deploy, but with every Apply routed
// through the API server's dry-run mode: admission and defaulting run, but
// nothing is persisted. Unlike ToYaml, DryRun genuinely contacts the
// cluster, so References into server-defaulted fields resolve the way
// they would on a real deploy. No Instance is retained: there is nothing
// durable to track.
func (f *DirectFactory) DryRun(ctx context.Context, spec map[string]any) (*Instance, error) {
	inst, err := f.deploy(ctx, "", spec, true)
	if inst != nil {
		f.mu.Lock()
		delete(f.instances, "")
		f.mu.Unlock()
	}
	return inst, err
}

func (f *DirectFactory) deploy(ctx context.Context, name string, spec map[string]any, dryRun bool) (*Instance, error) {
	dag, err := graph.BuildDAG(f.graph)
	if err != nil {
		return nil, fmt.Errorf("factory: build DAG for %s: %w", f.graph.Name, err)
	}

	resolver := resolve.NewResolver(spec)
	applier := apply.NewApplier(f.client).WithDryRun(dryRun)
	checker := readiness.NewChecker(f.client)

	executor := deploy.NewExecutor(resolver, applier, checker, f.client, f.opts.ExecutorConfig)
	if f.opts.OnProgress != nil {
		executor.OnProgress(func(e deploy.ProgressEvent) {
			f.opts.OnProgress(ProgressEvent{Instance: name, ProgressEvent: e})
		})
	}

	state, execErr := executor.Execute(ctx, dag)
	if state == nil {
		return nil, fmt.Errorf("factory: execute %s/%s: %w", f.graph.Name, name, execErr)
	}

	tracker := inventory.NewTracker()
	for id, obj := range state.Resolved() {
		tracker.RecordApplied(id, obj)
		if f.opts.Orchestrator != nil && !dryRun {
			f.opts.Orchestrator.Set(id, obj)
		}
	}

	inst := &Instance{
		Name:           name,
		Spec:           spec,
		Tracker:        tracker,
		ExecutionState: state,
	}

	hydrated, hydrateErr := status.NewHydrator(status.NewClusterObjectSource(f.client, tracker)).
		Hydrate(ctx, f.graph, spec, map[string]any{})
	if hydrateErr == nil {
		inst.Status = hydrated
	}

	f.mu.Lock()
	f.instances[name] = inst
	f.mu.Unlock()

	if execErr != nil {
		return inst, fmt.Errorf("factory: deploy %s/%s: %w", f.graph.Name, name, execErr)
	}
	return inst, nil
}

// Delete prunes every resource tracked for name and forgets the instance.
func (f *DirectFactory) Delete(ctx context.Context, name string) error {
	inst, ok := f.lookup(name)
	if !ok {
		return &rgerr.NotFoundError{Resource: name, Err: fmt.Errorf("no such instance")}
	}

	if err := f.prune(ctx, inst); err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.instances, name)
	f.mu.Unlock()
	return nil
}

// Rollback is Delete under another name: a distinct, explicitly-invoked
// cleanup operation rather than something Execute triggers on failure.
// deploy.Executor never deletes on its own — a failed level simply stops
// advancing and returns an error, leaving whatever applied successfully in
// place — so a caller that wants the partially-applied resources gone
// calls Rollback itself, typically from the error branch of Deploy.
func (f *DirectFactory) Rollback(ctx context.Context, name string) error {
	inst, ok := f.lookup(name)
	if !ok {
		return &rgerr.NotFoundError{Resource: name, Err: fmt.Errorf("no such instance")}
	}
	if err := f.prune(ctx, inst); err != nil {
		return err
	}

	f.mu.Lock()
	delete(f.instances, name)
	f.mu.Unlock()
	return nil
}

func (f *DirectFactory) prune(ctx context.Context, inst *Instance) error {
	ids := make([]string, 0, inst.Tracker.Size())
	for _, item := range inst.Tracker.GetAll() {
		ids = append(ids, item.ID)
	}

	result, err := apply.NewPruner(f.client).PruneByIDs(ctx, inst.Tracker, ids, f.opts.PruneOptions)
	if err != nil {
		return fmt.Errorf("factory: prune %s/%s: %w", f.graph.Name, inst.Name, err)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("factory: prune %s/%s: %d resource(s) failed: %w",
			f.graph.Name, inst.Name, len(result.Errors), result.Errors[0].Error)
	}
	return nil
}

// List returns the names of every instance currently deployed through this
// factory.
func (f *DirectFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.instances))
	for name := range f.instances {
		names = append(names, name)
	}
	return names
}

// GetStatus returns the most recently hydrated status for name.
func (f *DirectFactory) GetStatus(name string) (map[string]any, error) {
	inst, ok := f.lookup(name)
	if !ok {
		return nil, &rgerr.NotFoundError{Resource: name, Err: fmt.Errorf("no such instance")}
	}
	return inst.Status, nil
}

// ToYaml renders the resources this graph would deploy for spec, without
// contacting a cluster. Resources are resolved in dependency order so a
// reference into an earlier resource's spec still substitutes correctly;
// a reference into a resource's runtime status (only assigned once the
// API server has actually applied it — an IP, a generated name) has
// nothing to resolve against offline and surfaces as an error. Use DryRun
// when the manifests need to reflect server-side defaulting or live
// status References.
func (f *DirectFactory) ToYaml(spec map[string]any) ([]byte, error) {
	dag, err := graph.BuildDAG(f.graph)
	if err != nil {
		return nil, fmt.Errorf("factory: build DAG for toYaml: %w", err)
	}

	resolver := resolve.NewResolver(spec)
	known := map[string]*unstructured.Unstructured{}

	manifests := make([]map[string]any, 0, dag.Size())
	for _, id := range dag.Order() {
		r, _ := dag.GetResource(id)
		resolved, err := resolver.Resolve(context.Background(), r, known)
		if err != nil {
			return nil, fmt.Errorf("factory: resolve %s for toYaml: %w", r.ID, err)
		}
		manifests = append(manifests, resolved.Object)
		known[r.ID] = resolved
	}

	var out []byte
	for i, m := range manifests {
		b, err := yaml.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("factory: marshal manifest %d: %w", i, err)
		}
		if i > 0 {
			out = append(out, []byte("---\n")...)
		}
		out = append(out, b...)
	}
	return out, nil
}

func (f *DirectFactory) lookup(name string) (*Instance, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	inst, ok := f.instances[name]
	return inst, ok
}
