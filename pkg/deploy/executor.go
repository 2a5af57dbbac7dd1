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

// Package deploy implements the direct-mode deployment engine (§4.6): it
// walks a graph.DAG level by level, resolving each resource's manifest
// against already-deployed resources, applying it, and waiting for
// readiness. A failed level stops the run; nothing already applied is
// deleted.
package deploy

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sourcegraph/conc/pool"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/rgerr"
)

// Resolver materializes a resource's manifest into a concrete object,
// substituting References/Expressions using the resources already
// deployed in this execution (see pkg/resolve).
type Resolver interface {
	Resolve(ctx context.Context, r *graph.Resource, known map[string]*unstructured.Unstructured) (*unstructured.Unstructured, error)
}

// Applier applies a resolved object according to its ApplyPolicy.
type Applier interface {
	Apply(ctx context.Context, obj *unstructured.Unstructured, policy graph.ApplyPolicy) error
}

// ReadinessChecker evaluates a resource's readiness predicates.
type ReadinessChecker interface {
	Check(ctx context.Context, obj *unstructured.Unstructured, predicates []graph.ReadyWhen) (bool, error)
}

// ExecutorConfig configures the DAG executor.
type ExecutorConfig struct {
	MaxConcurrency   int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	MaxRetries       int
}

// DefaultExecutorConfig returns the default executor configuration.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrency:   10,
		RetryBackoffBase: 1 * time.Second,
		RetryBackoffMax:  5 * time.Minute,
		MaxRetries:       3,
	}
}

// ProgressEvent is emitted as resources move through the deployment
// pipeline, for callers that want a live progress callback (§9 Supplemented
// features) instead of only the final ExecutionState.
type ProgressEvent struct {
	ResourceID string
	State      ResourceState
	Err        error
}

// Executor executes a graph.DAG with dependency-aware, bounded-parallelism
// execution, grounded on the teacher's pkg/graph/executor.go — kept its
// conc worker-pool batching and its retry/backoff state machine, replaced
// per-wave readiness discovery (dag.GetOrder() + linear scan) with the
// DAG's precomputed Levels(), and added the Resolver step the teacher
// didn't need (its nodes were already concrete unstructured.Unstructured
// objects; ours carry embedded References that must be resolved against
// resources applied by earlier levels).
type Executor struct {
	config           ExecutorConfig
	resolver         Resolver
	applier          Applier
	readinessChecker ReadinessChecker
	client           client.Client
	onProgress       func(ProgressEvent)
}

// NewExecutor creates a new DAG executor.
func NewExecutor(resolver Resolver, applier Applier, readinessChecker ReadinessChecker, c client.Client, config ExecutorConfig) *Executor {
	return &Executor{
		config:           config,
		resolver:         resolver,
		applier:          applier,
		readinessChecker: readinessChecker,
		client:           c,
	}
}

// OnProgress installs a callback invoked as resources change state.
func (e *Executor) OnProgress(fn func(ProgressEvent)) {
	e.onProgress = fn
}

// Execute applies dag's resources level by level, waiting for every
// resource in a level to become ready before the next level starts. If any
// level exhausts its retries, Execute stops and returns an error; it does
// not delete anything, so resources applied by earlier levels stay in
// place.
func (e *Executor) Execute(ctx context.Context, dag *graph.DAG) (*ExecutionState, error) {
	if dag == nil {
		return nil, fmt.Errorf("DAG cannot be nil")
	}

	state := NewExecutionState(dag.Order())

	for _, level := range dag.Levels() {
		select {
		case <-ctx.Done():
			state.MarkComplete()
			return state, ctx.Err()
		default:
		}

		if err := e.executeLevel(ctx, dag, state, level); err != nil {
			state.MarkComplete()
			return state, err
		}

		if state.HasErrors() {
			state.MarkComplete()
			return state, fmt.Errorf("deployment failed: one or more resources in level did not become ready")
		}
	}

	state.MarkComplete()
	return state, nil
}

// executeLevel applies every resource in a level concurrently (bounded by
// MaxConcurrency), retrying individual resources up to MaxRetries before
// giving up on the whole level.
func (e *Executor) executeLevel(ctx context.Context, dag *graph.DAG, state *ExecutionState, ids []string) error {
	p := pool.New().WithMaxGoroutines(e.config.MaxConcurrency).WithErrors()

	for _, id := range ids {
		id := id
		p.Go(func() error {
			return e.executeWithRetry(ctx, dag, state, id)
		})
	}

	if err := p.Wait(); err != nil {
		// Individual failures are already recorded in state; don't let a
		// pool error short-circuit evaluation of the rest of the level.
		return nil
	}
	return nil
}

// executeWithRetry retries id's execution up to MaxRetries, but only for
// errors rgerr.IsRetryable classifies as retryable (§7); a terminal error
// returns immediately and leaves the rest of the level's retry budget
// untouched, since retrying it can't change the outcome.
func (e *Executor) executeWithRetry(ctx context.Context, dag *graph.DAG, state *ExecutionState, id string) error {
	for {
		err := e.executeResource(ctx, dag, state, id)
		if err == nil {
			return nil
		}
		if rgerr.IsTerminal(err) {
			return err
		}

		status, _ := state.GetStatus(id)
		if status == nil || status.RetryCount >= e.config.MaxRetries {
			return err
		}

		delay := e.calculateBackoff(status.RetryCount)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		_ = state.IncrementRetry(id)
		_ = state.SetState(id, ResourceStatePending)
	}
}

func (e *Executor) executeResource(ctx context.Context, dag *graph.DAG, state *ExecutionState, id string) error {
	r, found := dag.GetResource(id)
	if !found {
		return fmt.Errorf("resource %s not found", id)
	}

	e.emit(id, ResourceStateApplying, nil)
	if err := state.SetState(id, ResourceStateApplying); err != nil {
		_ = state.SetError(id, err)
		return err
	}

	obj, err := e.resolver.Resolve(ctx, r, state.Resolved())
	if err != nil {
		_ = state.SetError(id, fmt.Errorf("failed to resolve: %w", err))
		e.emit(id, ResourceStateError, err)
		return err
	}

	if err := e.applier.Apply(ctx, obj, r.ApplyPolicy); err != nil {
		_ = state.SetError(id, fmt.Errorf("failed to apply: %w", err))
		e.emit(id, ResourceStateError, err)
		return err
	}
	state.SetResolved(id, obj)

	if len(r.ReadyWhen) == 0 {
		if err := state.SetState(id, ResourceStateReady); err != nil {
			_ = state.SetError(id, err)
			return err
		}
		e.emit(id, ResourceStateReady, nil)
		return nil
	}

	if err := state.SetState(id, ResourceStateWaitingReady); err != nil {
		_ = state.SetError(id, err)
		return err
	}
	e.emit(id, ResourceStateWaitingReady, nil)

	if err := e.waitForReadiness(ctx, r, obj); err != nil {
		_ = state.SetError(id, fmt.Errorf("readiness check failed: %w", err))
		e.emit(id, ResourceStateError, err)
		return err
	}

	if err := state.SetState(id, ResourceStateReady); err != nil {
		_ = state.SetError(id, err)
		return err
	}
	e.emit(id, ResourceStateReady, nil)
	return nil
}

func (e *Executor) emit(id string, s ResourceState, err error) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{ResourceID: id, State: s, Err: err})
	}
}

func (e *Executor) waitForReadiness(ctx context.Context, r *graph.Resource, obj *unstructured.Unstructured) error {
	timeout := 5 * time.Minute
	for _, rw := range r.ReadyWhen {
		if rw.TimeoutSeconds > 0 {
			t := time.Duration(rw.TimeoutSeconds) * time.Second
			if t > timeout {
				timeout = t
			}
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		ready, err := e.readinessChecker.Check(timeoutCtx, obj, r.ReadyWhen)
		if err != nil {
			return fmt.Errorf("readiness check error: %w", err)
		}
		if ready {
			return nil
		}

		select {
		case <-timeoutCtx.Done():
			return fmt.Errorf("readiness timeout after %v", timeout)
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * 1.5)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

func (e *Executor) calculateBackoff(retryCount int) time.Duration {
	backoff := time.Duration(float64(e.config.RetryBackoffBase) * math.Pow(2, float64(retryCount)))
	if backoff > e.config.RetryBackoffMax {
		backoff = e.config.RetryBackoffMax
	}
	return backoff
}
