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
	"github.com/kroengine/rgde/pkg/deploy/apply"
)

// Options configures a DirectFactory, in the functional-options-over-a-
// struct shape the teacher uses for ExecutorConfig/GeneratorConfig — no
// env/flag parsing in this package, per §6 "CLI / env / files: None at the
// core layer."
type Options struct {
	ExecutorConfig ExecutorConfig
	PruneOptions   apply.PruneOptions
	OnProgress     func(ProgressEvent)
	Orchestrator   OrchestratorScope
}

// ExecutorConfig is an alias kept local to this package so callers
// configuring a factory don't need to import pkg/deploy directly for the
// common case.
type ExecutorConfig = deploy.ExecutorConfig

// Option mutates an Options value.
type Option func(*Options)

// DefaultOptions returns the factory's default configuration.
func DefaultOptions() Options {
	return Options{
		ExecutorConfig: deploy.DefaultExecutorConfig(),
		PruneOptions:   apply.DefaultPruneOptions(),
	}
}

// WithExecutorConfig overrides the deployment engine's configuration.
func WithExecutorConfig(cfg ExecutorConfig) Option {
	return func(o *Options) { o.ExecutorConfig = cfg }
}

// WithPruneOptions overrides the deletion policy used by Delete and
// Rollback.
func WithPruneOptions(opts apply.PruneOptions) Option {
	return func(o *Options) { o.PruneOptions = opts }
}

// WithProgress installs a callback invoked as a deployment's resources
// change state (§6 "Progress callback").
func WithProgress(fn func(ProgressEvent)) Option {
	return func(o *Options) { o.OnProgress = fn }
}

// WithOrchestrator supplies an external-ownership registry the direct
// factory uses opportunistically (§6 "External orchestrator scope").
func WithOrchestrator(scope OrchestratorScope) Option {
	return func(o *Options) { o.Orchestrator = scope }
}
