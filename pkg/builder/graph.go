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

package builder

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kroengine/rgde/pkg/compose"
	"github.com/kroengine/rgde/pkg/graph"
)

// celIdentifier matches the bare-identifier grammar pkg/resolve requires of
// every resource id it binds as a CEL variable. graph.DeriveID only ever
// emits ids satisfying this, so only an explicit WithID can violate it.
var celIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema describes the graph's user-facing spec/status shapes as Go struct
// values, reflected into apiextensionsv1.JSONSchemaProps by pkg/serialize
// (SPEC_FULL §4.5: "fed by Go struct reflection instead of a CUE value").
// Spec/Status are typically zero-value struct literals of the caller's
// instance type (e.g. WebServiceSpec{}) used only for their shape.
type Schema struct {
	Spec   any
	Status any
}

// Builder is the explicit composition handle (C10/C2) passed to a user's
// graph-definition closure: it wraps the *compose.Composer registering
// every resource and deferred step the closure creates.
type Builder struct {
	c *compose.Composer
}

// ResourceOption configures resource registration.
type ResourceOption func(*resourceOpts)

type resourceOpts struct {
	id string
}

// WithID overrides the derived resource id with an explicit one.
func WithID(id string) ResourceOption {
	return func(o *resourceOpts) { o.id = id }
}

// AddResource constructs a Resource wrapping manifest and registers it
// under a deterministic or explicit id. manifest is taken by reference: the
// returned Resource's Set/Field calls mutate it directly.
func (b *Builder) AddResource(kind, apiVersion string, manifest map[string]any, opts ...ResourceOption) (*Resource, error) {
	var o resourceOpts
	for _, opt := range opts {
		opt(&o)
	}

	id := o.id
	if id == "" {
		id = b.deriveID(kind, manifest)
	} else if !celIdentifier.MatchString(id) {
		return nil, fmt.Errorf("builder: resource id %q must be a valid identifier ([A-Za-z_][A-Za-z0-9_]*) to be usable in expressions", id)
	}

	res := newResource(id, kind, apiVersion, manifest)
	if err := b.c.Register(id, kind, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Defer registers a post-apply step (e.g. a callback that only makes sense
// once its resources are deployed), run by pkg/deploy in registration order.
func (b *Builder) Defer(fn func(ctx context.Context) error) string {
	return b.c.Defer(fn)
}

// deriveID uses graph.DeriveID when manifest already names itself
// (metadata.name, optionally metadata.namespace); otherwise falls back to a
// per-kind auto-incrementing id, since a resource built entirely from
// References may not have a concrete name yet.
func (b *Builder) deriveID(kind string, manifest map[string]any) string {
	name := nestedString(manifest, "metadata", "name")
	if name != "" {
		namespace := nestedString(manifest, "metadata", "namespace")
		return graph.DeriveID(kind, name, namespace)
	}
	return fmt.Sprintf("%s%d", kind, b.c.NextAutoID(kind))
}

func nestedString(m map[string]any, path ...string) string {
	cur := any(m)
	for _, p := range path {
		mm, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = mm[p]
	}
	s, _ := cur.(string)
	return s
}

// New runs fn with a fresh Builder and assembles every Resource it
// registered into a *graph.Graph. fn's error aborts graph assembly; schema
// and statusFn are carried through to pkg/serialize/pkg/status unexamined
// (pkg/graph treats Schema as opaque per its doc comment).
func New(name, apiVersion, kind string, schema Schema, statusFn graph.StatusClosure, fn func(b *Builder) error) (*graph.Graph, error) {
	composer, runErr := compose.Run(context.Background(), func(ctx context.Context, c *compose.Composer) error {
		return fn(&Builder{c: c})
	})
	if runErr != nil {
		return nil, fmt.Errorf("builder: %w", runErr)
	}

	registered := composer.Resources()
	resources := make([]*graph.Resource, 0, len(registered))
	for _, r := range registered {
		res, ok := r.(*Resource)
		if !ok {
			continue
		}
		resources = append(resources, res.Unwrap())
	}

	return &graph.Graph{
		Name:       name,
		APIVersion: apiVersion,
		Kind:       kind,
		Resources:  resources,
		Schema:     schema,
		StatusFn:   statusFn,
	}, nil
}
