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

package compose

import (
	"context"
	"fmt"
	"sync"

	"github.com/authzed/controller-idioms/typedctx"

	"github.com/kroengine/rgde/pkg/rgerr"
)

// ctxKey is a typed context key holding the Composer of the builder
// currently running, mirroring the teacher's CtxGraph/CtxWebService keys in
// pkg/reconcile/context.go. It lets helper functions that were only handed
// a context.Context (rather than the *Composer itself) still register
// resources.
var ctxKey = typedctx.NewKey[*Composer]()

// Registrable is anything a builder can construct that needs auto-capture:
// resources register themselves with their graph id, deferred steps with an
// auto-generated one.
type Registrable interface {
	ID() string
}

// DeferredStep is a post-apply side effect registered during composition,
// run by the caller (typically pkg/deploy) once the resources it closed
// over have been deployed.
type DeferredStep struct {
	ID string
	Fn func(ctx context.Context) error
}

// Composer is the explicit composition-context handle (C10). Each
// invocation of a user builder gets its own Composer; concurrent builders
// never share one, so there is no cross-builder interference to guard
// against beyond the Composer's own mutex.
type Composer struct {
	mu sync.Mutex

	order   []string
	byID    map[string]Registrable
	steps   []DeferredStep
	counter map[string]int
}

// New creates an empty Composer.
func New() *Composer {
	return &Composer{
		byID:    make(map[string]Registrable),
		counter: make(map[string]int),
	}
}

// Run invokes fn with a fresh Composer, both as the explicit argument and
// installed into ctx under the typed key, then returns the populated
// Composer. fn's returned error is propagated unchanged; resources and
// steps registered before a failing return are still returned, since a
// partially-built graph can be useful for diagnostics.
func Run(ctx context.Context, fn func(ctx context.Context, c *Composer) error) (*Composer, error) {
	c := New()
	ctx = ctxKey.WithValue(ctx, c)
	err := fn(ctx, c)
	return c, err
}

// FromContext retrieves the Composer installed by Run, for helper functions
// that only have a context.Context in hand.
func FromContext(ctx context.Context) (*Composer, bool) {
	return ctxKey.Value(ctx)
}

// Register adds r under id to the context's ordered map. It is an error to
// register two resources under the same id within one context.
func (c *Composer) Register(id, kind string, r Registrable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.byID[id]; exists {
		return rgerr.NewContextRegistrationError(id, kind)
	}
	c.byID[id] = r
	c.order = append(c.order, id)
	return nil
}

// Get looks up a previously registered resource by id, for status builders
// that read registered resources by stable reference.
func (c *Composer) Get(id string) (Registrable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.byID[id]
	return r, ok
}

// Resources returns every registered Registrable in registration order.
func (c *Composer) Resources() []Registrable {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Registrable, len(c.order))
	for i, id := range c.order {
		out[i] = c.byID[id]
	}
	return out
}

// Defer registers a post-apply step and returns its auto-generated id
// ("step-1", "step-2", ...). Deferred steps run in registration order.
func (c *Composer) Defer(fn func(ctx context.Context) error) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter["step"]++
	id := fmt.Sprintf("step-%d", c.counter["step"])
	c.steps = append(c.steps, DeferredStep{ID: id, Fn: fn})
	return id
}

// Steps returns the deferred steps registered during composition, in
// registration order.
func (c *Composer) Steps() []DeferredStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DeferredStep(nil), c.steps...)
}

// NextAutoID returns a deterministic per-kind counter value ("1", "2", ...)
// for constructors invoked without an explicit id and without enough
// information yet to derive one from kind+name (see graph.DeriveID for the
// kind+name+namespace path, which is preferred whenever a name is known).
func (c *Composer) NextAutoID(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counter[kind]++
	return c.counter[kind]
}
