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
	"sync"

	"k8s.io/apimachinery/pkg/runtime/schema"
)

// SourceFactory opens an Event Source scoped to one namespace, the shape a
// controller-runtime or client-go cluster client satisfies for
// CoreV1().Events(namespace).
type SourceFactory func(namespace string) Source

// Pipeline fans a set of followed resources out across one Connection per
// (kind, namespace) group (§4.7 mechanism) and merges their filtered,
// deduplicated events onto a single output channel.
type Pipeline struct {
	newSource SourceFactory
	cfg       ConnectionConfig

	mu          sync.Mutex
	connections map[groupKey]*Connection
	cancels     map[groupKey]context.CancelFunc
	out         chan Event
	ctx         context.Context
	wg          sync.WaitGroup
}

// NewPipeline constructs a Pipeline. ctx bounds the lifetime of every
// Connection it starts; cancelling ctx (or calling Close) stops them all.
func NewPipeline(ctx context.Context, newSource SourceFactory, cfg ConnectionConfig) *Pipeline {
	return &Pipeline{
		newSource:   newSource,
		cfg:         cfg,
		connections: make(map[groupKey]*Connection),
		cancels:     make(map[groupKey]context.CancelFunc),
		out:         make(chan Event, 256),
		ctx:         ctx,
	}
}

// Events returns the channel onto which every followed resource's filtered
// events are dispatched. Events arrive in the order their connections
// deliver them: each carries its Priority, but Pipeline only merges and
// does not reorder by it.
func (p *Pipeline) Events() <-chan Event {
	return p.out
}

// Follow starts (or joins) the Connection for f's (kind, namespace) group
// and adds f to its followed set. Joining an already-running connection
// adds f to its client-side name filter immediately, but its field
// selector only widens on the next reconnect: while the current stream is
// still scoped to a single resource's name, f's events do not arrive.
func (p *Pipeline) Follow(f Followed) {
	key := groupKey{GVK: f.GVK, Namespace: f.Namespace}

	p.mu.Lock()
	conn, ok := p.connections[key]
	if !ok {
		source := p.newSource(f.Namespace)
		conn = NewConnection(key, source, p.cfg)
		p.connections[key] = conn
	}
	// Seed the follower before the watch loop starts so its very first
	// field selector already covers f, instead of racing Run's startup
	// against this call.
	conn.Follow(f)
	if !ok {
		connCtx, cancel := context.WithCancel(p.ctx)
		p.cancels[key] = cancel
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			conn.Run(connCtx, p.out)
		}()
	}
	p.mu.Unlock()
}

// FollowAll starts connections for a whole followed set at once, grouping
// by (kind, namespace) and starting each group's connection in a
// deterministic order — useful at pipeline startup so restarts with the
// same followed set bring connections up in the same sequence.
func (p *Pipeline) FollowAll(followed []Followed) {
	groups := groupByKindNamespace(followed)
	for _, key := range sortedGroupKeys(groups) {
		for _, f := range groups[key] {
			p.Follow(f)
		}
	}
}

// Unfollow removes a resource from its group's connection. The connection
// itself keeps running — even with zero followed resources — until the
// caller cancels the pipeline's context; a later Follow for the same group
// resumes filtering through it.
func (p *Pipeline) Unfollow(gvk schema.GroupVersionKind, namespace, name string) {
	key := groupKey{GVK: gvk, Namespace: namespace}
	p.mu.Lock()
	conn, ok := p.connections[key]
	p.mu.Unlock()
	if ok {
		conn.Unfollow(name)
	}
}

// Degraded reports whether the connection for (gvk, namespace) has
// exhausted its reconnect budget. A group with no connection yet is never
// degraded.
func (p *Pipeline) Degraded(gvk schema.GroupVersionKind, namespace string) bool {
	key := groupKey{GVK: gvk, Namespace: namespace}
	p.mu.Lock()
	conn, ok := p.connections[key]
	p.mu.Unlock()
	return ok && conn.Degraded()
}

// Close cancels every connection's watch loop and waits for them to
// return, then closes the Events channel.
func (p *Pipeline) Close() {
	p.mu.Lock()
	for _, cancel := range p.cancels {
		cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
	close(p.out)
}
