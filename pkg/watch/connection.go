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
	"math/rand"
	"sync"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kroengine/rgde/pkg/metrics"
)

// ConnectionConfig configures one Connection.
type ConnectionConfig struct {
	Backoff     BackoffPolicy
	DedupWindow time.Duration
	TypeFilter  TypeFilter
}

// DefaultConnectionConfig is the pipeline's default per-connection
// configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Backoff:     DefaultBackoffPolicy(),
		DedupWindow: 30 * time.Second,
		TypeFilter:  DefaultTypeFilter(),
	}
}

// Connection owns one Event watch stream for a (kind, namespace) group: a
// resource-version cursor, the followed-resource-id set it filters
// against, a reconnect attempt counter, and whether it is currently
// degraded (§3 "Watch connection state", §4.7 Reconnection).
type Connection struct {
	key    groupKey
	source Source
	cfg    ConnectionConfig
	rand   *rand.Rand

	mu          sync.Mutex
	followed    map[string]Followed // keyed by Name, since a group shares kind+namespace
	dedup       *Deduplicator
	attempt     int
	degraded    bool
	resourceVer string
}

// NewConnection constructs a Connection for key, watching through source.
func NewConnection(key groupKey, source Source, cfg ConnectionConfig) *Connection {
	return &Connection{
		key:      key,
		source:   source,
		cfg:      cfg,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		followed: make(map[string]Followed),
		dedup:    NewDeduplicator(cfg.DedupWindow),
	}
}

// Follow adds a resource to the set this connection filters events for.
func (c *Connection) Follow(f Followed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.followed[f.Name] = f
}

// Unfollow removes a resource, leaving the connection open for any others
// remaining in its group.
func (c *Connection) Unfollow(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.followed, name)
}

// Degraded reports whether this connection has exhausted its reconnect
// budget (§4.7 Reconnection: "degrade to a monitoring-stopped signal
// rather than failing deployment").
func (c *Connection) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Run drives the reconnect loop, emitting filtered, deduplicated,
// priority-classified events onto out until ctx is done. It never returns
// an error: exhausting the reconnect budget degrades the connection
// in-place rather than propagating a failure up to the deployment that
// started it (§4.7: watch failures must not fail deployment).
func (c *Connection) Run(ctx context.Context, out chan<- Event) {
	gvk := c.key.GVK.String()
	logger := log.FromContext(ctx).WithValues("kind", c.key.GVK.Kind, "namespace", c.key.Namespace)

	for {
		if ctx.Err() != nil {
			return
		}

		c.mu.Lock()
		group := make([]Followed, 0, len(c.followed))
		for _, f := range c.followed {
			group = append(group, f)
		}
		rv := c.resourceVer
		c.mu.Unlock()

		opts := metav1.ListOptions{
			FieldSelector:   fieldSelectorFor(c.key, group).String(),
			ResourceVersion: rv,
		}
		w, err := c.source.Watch(ctx, opts)
		if err != nil {
			if !c.backoffOrDegrade(ctx, gvk, logger) {
				return
			}
			continue
		}

		c.attempt = 0
		c.setDegraded(false, gvk)
		metrics.RecordWatchReconnect(gvk, "success")

		stopped := c.drain(ctx, w, out, logger)
		w.Stop()
		if stopped {
			return
		}

		metrics.RecordWatchReconnect(gvk, "failure")
		if !c.backoffOrDegrade(ctx, gvk, logger) {
			return
		}
	}
}

// drain consumes events until the stream closes or ctx is cancelled,
// returning true only when ctx cancellation caused the exit (so Run knows
// not to reconnect).
func (c *Connection) drain(ctx context.Context, w watch.Interface, out chan<- Event, logger logr.Logger) bool {
	ch := w.ResultChan()
	for {
		select {
		case <-ctx.Done():
			return true
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.handle(ctx, ev, out, logger)
		}
	}
}

func (c *Connection) handle(ctx context.Context, ev watch.Event, out chan<- Event, logger logr.Logger) {
	switch ev.Type {
	case watch.Added, watch.Modified:
	default:
		return
	}
	raw, ok := ev.Object.(*corev1.Event)
	if !ok {
		return
	}

	c.mu.Lock()
	c.resourceVer = raw.ResourceVersion
	_, followed := c.followed[raw.InvolvedObject.Name]
	c.mu.Unlock()
	if !followed {
		return
	}

	e := decodeEvent(raw)
	if !c.cfg.TypeFilter.Allows(e.Type) {
		return
	}

	c.mu.Lock()
	allow := c.dedup.Allow(e)
	c.mu.Unlock()
	if !allow {
		return
	}

	select {
	case out <- e:
	case <-ctx.Done():
	}
}

// backoffOrDegrade sleeps for the next reconnect delay and returns true,
// or marks the connection degraded and returns false once the reconnect
// budget (§9 Property 9) is exhausted.
func (c *Connection) backoffOrDegrade(ctx context.Context, gvk string, logger logr.Logger) bool {
	c.attempt++
	if c.cfg.Backoff.Exhausted(c.attempt) {
		c.setDegraded(true, gvk)
		logger.Info("watch reconnect budget exhausted, degrading", "attempts", c.attempt)
		return false
	}
	delay := c.cfg.Backoff.Delay(c.attempt, c.rand)
	logger.Info("watch stream closed, reconnecting", "attempt", c.attempt, "delay", delay)
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Connection) setDegraded(v bool, gvk string) {
	c.mu.Lock()
	c.degraded = v
	c.mu.Unlock()
	metrics.SetWatchDegraded(gvk, v)
}
