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
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
)

// fakeSource is a Source whose Watch calls are scripted: each call to
// Watch pops the next fakeStream off the queue, or blocks forever once
// exhausted (so a Connection under test parks instead of looping).
type fakeSource struct {
	mu      sync.Mutex
	streams []*fakeStream
	calls   int
	failN   int // Watch returns an error for the first failN calls
}

func (f *fakeSource) Watch(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failN {
		return nil, errWatchUnavailable
	}
	idx := f.calls - f.failN - 1
	if idx >= len(f.streams) {
		return newFakeStream(), nil // parks; never emits, never closes
	}
	return f.streams[idx], nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errWatchUnavailable = errString("watch unavailable")

type fakeStream struct {
	ch     chan watch.Event
	stopCh chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{ch: make(chan watch.Event, 16), stopCh: make(chan struct{})}
}

func (s *fakeStream) ResultChan() <-chan watch.Event { return s.ch }
func (s *fakeStream) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *fakeStream) send(e watch.Event) {
	select {
	case s.ch <- e:
	case <-s.stopCh:
	}
}

func (s *fakeStream) closeStream() {
	close(s.ch)
}

func coreEvent(kind, namespace, name, reason, message, typ string) *corev1.Event {
	return &corev1.Event{
		InvolvedObject: corev1.ObjectReference{Kind: kind, Namespace: namespace, Name: name},
		Reason:         reason,
		Message:        message,
		Type:           typ,
		LastTimestamp:  metav1.NewTime(time.Now()),
	}
}

func TestConnection_DispatchesFollowedEvent(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{streams: []*fakeStream{stream}}
	key := groupKey{GVK: schema.GroupVersionKind{Kind: "Deployment"}, Namespace: "default"}
	conn := NewConnection(key, src, DefaultConnectionConfig())
	conn.Follow(Followed{ID: "web", GVK: key.GVK, Namespace: "default", Name: "web"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Event, 4)
	go conn.Run(ctx, out)

	stream.send(watch.Event{Type: watch.Added, Object: coreEvent("Deployment", "default", "web", "ScalingReplicaSet", "scaled up", "Normal")})

	select {
	case e := <-out:
		if e.Name != "web" || e.Reason != "ScalingReplicaSet" {
			t.Errorf("got %+v, want event for web/ScalingReplicaSet", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}
}

func TestConnection_IgnoresUnfollowedInvolvedObject(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{streams: []*fakeStream{stream}}
	key := groupKey{GVK: schema.GroupVersionKind{Kind: "Pod"}, Namespace: "default"}
	conn := NewConnection(key, src, DefaultConnectionConfig())
	conn.Follow(Followed{ID: "a", GVK: key.GVK, Namespace: "default", Name: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Event, 4)
	go conn.Run(ctx, out)

	stream.send(watch.Event{Type: watch.Added, Object: coreEvent("Pod", "default", "not-followed", "BackOff", "crash", "Warning")})
	stream.send(watch.Event{Type: watch.Added, Object: coreEvent("Pod", "default", "a", "BackOff", "crash", "Warning")})

	select {
	case e := <-out:
		if e.Name != "a" {
			t.Errorf("got event for %q, want only the followed resource to be dispatched", e.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched event")
	}

	select {
	case e := <-out:
		t.Errorf("unexpected second event dispatched: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConnection_ReconnectsAfterStreamCloses(t *testing.T) {
	first := newFakeStream()
	second := newFakeStream()
	src := &fakeSource{streams: []*fakeStream{first, second}}
	key := groupKey{GVK: schema.GroupVersionKind{Kind: "Pod"}, Namespace: "default"}
	cfg := DefaultConnectionConfig()
	cfg.Backoff = BackoffPolicy{Base: time.Millisecond, Max: 10 * time.Millisecond, MaxReconnectAttempts: 5}
	conn := NewConnection(key, src, cfg)
	conn.Follow(Followed{ID: "a", GVK: key.GVK, Namespace: "default", Name: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Event, 4)
	go conn.Run(ctx, out)

	first.closeStream()
	second.send(watch.Event{Type: watch.Added, Object: coreEvent("Pod", "default", "a", "Started", "started", "Normal")})

	select {
	case e := <-out:
		if e.Reason != "Started" {
			t.Errorf("got %+v, want the event delivered after reconnect", e)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for post-reconnect event")
	}
}

func TestConnection_DegradesAfterExhaustingReconnectBudget(t *testing.T) {
	src := &fakeSource{failN: 100}
	key := groupKey{GVK: schema.GroupVersionKind{Kind: "Pod"}, Namespace: "default"}
	cfg := DefaultConnectionConfig()
	cfg.Backoff = BackoffPolicy{Base: time.Millisecond, Max: time.Millisecond, MaxReconnectAttempts: 2}
	conn := NewConnection(key, src, cfg)
	conn.Follow(Followed{ID: "a", GVK: key.GVK, Namespace: "default", Name: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Event, 4)
	done := make(chan struct{})
	go func() {
		conn.Run(ctx, out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after exhausting reconnect budget")
	}
	if !conn.Degraded() {
		t.Error("Degraded() = false, want true after exhausting the reconnect budget")
	}
}

func TestConnection_DeduplicatesRepeatedEvents(t *testing.T) {
	stream := newFakeStream()
	src := &fakeSource{streams: []*fakeStream{stream}}
	key := groupKey{GVK: schema.GroupVersionKind{Kind: "Pod"}, Namespace: "default"}
	cfg := DefaultConnectionConfig()
	cfg.DedupWindow = time.Hour
	conn := NewConnection(key, src, cfg)
	conn.Follow(Followed{ID: "a", GVK: key.GVK, Namespace: "default", Name: "a"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan Event, 4)
	go conn.Run(ctx, out)

	ev := coreEvent("Pod", "default", "a", "BackOff", "crash", "Warning")
	stream.send(watch.Event{Type: watch.Added, Object: ev})
	stream.send(watch.Event{Type: watch.Modified, Object: ev})

	select {
	case <-out:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first event")
	}
	select {
	case e := <-out:
		t.Errorf("unexpected duplicate event dispatched: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}
