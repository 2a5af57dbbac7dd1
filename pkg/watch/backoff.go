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
	"math"
	"math/rand"
	"time"
)

// BackoffPolicy is the reconnect backoff configuration (§4.7 Reconnection,
// §9 Property 9): delay = min(base·2^(attempt-1), max) × jitterFactor,
// jitterFactor ∈ [1-j, 1+j]. Mirrors the teacher's
// ExecutorConfig.RetryBackoffBase/Max calculateBackoff shape
// (pkg/deploy/executor.go), generalized with the jitter term §4.7 adds on
// top of C6's unjittered per-apply backoff — the two are deliberately
// different (see DESIGN.md on why controller-idioms/queue's rate limiter
// isn't reused here).
type BackoffPolicy struct {
	Base                 time.Duration
	Max                  time.Duration
	Jitter               float64 // j, e.g. 0.2 for ±20%
	MaxReconnectAttempts int
}

// DefaultBackoffPolicy matches the teacher's ExecutorConfig defaults
// (1s base, 5m max) with a conservative ±20% jitter and 10 reconnect
// attempts before degrading.
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		Base:                 1 * time.Second,
		Max:                  5 * time.Minute,
		Jitter:               0.2,
		MaxReconnectAttempts: 10,
	}
}

// Delay computes the backoff delay for reconnect attempt k (1-indexed, per
// §9 Property 9's "attempt k"), using r as the jitter source so callers and
// tests can make the jitter deterministic.
func (p BackoffPolicy) Delay(attempt int, r *rand.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(p.Base) * math.Pow(2, float64(attempt-1))
	capped := math.Min(base, float64(p.Max))

	jitterFactor := 1.0
	if p.Jitter > 0 {
		jitterFactor = 1 - p.Jitter + r.Float64()*2*p.Jitter
	}
	return time.Duration(capped * jitterFactor)
}

// Bounds returns the inclusive [min, max] delay range for attempt k,
// independent of any particular jitter draw — the invariant §9 Property 9
// actually asserts.
func (p BackoffPolicy) Bounds(attempt int) (min, max time.Duration) {
	if attempt < 1 {
		attempt = 1
	}
	base := math.Min(float64(p.Base)*math.Pow(2, float64(attempt-1)), float64(p.Max))
	return time.Duration(base * (1 - p.Jitter)), time.Duration(base * (1 + p.Jitter))
}

// Exhausted reports whether attempt has used up the reconnect budget,
// after which the Connection emits the "monitoring degraded" signal
// instead of continuing to retry (§4.7 Reconnection).
func (p BackoffPolicy) Exhausted(attempt int) bool {
	return p.MaxReconnectAttempts > 0 && attempt > p.MaxReconnectAttempts
}
