// Package compose implements the composition context (C10): an explicit
// handle threaded through a user-supplied builder closure that
// auto-captures every resource and deferred deployment step the closure
// creates, so the caller never has to collect them by hand.
//
// The source system used a fiber-local implicit context; per the
// redesign notes this becomes an explicit *Composer handle (Design Notes
// §9(b)). The handle is also stashed in a context.Context via a typed key
// so helper functions that only receive a context.Context can still reach
// it, mirroring the teacher's reconcile-pipeline context keys.
package compose
