// Package readiness provides predicate evaluation for determining when
// Kubernetes resources are ready. It includes various predicate implementations
// such as condition matching, deployment availability, and existence checks.
package readiness
