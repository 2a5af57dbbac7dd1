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

package rgerr

import "fmt"

// ValidationError reports a failed structural check on a user spec.
type ValidationError struct {
	FieldPath string
	Example   string
	Err       error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation failed at %q", e.FieldPath)
	if e.Example != "" {
		msg += fmt.Sprintf(" (example value: %s)", e.Example)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReferenceResolutionError reports an unresolvable Reference.
type ReferenceResolutionError struct {
	ResourceID string
	FieldPath  string
	Reason     string
	Candidates []string
}

func (e *ReferenceResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve reference %s.%s: %s", e.ResourceID, e.FieldPath, e.Reason)
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (known resource ids: %v)", e.Candidates)
	}
	return msg
}

// CircularDependencyError reports a cycle discovered by the dependency
// resolver. Cycle lists resource ids in traversal order, ending back at the
// first id.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %v", e.Cycle)
}

// ConflictError reports an HTTP 409 on an update. Retryable up to policy.
type ConflictError struct {
	Resource     string
	FieldManager string
	Err          error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("field manager conflict for %s (field manager: %s): %v", e.Resource, e.FieldManager, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// NotFoundError reports an HTTP 404. Terminal for reads; the caller decides
// whether to ignore it for idempotent deletes.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s: %v", e.Resource, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// TransientError wraps a retryable network/server error (connection reset,
// timeout, 408/429/5xx).
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error during %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthorizationError reports an HTTP 401/403. Always terminal.
type AuthorizationError struct {
	Resource string
	Err      error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("not authorized for %s: %v", e.Resource, e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// BadRequestError reports a server-side 400/422 validation rejection.
// Always terminal.
type BadRequestError struct {
	Resource string
	Err      error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("server rejected %s: %v", e.Resource, e.Err)
}

func (e *BadRequestError) Unwrap() error { return e.Err }

// ReconnectExhaustedError reports that a watch connection could not be
// restored after the configured maximum attempts. It never aborts a
// deployment by itself; the caller should emit a "degraded" progress event.
type ReconnectExhaustedError struct {
	Kind      string
	Namespace string
	Attempts  int
	Err       error
}

func (e *ReconnectExhaustedError) Error() string {
	return fmt.Sprintf("watch for %s/%s degraded after %d reconnect attempts: %v", e.Kind, e.Namespace, e.Attempts, e.Err)
}

func (e *ReconnectExhaustedError) Unwrap() error { return e.Err }

// StatusBuildingError reports a status leaf whose evaluated type mismatched
// its declared schema type. The hydrator logs this and leaves the leaf at
// its previous value; other fields still update.
type StatusBuildingError struct {
	FieldPath string
	Want      string
	Got       string
}

func (e *StatusBuildingError) Error() string {
	return fmt.Sprintf("status field %q: expected %s, got %s", e.FieldPath, e.Want, e.Got)
}

// ContextRegistrationError reports two resources registered under the same
// id within one composition context.
type ContextRegistrationError struct {
	ID          string
	Suggestions []string
}

func (e *ContextRegistrationError) Error() string {
	return fmt.Sprintf("resource id %q already registered in this context; suggestions: %v", e.ID, e.Suggestions)
}

// NewContextRegistrationError builds the standard suggestion set: drop the
// explicit id, rename it, or use a distinct kind.
func NewContextRegistrationError(id, kind string) *ContextRegistrationError {
	return &ContextRegistrationError{
		ID: id,
		Suggestions: []string{
			"drop the explicit id and let it be derived from kind and name",
			fmt.Sprintf("rename this %s to a unique id", kind),
			"use a distinct kind if these are meant to be different resources",
		},
	}
}
