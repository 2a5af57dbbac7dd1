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

import (
	"errors"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// IsRetryable classifies an error per §7's propagation policy: Conflict and
// transient network/server errors are retried locally by the caller's
// backoff policy; everything else is terminal and should abort the current
// operation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return true
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return false
	}
	var auth *AuthorizationError
	if errors.As(err, &auth) {
		return false
	}
	var badReq *BadRequestError
	if errors.As(err, &badReq) {
		return false
	}

	// Fall back to classifying the raw Kubernetes API error, for errors
	// that weren't already wrapped by pkg/deploy or pkg/watch.
	switch {
	case apierrors.IsConflict(err):
		return true
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err), apierrors.IsTooManyRequests(err):
		return true
	case apierrors.IsInternalError(err), apierrors.IsServiceUnavailable(err):
		return true
	case apierrors.IsNotFound(err), apierrors.IsUnauthorized(err), apierrors.IsForbidden(err), apierrors.IsBadRequest(err), apierrors.IsInvalid(err):
		return false
	}
	return false
}

// IsTerminal is the complement of IsRetryable, spelled out for readability
// at call sites that branch on "should this abort the operation".
func IsTerminal(err error) bool {
	return err != nil && !IsRetryable(err)
}
