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

package status

import (
	"context"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kroengine/rgde/pkg/inventory"
	"github.com/kroengine/rgde/pkg/rgerr"
)

// ObjectSource fetches the current live object for a tracked resource id,
// narrow enough to fake in tests without a real cluster — the same
// interface-injection idiom pkg/deploy uses for Resolver/Applier/
// ReadinessChecker.
type ObjectSource interface {
	Get(ctx context.Context, id string) (*unstructured.Unstructured, error)
}

// ClusterObjectSource fetches live objects from a real client, resolving
// id to a GVK/namespace/name through an inventory.Tracker — the same
// tracker C6 populates as it applies each resource.
type ClusterObjectSource struct {
	client  client.Client
	tracker *inventory.Tracker
}

// NewClusterObjectSource constructs an ObjectSource backed by c and tracker.
func NewClusterObjectSource(c client.Client, tracker *inventory.Tracker) *ClusterObjectSource {
	return &ClusterObjectSource{client: c, tracker: tracker}
}

// Get implements ObjectSource. An id absent from the tracker, or whose
// live object has been deleted out from under the graph, both surface as
// *rgerr.NotFoundError (§4.8: "a 404 on a tracked object yields a named
// error and leaves the status unchanged").
func (s *ClusterObjectSource) Get(ctx context.Context, id string) (*unstructured.Unstructured, error) {
	item, ok := s.tracker.Get(id)
	if !ok {
		return nil, &rgerr.NotFoundError{Resource: id, Err: fmt.Errorf("not in inventory")}
	}

	obj := &unstructured.Unstructured{}
	obj.SetGroupVersionKind(item.GVK)
	key := types.NamespacedName{Namespace: item.Namespace, Name: item.Name}
	if err := s.client.Get(ctx, key, obj); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, &rgerr.NotFoundError{Resource: id, Err: err}
		}
		return nil, fmt.Errorf("status: fetch %s: %w", id, err)
	}
	return obj, nil
}
