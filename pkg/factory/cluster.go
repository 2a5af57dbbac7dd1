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

package factory

import (
	"context"
	"fmt"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/rgerr"
	"github.com/kroengine/rgde/pkg/serialize"
)

// ClusterFactory hands a rendered instance document to a cluster
// controller rather than applying resources itself: deploy(spec) submits
// the instance, and the out-of-scope controller owned by the
// ResourceGraphDefinition does the materializing. This is the "cluster"
// of the two factory shapes in §4.9.
type ClusterFactory struct {
	graph  *graph.Graph
	client client.Client
}

// NewClusterFactory builds a ClusterFactory for g, submitting instance
// documents through c.
func NewClusterFactory(g *graph.Graph, c client.Client) *ClusterFactory {
	return &ClusterFactory{graph: g, client: c}
}

// Deploy creates or updates the instance document; it does not wait for
// the controller to reconcile it.
func (f *ClusterFactory) Deploy(ctx context.Context, name string, spec map[string]any) error {
	existing := f.newInstanceObject(name)
	err := f.client.Get(ctx, client.ObjectKeyFromObject(existing), existing)
	switch {
	case apierrors.IsNotFound(err):
		obj := f.newInstanceObject(name)
		obj.Object["spec"] = spec
		if createErr := f.client.Create(ctx, obj); createErr != nil {
			return fmt.Errorf("factory: create instance %s/%s: %w", f.graph.Kind, name, createErr)
		}
		return nil
	case err != nil:
		return fmt.Errorf("factory: get instance %s/%s: %w", f.graph.Kind, name, err)
	}

	existing.Object["spec"] = spec
	if err := f.client.Update(ctx, existing); err != nil {
		return fmt.Errorf("factory: update instance %s/%s: %w", f.graph.Kind, name, err)
	}
	return nil
}

// Delete removes the instance document; the controller is responsible for
// finalizing and cleaning up whatever it created for it.
func (f *ClusterFactory) Delete(ctx context.Context, name string) error {
	obj := f.newInstanceObject(name)
	if err := f.client.Delete(ctx, obj); err != nil {
		if apierrors.IsNotFound(err) {
			return &rgerr.NotFoundError{Resource: name, Err: err}
		}
		return fmt.Errorf("factory: delete instance %s/%s: %w", f.graph.Kind, name, err)
	}
	return nil
}

// List returns the names of every instance of this graph's kind present
// in the cluster.
func (f *ClusterFactory) List(ctx context.Context) ([]string, error) {
	list := &unstructured.UnstructuredList{}
	list.SetGroupVersionKind(f.instanceListGVK())
	if err := f.client.List(ctx, list); err != nil {
		return nil, fmt.Errorf("factory: list instances of %s: %w", f.graph.Kind, err)
	}

	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		names = append(names, item.GetName())
	}
	return names, nil
}

// GetStatus returns the instance's status subtree as last written by the
// controller reconciling it.
func (f *ClusterFactory) GetStatus(ctx context.Context, name string) (map[string]any, error) {
	obj := f.newInstanceObject(name)
	if err := f.client.Get(ctx, client.ObjectKeyFromObject(obj), obj); err != nil {
		if apierrors.IsNotFound(err) {
			return nil, &rgerr.NotFoundError{Resource: name, Err: err}
		}
		return nil, fmt.Errorf("factory: get instance %s/%s: %w", f.graph.Kind, name, err)
	}

	status, _, err := unstructured.NestedMap(obj.Object, "status")
	if err != nil {
		return nil, fmt.Errorf("factory: read status of %s/%s: %w", f.graph.Kind, name, err)
	}
	return status, nil
}

// ToYaml renders the ResourceGraphDefinition document itself — the
// artifact consumers apply once, up front, before deploying any
// instances. Compare DirectFactory.ToYaml, which renders an instance's
// materialized manifests instead.
func (f *ClusterFactory) ToYaml() ([]byte, error) {
	doc, err := serialize.Serialize(f.graph)
	if err != nil {
		return nil, fmt.Errorf("factory: serialize %s: %w", f.graph.Name, err)
	}
	return serialize.Marshal(doc)
}

func (f *ClusterFactory) newInstanceObject(name string) *unstructured.Unstructured {
	obj := &unstructured.Unstructured{}
	obj.SetAPIVersion(f.graph.APIVersion)
	obj.SetKind(f.graph.Kind)
	obj.SetName(name)
	return obj
}

func (f *ClusterFactory) instanceListGVK() schema.GroupVersionKind {
	group, version := splitAPIVersion(f.graph.APIVersion)
	return schema.GroupVersionKind{Group: group, Version: version, Kind: f.graph.Kind + "List"}
}

func splitAPIVersion(apiVersion string) (group, version string) {
	parts := strings.SplitN(apiVersion, "/", 2)
	if len(parts) == 1 {
		return "", parts[0]
	}
	return parts[0], parts[1]
}
