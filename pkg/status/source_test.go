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
	"errors"
	"testing"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/kroengine/rgde/pkg/inventory"
	"github.com/kroengine/rgde/pkg/rgerr"
)

func deploymentScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	scheme.AddKnownTypeWithName(
		schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"},
		&unstructured.Unstructured{},
	)
	scheme.AddKnownTypeWithName(
		schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "DeploymentList"},
		&unstructured.UnstructuredList{},
	)
	return scheme
}

func newTestClient(objects ...runtime.Object) client.Client {
	return fake.NewClientBuilder().WithScheme(deploymentScheme()).WithRuntimeObjects(objects...).Build()
}

func TestClusterObjectSource_FetchesTrackedObject(t *testing.T) {
	deployment := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]any{"name": "web", "namespace": "default"},
		"status":     map[string]any{"readyReplicas": int64(2)},
	}}
	c := newTestClient(deployment)

	tracker := inventory.NewTracker()
	tracker.RecordApplied("deployment", deployment)

	src := NewClusterObjectSource(c, tracker)
	got, err := src.Get(context.Background(), "deployment")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.GetName() != "web" {
		t.Errorf("got name %q, want web", got.GetName())
	}
}

func TestClusterObjectSource_UntrackedIDIsNotFound(t *testing.T) {
	src := NewClusterObjectSource(newTestClient(), inventory.NewTracker())

	_, err := src.Get(context.Background(), "missing")
	var nfe *rgerr.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Get() error = %v, want *rgerr.NotFoundError", err)
	}
}

func TestClusterObjectSource_DeletedLiveObjectIsNotFound(t *testing.T) {
	deployment := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]any{"name": "web", "namespace": "default"},
	}}
	tracker := inventory.NewTracker()
	tracker.RecordApplied("deployment", deployment)

	// Client has no objects: the tracker believes "deployment" exists,
	// but it has since been deleted out from under the graph.
	src := NewClusterObjectSource(newTestClient(), tracker)

	_, err := src.Get(context.Background(), "deployment")
	var nfe *rgerr.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Get() error = %v, want *rgerr.NotFoundError", err)
	}
}
