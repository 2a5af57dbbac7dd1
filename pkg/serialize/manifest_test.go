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

package serialize

import (
	"testing"

	"github.com/kroengine/rgde/pkg/ref"
)

func TestTokenizeManifest_Reference(t *testing.T) {
	manifest := map[string]any{
		"spec": map[string]any{
			"host": ref.New("Deployment", "status.podIP"),
		},
	}
	out, err := tokenizeManifest(manifest)
	if err != nil {
		t.Fatalf("tokenizeManifest() error = %v", err)
	}
	spec := out["spec"].(map[string]any)
	if spec["host"] != "${Deployment.status.podIP}" {
		t.Errorf("host = %v, want ${Deployment.status.podIP}", spec["host"])
	}
}

func TestTokenizeExpression_RawBodyGetsWrapped(t *testing.T) {
	e := ref.NewExpression("1 + 1", ref.TypeInt)
	tok, err := tokenizeExpression(e)
	if err != nil {
		t.Fatalf("tokenizeExpression() error = %v", err)
	}
	if tok != "${1 + 1}" {
		t.Errorf("tok = %v, want ${1 + 1}", tok)
	}
}

func TestTokenizeExpression_TemplateBodyNotDoubleWrapped(t *testing.T) {
	e := ref.Template("%s", ref.New("Deployment", "status.podIP"))
	tok, err := tokenizeExpression(e)
	if err != nil {
		t.Fatalf("tokenizeExpression() error = %v", err)
	}
	if tok != "${Deployment.status.podIP}" {
		t.Errorf("tok = %v, want ${Deployment.status.podIP}", tok)
	}
}

func TestTokenizeReference_SchemaUsesWireToken(t *testing.T) {
	tok, err := tokenizeReference(ref.Schema("spec.replicas"))
	if err != nil {
		t.Fatalf("tokenizeReference() error = %v", err)
	}
	if tok != "${schema.spec.replicas}" {
		t.Errorf("tok = %v, want ${schema.spec.replicas}", tok)
	}
}

func TestTokenizeExpression_TemplateWithSchemaReference(t *testing.T) {
	port := ref.NewExpression("schema.spec.port || 80", ref.TypeInt, ref.Schema("spec.port"))
	e := ref.Template("http://%s:%s", ref.Schema("spec.host"), port)

	tok, err := tokenizeExpression(e)
	if err != nil {
		t.Fatalf("tokenizeExpression() error = %v", err)
	}
	want := "http://${schema.spec.host}:${(schema.spec.port || 80)}"
	if tok != want {
		t.Errorf("tok = %v, want %v", tok, want)
	}
}

func TestTokenizeManifest_LeavesLiteralsAlone(t *testing.T) {
	manifest := map[string]any{"replicas": 3, "name": "web"}
	out, err := tokenizeManifest(manifest)
	if err != nil {
		t.Fatalf("tokenizeManifest() error = %v", err)
	}
	if out["replicas"] != 3 || out["name"] != "web" {
		t.Errorf("out = %+v, want literals unchanged", out)
	}
}
