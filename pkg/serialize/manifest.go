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
	"fmt"
	"strings"

	"github.com/kroengine/rgde/pkg/ref"
	"github.com/kroengine/rgde/pkg/resolve"
)

// tokenizeManifest rewrites every ref.Reference/ref.Expression leaf in
// manifest to the `${...}` cluster dialect string (§4.5), reusing
// resolve.Clone's selective-clone walk — the same tree shape C4 resolves at
// deployment time, here "resolved" to wire strings instead of live values.
func tokenizeManifest(manifest map[string]any) (map[string]any, error) {
	out, err := resolve.Clone(manifest, tokenizeReference, tokenizeExpression)
	if err != nil {
		return nil, err
	}
	tokenized, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("serialize: manifest root must be an object, got %T", out)
	}
	return tokenized, nil
}

func tokenizeReference(r ref.Reference) (any, error) {
	return "${" + r.WireString() + "}", nil
}

// tokenizeExpression wraps a raw CEL body in `${...}`. A Template-built body
// already carries its own `${resourceId.fieldPath}` markers from splicing
// (ref.Template writes them at composition time — see the ref.Expression
// entry in DESIGN.md for why that, not here, is where `||` parenthesization
// happens too), so it is emitted unchanged: wrapping it again would nest the
// token delimiters.
func tokenizeExpression(e ref.Expression) (any, error) {
	body := e.Body()
	if strings.Contains(body, "${") {
		return body, nil
	}
	return "${" + body + "}", nil
}
