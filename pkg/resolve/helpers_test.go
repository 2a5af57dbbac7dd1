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

package resolve

import (
	"testing"

	"github.com/kroengine/rgde/pkg/ref"
)

func newTestExpression(t *testing.T, body string) ref.Expression {
	t.Helper()
	return ref.NewExpression(body, ref.TypeAny)
}

func newTestExpressionWithRefs(t *testing.T, body, resourceID, fieldPath string) ref.Expression {
	t.Helper()
	return ref.NewExpression(body, ref.TypeAny, ref.New(resourceID, fieldPath))
}
