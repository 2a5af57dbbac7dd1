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

	"github.com/kroengine/rgde/pkg/graph"
	"github.com/kroengine/rgde/pkg/ref"
)

// encodeReadyWhen renders a single readiness predicate to a wire string.
// PredicateTypeExpression renders as a `${...}` token, matching kro's own
// `readyWhen: - ${cluster.status.status == "Active"}` convention; the
// built-in presets (Exists/DeploymentAvailable/ConditionMatch) have no kro
// equivalent, so they're rendered as a small key:value tag line instead —
// there is no downstream consumer in this module to round-trip against, so
// the exact tag grammar is a documentation choice, not a protocol one.
func encodeReadyWhen(rw graph.ReadyWhen) (string, error) {
	switch rw.Type {
	case graph.PredicateTypeExpression:
		if rw.Expr == nil {
			return "", fmt.Errorf("serialize: Expression readyWhen missing Expr")
		}
		tok, err := tokenizeExpression(*rw.Expr)
		if err != nil {
			return "", err
		}
		return tok.(string), nil
	case graph.PredicateTypeConditionMatch:
		return fmt.Sprintf("type:ConditionMatch,conditionType:%s,conditionStatus:%s", rw.ConditionType, rw.ConditionStatus), nil
	case graph.PredicateTypeDeploymentAvailable:
		return "type:DeploymentAvailable", nil
	case graph.PredicateTypeExists:
		return "type:Exists", nil
	default:
		return "", fmt.Errorf("serialize: unknown readyWhen type %q", rw.Type)
	}
}

func encodeReadyWhenList(rws []graph.ReadyWhen) ([]string, error) {
	if len(rws) == 0 {
		return nil, nil
	}
	out := make([]string, len(rws))
	for i, rw := range rws {
		s, err := encodeReadyWhen(rw)
		if err != nil {
			return nil, fmt.Errorf("readyWhen[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func encodeIncludeWhenList(exprs []ref.Expression) ([]string, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]string, len(exprs))
	for i, e := range exprs {
		tok, err := tokenizeExpression(e)
		if err != nil {
			return nil, fmt.Errorf("includeWhen[%d]: %w", i, err)
		}
		out[i] = tok.(string)
	}
	return out, nil
}
