package readiness

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/kroengine/rgde/pkg/graph"
)

// Evaluator is the interface for evaluating readiness predicates
type Evaluator interface {
	// Evaluate checks if the predicate is satisfied for the given object
	Evaluate(ctx context.Context, c client.Client, obj *unstructured.Unstructured) (bool, error)
}

// ConditionMatchPredicate checks if a specific condition has the expected status
type ConditionMatchPredicate struct {
	ConditionType   string
	ConditionStatus string
}

// Evaluate checks if the condition matches
func (p *ConditionMatchPredicate) Evaluate(ctx context.Context, c client.Client, obj *unstructured.Unstructured) (bool, error) {
	// Get the status.conditions field
	conditions, found, err := unstructured.NestedSlice(obj.Object, "status", "conditions")
	if err != nil {
		return false, fmt.Errorf("failed to get conditions: %w", err)
	}
	if !found {
		return false, nil
	}

	// Look for the matching condition
	for _, cond := range conditions {
		condMap, ok := cond.(map[string]interface{})
		if !ok {
			continue
		}

		condType, _, _ := unstructured.NestedString(condMap, "type")
		if condType != p.ConditionType {
			continue
		}

		condStatus, _, _ := unstructured.NestedString(condMap, "status")
		if condStatus == p.ConditionStatus {
			return true, nil
		}

		// Condition found but status doesn't match
		return false, nil
	}

	// Condition not found
	return false, nil
}

// DeploymentAvailablePredicate checks if a Deployment is available
type DeploymentAvailablePredicate struct{}

// Evaluate checks if the Deployment is available
func (p *DeploymentAvailablePredicate) Evaluate(ctx context.Context, c client.Client, obj *unstructured.Unstructured) (bool, error) {
	// Convert to Deployment
	var deployment appsv1.Deployment
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(obj.Object, &deployment); err != nil {
		return false, fmt.Errorf("failed to convert to Deployment: %w", err)
	}

	// Check if the Deployment has the Available condition
	for _, cond := range deployment.Status.Conditions {
		if cond.Type == appsv1.DeploymentAvailable && cond.Status == corev1.ConditionTrue {
			return true, nil
		}
	}

	return false, nil
}

// ExistsPredicate checks if the resource exists
type ExistsPredicate struct{}

// Evaluate checks if the resource exists
func (p *ExistsPredicate) Evaluate(ctx context.Context, c client.Client, obj *unstructured.Unstructured) (bool, error) {
	// Try to get the resource
	key := client.ObjectKeyFromObject(obj)
	err := c.Get(ctx, key, obj)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get resource: %w", err)
	}

	return true, nil
}

// ExpressionPredicate evaluates a CEL boolean expression against the
// resource's own object, bound as `self`. Unlike pkg/resolve's expression
// evaluation (which substitutes References from other resources into a
// manifest), a readiness expression only ever looks at the resource it
// guards, so it is evaluated independently here rather than routed through
// the resolver.
type ExpressionPredicate struct {
	body string
}

// Evaluate runs the CEL expression against obj.
func (p *ExpressionPredicate) Evaluate(ctx context.Context, c client.Client, obj *unstructured.Unstructured) (bool, error) {
	env, err := cel.NewEnv(cel.Variable("self", cel.DynType))
	if err != nil {
		return false, fmt.Errorf("failed to build CEL environment: %w", err)
	}

	ast, issues := env.Compile(p.body)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile readiness expression %q: %w", p.body, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to build CEL program: %w", err)
	}

	out, _, err := program.Eval(map[string]any{"self": obj.Object})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate readiness expression %q: %w", p.body, err)
	}

	ready, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("readiness expression %q did not evaluate to a boolean", p.body)
	}
	return ready, nil
}

// NewEvaluator creates an Evaluator from a graph.ReadyWhen predicate.
func NewEvaluator(pred graph.ReadyWhen) (Evaluator, error) {
	switch pred.Type {
	case graph.PredicateTypeConditionMatch:
		if pred.ConditionType == "" {
			return nil, fmt.Errorf("conditionType is required for ConditionMatch predicate")
		}
		if pred.ConditionStatus == "" {
			return nil, fmt.Errorf("conditionStatus is required for ConditionMatch predicate")
		}
		return &ConditionMatchPredicate{
			ConditionType:   pred.ConditionType,
			ConditionStatus: pred.ConditionStatus,
		}, nil

	case graph.PredicateTypeDeploymentAvailable:
		return &DeploymentAvailablePredicate{}, nil

	case graph.PredicateTypeExists:
		return &ExistsPredicate{}, nil

	case graph.PredicateTypeExpression:
		if pred.Expr == nil {
			return nil, fmt.Errorf("expr is required for Expression predicate")
		}
		return &ExpressionPredicate{body: pred.Expr.Body()}, nil

	default:
		return nil, fmt.Errorf("unknown predicate type: %s", pred.Type)
	}
}
