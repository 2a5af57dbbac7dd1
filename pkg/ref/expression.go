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

package ref

import (
	"fmt"
	"strings"
)

// Expression is a typed carrier for a textual expression in the cluster
// controller's dialect. It may be composed from one or more References,
// which must remain structurally recoverable so the dependency resolver can
// walk them without re-parsing Body.
type Expression struct {
	body string
	refs []Reference
	typ  TypeTag
}

// NewExpression wraps an arbitrary expression body (operators, function
// calls, field access written directly in the cluster dialect). Any
// References embedded in the computation must be passed in refs so C3 can
// discover them without parsing body.
func NewExpression(body string, typ TypeTag, refs ...Reference) Expression {
	return Expression{body: body, refs: append([]Reference(nil), refs...), typ: typ}
}

// Template builds a printf-style Expression: literal text interleaved with
// sub-expressions at each "%s" position. Each arg may be a literal value, a
// Reference, or an Expression; all become string-concatenation operands in
// the serialized form (see pkg/serialize).
//
//	Template("http://%s:%s", hostRef, portExpr)
func Template(format string, args ...any) Expression {
	parts := strings.Split(format, "%s")
	if len(parts)-1 != len(args) {
		panic(fmt.Sprintf("ref.Template: format %q has %d verbs but %d args given", format, len(parts)-1, len(args)))
	}

	var refs []Reference
	var b strings.Builder
	for i, lit := range parts {
		b.WriteString(lit)
		if i < len(args) {
			switch a := args[i].(type) {
			case Reference:
				refs = append(refs, a)
				b.WriteString("${")
				b.WriteString(a.WireString())
				b.WriteString("}")
			case Expression:
				refs = append(refs, a.refs...)
				b.WriteString("${")
				if strings.Contains(a.body, "||") {
					b.WriteString("(")
					b.WriteString(a.body)
					b.WriteString(")")
				} else {
					b.WriteString(a.body)
				}
				b.WriteString("}")
			default:
				fmt.Fprintf(&b, "%v", a)
			}
		}
	}
	return Expression{body: b.String(), refs: dedupeRefs(refs), typ: TypeString}
}

func dedupeRefs(in []Reference) []Reference {
	out := make([]Reference, 0, len(in))
	for _, r := range in {
		dup := false
		for _, seen := range out {
			if seen.Equal(r) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, r)
		}
	}
	return out
}

// Body returns the raw, unescaped expression text.
func (e Expression) Body() string { return e.body }

// Type returns the expression's declared evaluation type.
func (e Expression) Type() TypeTag { return e.typ }

// References returns the References embedded in this Expression, enabling
// the dependency resolver to walk them without re-parsing Body.
func (e Expression) References() []Reference {
	return append([]Reference(nil), e.refs...)
}

// IsSchemaOnly reports whether every embedded Reference targets the schema,
// meaning this Expression creates no dependency edges (it is a "static"
// field per §4.5).
func (e Expression) IsSchemaOnly() bool {
	for _, r := range e.refs {
		if !r.IsSchema() {
			return false
		}
	}
	return true
}

// IsExpression reports whether v is an Expression.
func IsExpression(v any) (Expression, bool) {
	e, ok := v.(Expression)
	return e, ok
}

// IsPlaceholder reports whether v is a Reference or an Expression — the
// umbrella "Placeholder" concept from the glossary.
func IsPlaceholder(v any) bool {
	switch v.(type) {
	case Reference, Expression:
		return true
	default:
		return false
	}
}
