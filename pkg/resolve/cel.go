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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/kroengine/rgde/pkg/ref"
)

// templateToken matches a "${resourceId.fieldPath}" substitution marker as
// produced by ref.Template.
var templateToken = regexp.MustCompile(`\$\{([^}]*)\}`)

// compileTemplate rewrites a ref.Template body's "${...}" markers into a CEL
// string-concatenation expression, per §4.4's "compiles the printf template
// constructor into a CEL string-concatenation expression at build time".
// Bodies with no markers (raw expressions built with ref.NewExpression) are
// returned unchanged — they're already CEL source.
func compileTemplate(body string) string {
	if !strings.Contains(body, "${") {
		return body
	}

	var b strings.Builder
	last := 0
	write := func(s string) {
		if b.Len() > 0 {
			b.WriteString(" + ")
		}
		b.WriteString(s)
	}

	for _, m := range templateToken.FindAllStringSubmatchIndex(body, -1) {
		if lit := body[last:m[0]]; lit != "" {
			write(strconv.Quote(lit))
		}
		write("string(" + untokenizeSchema(body[m[2]:m[3]]) + ")")
		last = m[1]
	}
	if tail := body[last:]; tail != "" {
		write(strconv.Quote(tail))
	}
	if b.Len() == 0 {
		return `""`
	}
	return b.String()
}

// wireSchemaWord matches the wire dialect's bare "schema" token wherever it
// appears in a template marker — "schema.spec.port", or nested inside a
// parenthesized sub-expression like "(schema.spec.port || 80)" — so it
// takes a word-boundary match, not just a prefix.
var wireSchemaWord = regexp.MustCompile(`\b` + ref.WireSchemaToken + `\b`)

// untokenizeSchema rewrites a template marker's wire-dialect "schema" token
// back to the internal SchemaResourceID variable name compileTemplate's CEL
// source needs, since buildEnv declares the schema variable under that
// name, never under the wire token: a ref.Template-built Expression's body
// is the same text pkg/serialize emits to the wire format, so the wire
// dialect's "schema" word and the internal evaluator's variable name
// necessarily differ.
func untokenizeSchema(token string) string {
	return wireSchemaWord.ReplaceAllString(token, ref.SchemaResourceID)
}

// celIdentifier matches the subset of resource ids that can be declared as
// bare CEL variables. graph.DeriveID only ever produces ids made of the
// kind and name's letters and digits, which always match; a user-supplied explicit id that
// doesn't is a build-time mistake surfaced here rather than silently
// mangled.
var celIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// buildEnv constructs a CEL environment with one AnyType variable per
// referenced resource id, grounded on kro's pkg/cel/environment.go
// (DefaultEnvironment): same ext.Strings()/ext.Lists() base, same
// "declare one variable per resource id" shape, generalized from kro's
// resourceIDs-as-strings list to the concrete ref.Reference ids an
// Expression actually embeds.
func buildEnv(ids []string) (*cel.Env, error) {
	opts := []cel.EnvOption{ext.Strings(), ext.Lists()}
	for _, id := range ids {
		if !celIdentifier.MatchString(id) {
			return nil, fmt.Errorf("resource id %q cannot be used as a CEL variable in an expression", id)
		}
		opts = append(opts, cel.Variable(id, cel.AnyType))
	}
	return cel.NewEnv(opts...)
}

// evalExpression evaluates e's body as a CEL program. Every distinct
// resource id in e.References() is bound to the whole resolved object it
// names (not just the referenced field), so a body like
// "deployment.status.readyReplicas == deployment.status.replicas" resolves
// both selectors against the one bound variable — the same "declare the
// resource, let CEL do the field selection" shape kro uses, rather than
// pre-extracting each individual field.
func evalExpression(e ref.Expression, bindings map[string]any) (any, error) {
	ids := make([]string, 0, len(e.References()))
	seen := make(map[string]bool)
	for _, r := range e.References() {
		if r.IsSchema() {
			continue
		}
		if !seen[r.ResourceID()] {
			seen[r.ResourceID()] = true
			ids = append(ids, r.ResourceID())
		}
	}
	if hasSchemaRef(e) {
		ids = append(ids, ref.SchemaResourceID)
	}

	env, err := buildEnv(ids)
	if err != nil {
		return nil, err
	}

	source := compileTemplate(e.Body())
	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", e.Body(), issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program for %q: %w", e.Body(), err)
	}

	out, _, err := program.Eval(bindings)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", e.Body(), err)
	}
	return out.Value(), nil
}

func hasSchemaRef(e ref.Expression) bool {
	for _, r := range e.References() {
		if r.IsSchema() {
			return true
		}
	}
	return false
}
