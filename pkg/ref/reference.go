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

import "fmt"

// SchemaResourceID is the reserved resourceId that marks a Reference as
// pointing into the graph's own spec/status schema rather than at another
// resource. References with this ID never produce dependency edges.
const SchemaResourceID = "__schema__"

// TypeTag carries the static type of a Reference or Expression for
// assignment checks performed by pkg/builder. It is advisory only: neither
// minting a Reference nor evaluating an Expression ever fails because of it.
type TypeTag string

const (
	TypeAny    TypeTag = "any"
	TypeString TypeTag = "string"
	TypeInt    TypeTag = "int"
	TypeBool   TypeTag = "bool"
	TypeObject TypeTag = "object"
	TypeArray  TypeTag = "array"
)

// Reference is an immutable placeholder for a field of another resource, or
// of the graph's own schema. Identity is the (ResourceID, FieldPath) pair;
// two References with the same pair are Equal regardless of Type.
type Reference struct {
	resourceID string
	fieldPath  string
	typ        TypeTag
}

// New mints a Reference. It never fails: minting is purely structural.
func New(resourceID, fieldPath string, typ ...TypeTag) Reference {
	t := TypeAny
	if len(typ) > 0 {
		t = typ[0]
	}
	return Reference{resourceID: resourceID, fieldPath: fieldPath, typ: t}
}

// Schema mints a schema Reference (resourceId == SchemaResourceID).
func Schema(fieldPath string, typ ...TypeTag) Reference {
	return New(SchemaResourceID, fieldPath, typ...)
}

func (r Reference) ResourceID() string { return r.resourceID }
func (r Reference) FieldPath() string  { return r.fieldPath }
func (r Reference) Type() TypeTag      { return r.typ }

// IsSchema reports whether this Reference targets the graph's own schema
// rather than another resource, i.e. whether it should be excluded from
// dependency-edge computation.
func (r Reference) IsSchema() bool { return r.resourceID == SchemaResourceID }

// Equal reports structural equality by (ResourceID, FieldPath). Type is not
// part of identity: two reads of the same path always mint Equal references
// even if read through differently-typed helpers.
func (r Reference) Equal(o Reference) bool {
	return r.resourceID == o.resourceID && r.fieldPath == o.fieldPath
}

func (r Reference) String() string {
	return fmt.Sprintf("%s.%s", r.resourceID, r.fieldPath)
}

// WireSchemaToken is the literal resourceId text schema References get in
// the cluster-dialect "${...}" wire format — "schema", the real kro
// convention, not the internal SchemaResourceID sentinel used to keep
// schema References out of dependency-edge computation. pkg/resolve's CEL
// compiler translates it back to SchemaResourceID when it encounters this
// token in a Template-built Expression's body, since that body is the
// same text pkg/serialize emits to the wire format.
const WireSchemaToken = "schema"

// WireString renders r the way it must appear inside a "${...}" token in
// serialized output (§4.5): identical to String() except a schema
// Reference's resourceId is rewritten from the internal SchemaResourceID
// sentinel to the literal word "schema", e.g. "schema.spec.replicas".
func (r Reference) WireString() string {
	id := r.resourceID
	if r.IsSchema() {
		id = WireSchemaToken
	}
	return fmt.Sprintf("%s.%s", id, r.fieldPath)
}

// IsReference reports whether v is a Reference. Used by walkers that accept
// `any` leaves.
func IsReference(v any) (Reference, bool) {
	r, ok := v.(Reference)
	return r, ok
}
