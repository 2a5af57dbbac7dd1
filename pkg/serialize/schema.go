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
	"reflect"
	"strings"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
)

// buildJSONSchema reflects a zero-value Go struct (builder.Schema's Spec or
// Status field) into apiextensionsv1.JSONSchemaProps, the teacher's
// generator.buildOpenAPISchema shape fed by struct reflection instead of a
// CUE value (SPEC_FULL §4.5). nil yields a preserve-unknown-fields object,
// for a graph that declares no schema.
func buildJSONSchema(v any) apiextensionsv1.JSONSchemaProps {
	if v == nil {
		return apiextensionsv1.JSONSchemaProps{Type: "object", XPreserveUnknownFields: boolPtr(true)}
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return schemaForType(t)
}

func schemaForType(t reflect.Type) apiextensionsv1.JSONSchemaProps {
	switch t.Kind() {
	case reflect.String:
		return apiextensionsv1.JSONSchemaProps{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return apiextensionsv1.JSONSchemaProps{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return apiextensionsv1.JSONSchemaProps{Type: "number"}
	case reflect.Bool:
		return apiextensionsv1.JSONSchemaProps{Type: "boolean"}
	case reflect.Ptr:
		return schemaForType(t.Elem())

	case reflect.Slice, reflect.Array:
		items := schemaForType(t.Elem())
		return apiextensionsv1.JSONSchemaProps{
			Type:  "array",
			Items: &apiextensionsv1.JSONSchemaPropsOrArray{Schema: &items},
		}

	case reflect.Map:
		additional := schemaForType(t.Elem())
		return apiextensionsv1.JSONSchemaProps{
			Type:                 "object",
			AdditionalProperties: &apiextensionsv1.JSONSchemaPropsOrBool{Schema: &additional},
		}

	case reflect.Struct:
		return structSchema(t)

	default: // reflect.Interface and anything else: an opaque, any-shaped field
		return apiextensionsv1.JSONSchemaProps{Type: "object", XPreserveUnknownFields: boolPtr(true)}
	}
}

func structSchema(t reflect.Type) apiextensionsv1.JSONSchemaProps {
	props := make(map[string]apiextensionsv1.JSONSchemaProps, t.NumField())
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name, omitempty, skip := jsonFieldName(f)
		if skip {
			continue
		}
		props[name] = schemaForType(f.Type)
		if !omitempty {
			required = append(required, name)
		}
	}

	return apiextensionsv1.JSONSchemaProps{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// jsonFieldName mirrors encoding/json's tag rules closely enough for schema
// purposes: a bare "-" tag skips the field, a custom name overrides the Go
// field name, and a trailing ",omitempty" marks it optional.
func jsonFieldName(f reflect.StructField) (name string, omitempty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = f.Name
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func boolPtr(b bool) *bool { return &b }
