package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Variant is one arm of a closed, tagged union. Tag is the
// discriminant; Payload is a prototype of the arm's fields, nil for
// unit variants.
type Variant struct {
	Tag     string
	Payload any
}

// Union marks a result type as a closed set of tagged variants. The
// wire encoding is externally tagged: an object whose single key is
// the discriminant wrapping the payload, or the bare discriminant
// string for unit variants. Types implementing Union are expected to
// pair it with MarshalJSON/UnmarshalJSON producing that encoding.
type Union interface {
	Variants() []Variant
}

// For derives the descriptor for T. Derivation is pure and
// deterministic: the same type always yields the same descriptor.
func For[T any]() (*Descriptor, error) {
	var zero T
	return Describe(zero)
}

// Describe derives the descriptor for the dynamic type of v.
func Describe(v any) (*Descriptor, error) {
	if u, ok := v.(Union); ok {
		return describeUnion(u)
	}
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("schema: cannot describe untyped nil")
	}
	return describeType(t)
}

func describeUnion(u Union) (*Descriptor, error) {
	variants := u.Variants()
	if len(variants) == 0 {
		return nil, fmt.Errorf("schema: union %T declares no variants", u)
	}

	closed := false
	arms := make([]*Descriptor, 0, len(variants))
	for _, variant := range variants {
		if variant.Tag == "" {
			return nil, fmt.Errorf("schema: union %T has a variant with an empty tag", u)
		}
		if variant.Payload == nil {
			arms = append(arms, &Descriptor{Type: "string", Enum: []string{variant.Tag}})
			continue
		}
		payload, err := Describe(variant.Payload)
		if err != nil {
			return nil, fmt.Errorf("schema: union %T variant %q: %w", u, variant.Tag, err)
		}
		arms = append(arms, &Descriptor{
			Type:                 "object",
			Properties:           map[string]*Descriptor{variant.Tag: payload},
			Required:             []string{variant.Tag},
			AdditionalProperties: &closed,
		})
	}
	return &Descriptor{OneOf: arms}, nil
}

func describeType(t reflect.Type) (*Descriptor, error) {
	switch t.Kind() {
	case reflect.Pointer:
		return describeType(t.Elem())
	case reflect.String:
		return &Descriptor{Type: "string"}, nil
	case reflect.Bool:
		return &Descriptor{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Descriptor{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Descriptor{Type: "number"}, nil
	case reflect.Slice, reflect.Array:
		items, err := describeType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Descriptor{Type: "array", Items: items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("schema: unsupported map key type %s", t.Key())
		}
		return &Descriptor{Type: "object"}, nil
	case reflect.Struct:
		return describeStruct(t)
	default:
		return nil, fmt.Errorf("schema: unsupported type %s", t)
	}
}

func describeStruct(t reflect.Type) (*Descriptor, error) {
	// Nested unions describe through their variant set, not their Go
	// struct fields.
	if u, ok := reflect.Zero(t).Interface().(Union); ok {
		return describeUnion(u)
	}

	desc := &Descriptor{
		Type:       "object",
		Properties: make(map[string]*Descriptor, t.NumField()),
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		prop, err := describeType(field.Type)
		if err != nil {
			return nil, fmt.Errorf("schema: field %s.%s: %w", t.Name(), field.Name, err)
		}
		desc.Properties[name] = prop

		// Pointer and omitempty fields are optional; everything else
		// the model must emit.
		if field.Type.Kind() != reflect.Pointer && !omitEmpty {
			desc.Required = append(desc.Required, name)
		}
	}
	return desc, nil
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
