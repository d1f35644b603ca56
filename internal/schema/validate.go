package schema

import (
	"encoding/json"
	"fmt"
)

// validate structurally checks a decoded JSON value against a
// descriptor. Numbers arrive as json.Number because Decode parses with
// UseNumber.
func validate(desc *Descriptor, value any) error {
	if desc == nil {
		return nil
	}

	if len(desc.OneOf) > 0 {
		for _, arm := range desc.OneOf {
			if validate(arm, value) == nil {
				return nil
			}
		}
		return fmt.Errorf("value matches none of the %d declared variants", len(desc.OneOf))
	}

	switch desc.Type {
	case "", "object":
		if desc.Type == "" && len(desc.Properties) == 0 {
			return nil
		}
		return validateObject(desc, value)
	case "array":
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array but got %T", value)
		}
		for i, item := range items {
			if err := validate(desc.Items, item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case "string":
		text, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string but got %T", value)
		}
		if len(desc.Enum) > 0 && !containsString(desc.Enum, text) {
			return fmt.Errorf("value %q is not one of the allowed values", text)
		}
		return nil
	case "integer":
		number, ok := value.(json.Number)
		if !ok {
			return fmt.Errorf("expected integer but got %T", value)
		}
		if _, err := number.Int64(); err != nil {
			return fmt.Errorf("expected integer but got %s", number)
		}
		return nil
	case "number":
		number, ok := value.(json.Number)
		if !ok {
			return fmt.Errorf("expected number but got %T", value)
		}
		if _, err := number.Float64(); err != nil {
			return fmt.Errorf("expected number but got %s", number)
		}
		return nil
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean but got %T", value)
		}
		return nil
	default:
		return fmt.Errorf("unsupported schema type %q", desc.Type)
	}
}

func validateObject(desc *Descriptor, value any) error {
	object, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object but got %T", value)
	}

	for _, field := range desc.Required {
		if _, exists := object[field]; !exists {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	for key, entry := range object {
		prop, known := desc.Properties[key]
		if !known {
			if desc.AdditionalProperties != nil && !*desc.AdditionalProperties {
				return fmt.Errorf("unexpected field: %s", key)
			}
			continue
		}
		if err := validate(prop, entry); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}
