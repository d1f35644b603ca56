package schema

import "encoding/json"

// Descriptor is the machine-checkable shape of a structured response
// type. The same document serves two jobs: it is sent to the
// generation endpoint as the `format` constraint, and it is the
// contract Decode validates raw replies against. The endpoint is never
// trusted to have honored it.
type Descriptor struct {
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*Descriptor `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *Descriptor            `json:"items,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	OneOf                []*Descriptor          `json:"oneOf,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// JSON renders the descriptor as a JSON Schema document. Map keys
// marshal in sorted order, so the document is deterministic for a
// given type.
func (d *Descriptor) JSON() (json.RawMessage, error) {
	return json.Marshal(d)
}
