package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeKind distinguishes the two ways a reply can fail to decode.
// They demand different operator responses: malformed output means the
// model ignored structured generation entirely, a mismatch means it
// produced JSON of the wrong shape.
type DecodeKind int

const (
	// MalformedPayload: the text is not well-formed JSON at all.
	MalformedPayload DecodeKind = iota
	// SchemaMismatch: well-formed JSON whose shape violates the
	// descriptor (missing required field, wrong type, no matching
	// variant).
	SchemaMismatch
)

func (k DecodeKind) String() string {
	switch k {
	case MalformedPayload:
		return "malformed payload"
	case SchemaMismatch:
		return "schema mismatch"
	default:
		return "unknown decode failure"
	}
}

// DecodeError reports why a raw reply could not be decoded.
type DecodeError struct {
	Kind DecodeKind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Result pairs a decoded value with the raw text it was decoded from.
type Result[T any] struct {
	Value T
	Raw   string
}

// Decode parses raw as JSON and validates it against desc before
// unmarshalling into T. Decoding either fully succeeds or fails
// atomically; a partial value is never returned. The registry performs
// no I/O.
func Decode[T any](desc *Descriptor, raw string) (Result[T], error) {
	var out Result[T]
	trimmed := strings.TrimSpace(raw)

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return out, &DecodeError{Kind: MalformedPayload, Err: err}
	}
	if dec.More() {
		return out, &DecodeError{Kind: MalformedPayload, Err: errors.New("trailing data after JSON value")}
	}

	if err := validate(desc, value); err != nil {
		return out, &DecodeError{Kind: SchemaMismatch, Err: err}
	}

	if err := json.Unmarshal([]byte(trimmed), &out.Value); err != nil {
		return out, &DecodeError{Kind: SchemaMismatch, Err: err}
	}
	out.Raw = raw
	return out, nil
}
