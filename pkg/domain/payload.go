package domain

import "encoding/json"

// Payload wraps the sanitized JSON body submitted to the repository.
// Callers should unmarshal the raw bytes into typed structures as needed.
type Payload struct {
	defined bool
	raw     json.RawMessage
}

// NewPayload builds a payload wrapper from raw JSON. The bytes are cloned to
// prevent callers from mutating shared state. Passing a nil slice yields a
// defined but empty payload; use UndefinedPayload for "not set".
func NewPayload(raw json.RawMessage) Payload {
	payload := Payload{defined: true}
	if raw != nil {
		payload.raw = cloneRawMessage(raw)
	}
	return payload
}

// NewPayloadFromValue marshals a typed value into a Payload.
func NewPayloadFromValue[T any](value T) (Payload, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return Payload{}, err
	}
	return NewPayload(raw), nil
}

// UndefinedPayload returns an uninitialized payload wrapper.
func UndefinedPayload() Payload {
	return Payload{}
}

// Defined reports whether the payload has been initialized.
func (p Payload) Defined() bool {
	return p.defined
}

// IsEmpty reports whether the payload contains no bytes.
func (p Payload) IsEmpty() bool {
	if !p.defined {
		return true
	}
	return len(p.raw) == 0
}

// Raw returns a cloned copy of the underlying JSON bytes. Nil is returned
// when the payload is undefined or empty.
func (p Payload) Raw() json.RawMessage {
	if !p.defined || len(p.raw) == 0 {
		return nil
	}
	return cloneRawMessage(p.raw)
}

// Fields unmarshals the payload into a generic key/value map. An undefined or
// empty payload yields an empty map.
func (p Payload) Fields() (map[string]any, error) {
	if p.IsEmpty() {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(p.raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneRawMessage(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cloned := make(json.RawMessage, len(raw))
	copy(cloned, raw)
	return cloned
}
