package driver

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload is a decoded provider JSON object.
type Payload map[string]any

// DecodePayload decodes a provider JSON object, keeping numbers as json.Number.
func DecodePayload(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrInvalidPayload)
	}
	return p, nil
}

// String returns the string under key, or "".
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Object returns the object under key, or nil.
func (p Payload) Object(key string) map[string]any {
	m, _ := p[key].(map[string]any)
	return m
}

// Bool returns the bool under key when present.
func (p Payload) Bool(key string) *bool {
	b, ok := p[key].(bool)
	if !ok {
		return nil
	}
	return &b
}

// Require fails with ErrInvalidPayload unless every key holds a non-empty string.
func (p Payload) Require(keys ...string) error {
	for _, k := range keys {
		if p.String(k) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidPayload, k)
		}
	}
	return nil
}
