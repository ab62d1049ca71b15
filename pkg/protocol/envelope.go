// Package protocol defines the tagged envelope exchanged between clients
// and the server, the wire tags, and the normalized response-key table.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidEnvelope is returned when an envelope is constructed or decoded
// with an empty tag.
var ErrInvalidEnvelope = errors.New("protocol: envelope tag must be non-empty")

// Envelope is the immutable tagged message unit. The tag identifies the
// request intent or, on replies, the outcome variant. The payload is opaque
// to this layer; only the handler and caller that agreed on the tag
// interpret it.
type Envelope struct {
	Tag     string          `json:"tag"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope creates an envelope with the given tag and payload value.
// The payload is serialized once at construction; pass nil for a bare tag.
func NewEnvelope(tag string, payload interface{}) (*Envelope, error) {
	if tag == "" {
		return nil, ErrInvalidEnvelope
	}
	if payload == nil {
		return &Envelope{Tag: tag}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("protocol - failed to encode payload for %s: %w", tag, err)
	}
	return &Envelope{Tag: tag, Payload: data}, nil
}

// Bind deserializes the envelope payload into v.
func (e *Envelope) Bind(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("protocol - envelope %s has no payload", e.Tag)
	}
	return json.Unmarshal(e.Payload, v)
}

// HasPayload reports whether the envelope carries a payload.
func (e *Envelope) HasPayload() bool {
	return len(e.Payload) > 0
}

// Equal reports structural equality (tag and payload bytes).
func (e *Envelope) Equal(other *Envelope) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Tag == other.Tag && bytes.Equal(e.Payload, other.Payload)
}

// Encode serializes an envelope for the wire.
func Encode(e *Envelope) ([]byte, error) {
	if e == nil || e.Tag == "" {
		return nil, ErrInvalidEnvelope
	}
	return json.Marshal(e)
}

// Decode deserializes an envelope from the wire.
func Decode(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("protocol - failed to decode envelope: %w", err)
	}
	if e.Tag == "" {
		return nil, ErrInvalidEnvelope
	}
	return &e, nil
}
