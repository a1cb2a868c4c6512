package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldErrors is an ordered mapping from field name to validation messages.
// The zero value is ready to use.
type FieldErrors struct {
	order    []string
	messages map[string][]string
}

// Add appends a message for field, keeping the order fields were first seen.
func (e *FieldErrors) Add(field, message string) {
	if e.messages == nil {
		e.messages = make(map[string][]string)
	}
	if _, ok := e.messages[field]; !ok {
		e.order = append(e.order, field)
	}
	e.messages[field] = append(e.messages[field], message)
}

// Has reports whether field has at least one message.
func (e *FieldErrors) Has(field string) bool {
	_, ok := e.messages[field]
	return ok
}

// Get returns the messages recorded for field.
func (e *FieldErrors) Get(field string) []string {
	return e.messages[field]
}

// Fields returns the field names in insertion order.
func (e *FieldErrors) Fields() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Empty reports whether no violation was recorded.
func (e *FieldErrors) Empty() bool {
	return len(e.order) == 0
}

// Merge copies every message from other into e.
func (e *FieldErrors) Merge(other *FieldErrors) {
	if other == nil {
		return
	}
	for _, field := range other.order {
		for _, msg := range other.messages[field] {
			e.Add(field, msg)
		}
	}
}

// MarshalJSON renders the errors as a JSON object preserving field order.
func (e *FieldErrors) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range e.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.messages[field])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValidationError reports every field-level violation found in one input.
type ValidationError struct {
	Fields *FieldErrors
}

// NewValidationError builds a ValidationError holding a single message.
func NewValidationError(field, message string) *ValidationError {
	fields := &FieldErrors{}
	fields.Add(field, message)
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if e.Fields == nil || e.Fields.Empty() {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields.order))
	for _, field := range e.Fields.order {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Fields.messages[field], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}
