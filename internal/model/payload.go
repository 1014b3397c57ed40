package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotJSON is returned for request bodies that are not a non-empty JSON object.
var ErrNotJSON = errors.New("not a JSON object")

// FieldError reports a payload value that could not be applied to an entity.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Payload is a decoded JSON object whose values are kept raw until applied to an entity.
type Payload map[string]json.RawMessage

// ParsePayload decodes body into a Payload. Empty bodies, malformed JSON,
// non-object values and the empty object are all rejected with ErrNotJSON.
func ParsePayload(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, ErrNotJSON
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, ErrNotJSON
	}
	if len(p) == 0 {
		return nil, ErrNotJSON
	}
	return p, nil
}

// Has reports whether the payload carries key, whatever its value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value of key when it is a JSON string.
func (p Payload) String(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Apply assigns every payload key for which skip returns false onto e.
// Keys that do not exactly name a field of e are ignored, so encoding/json's
// case-insensitive matching can never reach a skipped field.
func Apply(e Entity, p Payload, skip func(key string) bool) error {
	schema := SchemaOf(e.Kind())
	if schema == nil {
		return fmt.Errorf("unknown kind %q", e.Kind())
	}

	filtered := make(map[string]json.RawMessage, len(p))
	for key, value := range p {
		if _, ok := schema.Field(key); !ok {
			continue
		}
		if skip != nil && skip(key) {
			continue
		}
		filtered[key] = value
	}
	if len(filtered) == 0 {
		return nil
	}

	doc, err := json.Marshal(filtered)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(doc, e); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &FieldError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be of type %s", typeErr.Type),
			}
		}
		return &FieldError{Field: "body", Message: err.Error()}
	}
	return nil
}
