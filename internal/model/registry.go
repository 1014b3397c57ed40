package model

import (
	"encoding/json"
	"fmt"
)

type registration struct {
	table  string
	create func() Entity
}

var registry = map[Kind]registration{
	KindState:  {table: "states", create: func() Entity { return &State{} }},
	KindCity:   {table: "cities", create: func() Entity { return &City{} }},
	KindUser:   {table: "users", create: func() Entity { return &User{} }},
	KindPlace:  {table: "places", create: func() Entity { return &Place{} }},
	KindReview: {table: "reviews", create: func() Entity { return &Review{} }},
}

var schemas = func() map[Kind]*Schema {
	out := make(map[Kind]*Schema, len(registry))
	for kind, reg := range registry {
		out[kind] = buildSchema(kind, reg.table, reg.create())
	}
	return out
}()

// New returns a zero entity of the given kind.
func New(kind Kind) (Entity, error) {
	reg, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	return reg.create(), nil
}

// SchemaOf returns the field rules of kind, or nil for an unknown kind.
func SchemaOf(kind Kind) *Schema {
	return schemas[kind]
}

// Encode returns the storage representation of e.
func Encode(e Entity) ([]byte, error) {
	return json.Marshal(e)
}

// Decode rebuilds an entity of the given kind from its storage representation.
func Decode(kind Kind, doc []byte) (Entity, error) {
	e, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return e, nil
}
