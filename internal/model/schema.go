package model

import (
	"reflect"
	"strings"
)

// Field describes one serialized attribute of an entity and the rules attached to it.
type Field struct {
	Name      string
	Immutable bool
	Required  bool
	Hidden    bool
	Parent    bool
	// Ref is the kind the field points at, empty for plain attributes.
	Ref Kind

	index []int
}

// Schema is the set of field rules of one kind, derived from its struct tags.
type Schema struct {
	Kind   Kind
	Table  string
	Fields []Field

	byName map[string]int
}

func buildSchema(kind Kind, table string, sample Entity) *Schema {
	s := &Schema{Kind: kind, Table: table, byName: map[string]int{}}
	collectFields(reflect.TypeOf(sample).Elem(), nil, s)
	return s
}

func collectFields(t reflect.Type, prefix []int, s *Schema) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			collectFields(sf.Type, index, s)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}

		f := Field{Name: name, index: index}
		for _, opt := range strings.Split(sf.Tag.Get("hbnb"), ",") {
			key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
			switch key {
			case "immutable":
				f.Immutable = true
			case "required":
				f.Required = true
			case "hidden":
				f.Hidden = true
			case "ref":
				f.Ref = Kind(value)
			case "parent":
				f.Parent = true
				f.Immutable = true
				f.Ref = Kind(value)
			}
		}

		s.byName[name] = len(s.Fields)
		s.Fields = append(s.Fields, f)
	}
}

// Field returns the rules of the named field.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Required returns the fields a create payload must carry, in the order they are checked.
func (s *Schema) Required() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Parent returns the foreign key to the owning kind, if the kind has one.
func (s *Schema) Parent() (Field, bool) {
	for _, f := range s.Fields {
		if f.Parent {
			return f, true
		}
	}
	return Field{}, false
}

// References returns every field pointing at another kind, parent key included.
func (s *Schema) References() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Ref != "" {
			out = append(out, f)
		}
	}
	return out
}

// IsImmutable reports whether an update payload may not touch the named key.
func (s *Schema) IsImmutable(name string) bool {
	f, ok := s.Field(name)
	return ok && f.Immutable
}

// IsHidden reports whether the named key is kept out of client responses.
func (s *Schema) IsHidden(name string) bool {
	f, ok := s.Field(name)
	return ok && f.Hidden
}

// String returns the value of a string field of e.
func (s *Schema) String(e Entity, name string) string {
	v, ok := s.value(e, name)
	if !ok || v.Kind() != reflect.String {
		return ""
	}
	return v.String()
}

// SetString assigns a string field of e.
func (s *Schema) SetString(e Entity, name, value string) {
	v, ok := s.value(e, name)
	if !ok || v.Kind() != reflect.String || !v.CanSet() {
		return
	}
	v.SetString(value)
}

func (s *Schema) value(e Entity, name string) (reflect.Value, bool) {
	f, ok := s.Field(name)
	if !ok {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(e).Elem().FieldByIndex(f.index), true
}
