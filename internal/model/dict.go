package model

import (
	"bytes"
	"encoding/json"
)

// TimeFormat is the layout of created_at and updated_at in serialized objects.
const TimeFormat = "2006-01-02T15:04:05.000000"

// Dict is the client-facing representation of an entity.
type Dict map[string]any

// ToDict serializes e for clients: its attributes without hidden fields,
// timestamps in TimeFormat, and the kind under `__class__`.
func ToDict(e Entity) (Dict, error) {
	doc, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	var d Dict
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}

	if schema := SchemaOf(e.Kind()); schema != nil {
		for name := range d {
			if schema.IsHidden(name) {
				delete(d, name)
			}
		}
	}

	meta := e.Meta()
	d["created_at"] = meta.CreatedAt.UTC().Format(TimeFormat)
	d["updated_at"] = meta.UpdatedAt.UTC().Format(TimeFormat)
	d["__class__"] = string(e.Kind())
	return d, nil
}

// ToDicts serializes a list of entities, never returning a nil slice.
func ToDicts[T Entity](entities []T) ([]Dict, error) {
	out := make([]Dict, 0, len(entities))
	for _, e := range entities {
		d, err := ToDict(e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
