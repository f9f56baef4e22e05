package jsonapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// Unmarshal deserializes the primary data into v, which must be a pointer to
// a struct (single resource) or to a slice (collection). Attributes are
// flattened beside id and type, keys are camelCased and relationships are
// resolved against included resources.
func (d *Document) Unmarshal(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("jsonapi: unmarshal target must be a non-nil pointer")
	}
	resources, err := d.Resources()
	if err != nil {
		return err
	}
	flat := d.Flatten(resources)

	var payload any = flat
	if rv.Elem().Kind() != reflect.Slice {
		if len(flat) == 0 {
			return ErrNoData
		}
		payload = flat[0]
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("jsonapi: flatten: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("jsonapi: decode into %T: %w", v, err)
	}
	return nil
}

// Flatten converts resources into plain maps with relationships resolved.
func (d *Document) Flatten(resources []Resource) []map[string]any {
	index := make(map[Identifier]Resource, len(d.Included)+len(resources))
	for _, res := range resources {
		index[Identifier{Type: res.Type, ID: res.ID}] = res
	}
	for _, res := range d.Included {
		index[Identifier{Type: res.Type, ID: res.ID}] = res
	}
	out := make([]map[string]any, 0, len(resources))
	for _, res := range resources {
		out = append(out, flatten(res, index, map[Identifier]bool{}))
	}
	return out
}

func flatten(res Resource, index map[Identifier]Resource, path map[Identifier]bool) map[string]any {
	self := Identifier{Type: res.Type, ID: res.ID}
	path[self] = true
	defer delete(path, self)

	out := make(map[string]any, len(res.Attributes)+len(res.Relationships)+2)
	for key, raw := range res.Attributes {
		out[CamelCase(key)] = raw
	}
	for key, rel := range res.Relationships {
		ids, many, ok := rel.Identifiers()
		name := CamelCase(key)
		if !ok {
			if many {
				out[name] = []any{}
			}
			continue
		}
		if many {
			list := make([]any, 0, len(ids))
			for _, id := range ids {
				list = append(list, resolve(id, index, path))
			}
			out[name] = list
			continue
		}
		out[name] = resolve(ids[0], index, path)
	}
	out["id"] = res.ID
	out["type"] = res.Type
	return out
}

func resolve(id Identifier, index map[Identifier]Resource, path map[Identifier]bool) any {
	res, found := index[id]
	if !found || path[id] {
		return map[string]any{"id": id.ID, "type": id.Type}
	}
	return flatten(res, index, path)
}

// CamelCase converts snake_case and kebab-case keys to camelCase.
func CamelCase(key string) string {
	if !strings.ContainsAny(key, "_-") {
		return key
	}
	var b strings.Builder
	b.Grow(len(key))
	upper := false
	for i, r := range key {
		if r == '_' || r == '-' {
			upper = b.Len() > 0
			continue
		}
		switch {
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		case i == 0:
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SnakeCase converts camelCase keys to snake_case.
func SnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if r == '-' {
			b.WriteByte('_')
			continue
		}
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
