// Package jsonapi decodes JSON:API documents returned by the DengueChat backend
// into flat Go structs.
package jsonapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrNoData indicates the document carries no primary data.
var ErrNoData = errors.New("jsonapi: document has no primary data")

// Document is a top-level JSON:API payload.
type Document struct {
	Data     json.RawMessage `json:"data"`
	Included []Resource      `json:"included,omitempty"`
	Meta     Meta            `json:"meta,omitempty"`
	Links    map[string]any  `json:"links,omitempty"`
}

// Resource is a single resource object.
type Resource struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id"`
	Attributes    map[string]json.RawMessage `json:"attributes,omitempty"`
	Relationships map[string]Relationship    `json:"relationships,omitempty"`
	Meta          Meta                       `json:"meta,omitempty"`
}

// Identifier references a resource by type and id.
type Identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Relationship holds a to-one or to-many linkage.
type Relationship struct {
	Data json.RawMessage `json:"data"`
	Meta Meta            `json:"meta,omitempty"`
}

// Meta holds free-form metadata.
type Meta map[string]any

// Decode reads a document from r.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("jsonapi: decode document: %w", err)
	}
	return &doc, nil
}

// IsCollection reports whether the primary data is an array.
func (d *Document) IsCollection() bool {
	return len(bytes.TrimSpace(d.Data)) > 0 && bytes.TrimSpace(d.Data)[0] == '['
}

// Resources returns the primary data as a list of resources. A single
// resource yields a one-element slice and null yields an empty one.
func (d *Document) Resources() ([]Resource, error) {
	raw := bytes.TrimSpace(d.Data)
	if len(raw) == 0 {
		return nil, ErrNoData
	}
	if bytes.Equal(raw, []byte("null")) {
		return []Resource{}, nil
	}
	if raw[0] == '[' {
		var list []Resource
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("jsonapi: decode data: %w", err)
		}
		return list, nil
	}
	var one Resource
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("jsonapi: decode data: %w", err)
	}
	return []Resource{one}, nil
}

// Identifiers returns the linkage of a relationship. ok is false when the
// linkage is absent or null.
func (r Relationship) Identifiers() (ids []Identifier, many bool, ok bool) {
	raw := bytes.TrimSpace(r.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false, false
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return nil, true, false
		}
		return ids, true, true
	}
	var one Identifier
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, false, false
	}
	return []Identifier{one}, false, true
}

// Total returns the record count advertised by the backend, or -1.
func (m Meta) Total() int {
	for _, key := range []string{"total", "total_count", "totalCount", "count"} {
		if v, ok := m[key]; ok {
			if n, ok := toInt(v); ok {
				return n
			}
		}
	}
	return -1
}

// String returns a string meta value.
func (m Meta) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int(f), true
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}
