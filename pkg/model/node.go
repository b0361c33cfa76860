// Package model defines the taxonomy data shared by the loader, the filter
// engine and the views.
package model

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// NoteCircularReference is the note the dataset builder writes on a node
// that would have re-entered one of its own ancestors.
const NoteCircularReference = "circular reference"

// Reference is a lightweight pointer to another item (used-in rows,
// manually excluded items).
type Reference struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// HierarchyNode is one class or instance in the taxonomy.
//
// Subclasses and Instances are nil when absent. Code that narrows a node
// (the tree filter, exclusion pruning) must leave them nil rather than
// empty so that HasChildren and the JSON encoding agree.
type HierarchyNode struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Note        string          `json:"note,omitempty"`
	Subclasses  []HierarchyNode `json:"subclasses,omitempty"`
	Instances   []HierarchyNode `json:"instances,omitempty"`

	// Enrichment payload. Never inspected by the filter.
	UsedIn     []Reference `json:"used_in,omitempty"`
	IEEETerm   []string    `json:"ieee_term,omitempty"`
	ExactMatch []string    `json:"exact_match,omitempty"`
	Thumbnail  []string    `json:"thumbnail,omitempty"`

	// Extra holds keys this package does not know about, so a decode and
	// encode round-trip keeps them.
	Extra map[string]json.RawMessage `json:"-"`
}

// Children returns subclasses followed by instances. The returned slice is
// freshly allocated unless one of the collections is empty.
func (n *HierarchyNode) Children() []HierarchyNode {
	switch {
	case len(n.Instances) == 0:
		return n.Subclasses
	case len(n.Subclasses) == 0:
		return n.Instances
	}
	out := make([]HierarchyNode, 0, len(n.Subclasses)+len(n.Instances))
	out = append(out, n.Subclasses...)
	return append(out, n.Instances...)
}

// HasChildren reports whether the node has any subclass or instance.
func (n *HierarchyNode) HasChildren() bool {
	return len(n.Subclasses) > 0 || len(n.Instances) > 0
}

// IsCircular reports whether the builder marked this node as a cycle stub.
func (n *HierarchyNode) IsCircular() bool {
	return n.Note == NoteCircularReference
}

type hierarchyNodeJSON HierarchyNode

// MarshalJSON encodes the known fields in declaration order and appends
// Extra keys sorted by name.
func (n HierarchyNode) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(hierarchyNodeJSON(n))
	if err != nil {
		return nil, err
	}
	if len(n.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(n.Extra))
	for k := range n.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	needComma := len(base) > 2
	for _, k := range keys {
		if needComma {
			buf.WriteByte(',')
		}
		needComma = true
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(n.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes known keys into their fields and keeps everything
// else in Extra.
func (n *HierarchyNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = HierarchyNode{}
	if msg, ok := raw["id"]; ok {
		if err := json.Unmarshal(msg, &n.ID); err != nil {
			return fmt.Errorf("field %q: %w", "id", err)
		}
		delete(raw, "id")
	}
	targets := map[string]any{
		"label":       &n.Label,
		"description": &n.Description,
		"note":        &n.Note,
		"subclasses":  &n.Subclasses,
		"instances":   &n.Instances,
		"used_in":     &n.UsedIn,
		"ieee_term":   &n.IEEETerm,
		"exact_match": &n.ExactMatch,
		"thumbnail":   &n.Thumbnail,
	}
	for key, msg := range raw {
		target, ok := targets[key]
		if !ok {
			if n.Extra == nil {
				n.Extra = make(map[string]json.RawMessage)
			}
			n.Extra[key] = msg
			continue
		}
		if err := json.Unmarshal(msg, target); err != nil {
			if n.ID != "" {
				return fmt.Errorf("node %s: field %q: %w", n.ID, key, err)
			}
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}
