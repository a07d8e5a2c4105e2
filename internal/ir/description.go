package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Description is an untrusted, partially specified request for one element.
// Every field is optional; the synthesizer fills defaults.
//
// A Description either describes an element loosely (kind, geometry, text,
// endpoints, points) or embeds a partial full element in Element. The
// embedded form wins when present.
type Description struct {
	// Type is the raw kind name; resolved with ParseKind.
	Type   string   `json:"type,omitempty"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`

	Text     string   `json:"text,omitempty"`
	Label    string   `json:"label,omitempty"`
	FontSize *float64 `json:"fontSize,omitempty"`

	StylePatch

	// Connector endpoints (by id) or raw points.
	FromID string  `json:"fromId,omitempty"`
	ToID   string  `json:"toId,omitempty"`
	Points []Point `json:"points,omitempty"`

	GroupIDs []string `json:"groupIds,omitempty"`
	FrameID  string   `json:"frameId,omitempty"`

	Element *Element `json:"element,omitempty"`
}

// Caption returns the text a description wants rendered, preferring Text
// over Label.
func (d Description) Caption() string {
	if d.Text != "" {
		return d.Text
	}
	return d.Label
}

// BatchItem is one entry of an external batch. It is a tagged union resolved
// by an explicit discriminator: a JSON object carrying a non-empty string
// "id" is a full element (update-in-place semantics), anything else that is
// an object is a Description. Values that are not objects are kept with
// Invalid set so the reconciler can skip them without failing the batch.
type BatchItem struct {
	Element     *Element
	Description *Description
	Invalid     string

	// Present lists the JSON keys a decoded full element spelled out. Nil
	// for items built in code.
	Present Present
}

// Present is the set of top-level keys found in a decoded element. It lets
// a partial update tell an explicit zero (x: 0, startBinding: null) apart
// from a field that was left out.
type Present map[string]bool

// Has reports whether key was spelled out.
func (p Present) Has(key string) bool {
	return p[key]
}

// DescriptionItem wraps a description as a batch item.
func DescriptionItem(d Description) BatchItem {
	return BatchItem{Description: &d}
}

// ElementItem wraps a full element as a batch item.
func ElementItem(e Element) BatchItem {
	return BatchItem{Element: &e}
}

// UnmarshalJSON implements the discriminator. It never returns an error for
// malformed items; it records the reason in Invalid instead.
func (b *BatchItem) UnmarshalJSON(data []byte) error {
	*b = BatchItem{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		b.Invalid = "item is not an object"
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		b.Invalid = fmt.Sprintf("malformed item: %v", err)
		return nil
	}

	var id string
	if raw, ok := probe["id"]; ok {
		_ = json.Unmarshal(raw, &id)
	}
	if id != "" {
		var e Element
		if err := json.Unmarshal(trimmed, &e); err != nil {
			b.Invalid = fmt.Sprintf("malformed element %q: %v", id, err)
			return nil
		}
		b.Element = &e
		b.Present = make(Present, len(probe))
		for k := range probe {
			b.Present[k] = true
		}
		return nil
	}

	var d Description
	if err := json.Unmarshal(trimmed, &d); err != nil {
		b.Invalid = fmt.Sprintf("malformed description: %v", err)
		return nil
	}
	b.Description = &d
	return nil
}

// MarshalJSON writes whichever variant is set.
func (b BatchItem) MarshalJSON() ([]byte, error) {
	switch {
	case b.Element != nil:
		return json.Marshal(b.Element)
	case b.Description != nil:
		return json.Marshal(b.Description)
	default:
		return []byte("null"), nil
	}
}

// Batch is an externally supplied set of creates, updates and deletes.
type Batch struct {
	Elements  []BatchItem `json:"elements,omitempty"`
	DeleteIDs []string    `json:"deleteIds,omitempty"`
	Message   string      `json:"message,omitempty"`
}
