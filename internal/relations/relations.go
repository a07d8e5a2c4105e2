// Package relations detects structural relationships among a selection of
// diagram elements.
//
// Detection is a pure, single pass over the selection in its given order:
// identical input always yields identical, identically ordered output.
package relations

import (
	"github.com/roach88/scenekit/internal/ir"
)

// Kind tags a relationship.
type Kind string

const (
	// KindConnector is an edge drawn by a bound connector.
	KindConnector Kind = "connector"
	// KindTextBinding pairs a container with its bound text.
	KindTextBinding Kind = "text_binding"
	// KindSameGroup pairs two elements sharing a group id.
	KindSameGroup Kind = "same_group"
	// KindFrameMember pairs a frame with an element inside it.
	KindFrameMember Kind = "frame_member"
)

// Relationship is one detected relation between two elements.
type Relationship struct {
	Kind   Kind   `json:"kind"`
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	// ViaID is the connector id (connector) or the shared group id
	// (same_group).
	ViaID string `json:"viaId,omitempty"`
	// Reason is the connector's label text, if it has one.
	Reason string `json:"reason,omitempty"`
}

// Detect reports the relationships among subset. scene is used to resolve
// connectors and labels that are not themselves part of subset.
//
// Reporting rules, per subset element in order:
//   - connector: a connector in subset with both ends bound, or a connector
//     listed in a subset element's boundElements that joins two subset
//     elements; once per connector
//   - text_binding: container and text both in subset; once per text
//   - same_group: once per unordered pair, reported by the element whose
//     id sorts first
//   - frame_member: frame and member both in subset
//
// Deleted elements in subset are ignored.
func Detect(subset []ir.Element, scene ir.Scene) []Relationship {
	in := make(map[string]ir.Element, len(subset))
	for _, e := range subset {
		if !e.IsDeleted {
			in[e.ID] = e
		}
	}

	var (
		rels      []Relationship
		connSeen  = make(map[string]bool)
		textSeen  = make(map[string]bool)
		sceneByID = scene.Index()
	)
	lookup := func(id string) (ir.Element, bool) {
		if e, ok := in[id]; ok {
			return e, true
		}
		if i, ok := sceneByID[id]; ok && !scene[i].IsDeleted {
			return scene[i], true
		}
		return ir.Element{}, false
	}
	addConnector := func(c ir.Element) {
		if connSeen[c.ID] {
			return
		}
		connSeen[c.ID] = true
		rels = append(rels, Relationship{
			Kind:   KindConnector,
			FromID: c.StartBinding.ElementID,
			ToID:   c.EndBinding.ElementID,
			ViaID:  c.ID,
			Reason: labelOf(c, lookup),
		})
	}
	addText := func(container, text string) {
		if textSeen[text] {
			return
		}
		textSeen[text] = true
		rels = append(rels, Relationship{Kind: KindTextBinding, FromID: container, ToID: text})
	}

	for _, e := range subset {
		if e.IsDeleted {
			continue
		}

		if e.Type.IsConnector() && e.StartBinding != nil && e.EndBinding != nil {
			addConnector(e)
		}
		for _, b := range e.BoundElements {
			if !b.Type.IsConnector() {
				continue
			}
			c, ok := lookup(b.ID)
			if !ok || c.StartBinding == nil || c.EndBinding == nil {
				continue
			}
			_, fromIn := in[c.StartBinding.ElementID]
			_, toIn := in[c.EndBinding.ElementID]
			if fromIn && toIn {
				addConnector(c)
			}
		}

		if _, ok := in[e.ContainerID]; ok && e.ContainerID != "" {
			addText(e.ContainerID, e.ID)
		}
		for _, b := range e.BoundElements {
			if t, ok := in[b.ID]; ok && b.Type == ir.KindText && t.ContainerID == e.ID {
				addText(e.ID, b.ID)
			}
		}

		for _, p := range subset {
			if p.IsDeleted || p.ID <= e.ID {
				continue
			}
			if g, ok := sharedGroup(e, p); ok {
				rels = append(rels, Relationship{Kind: KindSameGroup, FromID: e.ID, ToID: p.ID, ViaID: g})
			}
		}

		if f, ok := in[e.FrameID]; ok && e.FrameID != "" && f.Type == ir.KindFrame {
			rels = append(rels, Relationship{Kind: KindFrameMember, FromID: f.ID, ToID: e.ID})
		}
	}
	return rels
}

// HasRelationships reports whether Detect would return anything.
func HasRelationships(subset []ir.Element, scene ir.Scene) bool {
	return len(Detect(subset, scene)) > 0
}

// sharedGroup returns the first of a's group ids that b also carries.
func sharedGroup(a, b ir.Element) (string, bool) {
	for _, g := range a.GroupIDs {
		for _, h := range b.GroupIDs {
			if g == h {
				return g, true
			}
		}
	}
	return "", false
}

func labelOf(c ir.Element, lookup func(string) (ir.Element, bool)) string {
	tid, ok := c.BoundText()
	if !ok {
		return ""
	}
	t, ok := lookup(tid)
	if !ok {
		return ""
	}
	return t.Text
}
