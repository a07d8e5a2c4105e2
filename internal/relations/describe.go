package relations

import (
	"fmt"
	"strings"

	"github.com/roach88/scenekit/internal/ir"
)

// Describe renders relationships as a plain-text context block, one line
// per relationship, for inclusion in generation prompts. Returns "" when
// rels is empty.
func Describe(rels []Relationship, scene ir.Scene) string {
	if len(rels) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relationships:\n")
	for _, r := range rels {
		from, to := display(scene, r.FromID), display(scene, r.ToID)
		switch r.Kind {
		case KindConnector:
			fmt.Fprintf(&b, "- %s -> %s", from, to)
			if r.Reason != "" {
				fmt.Fprintf(&b, " (%s)", r.Reason)
			}
		case KindTextBinding:
			fmt.Fprintf(&b, "- %s is labelled by text %s", from, r.ToID)
		case KindSameGroup:
			fmt.Fprintf(&b, "- %s and %s are grouped", from, to)
		case KindFrameMember:
			fmt.Fprintf(&b, "- %s contains %s", from, to)
		default:
			fmt.Fprintf(&b, "- %s %s %s", from, r.Kind, to)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// display names an element by its caption when it has one:
// `"Login Service" (rectangle el-1)`, otherwise `rectangle el-1`.
func display(scene ir.Scene, id string) string {
	e, ok := scene.Find(id)
	if !ok {
		return id
	}
	if caption := Caption(e, scene); caption != "" {
		return fmt.Sprintf("%q (%s %s)", caption, e.Type, e.ID)
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

// Caption returns the visible text of an element: its own text, a frame's
// name, or the text bound to it.
func Caption(e ir.Element, scene ir.Scene) string {
	switch {
	case e.Type == ir.KindText:
		return e.Text
	case e.Type == ir.KindFrame:
		return e.Name
	}
	if tid, ok := e.BoundText(); ok {
		if t, ok := scene.FindLive(tid); ok {
			return t.Text
		}
	}
	return ""
}
