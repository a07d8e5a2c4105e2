package synth

import (
	"github.com/roach88/scenekit/internal/ir"
)

// SetLabel sets the bound text of a shape or connector, creating the text
// element (and the reciprocal entry on the container) when there is none.
// Returns the next scene and the text element's id.
func (s *Synthesizer) SetLabel(scene ir.Scene, containerID, text string) (ir.Scene, string, error) {
	c, ok := scene.FindLive(containerID)
	if !ok {
		return nil, "", newError(ErrCodeInvalidElement, "container %q not found", containerID)
	}
	if !c.Type.IsShape() && !c.Type.IsConnector() {
		return nil, "", newError(ErrCodeInvalidElement, "%s %q cannot hold text", c.Type, containerID)
	}

	if tid, ok := c.BoundText(); ok {
		if t, ok := scene.FindLive(tid); ok && t.ContainerID == c.ID {
			t = s.factory.Touch(t)
			SetText(&t, text)
			CenterIn(&t, c)
			return scene.Upsert(t), t.ID, nil
		}
	}

	c = s.factory.Touch(c)
	t := s.boundText(&c, text, s.opts.FontSize)
	return scene.Upsert(c, t), t.ID, nil
}

// Reroute redraws every live connector bound at both ends where at least one
// end is among ids, as a straight line between the current anchor points.
// Labels of rerouted connectors are re-centered.
func (s *Synthesizer) Reroute(scene ir.Scene, ids ...string) ir.Scene {
	moved := make(map[string]bool, len(ids))
	for _, id := range ids {
		moved[id] = true
	}

	out := scene
	for _, e := range scene {
		if e.IsDeleted || !e.Type.IsConnector() || e.StartBinding == nil || e.EndBinding == nil {
			continue
		}
		if !moved[e.StartBinding.ElementID] && !moved[e.EndBinding.ElementID] {
			continue
		}
		src, ok := out.FindLive(e.StartBinding.ElementID)
		if !ok {
			continue
		}
		tgt, ok := out.FindLive(e.EndBinding.ElementID)
		if !ok {
			continue
		}

		tcx, tcy := tgt.Center()
		scx, scy := src.Center()
		c := s.factory.Touch(e)
		placeLinear(&c, []ir.Point{
			anchor(src, tcx, tcy, e.StartBinding.Gap),
			anchor(tgt, scx, scy, e.EndBinding.Gap),
		})
		out = out.Upsert(c)

		if tid, ok := c.BoundText(); ok {
			if t, ok := out.FindLive(tid); ok {
				t = s.factory.Touch(t)
				CenterIn(&t, c)
				out = out.Upsert(t)
			}
		}
	}
	return out
}
