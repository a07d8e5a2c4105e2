package engine

import (
	"github.com/roach88/scenekit/internal/ir"
)

// maxPlacementRows bounds the free-slot scan. Past it the default origin is
// used even if occupied.
const maxPlacementRows = 100

// placementColumns is the number of slots tried per row.
const placementColumns = 8

type rect struct{ x, y, w, h float64 }

func (r rect) overlaps(o rect) bool {
	return r.x < o.x+o.w && o.x < r.x+r.w && r.y < o.y+o.h && o.y < r.y+r.h
}

// place resolves the top-left corner for a new w×h element. Relative
// placement wins over explicit coordinates, which win over the free-slot
// scan.
func (in *Interpreter) place(scene ir.Scene, a ir.Action, relativeTo string, w, h float64) (float64, float64, error) {
	if relativeTo != "" {
		ref, ok := scene.FindLive(relativeTo)
		if !ok {
			return 0, 0, targetNotFound(relativeTo)
		}
		spacing := in.opts.Spacing
		if a.Spacing != nil {
			spacing = *a.Spacing
		}
		x, y := beside(ref, a.Direction, w, h, spacing)
		return x, y, nil
	}

	def := in.synth.Options()
	if a.X != nil || a.Y != nil {
		x, y := def.X, def.Y
		if a.X != nil {
			x = *a.X
		}
		if a.Y != nil {
			y = *a.Y
		}
		return x, y, nil
	}

	x, y := in.freeSlot(scene, w, h)
	return x, y, nil
}

// beside places a w×h box next to ref, centered on the cross axis.
func beside(ref ir.Element, dir ir.Direction, w, h, spacing float64) (float64, float64) {
	switch dir {
	case ir.DirectionLeft:
		return ref.X - spacing - w, ref.Y + (ref.Height-h)/2
	case ir.DirectionBelow:
		return ref.X + (ref.Width-w)/2, ref.Y + ref.Height + spacing
	case ir.DirectionAbove:
		return ref.X + (ref.Width-w)/2, ref.Y - spacing - h
	default:
		return ref.X + ref.Width + spacing, ref.Y + (ref.Height-h)/2
	}
}

// freeSlot scans a grid from the default origin, row by row, and returns
// the first slot that overlaps no live free-standing box. Bound text and
// linear elements do not block a slot.
func (in *Interpreter) freeSlot(scene ir.Scene, w, h float64) (float64, float64) {
	def := in.synth.Options()
	var taken []rect
	for _, e := range scene {
		if e.IsDeleted || e.ContainerID != "" || e.Type.IsLinear() {
			continue
		}
		taken = append(taken, rect{e.X, e.Y, e.Width, e.Height})
	}

	stepX := w + in.opts.Spacing
	stepY := h + in.opts.Spacing
	for row := range maxPlacementRows {
		for col := range placementColumns {
			c := rect{def.X + float64(col)*stepX, def.Y + float64(row)*stepY, w, h}
			free := true
			for _, t := range taken {
				if c.overlaps(t) {
					free = false
					break
				}
			}
			if free {
				return c.x, c.y
			}
		}
	}
	return def.X, def.Y
}
