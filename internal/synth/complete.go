package synth

import (
	"github.com/roach88/scenekit/internal/ir"
)

// Complete validates an embedded (possibly partial) element and fills its
// missing required fields. The caller's id is kept.
//
// When the id already exists in scene, missing fields are taken from the
// existing element so a partial element acts as an in-place update;
// otherwise they come from the defaults. A field counts as missing when it
// holds its zero value. Position is treated as missing only when both x and
// y are zero; use CompletePresent to move an element to the origin.
//
// Version and nonce are left for the caller to settle: a version below 1
// becomes 1 and a zero nonce is drawn fresh.
func (s *Synthesizer) Complete(scene ir.Scene, e ir.Element) (ir.Element, error) {
	return s.CompletePresent(scene, e, nil)
}

// CompletePresent is Complete for a decoded element whose spelled-out keys
// are known. A key in present is never treated as missing, so x: 0 or
// startBinding: null are applied as given. A nil present falls back to the
// zero-value rule.
func (s *Synthesizer) CompletePresent(scene ir.Scene, e ir.Element, present ir.Present) (ir.Element, error) {
	if e.ID == "" {
		return ir.Element{}, newError(ErrCodeInvalidElement, "element id is required")
	}
	e = e.Clone()
	prev, exists := scene.Find(e.ID)

	switch {
	case e.Type == "" && exists:
		e.Type = prev.Type
	case e.Type == "":
		e.Type = ir.KindRectangle
	default:
		kind, ok := ir.ParseKind(string(e.Type))
		if !ok {
			return ir.Element{}, newError(ErrCodeUnknownKind, "element %q has unknown type %q", e.ID, e.Type)
		}
		e.Type = kind
	}
	if exists && prev.Type != e.Type {
		return ir.Element{}, newError(ErrCodeInvalidElement,
			"element %q cannot change type from %s to %s", e.ID, prev.Type, e.Type)
	}

	base := ir.Element{Style: ir.DefaultStyle, X: s.opts.X, Y: s.opts.Y, Width: s.opts.Width, Height: s.opts.Height}
	if exists {
		base = prev
	}

	missing := func(key string, zero bool) bool {
		if present != nil {
			return !present.Has(key)
		}
		return zero
	}

	if present != nil {
		if !present.Has("x") {
			e.X = base.X
		}
		if !present.Has("y") {
			e.Y = base.Y
		}
	} else if e.X == 0 && e.Y == 0 {
		e.X, e.Y = base.X, base.Y
	}
	if missing("angle", e.Angle == 0) {
		e.Angle = base.Angle
	}
	if missing("locked", !e.Locked) {
		e.Locked = base.Locked
	}
	if missing("link", e.Link == "") {
		e.Link = base.Link
	}
	if missing("frameId", e.FrameID == "") {
		e.FrameID = base.FrameID
	}
	if missing("name", e.Name == "") {
		e.Name = base.Name
	}
	if missing("startBinding", e.StartBinding == nil) {
		e.StartBinding = cloneBinding(base.StartBinding)
	}
	if missing("endBinding", e.EndBinding == nil) {
		e.EndBinding = cloneBinding(base.EndBinding)
	}
	if missing("startArrowhead", e.StartArrowhead == "") {
		e.StartArrowhead = base.StartArrowhead
	}
	if missing("endArrowhead", e.EndArrowhead == "") {
		e.EndArrowhead = base.EndArrowhead
	}
	e.Style = fillStyle(e.Style, base.Style)
	if e.GroupIDs == nil {
		e.GroupIDs = append([]string{}, base.GroupIDs...)
	}
	if e.BoundElements == nil {
		e.BoundElements = append([]ir.BoundElement{}, base.BoundElements...)
	}
	if e.Seed == 0 {
		e.Seed = base.Seed
		if e.Seed == 0 {
			e.Seed = s.factory.Nonces.Nonce()
		}
	}
	if e.Version < 1 {
		e.Version = 1
	}
	if e.VersionNonce == 0 {
		e.VersionNonce = s.factory.Nonces.Nonce()
	}

	switch {
	case e.Type == ir.KindText:
		completeText(&e, base, s.opts.FontSize)
		if e.Text == "" {
			return ir.Element{}, newError(ErrCodeInvalidElement, "text element %q has no text", e.ID)
		}
	case e.Type.IsLinear():
		if len(e.Points) < 2 {
			if exists && len(prev.Points) >= 2 {
				e.Points = append([]ir.Point(nil), prev.Points...)
			} else {
				w, h := e.Width, e.Height
				if w == 0 && h == 0 {
					w = s.opts.Width
				}
				e.Points = []ir.Point{{0, 0}, {w, h}}
			}
		}
		abs := make([]ir.Point, len(e.Points))
		for i, p := range e.Points {
			abs[i] = ir.Point{e.X + p[0], e.Y + p[1]}
		}
		placeLinear(&e, abs)
	default:
		if e.Width <= 0 {
			e.Width = base.Width
		}
		if e.Height <= 0 {
			e.Height = base.Height
		}
	}
	return e, nil
}

func cloneBinding(b *ir.Binding) *ir.Binding {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func completeText(e *ir.Element, base ir.Element, fontSize float64) {
	if e.Text == "" {
		e.Text = base.Text
	}
	e.Text = ir.NormalizeText(e.Text)
	e.OriginalText = e.Text
	if e.FontSize <= 0 {
		e.FontSize = base.FontSize
		if e.FontSize <= 0 {
			e.FontSize = fontSize
		}
	}
	if e.FontFamily == 0 {
		e.FontFamily = ir.DefaultFontFamily
	}
	if e.LineHeight == 0 {
		e.LineHeight = ir.DefaultLineHeight
	}
	if e.TextAlign == "" {
		e.TextAlign = firstNonEmpty(base.TextAlign, "left")
	}
	if e.VerticalAlign == "" {
		e.VerticalAlign = firstNonEmpty(base.VerticalAlign, "top")
	}
	if e.ContainerID == "" {
		e.ContainerID = base.ContainerID
	}
	w, h := ir.MeasureText(e.Text, e.FontSize)
	if e.Width <= 0 {
		e.Width = w
	}
	if e.Height <= 0 {
		e.Height = h
	}
}

func fillStyle(s, base ir.Style) ir.Style {
	if s == (ir.Style{}) {
		return base
	}
	if s.StrokeColor == "" {
		s.StrokeColor = base.StrokeColor
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = base.BackgroundColor
	}
	if s.FillStyle == "" {
		s.FillStyle = base.FillStyle
	}
	if s.StrokeWidth == 0 {
		s.StrokeWidth = base.StrokeWidth
	}
	if s.StrokeStyle == "" {
		s.StrokeStyle = base.StrokeStyle
	}
	if s.Roughness == 0 {
		s.Roughness = base.Roughness
	}
	if s.Opacity == 0 {
		s.Opacity = base.Opacity
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
