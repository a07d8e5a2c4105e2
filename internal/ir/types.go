package ir

import (
	"slices"
	"strings"
)

// ElementKind is the closed set of element types understood by the engine.
type ElementKind string

const (
	KindRectangle ElementKind = "rectangle"
	KindEllipse   ElementKind = "ellipse"
	KindDiamond   ElementKind = "diamond"
	KindText      ElementKind = "text"
	KindArrow     ElementKind = "arrow"
	KindLine      ElementKind = "line"
	KindFreedraw  ElementKind = "freedraw"
	KindImage     ElementKind = "image"
	KindFrame     ElementKind = "frame"
)

// ValidKinds defines the allowed element kinds.
var ValidKinds = map[ElementKind]bool{
	KindRectangle: true,
	KindEllipse:   true,
	KindDiamond:   true,
	KindText:      true,
	KindArrow:     true,
	KindLine:      true,
	KindFreedraw:  true,
	KindImage:     true,
	KindFrame:     true,
}

// kindAliases maps loose names used by text generators onto real kinds.
var kindAliases = map[string]ElementKind{
	"rect":      KindRectangle,
	"box":       KindRectangle,
	"square":    KindRectangle,
	"circle":    KindEllipse,
	"oval":      KindEllipse,
	"rhombus":   KindDiamond,
	"decision":  KindDiamond,
	"label":     KindText,
	"connector": KindArrow,
	"edge":      KindArrow,
	"pen":       KindFreedraw,
}

// ParseKind resolves a loosely written kind name. Matching is
// case-insensitive and accepts a handful of common aliases.
func ParseKind(s string) (ElementKind, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	if k := ElementKind(name); ValidKinds[k] {
		return k, true
	}
	k, ok := kindAliases[name]
	return k, ok
}

// IsShape reports whether the kind is a closed shape that can contain text.
func (k ElementKind) IsShape() bool {
	return k == KindRectangle || k == KindEllipse || k == KindDiamond
}

// IsConnector reports whether the kind can carry start/end bindings.
func (k ElementKind) IsConnector() bool {
	return k == KindArrow || k == KindLine
}

// IsLinear reports whether the kind is described by a point list.
func (k ElementKind) IsLinear() bool {
	return k.IsConnector() || k == KindFreedraw
}

// Point is a position relative to the owning element's x/y.
type Point [2]float64

// BoundElement is a weak reference from an element to something attached
// to it (bound text or a connector). It implies no ownership.
type BoundElement struct {
	ID   string      `json:"id"`
	Type ElementKind `json:"type"`
}

// Binding anchors one end of a connector to another element.
type Binding struct {
	ElementID string  `json:"elementId"`
	Focus     float64 `json:"focus"`
	Gap       float64 `json:"gap"`
}

// Style holds the cosmetic fields of an element. Style never takes part in
// structural invariants.
type Style struct {
	StrokeColor     string  `json:"strokeColor"`
	BackgroundColor string  `json:"backgroundColor"`
	FillStyle       string  `json:"fillStyle"`
	StrokeWidth     float64 `json:"strokeWidth"`
	StrokeStyle     string  `json:"strokeStyle"`
	Roughness       int     `json:"roughness"`
	Opacity         int     `json:"opacity"`
}

// DefaultStyle is applied to freshly created elements.
var DefaultStyle = Style{
	StrokeColor:     "#1e1e1e",
	BackgroundColor: "transparent",
	FillStyle:       "solid",
	StrokeWidth:     2,
	StrokeStyle:     "solid",
	Roughness:       1,
	Opacity:         100,
}

// StylePatch carries optional style overrides. Nil fields are left alone.
type StylePatch struct {
	StrokeColor     *string  `json:"strokeColor,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
	FillStyle       *string  `json:"fillStyle,omitempty"`
	StrokeWidth     *float64 `json:"strokeWidth,omitempty"`
	StrokeStyle     *string  `json:"strokeStyle,omitempty"`
	Roughness       *int     `json:"roughness,omitempty"`
	Opacity         *int     `json:"opacity,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *StylePatch) Empty() bool {
	return p == nil || (p.StrokeColor == nil && p.BackgroundColor == nil &&
		p.FillStyle == nil && p.StrokeWidth == nil && p.StrokeStyle == nil &&
		p.Roughness == nil && p.Opacity == nil)
}

// Apply returns s with the patch's non-nil fields applied.
func (p *StylePatch) Apply(s Style) Style {
	if p == nil {
		return s
	}
	if p.StrokeColor != nil {
		s.StrokeColor = *p.StrokeColor
	}
	if p.BackgroundColor != nil {
		s.BackgroundColor = *p.BackgroundColor
	}
	if p.FillStyle != nil {
		s.FillStyle = *p.FillStyle
	}
	if p.StrokeWidth != nil {
		s.StrokeWidth = *p.StrokeWidth
	}
	if p.StrokeStyle != nil {
		s.StrokeStyle = *p.StrokeStyle
	}
	if p.Roughness != nil {
		s.Roughness = *p.Roughness
	}
	if p.Opacity != nil {
		s.Opacity = *p.Opacity
	}
	return s
}

// Element is a node or edge in the diagram graph.
//
// INVARIANTS (hold after every mutation pass):
//   - ID is unique within the Scene
//   - Version only increases; VersionNonce changes exactly when Version does
//   - ContainerID = S implies S.BoundElements contains {ID, text}
//   - StartBinding/EndBinding reference live elements or are nil
//   - IsDeleted is permanent; the element stays resolvable by id
type Element struct {
	ID    string      `json:"id"`
	Type  ElementKind `json:"type"`
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Width float64     `json:"width"`
	// Height of the bounding box; for linear elements derived from Points.
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`

	Style

	GroupIDs      []string       `json:"groupIds"`
	FrameID       string         `json:"frameId,omitempty"`
	Seed          int64          `json:"seed"`
	Version       int64          `json:"version"`
	VersionNonce  int64          `json:"versionNonce"`
	IsDeleted     bool           `json:"isDeleted"`
	BoundElements []BoundElement `json:"boundElements"`
	Locked        bool           `json:"locked"`
	Link          string         `json:"link,omitempty"`

	// Text elements
	Text          string  `json:"text,omitempty"`
	OriginalText  string  `json:"originalText,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    int     `json:"fontFamily,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty"`
	VerticalAlign string  `json:"verticalAlign,omitempty"`
	ContainerID   string  `json:"containerId,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`

	// Frames
	Name string `json:"name,omitempty"`

	// Linear elements
	Points         []Point  `json:"points,omitempty"`
	StartBinding   *Binding `json:"startBinding,omitempty"`
	EndBinding     *Binding `json:"endBinding,omitempty"`
	StartArrowhead string   `json:"startArrowhead,omitempty"`
	EndArrowhead   string   `json:"endArrowhead,omitempty"`
}

// Center returns the center of the element's bounding box.
func (e Element) Center() (float64, float64) {
	return e.X + e.Width/2, e.Y + e.Height/2
}

// HasBound reports whether e.BoundElements references id.
func (e Element) HasBound(id string) bool {
	for _, b := range e.BoundElements {
		if b.ID == id {
			return true
		}
	}
	return false
}

// BoundText returns the id of the first bound text entry, if any.
func (e Element) BoundText() (string, bool) {
	for _, b := range e.BoundElements {
		if b.Type == KindText {
			return b.ID, true
		}
	}
	return "", false
}

// Clone returns a deep copy of e. Slices and binding pointers are not shared.
func (e Element) Clone() Element {
	c := e
	c.GroupIDs = slices.Clone(e.GroupIDs)
	c.BoundElements = slices.Clone(e.BoundElements)
	c.Points = slices.Clone(e.Points)
	if e.StartBinding != nil {
		b := *e.StartBinding
		c.StartBinding = &b
	}
	if e.EndBinding != nil {
		b := *e.EndBinding
		c.EndBinding = &b
	}
	return c
}

// Binds reports whether the connector is anchored to both ids, in either
// direction.
func (e Element) Binds(a, b string) bool {
	if e.StartBinding == nil || e.EndBinding == nil {
		return false
	}
	s, t := e.StartBinding.ElementID, e.EndBinding.ElementID
	return (s == a && t == b) || (s == b && t == a)
}
