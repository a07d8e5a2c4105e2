package synth

import (
	"errors"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
)

// Options holds the defaults applied to under-specified descriptions.
type Options struct {
	X      float64
	Y      float64
	Width  float64
	Height float64

	FontSize float64

	// ConnectorGap is the clearance between a connector end and the
	// bounding box of its anchor.
	ConnectorGap float64
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		X:            100,
		Y:            100,
		Width:        150,
		Height:       80,
		FontSize:     ir.DefaultFontSize,
		ConnectorGap: 8,
	}
}

// Synthesizer builds elements from descriptions.
//
// Thread-safety: a Synthesizer holds no scene state; it is safe for
// concurrent use when its Factory is.
type Synthesizer struct {
	factory *ir.Factory
	opts    Options
	logger  *zap.Logger
}

// New creates a Synthesizer. Non-positive sizes and a negative gap fall back
// to DefaultOptions; a nil logger is replaced with a no-op.
func New(f *ir.Factory, opts Options, logger *zap.Logger) *Synthesizer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.FontSize <= 0 {
		opts.FontSize = def.FontSize
	}
	if opts.ConnectorGap < 0 {
		opts.ConnectorGap = def.ConnectorGap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{factory: f, opts: opts, logger: logger}
}

// Options returns the effective defaults.
func (s *Synthesizer) Options() Options { return s.opts }

// Factory returns the factory used to create and bump elements.
func (s *Synthesizer) Factory() *ir.Factory { return s.factory }

// Result is the outcome of synthesizing one description.
type Result struct {
	// Elements are the new and changed elements, in insertion order. Upsert
	// them into the scene the description was synthesized against.
	Elements []ir.Element

	// PrimaryID is the id of the element the description asked for (the
	// shape, not its bound text; the connector, not its label).
	PrimaryID string

	// Created lists fresh ids; Updated lists pre-existing ids whose version
	// changed (connector endpoints, replaced connectors).
	Created []string
	Updated []string
}

// Apply returns scene with the result's elements upserted.
func (r Result) Apply(scene ir.Scene) ir.Scene {
	return scene.Upsert(r.Elements...)
}

// Synthesize converts one description into zero or more elements. The
// scene is only read, to resolve endpoints and embedded ids.
func (s *Synthesizer) Synthesize(scene ir.Scene, d ir.Description) (Result, error) {
	if d.Element != nil {
		e, err := s.Complete(scene, *d.Element)
		if err != nil {
			return Result{}, err
		}
		r := Result{Elements: []ir.Element{e}, PrimaryID: e.ID}
		if _, exists := scene.Find(e.ID); exists {
			r.Updated = []string{e.ID}
		} else {
			r.Created = []string{e.ID}
		}
		return r, nil
	}

	kind, err := s.resolveKind(d)
	if err != nil {
		return Result{}, err
	}

	switch {
	case kind.IsShape():
		return s.shape(kind, d), nil
	case kind == ir.KindText:
		return s.text(d)
	case kind.IsConnector():
		return s.connector(scene, kind, d)
	case kind == ir.KindFreedraw:
		if len(d.Points) < 2 {
			return Result{}, newError(ErrCodeAmbiguous, "freedraw requires at least two points")
		}
		return created(s.linear(kind, d)), nil
	case kind == ir.KindFrame:
		e := s.box(kind, d)
		e.Name = ir.NormalizeText(d.Caption())
		return created(e), nil
	default:
		return created(s.box(kind, d)), nil
	}
}

// SynthesizeAll synthesizes descriptions one after another, each against
// the scene left by the previous one. Failed items are skipped; their
// errors are joined in the returned error, each carrying its index.
func (s *Synthesizer) SynthesizeAll(scene ir.Scene, descs []ir.Description) (ir.Scene, []Result, error) {
	var (
		results []Result
		errs    []error
	)
	for i, d := range descs {
		r, err := s.Synthesize(scene, d)
		if err != nil {
			var se *SynthesisError
			if errors.As(err, &se) {
				se.Index = i
			}
			s.logger.Debug("description skipped", zap.Int("index", i), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		scene = r.Apply(scene)
		results = append(results, r)
	}
	return scene, results, errors.Join(errs...)
}

// resolveKind picks the element kind. A missing kind is a rectangle unless
// the description only makes sense as a connector.
func (s *Synthesizer) resolveKind(d ir.Description) (ir.ElementKind, error) {
	if d.Type == "" {
		if d.FromID != "" || d.ToID != "" {
			return ir.KindArrow, nil
		}
		return ir.KindRectangle, nil
	}
	kind, ok := ir.ParseKind(d.Type)
	if !ok {
		return "", newError(ErrCodeUnknownKind, "unknown element type %q", d.Type)
	}
	return kind, nil
}

func created(e ir.Element) Result {
	return Result{Elements: []ir.Element{e}, PrimaryID: e.ID, Created: []string{e.ID}}
}

// box creates a rectangular-bounded element with description geometry and
// style applied over the defaults.
func (s *Synthesizer) box(kind ir.ElementKind, d ir.Description) ir.Element {
	e := s.factory.New(kind)
	e.X = orDefault(d.X, s.opts.X)
	e.Y = orDefault(d.Y, s.opts.Y)
	e.Width = positiveOr(d.Width, s.opts.Width)
	e.Height = positiveOr(d.Height, s.opts.Height)
	e.Style = d.StylePatch.Apply(e.Style)
	if len(d.GroupIDs) > 0 {
		e.GroupIDs = append([]string(nil), d.GroupIDs...)
	}
	e.FrameID = d.FrameID
	return e
}

// shape creates a shape and, when the description carries text, a bound
// text element wired to it.
func (s *Synthesizer) shape(kind ir.ElementKind, d ir.Description) Result {
	e := s.box(kind, d)
	caption := d.Caption()
	if caption == "" {
		return created(e)
	}
	t := s.boundText(&e, caption, orDefault(d.FontSize, s.opts.FontSize))
	return Result{
		Elements:  []ir.Element{e, t},
		PrimaryID: e.ID,
		Created:   []string{e.ID, t.ID},
	}
}

func (s *Synthesizer) text(d ir.Description) (Result, error) {
	caption := d.Caption()
	if caption == "" {
		return Result{}, newError(ErrCodeAmbiguous, "text element requires text")
	}
	t := s.NewText(caption, orDefault(d.FontSize, s.opts.FontSize))
	t.X = orDefault(d.X, s.opts.X)
	t.Y = orDefault(d.Y, s.opts.Y)
	t.Style = d.StylePatch.Apply(t.Style)
	if len(d.GroupIDs) > 0 {
		t.GroupIDs = append([]string(nil), d.GroupIDs...)
	}
	t.FrameID = d.FrameID
	return created(t), nil
}

func (s *Synthesizer) connector(scene ir.Scene, kind ir.ElementKind, d ir.Description) (Result, error) {
	if d.FromID != "" || d.ToID != "" {
		if d.FromID == "" || d.ToID == "" {
			return Result{}, newError(ErrCodeMissingEndpoint, "connector requires both fromId and toId")
		}
		conn, err := s.Connect(scene, d.FromID, d.ToID, ConnectOptions{
			Kind:  kind,
			Style: &d.StylePatch,
			Label: d.Caption(),
		})
		if err != nil {
			return Result{}, err
		}
		return Result{
			Elements:  conn.Changes,
			PrimaryID: conn.ConnectorID,
			Created:   conn.Created,
			Updated:   conn.Updated,
		}, nil
	}

	if len(d.Points) < 2 {
		if d.Width == nil && d.Height == nil {
			return Result{}, newError(ErrCodeAmbiguous, "%s requires points or fromId/toId", kind)
		}
		w, h := orDefault(d.Width, 0), orDefault(d.Height, 0)
		d.Points = []ir.Point{{0, 0}, {w, h}}
	}
	e := s.linear(kind, d)
	if kind == ir.KindArrow {
		e.EndArrowhead = "arrow"
	}
	r := created(e)
	if caption := d.Caption(); caption != "" {
		t := s.boundText(&r.Elements[0], caption, orDefault(d.FontSize, s.opts.FontSize))
		r.Elements = append(r.Elements, t)
		r.Created = append(r.Created, t.ID)
	}
	return r, nil
}

// linear creates a point-list element. Description points are relative to
// the description's x/y (or absolute when x/y are absent); the element is
// placed at its first point and its points are rebased onto it.
func (s *Synthesizer) linear(kind ir.ElementKind, d ir.Description) ir.Element {
	ox, oy := orDefault(d.X, 0), orDefault(d.Y, 0)
	abs := make([]ir.Point, len(d.Points))
	for i, p := range d.Points {
		abs[i] = ir.Point{ox + p[0], oy + p[1]}
	}
	e := s.factory.New(kind)
	placeLinear(&e, abs)
	e.Style = d.StylePatch.Apply(e.Style)
	if len(d.GroupIDs) > 0 {
		e.GroupIDs = append([]string(nil), d.GroupIDs...)
	}
	e.FrameID = d.FrameID
	return e
}

// placeLinear sets position, points and bounding size from absolute points.
func placeLinear(e *ir.Element, abs []ir.Point) {
	e.X, e.Y = abs[0][0], abs[0][1]
	e.Points = make([]ir.Point, len(abs))
	minX, minY, maxX, maxY := 0.0, 0.0, 0.0, 0.0
	for i, p := range abs {
		rel := ir.Point{p[0] - e.X, p[1] - e.Y}
		e.Points[i] = rel
		minX, maxX = min(minX, rel[0]), max(maxX, rel[0])
		minY, maxY = min(minY, rel[1]), max(maxY, rel[1])
	}
	e.Width = maxX - minX
	e.Height = maxY - minY
}

// NewText creates a free-standing text element sized from its content.
func (s *Synthesizer) NewText(text string, fontSize float64) ir.Element {
	if fontSize <= 0 {
		fontSize = s.opts.FontSize
	}
	t := s.factory.New(ir.KindText)
	setText(&t, text, fontSize)
	t.TextAlign = "left"
	t.VerticalAlign = "top"
	return t
}

// boundText creates a text element centered in container and records the
// reciprocal boundElements entry on container. Both sides are written
// here so the pair is always created together.
func (s *Synthesizer) boundText(container *ir.Element, text string, fontSize float64) ir.Element {
	t := s.NewText(text, fontSize)
	t.TextAlign = "center"
	t.VerticalAlign = "middle"
	t.ContainerID = container.ID
	CenterIn(&t, *container)
	container.BoundElements = append(container.BoundElements, ir.BoundElement{ID: t.ID, Type: ir.KindText})
	return t
}

// CenterIn positions text at the center of container. For linear
// containers the center is the midpoint between the first and last point.
func CenterIn(t *ir.Element, container ir.Element) {
	cx, cy := container.Center()
	if container.Type.IsLinear() && len(container.Points) >= 2 {
		first, last := container.Points[0], container.Points[len(container.Points)-1]
		cx = container.X + (first[0]+last[0])/2
		cy = container.Y + (first[1]+last[1])/2
	}
	t.X = cx - t.Width/2
	t.Y = cy - t.Height/2
}

// SetText replaces the content of a text element and re-measures it. The
// caller bumps the version.
func SetText(t *ir.Element, text string) {
	fontSize := t.FontSize
	if fontSize <= 0 {
		fontSize = ir.DefaultFontSize
	}
	setText(t, text, fontSize)
}

func setText(t *ir.Element, text string, fontSize float64) {
	text = ir.NormalizeText(text)
	t.Text = text
	t.OriginalText = text
	t.FontSize = fontSize
	if t.FontFamily == 0 {
		t.FontFamily = ir.DefaultFontFamily
	}
	if t.LineHeight == 0 {
		t.LineHeight = ir.DefaultLineHeight
	}
	t.Width, t.Height = ir.MeasureText(text, fontSize)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func positiveOr(v *float64, def float64) float64 {
	if v == nil || *v <= 0 {
		return def
	}
	return *v
}
