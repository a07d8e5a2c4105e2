package synth

import (
	"math"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
)

// ConnectOptions customizes a connector built by Connect.
type ConnectOptions struct {
	// Kind is arrow (default) or line.
	Kind ir.ElementKind
	// Style overrides the default connector style.
	Style *ir.StylePatch
	// Label, when non-empty, becomes a text element bound to the connector.
	Label string
}

// Connection is the outcome of Connect.
type Connection struct {
	// Scene is the complete next scene.
	Scene ir.Scene

	ConnectorID string
	// LabelID is empty when no label was requested.
	LabelID string

	// Changes holds every element of Scene that was created or bumped, in
	// scene order.
	Changes []ir.Element
	Created []string
	Updated []string
}

// Connect joins two existing elements with a bound connector.
//
// Any live connector already binding the pair (in either direction) is
// tombstoned together with its label first, so repeated calls leave
// exactly one connector between the pair. The endpoints receive a
// reciprocal boundElements entry and a version bump.
//
// Fails without touching the scene when either id is missing or deleted,
// or when both ids are the same.
func (s *Synthesizer) Connect(scene ir.Scene, sourceID, targetID string, opts ConnectOptions) (Connection, error) {
	if sourceID == targetID {
		return Connection{}, newError(ErrCodeSelfConnection, "cannot connect %q to itself", sourceID)
	}
	if _, ok := scene.FindLive(sourceID); !ok {
		return Connection{}, newError(ErrCodeMissingEndpoint, "source %q not found", sourceID)
	}
	if _, ok := scene.FindLive(targetID); !ok {
		return Connection{}, newError(ErrCodeMissingEndpoint, "target %q not found", targetID)
	}
	kind := opts.Kind
	if kind == "" {
		kind = ir.KindArrow
	}
	if !kind.IsConnector() {
		return Connection{}, newError(ErrCodeUnknownKind, "%s is not a connector kind", kind)
	}

	next := scene
	if stale := connectorsBetween(scene, sourceID, targetID); len(stale) > 0 {
		next, _ = ir.Tombstone(scene, s.factory, stale...)
		s.logger.Debug("replacing connector",
			zap.String("source", sourceID),
			zap.String("target", targetID),
			zap.Strings("replaced", stale))
	}

	src, _ := next.FindLive(sourceID)
	tgt, _ := next.FindLive(targetID)

	tcx, tcy := tgt.Center()
	scx, scy := src.Center()
	start := anchor(src, tcx, tcy, s.opts.ConnectorGap)
	end := anchor(tgt, scx, scy, s.opts.ConnectorGap)

	conn := s.factory.New(kind)
	placeLinear(&conn, []ir.Point{start, end})
	conn.Style = opts.Style.Apply(conn.Style)
	conn.StartBinding = &ir.Binding{ElementID: sourceID, Gap: s.opts.ConnectorGap}
	conn.EndBinding = &ir.Binding{ElementID: targetID, Gap: s.opts.ConnectorGap}
	if kind == ir.KindArrow {
		conn.EndArrowhead = "arrow"
	}

	ref := ir.BoundElement{ID: conn.ID, Type: kind}
	src = s.factory.Touch(src)
	src.BoundElements = append(src.BoundElements, ref)
	tgt = s.factory.Touch(tgt)
	tgt.BoundElements = append(tgt.BoundElements, ref)

	upserts := []ir.Element{src, tgt}
	var labelID string
	if opts.Label != "" {
		label := s.boundText(&conn, opts.Label, s.opts.FontSize)
		labelID = label.ID
		upserts = append(upserts, conn, label)
	} else {
		upserts = append(upserts, conn)
	}
	next = next.Upsert(upserts...)

	changes, created, updated := diff(scene, next)
	return Connection{
		Scene:       next,
		ConnectorID: conn.ID,
		LabelID:     labelID,
		Changes:     changes,
		Created:     created,
		Updated:     updated,
	}, nil
}

// connectorsBetween returns the ids of live connectors bound to both a and
// b, in scene order.
func connectorsBetween(scene ir.Scene, a, b string) []string {
	var ids []string
	for _, e := range scene {
		if !e.IsDeleted && e.Type.IsConnector() && e.Binds(a, b) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// anchor returns the point where the ray from e's center toward (tx, ty)
// leaves e's bounding box, pushed out by gap. Coincident centers use the
// positive x direction.
func anchor(e ir.Element, tx, ty, gap float64) ir.Point {
	cx, cy := e.Center()
	dx, dy := tx-cx, ty-cy
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dx, dy, dist = 1, 0, 1
	}
	ux, uy := dx/dist, dy/dist

	hw, hh := math.Abs(e.Width)/2, math.Abs(e.Height)/2
	t := math.Inf(1)
	if ux != 0 {
		t = hw / math.Abs(ux)
	}
	if uy != 0 {
		t = math.Min(t, hh/math.Abs(uy))
	}
	t += gap
	return ir.Point{cx + ux*t, cy + uy*t}
}

// diff reports the elements of after that are new or whose version moved.
func diff(before, after ir.Scene) (changes []ir.Element, created, updated []string) {
	idx := before.Index()
	for _, e := range after {
		i, ok := idx[e.ID]
		switch {
		case !ok:
			changes = append(changes, e)
			created = append(created, e.ID)
		case before[i].Version != e.Version:
			changes = append(changes, e)
			updated = append(updated, e.ID)
		}
	}
	return changes, created, updated
}
