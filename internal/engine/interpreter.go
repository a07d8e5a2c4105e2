package engine

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/synth"
)

// InterpreterOptions tunes the Interpreter.
type InterpreterOptions struct {
	// Delay is slept between actions so a watching canvas can show each
	// step. It has no effect on results.
	Delay time.Duration
	// Spacing is the default gap for relative and free-slot placement.
	Spacing float64
}

// DefaultInterpreterOptions returns no delay and a spacing of 50.
func DefaultInterpreterOptions() InterpreterOptions {
	return InterpreterOptions{Spacing: 50}
}

// Interpreter executes ordered action batches with best-effort semantics.
//
// Thread-safety: an Interpreter holds no scene state, but Execute assumes
// the caller owns the accessor for the whole batch. Engine provides that.
type Interpreter struct {
	synth   *synth.Synthesizer
	factory *ir.Factory
	opts    InterpreterOptions
	logger  *zap.Logger
	sleep   func(time.Duration)
}

// NewInterpreter creates an Interpreter that builds elements with s.
func NewInterpreter(s *synth.Synthesizer, opts InterpreterOptions, logger *zap.Logger) *Interpreter {
	if opts.Spacing < 0 {
		opts.Spacing = DefaultInterpreterOptions().Spacing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		synth:   s,
		factory: s.Factory(),
		opts:    opts,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// Execute runs actions in order. Each action reads the accessor's scene
// immediately before it runs and, on success, replaces it. Every action
// yields exactly one result; a failure never stops the batch.
//
// An action may name the element it creates with Ref. Later actions in the
// same batch may use that name anywhere an id is accepted.
func (in *Interpreter) Execute(acc SceneAccessor, actions []ir.Action) []ir.ActionResult {
	refs := make(map[string]string)
	results := make([]ir.ActionResult, len(actions))
	failed := 0

	for i, a := range actions {
		if i > 0 && in.opts.Delay > 0 {
			in.sleep(in.opts.Delay)
		}

		res := ir.ActionResult{Index: i, Type: a.Type}
		next, id, err := in.apply(acc.Elements(), a, refs)
		if err != nil {
			var ie *InterpreterError
			if errors.As(err, &ie) {
				ie.ActionIndex = i
				ie.ActionType = a.Type
			}
			res.Error = err.Error()
			failed++
			in.logger.Debug("action failed",
				zap.Int("index", i),
				zap.String("type", string(a.Type)),
				zap.Error(err))
		} else {
			acc.ReplaceElements(next)
			res.Success = true
			res.ID = id
			if a.Ref != "" {
				refs[a.Ref] = id
			}
		}
		results[i] = res
	}

	in.logger.Info("action batch executed",
		zap.Int("actions", len(actions)),
		zap.Int("failed", failed))
	return results
}

// apply runs one action against scene and returns the next scene and the
// created or targeted id.
func (in *Interpreter) apply(scene ir.Scene, a ir.Action, refs map[string]string) (ir.Scene, string, error) {
	if !ir.ValidActionTypes[a.Type] {
		return nil, "", failure(ErrCodeUnknownAction, nil, "unknown action type %q", a.Type)
	}
	if errs := a.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, "", failure(ErrCodeInvalidFields, nil, "%s", strings.Join(msgs, "; "))
	}

	resolve := func(id string) string {
		if real, ok := refs[id]; ok {
			return real
		}
		return id
	}

	switch a.Type {
	case ir.ActionAddShape:
		return in.addShape(scene, a, resolve(a.RelativeTo))
	case ir.ActionAddText:
		return in.addText(scene, a, resolve(a.RelativeTo))
	case ir.ActionAddConnector:
		return in.addConnector(scene, a)
	case ir.ActionAddConnection:
		return in.addConnection(scene, a, resolve(a.SourceID), resolve(a.TargetID))
	case ir.ActionUpdateText:
		return in.updateText(scene, a, resolve(a.ID))
	case ir.ActionUpdateStyle:
		return in.updateStyle(scene, a, resolve(a.ID))
	case ir.ActionDelete:
		return in.remove(scene, resolve(a.ID))
	case ir.ActionMove:
		return in.move(scene, a, resolve(a.ID))
	default: // ir.ActionGroup
		ids := make([]string, len(a.IDs))
		for i, id := range a.IDs {
			ids[i] = resolve(id)
		}
		return in.group(scene, ids)
	}
}

func (in *Interpreter) addShape(scene ir.Scene, a ir.Action, relativeTo string) (ir.Scene, string, error) {
	kind := ir.KindRectangle
	if a.Shape != "" {
		kind, _ = ir.ParseKind(a.Shape)
	}
	def := in.synth.Options()
	w, h := def.Width, def.Height
	if a.Width != nil && *a.Width > 0 {
		w = *a.Width
	}
	if a.Height != nil && *a.Height > 0 {
		h = *a.Height
	}
	x, y, err := in.place(scene, a, relativeTo, w, h)
	if err != nil {
		return nil, "", err
	}
	return in.synthesize(scene, ir.Description{
		Type:       string(kind),
		X:          &x,
		Y:          &y,
		Width:      &w,
		Height:     &h,
		Text:       a.Text,
		Label:      a.Label,
		FontSize:   a.FontSize,
		StylePatch: patch(a.Style),
	})
}

func (in *Interpreter) addText(scene ir.Scene, a ir.Action, relativeTo string) (ir.Scene, string, error) {
	fontSize := in.synth.Options().FontSize
	if a.FontSize != nil && *a.FontSize > 0 {
		fontSize = *a.FontSize
	}
	w, h := ir.MeasureText(ir.NormalizeText(a.Text), fontSize)
	x, y, err := in.place(scene, a, relativeTo, w, h)
	if err != nil {
		return nil, "", err
	}
	return in.synthesize(scene, ir.Description{
		Type:       string(ir.KindText),
		X:          &x,
		Y:          &y,
		Text:       a.Text,
		FontSize:   &fontSize,
		StylePatch: patch(a.Style),
	})
}

func (in *Interpreter) addConnector(scene ir.Scene, a ir.Action) (ir.Scene, string, error) {
	kind := ir.KindArrow
	if a.Connector != "" {
		k, ok := ir.ParseKind(a.Connector)
		if !ok || !k.IsLinear() {
			return nil, "", failure(ErrCodeInvalidFields, nil, "%q is not a connector", a.Connector)
		}
		kind = k
	}
	return in.synthesize(scene, ir.Description{
		Type:       string(kind),
		X:          a.X,
		Y:          a.Y,
		Points:     a.Points,
		Label:      a.Label,
		Text:       a.Text,
		StylePatch: patch(a.Style),
	})
}

func (in *Interpreter) synthesize(scene ir.Scene, d ir.Description) (ir.Scene, string, error) {
	r, err := in.synth.Synthesize(scene, d)
	if err != nil {
		return nil, "", failure(ErrCodeSynthesisFailed, err, "%v", err)
	}
	return r.Apply(scene), r.PrimaryID, nil
}

func (in *Interpreter) addConnection(scene ir.Scene, a ir.Action, source, target string) (ir.Scene, string, error) {
	var kind ir.ElementKind
	if a.Connector != "" {
		k, ok := ir.ParseKind(a.Connector)
		if !ok || !k.IsConnector() {
			return nil, "", failure(ErrCodeInvalidFields, nil, "unknown connector %q", a.Connector)
		}
		kind = k
	}
	label := a.Label
	if label == "" {
		label = a.Text
	}
	c, err := in.synth.Connect(scene, source, target, synth.ConnectOptions{
		Kind:  kind,
		Style: a.Style,
		Label: label,
	})
	if err != nil {
		if synth.IsMissingEndpoint(err) {
			return nil, "", failure(ErrCodeTargetNotFound, err, "%v", err)
		}
		return nil, "", failure(ErrCodeConnectionFailed, err, "%v", err)
	}
	return c.Scene, c.ConnectorID, nil
}

// updateText rewrites the content of a text element, the bound label of a
// shape or connector (creating one when missing), or the name of a frame.
func (in *Interpreter) updateText(scene ir.Scene, a ir.Action, id string) (ir.Scene, string, error) {
	e, ok := scene.FindLive(id)
	if !ok {
		return nil, "", targetNotFound(id)
	}
	text := a.Text
	if text == "" {
		text = a.Label
	}

	switch {
	case e.Type == ir.KindText:
		t := in.factory.Touch(e)
		synth.SetText(&t, text)
		if c, ok := scene.FindLive(t.ContainerID); ok {
			synth.CenterIn(&t, c)
		}
		return scene.Upsert(t), t.ID, nil
	case e.Type == ir.KindFrame:
		fr := in.factory.Touch(e)
		fr.Name = ir.NormalizeText(text)
		return scene.Upsert(fr), fr.ID, nil
	case e.Type.IsShape() || e.Type.IsConnector():
		next, _, err := in.synth.SetLabel(scene, e.ID, text)
		if err != nil {
			return nil, "", failure(ErrCodeSynthesisFailed, err, "%v", err)
		}
		return next, e.ID, nil
	default:
		return nil, "", failure(ErrCodeInvalidFields, nil, "%s %q has no text", e.Type, id)
	}
}

func (in *Interpreter) updateStyle(scene ir.Scene, a ir.Action, id string) (ir.Scene, string, error) {
	e, ok := scene.FindLive(id)
	if !ok {
		return nil, "", targetNotFound(id)
	}
	e = in.factory.Touch(e)
	e.Style = a.Style.Apply(e.Style)
	return scene.Upsert(e), e.ID, nil
}

func (in *Interpreter) remove(scene ir.Scene, id string) (ir.Scene, string, error) {
	if _, ok := scene.FindLive(id); !ok {
		return nil, "", targetNotFound(id)
	}
	next, _ := ir.Tombstone(scene, in.factory, id)
	return next, id, nil
}

// move shifts an element to an absolute position or by a delta. Bound text
// travels with its container and connectors anchored to the element are
// rerouted.
func (in *Interpreter) move(scene ir.Scene, a ir.Action, id string) (ir.Scene, string, error) {
	e, ok := scene.FindLive(id)
	if !ok {
		return nil, "", targetNotFound(id)
	}

	var dx, dy float64
	if a.DX != nil || a.DY != nil {
		dx, dy = deref(a.DX), deref(a.DY)
	} else {
		if a.X != nil {
			dx = *a.X - e.X
		}
		if a.Y != nil {
			dy = *a.Y - e.Y
		}
	}

	m := in.factory.Touch(e)
	m.X += dx
	m.Y += dy
	upserts := []ir.Element{m}
	for _, b := range e.BoundElements {
		if b.Type != ir.KindText {
			continue
		}
		if t, ok := scene.FindLive(b.ID); ok && t.ContainerID == e.ID {
			t = in.factory.Touch(t)
			t.X += dx
			t.Y += dy
			upserts = append(upserts, t)
		}
	}
	next := scene.Upsert(upserts...)
	return in.synth.Reroute(next, e.ID), e.ID, nil
}

// group assigns a fresh shared group id to every named element. Returns
// the group id.
func (in *Interpreter) group(scene ir.Scene, ids []string) (ir.Scene, string, error) {
	members := make([]ir.Element, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		e, ok := scene.FindLive(id)
		if !ok {
			return nil, "", targetNotFound(id)
		}
		members = append(members, e)
	}
	if len(members) < 2 {
		return nil, "", failure(ErrCodeInvalidFields, nil, "group requires at least 2 distinct elements")
	}

	gid := in.factory.IDs.NewID()
	for i := range members {
		members[i] = in.factory.Touch(members[i])
		members[i].GroupIDs = append(members[i].GroupIDs, gid)
	}
	return scene.Upsert(members...), gid, nil
}

func patch(p *ir.StylePatch) ir.StylePatch {
	if p == nil {
		return ir.StylePatch{}
	}
	return *p
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
