// Package assist turns a natural-language request into an action batch via
// the text-generation collaborator and runs it through the engine.
package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/llm"
	"github.com/roach88/scenekit/internal/relations"
	"github.com/roach88/scenekit/internal/retry"
)

// ErrNoActions is returned when the generated content is not a usable
// action list even after every retry.
var ErrNoActions = errors.New("no usable actions generated")

// Executor runs action batches against the authoritative scene.
// Implemented by engine.Engine.
type Executor interface {
	Scene() ir.Scene
	SubmitActions(ctx context.Context, actions []ir.Action) ([]ir.ActionResult, error)
}

// GenerationObserver records generation outcomes. Implemented by
// metrics.Collector.
type GenerationObserver interface {
	ObserveGeneration(attempts int, valid bool, err error)
}

// Outcome is the result of one assistant turn.
type Outcome struct {
	Actions  []ir.Action       `json:"actions"`
	Results  []ir.ActionResult `json:"results"`
	Attempts int               `json:"attempts"`
}

// Assistant plans and applies action batches.
type Assistant struct {
	gen      llm.Generator
	exec     Executor
	policy   retry.Policy
	observer GenerationObserver
	logger   *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithPolicy overrides the retry policy. A nil validator is replaced with
// retry.NonEmptyJSONArray.
func WithPolicy(p retry.Policy) Option {
	return func(a *Assistant) {
		if p.Validator == nil {
			p.Validator = retry.NonEmptyJSONArray
		}
		a.policy = p
	}
}

// WithObserver reports every generation call.
func WithObserver(o GenerationObserver) Option {
	return func(a *Assistant) { a.observer = o }
}

// New creates an Assistant.
func New(gen llm.Generator, exec Executor, logger *zap.Logger, opts ...Option) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assistant{
		gen:    gen,
		exec:   exec,
		policy: retry.DefaultPolicy(retry.NonEmptyJSONArray),
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.policy.OnRetry == nil {
		a.policy.OnRetry = func(at retry.Attempt) {
			a.logger.Debug("generation rejected, retrying",
				zap.Int("attempt", at.Number),
				zap.Error(at.Err))
		}
	}
	return a
}

// Plan asks the generator for actions that fulfil request against the
// current scene. focus narrows the relationship context to those ids and
// their labels; empty means the whole scene.
func (a *Assistant) Plan(ctx context.Context, request string, focus ...string) ([]ir.Action, int, error) {
	scene := a.exec.Scene()
	req := llm.UserRequest(systemPrompt, BuildPrompt(scene, request, focus))

	res, err := retry.Do(ctx, a.gen, req, a.policy)
	if a.observer != nil {
		a.observer.ObserveGeneration(res.Attempts, res.Valid, err)
	}
	if err != nil {
		return nil, res.Attempts, fmt.Errorf("generate actions: %w", err)
	}
	if !res.Valid {
		a.logger.Info("generation exhausted retries",
			zap.Int("attempts", res.Attempts))
	}

	actions, err := DecodeActions(res.Response.Content)
	if err != nil {
		return nil, res.Attempts, err
	}
	return actions, res.Attempts, nil
}

// Run plans actions for request and submits them to the executor.
func (a *Assistant) Run(ctx context.Context, request string, focus ...string) (Outcome, error) {
	actions, attempts, err := a.Plan(ctx, request, focus...)
	if err != nil {
		return Outcome{Attempts: attempts}, err
	}
	results, err := a.exec.SubmitActions(ctx, actions)
	if err != nil {
		return Outcome{Actions: actions, Attempts: attempts}, fmt.Errorf("submit actions: %w", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	a.logger.Info("assistant turn complete",
		zap.Int("actions", len(actions)),
		zap.Int("failed", failed),
		zap.Int("attempts", attempts))
	return Outcome{Actions: actions, Results: results, Attempts: attempts}, nil
}

// DecodeActions parses generated content (optionally fenced) as a
// non-empty JSON array of actions.
func DecodeActions(content string) ([]ir.Action, error) {
	var actions []ir.Action
	if err := json.Unmarshal([]byte(retry.ExtractJSON(content)), &actions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoActions, err)
	}
	if len(actions) == 0 {
		return nil, ErrNoActions
	}
	return actions, nil
}

// BuildPrompt renders the scene summary, the relationship context and the
// request.
func BuildPrompt(scene ir.Scene, request string, focus []string) string {
	var b strings.Builder
	live := scene.Live()

	b.WriteString("Current elements:\n")
	listed := 0
	for _, e := range live {
		if e.ContainerID != "" {
			continue
		}
		listed++
		fmt.Fprintf(&b, "- %s %s at (%g, %g) size %gx%g", e.ID, e.Type, e.X, e.Y, e.Width, e.Height)
		if caption := relations.Caption(e, scene); caption != "" {
			fmt.Fprintf(&b, " %q", caption)
		}
		b.WriteByte('\n')
	}
	if listed == 0 {
		b.WriteString("(none)\n")
	}

	subset := live
	if len(focus) > 0 {
		subset = subset[:0:0]
		for _, id := range focus {
			e, ok := scene.FindLive(id)
			if !ok {
				continue
			}
			subset = append(subset, e)
			if textID, ok := e.BoundText(); ok {
				if t, ok := scene.FindLive(textID); ok {
					subset = append(subset, t)
				}
			}
		}
	}
	if ctx := relations.Describe(relations.Detect(subset, scene), scene); ctx != "" {
		b.WriteByte('\n')
		b.WriteString(ctx)
	}

	b.WriteString("\nRequest: ")
	b.WriteString(strings.TrimSpace(request))
	b.WriteByte('\n')
	return b.String()
}

const systemPrompt = `You edit a diagram by emitting a JSON array of actions and nothing else.
Each action is an object with a "type" of add_shape, add_text, add_connector,
add_connection, update_text, update_style, delete, move or group.
New elements may declare a "ref" that later actions use in place of an id.
add_shape: shape, text, x, y, width, height, relativeTo, direction (right|below|left|above).
add_text: text, x, y, relativeTo, direction.
add_connection: sourceId, targetId, connector (arrow|line), label.
add_connector: points, connector.
update_text: id, text. update_style: id, style. delete: id.
move: id with x/y or dx/dy. group: ids.`
