package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
	"github.com/roach88/scenekit/internal/synth"
	"github.com/roach88/scenekit/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build a deterministic factory and a fresh in-memory scene
//  2. Reconcile the scenario's initial elements into it
//  3. Start the engine loop and submit every step in order
//  4. Check per-step expectations, then evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zap.NewNop())
}

// RunWithLogger is Run with engine logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *zap.Logger) (*Result, error) {
	prefix := scenario.IDPrefix
	if prefix == "" {
		prefix = "el"
	}
	factory := &ir.Factory{
		IDs:    testutil.NewSequenceIDs(prefix),
		Nonces: testutil.NewCountingNonces(),
	}
	s := synth.New(factory, synth.DefaultOptions(), logger)
	reconciler := reconcile.New(s, logger)

	initial := ir.Scene{}
	if scenario.Scene != nil {
		initial = reconciler.Reconcile(initial, ir.Batch{Elements: scenario.Scene.Value}).Scene
	}

	eng := engine.New(
		engine.NewMemoryScene(initial),
		engine.NewInterpreter(s, engine.DefaultInterpreterOptions(), logger),
		reconciler,
		engine.WithLogger(logger),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	result := NewResult()
	stepErr := runSteps(ctx, eng, scenario.Steps, result)

	eng.Stop()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("engine stopped with error: %w", err)
	}
	if stepErr != nil {
		return nil, stepErr
	}

	result.Scene = eng.Scene()
	for _, msg := range EvaluateAssertions(result.Scene, scenario.Assertions, result.Refs) {
		result.AddError(msg)
	}
	return result, nil
}

func runSteps(ctx context.Context, eng *engine.Engine, steps []Step, result *Result) error {
	for i, step := range steps {
		n := i + 1
		if step.Actions != nil {
			actions := step.Actions.Value
			results, err := eng.SubmitActions(ctx, actions)
			if err != nil {
				return fmt.Errorf("step %d: %w", n, err)
			}
			for j, r := range results {
				result.Trace = append(result.Trace, TraceEvent{
					Step:    n,
					Kind:    string(engine.JobActions),
					Index:   r.Index,
					Type:    string(r.Type),
					Success: r.Success,
					ID:      r.ID,
					Error:   r.Error,
				})
				if r.Success && actions[j].Ref != "" {
					result.Refs[actions[j].Ref] = r.ID
				}
			}
			for j, want := range step.Expect {
				if msg := checkAction(results[j], want); msg != "" {
					result.AddError(fmt.Sprintf("step %d action %d: %s", n, j, msg))
				}
			}
			continue
		}

		res, err := eng.SubmitBatch(ctx, step.Batch.Value)
		if err != nil {
			return fmt.Errorf("step %d: %w", n, err)
		}
		result.Trace = append(result.Trace, TraceEvent{
			Step:    n,
			Kind:    string(engine.JobBatch),
			Created: res.CreatedIDs,
			Updated: res.UpdatedIDs,
			Deleted: res.DeletedIDs,
			Skipped: res.Skipped,
		})
		if step.Reconciled != nil {
			for _, msg := range checkReconcile(res, *step.Reconciled) {
				result.AddError(fmt.Sprintf("step %d: %s", n, msg))
			}
		}
	}
	return nil
}

func checkAction(got ir.ActionResult, want ExpectClause) string {
	wantSuccess := want.Success && want.Error == ""
	switch {
	case got.Success != wantSuccess:
		if got.Success {
			return fmt.Sprintf("expected failure %q, got success (id=%s)", want.Error, got.ID)
		}
		return fmt.Sprintf("expected success, got error %q", got.Error)
	case want.Error != "" && !strings.Contains(got.Error, want.Error):
		return fmt.Sprintf("expected error containing %q, got %q", want.Error, got.Error)
	case want.ID != "" && got.ID != want.ID:
		return fmt.Sprintf("expected id %q, got %q", want.ID, got.ID)
	}
	return ""
}

func checkReconcile(got reconcile.Result, want ReconcileExpect) []string {
	var msgs []string
	compare := func(name string, want, got []string) {
		if want == nil {
			return
		}
		if strings.Join(want, ",") != strings.Join(got, ",") {
			msgs = append(msgs, fmt.Sprintf("expected %s %v, got %v", name, want, got))
		}
	}
	compare("created", want.Created, got.CreatedIDs)
	compare("updated", want.Updated, got.UpdatedIDs)
	compare("deleted", want.Deleted, got.DeletedIDs)
	if want.Skipped != nil && *want.Skipped != got.Skipped {
		msgs = append(msgs, fmt.Sprintf("expected %d skipped, got %d", *want.Skipped, got.Skipped))
	}
	return msgs
}
