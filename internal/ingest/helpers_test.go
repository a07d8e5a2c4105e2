package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
	"github.com/roach88/scenekit/internal/synth"
	"github.com/roach88/scenekit/internal/testutil"
)

// startEngine runs a deterministic engine over initial until the test ends.
func startEngine(t *testing.T, initial ir.Scene) *engine.Engine {
	t.Helper()
	s := synth.New(testutil.NewFactory(), synth.DefaultOptions(), nil)
	eng := engine.New(
		engine.NewMemoryScene(initial),
		engine.NewInterpreter(s, engine.DefaultInterpreterOptions(), nil),
		reconcile.New(s, nil),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		err := <-done
		require.True(t, err == nil || errors.Is(err, context.Canceled), "engine run: %v", err)
	})
	return eng
}
