package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/config"
	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
	"github.com/roach88/scenekit/internal/store"
	"github.com/roach88/scenekit/internal/synth"
)

// session is one stored scene loaded into a running engine. Every job the
// engine finishes is persisted through store.Recorder.
type session struct {
	name   string
	cfg    config.Config
	store  *store.Store
	engine *engine.Engine
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan error
}

// openSession opens the database, loads the named scene (empty when it does
// not exist yet) and starts the engine loop. The caller must Close it.
func openSession(ctx context.Context, opts *RootOptions, name string, extra ...engine.Option) (*session, error) {
	cfg, err := opts.config()
	if err != nil {
		return nil, err
	}
	logger := opts.logger()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	scene, seq, err := st.LoadOrEmpty(ctx, name)
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load scene %q", name), err)
	}
	// Batches appended outside Commit can run ahead of the snapshot.
	last, err := st.LastSeq(ctx, name)
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load scene %q", name), err)
	}
	seq = max(seq, last)
	logger.Debug("scene loaded",
		zap.String("scene", name),
		zap.Int("elements", len(scene)),
		zap.Int64("seq", seq))

	factory := opts.Factory
	if factory == nil {
		factory = ir.NewFactory()
	}
	s := synth.New(factory, cfg.SynthOptions(), logger)

	engineOpts := append([]engine.Option{
		engine.WithLogger(logger),
		engine.WithRecorder(store.NewRecorder(st, name)),
		engine.WithClock(engine.NewClockAt(seq)),
	}, extra...)
	eng := engine.New(
		engine.NewMemoryScene(scene),
		engine.NewInterpreter(s, cfg.InterpreterOptions(), logger),
		reconcile.New(s, logger),
		engineOpts...,
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &session{
		name:   name,
		cfg:    cfg,
		store:  st,
		engine: eng,
		logger: logger,
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go func() { sess.done <- eng.Run(runCtx) }()
	return sess, nil
}

// Close stops the engine after the current job and closes the database.
func (s *session) Close() error {
	s.engine.Stop()
	runErr := <-s.done
	s.cancel()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, s.store.Close())
}
