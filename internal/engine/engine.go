package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
)

// JobRecord describes a finished job for persistence.
type JobRecord struct {
	Seq  int64
	Kind JobKind

	// Exactly one of Actions/Batch is set, matching Kind.
	Actions []ir.Action
	Batch   *ir.Batch

	// Results holds per-action outcomes for JobActions.
	Results []ir.ActionResult
	// Reconcile holds the outcome for JobBatch (Scene omitted).
	Reconcile *reconcile.Result

	// Scene is the complete scene after the job.
	Scene ir.Scene
}

// Recorder persists finished jobs. Implemented by store.Recorder.
type Recorder interface {
	RecordJob(ctx context.Context, rec JobRecord) error
}

// Observer receives job outcomes for metrics. Implemented by
// metrics.Collector.
type Observer interface {
	ObserveActions(results []ir.ActionResult)
	ObserveReconcile(res reconcile.Result)
	ObserveJob(kind string, queued, ran time.Duration)
}

// Engine is the single-writer mutation loop.
//
// CRITICAL: All scene mutations happen in the Run loop goroutine.
// External callers use SubmitActions/SubmitBatch.
//
// Thread-safety model:
//   - SubmitActions/SubmitBatch/Scene: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	scene      SceneAccessor
	interp     *Interpreter
	reconciler *reconcile.Reconciler
	queue      *jobQueue
	clock      *Clock
	recorder   Recorder
	observer   Observer
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder persists every finished job.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithObserver reports every finished job.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock resumes job numbering from an existing clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine over the given scene.
func New(scene SceneAccessor, interp *Interpreter, reconciler *reconcile.Reconciler, opts ...Option) *Engine {
	e := &Engine{
		scene:      scene,
		interp:     interp,
		reconciler: reconciler,
		queue:      newJobQueue(),
		clock:      NewClock(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scene returns a snapshot of the current scene.
func (e *Engine) Scene() ir.Scene {
	return e.scene.Elements()
}

// SubmitActions queues an action batch and waits for its results.
//
// Once dequeued, the batch runs to completion even if ctx is cancelled;
// cancellation only stops the wait.
func (e *Engine) SubmitActions(ctx context.Context, actions []ir.Action) ([]ir.ActionResult, error) {
	res, err := e.submit(ctx, &job{kind: JobActions, actions: actions})
	return res.actions, err
}

// SubmitBatch queues an external batch for reconciliation and waits for
// its outcome.
func (e *Engine) SubmitBatch(ctx context.Context, batch ir.Batch) (reconcile.Result, error) {
	res, err := e.submit(ctx, &job{kind: JobBatch, batch: &batch})
	return res.reconcile, err
}

func (e *Engine) submit(ctx context.Context, j *job) (jobResult, error) {
	j.queued = time.Now()
	j.done = make(chan jobResult, 1)
	if !e.queue.Enqueue(j) {
		return jobResult{}, ErrStopped
	}
	select {
	case <-ctx.Done():
		return jobResult{}, ctx.Err()
	case r := <-j.done:
		return r, r.err
	}
}

// Run starts the single-writer loop. Blocks until ctx is cancelled or Stop
// is called. Jobs still queued at that point fail with ErrStopped.
//
// ERROR HANDLING: a failing Recorder is logged with the job's seq and the
// loop continues; the in-memory scene stays authoritative.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		if j, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.drain()
			return ctx.Err()

		case <-e.queue.Wait():
			// Stop closes the signal channel, which fires this case
			// immediately with an empty queue.
			if e.queue.Len() == 0 && e.stopped() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run returns once the current job finishes.
func (e *Engine) Stop() {
	e.drain()
}

func (e *Engine) drain() {
	for _, j := range e.queue.Close() {
		j.done <- jobResult{err: ErrStopped}
	}
}

func (e *Engine) stopped() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

// process runs one job against the scene.
// CRITICAL: Called only from Run() goroutine - single-writer guarantee.
func (e *Engine) process(ctx context.Context, j *job) {
	started := time.Now()
	j.seq = e.clock.Next()
	rec := JobRecord{Seq: j.seq, Kind: j.kind}
	var out jobResult

	switch j.kind {
	case JobActions:
		out.actions = e.interp.Execute(e.scene, j.actions)
		rec.Actions = j.actions
		rec.Results = out.actions
		if e.observer != nil {
			e.observer.ObserveActions(out.actions)
		}
	case JobBatch:
		out.reconcile = e.reconciler.Reconcile(e.scene.Elements(), *j.batch)
		e.scene.ReplaceElements(out.reconcile.Scene)
		summary := out.reconcile
		summary.Scene = nil
		rec.Batch = j.batch
		rec.Reconcile = &summary
		if e.observer != nil {
			e.observer.ObserveReconcile(out.reconcile)
		}
	default:
		out.err = fmt.Errorf("unknown job kind %q", j.kind)
	}

	if out.err == nil && e.recorder != nil {
		rec.Scene = e.scene.Elements()
		if err := e.recorder.RecordJob(ctx, rec); err != nil {
			e.logger.Error("record job failed",
				zap.Int64("seq", j.seq),
				zap.String("kind", string(j.kind)),
				zap.Error(err))
		}
	}
	if e.observer != nil {
		e.observer.ObserveJob(string(j.kind), started.Sub(j.queued), time.Since(started))
	}

	e.logger.Debug("job processed",
		zap.Int64("seq", j.seq),
		zap.String("kind", string(j.kind)),
		zap.Duration("took", time.Since(started)))
	j.done <- out
}
