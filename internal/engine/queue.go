package engine

import (
	"sync"
	"time"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
)

// JobKind distinguishes the two kinds of mutation job.
type JobKind string

const (
	// JobActions executes an action batch through the Interpreter.
	JobActions JobKind = "actions"
	// JobBatch reconciles an external batch.
	JobBatch JobKind = "batch"
)

// job is one queued mutation. done is buffered so the loop never blocks on
// a submitter that stopped waiting.
type job struct {
	seq     int64
	kind    JobKind
	actions []ir.Action
	batch   *ir.Batch
	queued  time.Time
	done    chan jobResult
}

type jobResult struct {
	actions   []ir.ActionResult
	reconcile reconcile.Result
	err       error
}

// jobQueue is a thread-safe FIFO queue of jobs.
//
// Thread-safety is provided for submitters on any goroutine (HTTP handlers,
// the inbox watcher, the CLI) while the Engine's Run loop dequeues.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type jobQueue struct {
	mu     sync.Mutex
	jobs   []*job
	closed bool
	signal chan struct{} // buffered, size 1
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		jobs:   make([]*job, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a job to the back of the queue.
// Returns false if the queue is closed.
func (q *jobQueue) Enqueue(j *job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, j)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front job without blocking.
func (q *jobQueue) TryDequeue() (*job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return nil, false
	}
	j := q.jobs[0]
	q.jobs[0] = nil // release for GC
	if len(q.jobs) == 1 {
		q.jobs = q.jobs[:0]
	} else {
		q.jobs = q.jobs[1:]
	}
	return j, true
}

// Wait returns a channel that signals when jobs may be available. The
// channel is closed when the queue is closed.
func (q *jobQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *jobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close stops accepting jobs and returns the ones still queued.
func (q *jobQueue) Close() []*job {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	// Drop a pending wake-up so receivers observe the close right away.
	select {
	case <-q.signal:
	default:
	}
	close(q.signal)
	rest := q.jobs
	q.jobs = nil
	return rest
}
