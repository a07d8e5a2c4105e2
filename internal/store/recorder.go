package store

import (
	"context"
	"fmt"

	"github.com/roach88/scenekit/internal/engine"
)

// Recorder persists engine jobs for one scene. Implements engine.Recorder.
type Recorder struct {
	store *Store
	scene string
}

// NewRecorder creates a recorder writing to the named scene.
func NewRecorder(s *Store, scene string) *Recorder {
	return &Recorder{store: s, scene: scene}
}

// RecordJob stores the post-job snapshot and the job's log entry in one
// transaction.
func (r *Recorder) RecordJob(ctx context.Context, rec engine.JobRecord) error {
	entry, err := entryFor(r.scene, rec)
	if err != nil {
		return fmt.Errorf("record job %d: %w", rec.Seq, err)
	}
	return r.store.Commit(ctx, rec.Scene, entry)
}

func entryFor(scene string, rec engine.JobRecord) (BatchEntry, error) {
	var payload, results any
	switch rec.Kind {
	case engine.JobActions:
		payload, results = rec.Actions, rec.Results
	case engine.JobBatch:
		payload, results = rec.Batch, rec.Reconcile
	default:
		return BatchEntry{}, fmt.Errorf("unknown job kind %q", rec.Kind)
	}

	p, err := marshalPayload(payload)
	if err != nil {
		return BatchEntry{}, err
	}
	r, err := marshalPayload(results)
	if err != nil {
		return BatchEntry{}, err
	}
	return BatchEntry{
		Scene:   scene,
		Seq:     rec.Seq,
		Kind:    string(rec.Kind),
		Payload: []byte(p),
		Results: []byte(r),
	}, nil
}
