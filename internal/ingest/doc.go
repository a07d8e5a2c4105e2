// Package ingest accepts batches from outside the process and hands them to
// the engine's single-writer loop.
//
// Two sources are supported:
//   - Server: an HTTP API (chi) for action batches, reconcile batches, scene
//     snapshots and relationship queries
//   - Watcher: an inbox directory (fsnotify) where *.json reconcile batches
//     are dropped; each file is moved to processed/ or failed/ afterwards
//
// Neither source mutates the scene directly; every write goes through
// Engine.SubmitActions or Engine.SubmitBatch.
package ingest

import (
	"context"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
)

// Engine is the subset of engine.Engine used by the ingest sources.
type Engine interface {
	Scene() ir.Scene
	SubmitActions(ctx context.Context, actions []ir.Action) ([]ir.ActionResult, error)
	SubmitBatch(ctx context.Context, batch ir.Batch) (reconcile.Result, error)
}
