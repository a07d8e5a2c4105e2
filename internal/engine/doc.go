// Package engine applies mutation batches to the authoritative scene.
//
// ARCHITECTURE:
//
// Interpreter:
// Executes an ordered list of ir.Action against a SceneAccessor. Each action
// reads the scene immediately before it runs, so later actions see the
// results of earlier ones. A failing action produces a failed
// ir.ActionResult and the batch continues.
//
// Single-Writer Job Loop:
// Engine serializes every mutation job (action batches and external
// reconcile batches) through one FIFO queue drained by Run. Callers on any
// goroutine use SubmitActions/SubmitBatch and block for the outcome. This
// gives the scene a single critical section without locks in the core
// transformations.
//
// Job Processing Flow:
// 1. Submit* stamps the job with the next logical clock value and enqueues it
// 2. Engine.Run() dequeues jobs one at a time
// 3. The job runs to completion against the accessor (no mid-batch cancel)
// 4. The optional Recorder persists the job and the resulting scene
// 5. The submitter is handed the results
//
// Failures in the Recorder are logged and never stop the loop.
package engine
