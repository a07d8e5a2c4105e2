// Package harness runs scenekit scenarios: YAML files that seed a scene,
// push action batches and reconcile batches through a real engine, and
// assert on the outcome.
//
// # Scenario Format
//
//	name: login_service
//	description: "A service talks to a database"
//	scene:                      # optional initial elements (JSON field names)
//	  - {id: svc, type: rectangle, x: 100, y: 100, width: 150, height: 80}
//	steps:
//	  - actions:
//	      - {type: add_shape, ref: db, shape: ellipse, text: "Users DB"}
//	      - {type: add_connection, sourceId: svc, targetId: db}
//	    expect:
//	      - {success: true}
//	      - {success: true}
//	  - batch:
//	      deleteIds: [db]
//	    reconciled:
//	      deleted: [db]
//	assertions:
//	  - {type: live_count, count: 2}
//	  - {type: connector_count, count: 1}
//	  - {type: bound_text, id: "@db", text: "Users DB"}
//	  - {type: relationship, kind: connector, from: svc, to: "@db"}
//	  - {type: no_violations}
//
// # References
//
// An assertion id written as "@name" resolves to the element created by the
// action that declared ref "name" in any earlier step.
//
// # Deterministic Execution
//
// Every scenario runs against a fresh in-memory scene with sequential ids
// (el-1, el-2, ...) and counting nonces, so ids and traces are identical
// across runs and can be compared against golden files.
package harness
