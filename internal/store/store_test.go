package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
	"github.com/roach88/scenekit/internal/testutil"
)

var _ engine.Recorder = (*Recorder)(nil)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"scenes", "batches"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		got, err := s.pragma(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("Open() accepted a newer schema version")
	}
}

func TestSaveAndLoadScene(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	scene := createTestScene()

	changed, err := s.SaveScene(ctx, "main", scene, 3)
	if err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	if !changed {
		t.Error("first save should report a change")
	}

	got, seq, err := s.LoadScene(ctx, "main")
	if err != nil {
		t.Fatalf("LoadScene() failed: %v", err)
	}
	if seq != 3 {
		t.Errorf("seq = %d, want 3", seq)
	}
	if diff := cmp.Diff(scene, got); diff != "" {
		t.Errorf("scene mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveScene_UnchangedFingerprintOnlyAdvancesSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	scene := createTestScene()

	if _, err := s.SaveScene(ctx, "main", scene, 1); err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	changed, err := s.SaveScene(ctx, "main", scene.Clone(), 5)
	if err != nil {
		t.Fatalf("second SaveScene() failed: %v", err)
	}
	if changed {
		t.Error("identical scene should not report a change")
	}
	_, seq, err := s.LoadScene(ctx, "main")
	if err != nil {
		t.Fatalf("LoadScene() failed: %v", err)
	}
	if seq != 5 {
		t.Errorf("seq = %d, want 5", seq)
	}

	// seq never moves backward
	if _, err := s.SaveScene(ctx, "main", scene, 2); err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	if _, seq, _ = s.LoadScene(ctx, "main"); seq != 5 {
		t.Errorf("seq = %d after older save, want 5", seq)
	}
}

func TestSaveScene_ChangedElements(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	scene := createTestScene()

	if _, err := s.SaveScene(ctx, "main", scene, 1); err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	moved := scene.Clone()
	moved[0].X += 10
	f := testutil.NewFactory()
	f.Bump(&moved[0])

	changed, err := s.SaveScene(ctx, "main", moved, 2)
	if err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	if !changed {
		t.Error("moved scene should report a change")
	}
	got, _, _ := s.LoadScene(ctx, "main")
	if got[0].X != 110 {
		t.Errorf("X = %v, want 110", got[0].X)
	}
}

func TestLoadScene_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.LoadScene(ctx, "missing")
	if !errors.Is(err, ErrSceneNotFound) {
		t.Fatalf("err = %v, want ErrSceneNotFound", err)
	}

	scene, seq, err := s.LoadOrEmpty(ctx, "missing")
	if err != nil {
		t.Fatalf("LoadOrEmpty() failed: %v", err)
	}
	if len(scene) != 0 || seq != 0 {
		t.Errorf("LoadOrEmpty() = %d elements at seq %d, want empty at 0", len(scene), seq)
	}
}

func TestSaveScene_RequiresName(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.SaveScene(context.Background(), "", ir.Scene{}, 1); err == nil {
		t.Error("expected error for empty scene name")
	}
}

func TestListScenes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"zeta", "alpha"} {
		if _, err := s.SaveScene(ctx, name, createTestScene(), 1); err != nil {
			t.Fatalf("SaveScene(%q) failed: %v", name, err)
		}
	}
	infos, err := s.ListScenes(ctx)
	if err != nil {
		t.Fatalf("ListScenes() failed: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "alpha" || infos[1].Name != "zeta" {
		t.Fatalf("ListScenes() = %+v, want alpha then zeta", infos)
	}
	if infos[0].Fingerprint == "" || infos[0].EngineVersion != ir.EngineVersion {
		t.Errorf("unexpected info %+v", infos[0])
	}
}

func TestAppendBatch_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if _, err := s.SaveScene(ctx, "main", ir.Scene{}, 0); err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}

	entry := BatchEntry{
		Scene:   "main",
		Seq:     1,
		Kind:    "actions",
		Payload: json.RawMessage(`[{"type":"delete","id":"a"}]`),
		Results: json.RawMessage(`[{"index":0,"success":false}]`),
	}
	inserted, err := s.AppendBatch(ctx, entry)
	if err != nil {
		t.Fatalf("AppendBatch() failed: %v", err)
	}
	if !inserted {
		t.Error("first append should insert")
	}
	inserted, err = s.AppendBatch(ctx, entry)
	if err != nil {
		t.Fatalf("second AppendBatch() failed: %v", err)
	}
	if inserted {
		t.Error("duplicate (scene, seq) should not insert")
	}

	entries, err := s.ReadBatches(ctx, "main", 0)
	if err != nil {
		t.Fatalf("ReadBatches() failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Fingerprint == "" {
		t.Error("fingerprint should be computed when absent")
	}
}

func TestAppendBatch_Constraints(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		entry BatchEntry
	}{
		{"unknown scene", BatchEntry{Scene: "nope", Seq: 1, Kind: "actions"}},
		{"missing kind", BatchEntry{Scene: "nope", Seq: 1}},
		{"bad kind", BatchEntry{Scene: "nope", Seq: 1, Kind: "replay"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AppendBatch(ctx, tt.entry); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadBatches_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	if _, err := s.SaveScene(ctx, "main", ir.Scene{}, 0); err != nil {
		t.Fatalf("SaveScene() failed: %v", err)
	}
	for _, seq := range []int64{3, 1, 2} {
		if _, err := s.AppendBatch(ctx, BatchEntry{Scene: "main", Seq: seq, Kind: "batch"}); err != nil {
			t.Fatalf("AppendBatch(%d) failed: %v", seq, err)
		}
	}

	entries, err := s.ReadBatches(ctx, "main", 1)
	if err != nil {
		t.Fatalf("ReadBatches() failed: %v", err)
	}
	var seqs []int64
	for _, e := range entries {
		seqs = append(seqs, e.Seq)
	}
	if diff := cmp.Diff([]int64{2, 3}, seqs); diff != "" {
		t.Errorf("seqs mismatch (-want +got):\n%s", diff)
	}

	last, err := s.LastSeq(ctx, "main")
	if err != nil {
		t.Fatalf("LastSeq() failed: %v", err)
	}
	if last != 3 {
		t.Errorf("LastSeq() = %d, want 3", last)
	}
	if last, _ := s.LastSeq(ctx, "other"); last != 0 {
		t.Errorf("LastSeq(other) = %d, want 0", last)
	}
}

func TestRecorder_RecordsActionJob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := NewRecorder(s, "main")
	scene := createTestScene()

	err := rec.RecordJob(ctx, engine.JobRecord{
		Seq:     7,
		Kind:    engine.JobActions,
		Actions: []ir.Action{{Type: ir.ActionAddShape, Text: "Login Service"}},
		Results: []ir.ActionResult{{Index: 0, Type: ir.ActionAddShape, Success: true, ID: scene[0].ID}},
		Scene:   scene,
	})
	if err != nil {
		t.Fatalf("RecordJob() failed: %v", err)
	}

	got, seq, err := s.LoadScene(ctx, "main")
	if err != nil {
		t.Fatalf("LoadScene() failed: %v", err)
	}
	if seq != 7 || len(got) != 2 {
		t.Errorf("stored %d elements at seq %d, want 2 at 7", len(got), seq)
	}

	entries, err := s.ReadBatches(ctx, "main", 0)
	if err != nil {
		t.Fatalf("ReadBatches() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != "actions" {
		t.Fatalf("entries = %+v", entries)
	}
	var actions []ir.Action
	if err := json.Unmarshal(entries[0].Payload, &actions); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(actions) != 1 || actions[0].Text != "Login Service" {
		t.Errorf("payload actions = %+v", actions)
	}
}

func TestRecorder_RecordsBatchJob(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := NewRecorder(s, "main")

	batch := &ir.Batch{
		Elements:  []ir.BatchItem{ir.DescriptionItem(ir.Description{Type: "ellipse"})},
		DeleteIDs: []string{"gone"},
	}
	err := rec.RecordJob(ctx, engine.JobRecord{
		Seq:       1,
		Kind:      engine.JobBatch,
		Batch:     batch,
		Reconcile: &reconcile.Result{CreatedIDs: []string{"el-1"}, UpdatedIDs: []string{}, DeletedIDs: []string{}},
		Scene:     createTestScene(),
	})
	if err != nil {
		t.Fatalf("RecordJob() failed: %v", err)
	}

	entries, _ := s.ReadBatches(ctx, "main", 0)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	var res reconcile.Result
	if err := json.Unmarshal(entries[0].Results, &res); err != nil {
		t.Fatalf("results: %v", err)
	}
	if diff := cmp.Diff([]string{"el-1"}, res.CreatedIDs); diff != "" {
		t.Errorf("created mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_UnknownKind(t *testing.T) {
	s := createTestStore(t)
	rec := NewRecorder(s, "main")
	if err := rec.RecordJob(context.Background(), engine.JobRecord{Seq: 1, Kind: "replay"}); err == nil {
		t.Error("expected error for unknown job kind")
	}
}
