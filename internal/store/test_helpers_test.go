package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/testutil"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestScene builds a labelled rectangle with deterministic ids.
func createTestScene() ir.Scene {
	f := testutil.NewFactory()
	box := f.New(ir.KindRectangle)
	box.X, box.Y, box.Width, box.Height = 100, 100, 150, 80
	text := f.New(ir.KindText)
	text.Text = "Login Service"
	text.ContainerID = box.ID
	box.BoundElements = []ir.BoundElement{{ID: text.ID, Type: ir.KindText}}
	return ir.Scene{box, text}
}
