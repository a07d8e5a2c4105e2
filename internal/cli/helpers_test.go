package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/scenekit/internal/config"
	"github.com/roach88/scenekit/internal/testutil"
)

// newTestOptions returns root options over a fresh database with
// deterministic ids and no retry delay.
func newTestOptions(t *testing.T) *RootOptions {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "scenekit.db")
	cfg.Retry.Delay = 0
	return &RootOptions{
		Format:  "text",
		Logger:  zap.NewNop(),
		Factory: testutil.NewFactory(),
		cfg:     &cfg,
	}
}

// run executes cmd with args and returns what it wrote to stdout.
func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFile writes content to name inside a temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const serviceActions = `[
  {"type": "add_shape", "text": "API"},
  {"type": "add_shape", "shape": "ellipse", "text": "DB", "relativeTo": "el-1", "direction": "right"},
  {"type": "add_connection", "sourceId": "el-1", "targetId": "el-3", "label": "reads"},
  {"type": "delete", "id": "nope"}
]`

// captureOut redirects cmd's stdout into a buffer.
func captureOut(cmd *cobra.Command) *bytes.Buffer {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	return out
}
