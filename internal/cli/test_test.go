package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: one_box
description: a single labelled box
steps:
  - actions:
      - {type: add_shape, ref: box, text: Hello}
    expect:
      - {success: true, id: el-1}
assertions:
  - {type: live_count, count: 2}
  - {type: bound_text, id: "@box", text: Hello}
`

const failingScenario = `name: wrong_count
description: asserts the wrong element count
steps:
  - actions:
      - {type: add_shape}
assertions:
  - {type: live_count, count: 5}
`

func scenarioDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := run(t, NewTestCommand(newTestOptions(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := run(t, NewTestCommand(newTestOptions(t)), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := run(t, NewTestCommand(newTestOptions(t)), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandPassing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"one_box.yaml": passingScenario, "notes.txt": "ignored"})

	out, err := run(t, NewTestCommand(newTestOptions(t)), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ one_box")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailing(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"one_box.yaml": passingScenario, "wrong.yml": failingScenario})

	out, err := run(t, NewTestCommand(newTestOptions(t)), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"broken.yaml": "name: broken\n"})

	out, err := run(t, NewTestCommand(newTestOptions(t)), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandFilter(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"one_box.yaml": passingScenario, "wrong.yaml": failingScenario})

	out, err := run(t, NewTestCommand(newTestOptions(t)), dir, "--filter", "one*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 total")
}

func TestTestCommandGolden(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"one_box.yaml": passingScenario})
	opts := newTestOptions(t)

	out, err := run(t, NewTestCommand(opts), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ one_box (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "one_box.golden"))
	require.NoError(t, err)
	assert.Equal(t, `scenario: one_box
step 1 actions
  [0] add_shape ok el-1
live: 2
Relationships:
- "Hello" (rectangle el-1) is labelled by text el-2
`, string(golden))

	_, err = run(t, NewTestCommand(opts), dir)
	require.NoError(t, err, "matches the golden it just wrote")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "one_box.golden"), []byte("stale\n"), 0o644))
	out, err = run(t, NewTestCommand(opts), dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandJSON(t *testing.T) {
	dir := scenarioDir(t, map[string]string{"wrong.yaml": failingScenario})
	opts := newTestOptions(t)
	opts.Format = "json"

	out, err := run(t, NewTestCommand(opts), dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeScenarioFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}
