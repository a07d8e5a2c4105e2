package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_InboxAndShutdown(t *testing.T) {
	opts := newTestOptions(t)
	inbox := filepath.Join(t.TempDir(), "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	batch := `{"elements": [{"type": "rectangle", "text": "Dropped"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "001.json"), []byte(batch), 0o644))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	cmd := NewServeCommand(opts)
	out := captureOut(cmd)
	cmd.SetArgs([]string{"--scene", "dropbox", "--addr", "127.0.0.1:0", "--inbox", inbox})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	processed := filepath.Join(inbox, "processed", "001.json")
	require.Eventually(t, func() bool {
		_, err := os.Stat(processed)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
	assert.Contains(t, out.String(), `Serving scene "dropbox" on 127.0.0.1:0`)

	st, err := openStore(opts)
	require.NoError(t, err)
	defer st.Close()
	scene, seq, err := st.LoadScene(t.Context(), "dropbox")
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)
	assert.Len(t, scene.Live(), 2)
}

func TestServeCommand_BadAddress(t *testing.T) {
	opts := newTestOptions(t)
	cmd := NewServeCommand(opts)
	captureOut(cmd)
	cmd.SetArgs([]string{"--addr", "not-an-address"})

	err := cmd.ExecuteContext(t.Context())
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "server error")
}
