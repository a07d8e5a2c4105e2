package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/llm"
	"github.com/roach88/scenekit/internal/testutil"
)

func TestSequenceIDs(t *testing.T) {
	g := testutil.NewSequenceIDs("node")
	assert.Equal(t, "node-1", g.NewID())
	assert.Equal(t, "node-2", g.NewID())

	assert.Equal(t, "el-1", testutil.NewSequenceIDs("").NewID())
}

func TestFixedIDs(t *testing.T) {
	g := testutil.NewFixedIDs("a", "b")
	assert.Equal(t, "a", g.NewID())
	assert.Equal(t, "b", g.NewID())
	assert.Panics(t, func() { g.NewID() })
}

func TestCountingNonces(t *testing.T) {
	n := testutil.NewCountingNonces()
	assert.Equal(t, int64(0), n.Current())
	assert.Equal(t, int64(1), n.Nonce())
	assert.Equal(t, int64(2), n.Nonce())
	assert.Equal(t, int64(2), n.Current())

	n.Reset()
	assert.Equal(t, int64(1), n.Nonce())
}

func TestScriptedGenerator(t *testing.T) {
	boom := errors.New("boom")
	g := testutil.NewScriptedGenerator(
		testutil.Reply{Err: boom},
		testutil.Reply{Content: "first"},
		testutil.Reply{Content: "last"},
	)
	ctx := context.Background()

	_, err := g.Generate(ctx, llm.UserRequest("", "1"))
	require.ErrorIs(t, err, boom)

	resp, err := g.Generate(ctx, llm.UserRequest("", "2"))
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	for i := 0; i < 2; i++ {
		resp, err = g.Generate(ctx, llm.UserRequest("", "again"))
		require.NoError(t, err)
		assert.Equal(t, "last", resp.Content)
	}

	assert.Equal(t, 4, g.Calls())
	reqs := g.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "2", reqs[1].Messages[0].Content)
}

func TestScriptedGeneratorEmpty(t *testing.T) {
	_, err := testutil.NewScriptedGenerator().Generate(context.Background(), llm.Request{})
	require.Error(t, err)
}

func TestNewFactoryDeterministic(t *testing.T) {
	a := testutil.NewFactory()
	b := testutil.NewFactory()
	assert.Equal(t, a.New("rectangle"), b.New("rectangle"))
}
