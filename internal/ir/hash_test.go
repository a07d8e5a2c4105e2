package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/testutil"
)

func TestFingerprintDeterministic(t *testing.T) {
	build := func() ir.Scene {
		f := testutil.NewFactory()
		return ir.Scene{f.New(ir.KindRectangle), f.New(ir.KindText)}
	}

	a, err := ir.Fingerprint(build())
	require.NoError(t, err)
	b, err := ir.Fingerprint(build())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintChangesWithVersion(t *testing.T) {
	f := testutil.NewFactory()
	s := ir.Scene{f.New(ir.KindRectangle)}
	before, err := ir.Fingerprint(s)
	require.NoError(t, err)

	s[0] = f.Touch(s[0])
	after, err := ir.Fingerprint(s)
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestFingerprintNilEqualsEmpty(t *testing.T) {
	a, err := ir.Fingerprint(nil)
	require.NoError(t, err)
	b, err := ir.Fingerprint(ir.Scene{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBatchFingerprintIgnoresFieldOrder(t *testing.T) {
	type payload struct {
		B int `json:"b"`
		A int `json:"a"`
	}

	a, err := ir.BatchFingerprint(payload{B: 1, A: 2})
	require.NoError(t, err)
	b, err := ir.BatchFingerprint(map[string]int{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDomainSeparation(t *testing.T) {
	scene, err := ir.Fingerprint(ir.Scene{})
	require.NoError(t, err)
	batch, err := ir.BatchFingerprint([]any{})
	require.NoError(t, err)

	// Same canonical bytes ("[]"), different domains.
	assert.NotEqual(t, scene, batch)
}
