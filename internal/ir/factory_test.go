package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/testutil"
)

// replayNonces hands out a fixed list of nonces.
type replayNonces struct {
	vals []int64
	i    int
}

func (r *replayNonces) Nonce() int64 {
	v := r.vals[r.i]
	r.i++
	return v
}

func TestFactoryNew(t *testing.T) {
	f := testutil.NewFactory()
	e := f.New(ir.KindEllipse)

	assert.Equal(t, "el-1", e.ID)
	assert.Equal(t, ir.KindEllipse, e.Type)
	assert.Equal(t, int64(1), e.Version)
	assert.Equal(t, ir.DefaultStyle, e.Style)
	assert.NotNil(t, e.GroupIDs)
	assert.NotNil(t, e.BoundElements)
	assert.Equal(t, int64(1), e.Seed)
	assert.Equal(t, int64(2), e.VersionNonce)
}

func TestFactoryTouchLeavesOriginal(t *testing.T) {
	f := testutil.NewFactory()
	e := f.New(ir.KindRectangle)
	e.GroupIDs = append(e.GroupIDs, "g1")

	touched := f.Touch(e)
	touched.GroupIDs[0] = "changed"

	assert.Equal(t, int64(1), e.Version)
	assert.Equal(t, int64(2), touched.Version)
	assert.NotEqual(t, e.VersionNonce, touched.VersionNonce)
	assert.Equal(t, "g1", e.GroupIDs[0])
}

func TestFactoryBumpNeverRepeatsNonce(t *testing.T) {
	f := &ir.Factory{
		IDs:    testutil.NewFixedIDs("a"),
		Nonces: &replayNonces{vals: []int64{1, 2, 2, 2, 3}},
	}
	e := f.New(ir.KindRectangle)
	require.Equal(t, int64(2), e.VersionNonce)

	f.Bump(&e)
	assert.Equal(t, int64(2), e.Version)
	assert.Equal(t, int64(3), e.VersionNonce)
}

func TestNewFactoryProducesUUIDs(t *testing.T) {
	f := ir.NewFactory()
	a := f.New(ir.KindRectangle)
	b := f.New(ir.KindRectangle)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Positive(t, a.VersionNonce)
}
