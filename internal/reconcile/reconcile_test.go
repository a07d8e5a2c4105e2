package reconcile_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/reconcile"
	"github.com/roach88/scenekit/internal/synth"
	"github.com/roach88/scenekit/internal/testutil"
)

func newReconciler() (*reconcile.Reconciler, *synth.Synthesizer) {
	s := synth.New(testutil.NewFactory(), synth.DefaultOptions(), nil)
	return reconcile.New(s, nil), s
}

func explicitBatch() ir.Batch {
	return ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "svc", Type: ir.KindRectangle, X: 10, Y: 10, Width: 100, Height: 50}),
		ir.ElementItem(ir.Element{ID: "lbl", Type: ir.KindText, Text: "API", ContainerID: "svc"}),
	}}
}

func TestReconcile_SameExplicitBatchTwiceIsIdempotent(t *testing.T) {
	r, _ := newReconciler()

	first := r.Reconcile(nil, explicitBatch())
	assert.Equal(t, []string{"svc", "lbl"}, first.CreatedIDs)
	assert.Empty(t, first.UpdatedIDs)
	assert.Empty(t, ir.CheckInvariants(first.Scene))

	svc, _ := first.Scene.Find("svc")
	assert.True(t, svc.HasBound("lbl"), "container gains the reciprocal entry")

	second := r.Reconcile(first.Scene, explicitBatch())
	assert.Empty(t, second.CreatedIDs)
	assert.Equal(t, []string{"svc", "lbl"}, second.UpdatedIDs)
	assert.Empty(t, second.DeletedIDs)
	assert.Empty(t, ir.CheckInvariants(second.Scene))

	if diff := cmp.Diff(first.Scene.IDs(), second.Scene.IDs()); diff != "" {
		t.Errorf("scene ids changed (-first +second):\n%s", diff)
	}
	for _, e := range second.Scene {
		prev, _ := first.Scene.Find(e.ID)
		assert.Greater(t, e.Version, prev.Version, e.ID)
		assert.NotEqual(t, prev.VersionNonce, e.VersionNonce, e.ID)
	}
}

func TestReconcile_DescriptionsAlwaysCreate(t *testing.T) {
	r, _ := newReconciler()

	res := r.Reconcile(nil, ir.Batch{Elements: []ir.BatchItem{
		ir.DescriptionItem(ir.Description{Type: "rectangle", Text: "Login Service"}),
	}})

	assert.Equal(t, []string{"el-1", "el-2"}, res.CreatedIDs)
	assert.Empty(t, res.UpdatedIDs)
	require.Len(t, res.Scene, 2)
	assert.Equal(t, "el-1", res.Scene[1].ContainerID)

	again := r.Reconcile(res.Scene, ir.Batch{Elements: []ir.BatchItem{
		ir.DescriptionItem(ir.Description{Type: "rectangle", Text: "Login Service"}),
	}})
	assert.Equal(t, []string{"el-3", "el-4"}, again.CreatedIDs, "fresh ids every time")
	assert.Len(t, again.Scene, 4)
}

func TestReconcile_SkipsUnrecognizableItems(t *testing.T) {
	r, _ := newReconciler()

	var batch ir.Batch
	require.NoError(t, json.Unmarshal([]byte(`{
		"elements": [
			{"type": "ellipse"},
			42,
			{"id": "x", "type": "blob"},
			{"type": "hexagon"},
			{"id": "k", "type": "diamond"}
		],
		"deleteIds": ["missing"],
		"message": "partial"
	}`), &batch))

	res := r.Reconcile(nil, batch)

	assert.Equal(t, []string{"el-1", "k"}, res.CreatedIDs)
	assert.Equal(t, 3, res.Skipped)
	assert.Empty(t, res.DeletedIDs)
	assert.Len(t, res.Scene, 2)
}

func TestReconcile_DeleteLeavesNoDanglingReferences(t *testing.T) {
	r, s := newReconciler()
	scene, _, err := s.SynthesizeAll(nil, []ir.Description{
		{Type: "rectangle", Text: "A"},                // el-1 + el-2
		{Type: "rectangle", X: testutil.Ptr(400.0)},   // el-3
		{Type: "arrow", FromID: "el-1", ToID: "el-3"}, // el-4
	})
	require.NoError(t, err)

	res := r.Reconcile(scene, ir.Batch{DeleteIDs: []string{"el-1"}})

	assert.Equal(t, []string{"el-1", "el-2"}, res.DeletedIDs, "bound text cascades")
	assert.Equal(t, []string{"el-4"}, res.UpdatedIDs)
	assert.Empty(t, ir.CheckInvariants(res.Scene))

	conn, _ := res.Scene.Find("el-4")
	assert.False(t, conn.IsDeleted, "the connector itself is kept")
	assert.Nil(t, conn.StartBinding)
	require.NotNil(t, conn.EndBinding)
	assert.Equal(t, "el-3", conn.EndBinding.ElementID)

	for _, e := range res.Scene.Live() {
		for _, b := range e.BoundElements {
			assert.NotContains(t, []string{"el-1", "el-2"}, b.ID)
		}
		assert.NotEqual(t, "el-1", e.ContainerID)
	}
}

func TestReconcile_DescriptionConnectorUpdatesEndpoints(t *testing.T) {
	r, s := newReconciler()
	scene, _, err := s.SynthesizeAll(nil, []ir.Description{
		{Type: "rectangle"},
		{Type: "ellipse", X: testutil.Ptr(400.0)},
	})
	require.NoError(t, err)

	res := r.Reconcile(scene, ir.Batch{Elements: []ir.BatchItem{
		ir.DescriptionItem(ir.Description{Type: "arrow", FromID: "el-1", ToID: "el-2"}),
	}})

	assert.Equal(t, []string{"el-3"}, res.CreatedIDs)
	assert.Equal(t, []string{"el-1", "el-2"}, res.UpdatedIDs)
}

func TestReconcile_LaterItemsSeeEarlierOnes(t *testing.T) {
	r, _ := newReconciler()

	res := r.Reconcile(nil, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "a", Type: ir.KindRectangle}),
		ir.ElementItem(ir.Element{ID: "b", Type: ir.KindRectangle, X: 400, Y: 100}),
		ir.DescriptionItem(ir.Description{FromID: "a", ToID: "b"}),
	}})

	assert.Equal(t, []string{"a", "b", "el-1"}, res.CreatedIDs)
	assert.Empty(t, res.UpdatedIDs, "endpoints created in the same batch stay creations")
	assert.Empty(t, ir.CheckInvariants(res.Scene))
}

func TestReconcile_VersionNeverMovesBackwards(t *testing.T) {
	r, _ := newReconciler()
	base := r.Reconcile(nil, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "a", Type: ir.KindRectangle}),
	}})

	ahead := r.Reconcile(base.Scene, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "a", Version: 10}),
	}})
	a, _ := ahead.Scene.Find("a")
	assert.Equal(t, int64(10), a.Version)

	behind := r.Reconcile(ahead.Scene, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "a", Version: 3}),
	}})
	a, _ = behind.Scene.Find("a")
	assert.Equal(t, int64(11), a.Version)
}

func TestReconcile_TombstonesStayDeleted(t *testing.T) {
	r, _ := newReconciler()
	base := r.Reconcile(nil, ir.Batch{
		Elements:  []ir.BatchItem{ir.ElementItem(ir.Element{ID: "a", Type: ir.KindRectangle})},
		DeleteIDs: []string{"a"},
	})
	assert.Equal(t, []string{"a"}, base.CreatedIDs)
	assert.Equal(t, []string{"a"}, base.DeletedIDs)

	res := r.Reconcile(base.Scene, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "a", X: 50, Y: 50}),
	}})
	a, _ := res.Scene.Find("a")
	assert.True(t, a.IsDeleted)
}

func TestReconcile_DoesNotModifyInput(t *testing.T) {
	r, s := newReconciler()
	scene, _, err := s.SynthesizeAll(nil, []ir.Description{{Type: "rectangle", Text: "x"}})
	require.NoError(t, err)
	snapshot := scene.Clone()

	r.Reconcile(scene, ir.Batch{DeleteIDs: []string{"el-1"}})

	if diff := cmp.Diff(snapshot, scene); diff != "" {
		t.Errorf("input scene modified (-want +got):\n%s", diff)
	}
}

// connectedPair builds: el-1 "A" (text el-2), el-3, arrow el-4 from el-1 to el-3.
func connectedPair(t *testing.T, s *synth.Synthesizer) ir.Scene {
	t.Helper()
	scene, _, err := s.SynthesizeAll(nil, []ir.Description{
		{Type: "rectangle", Text: "A"},
		{Type: "rectangle", X: testutil.Ptr(400.0)},
		{Type: "arrow", FromID: "el-1", ToID: "el-3"},
	})
	require.NoError(t, err)
	require.Empty(t, ir.CheckInvariants(scene))
	return scene
}

func TestReconcile_PartialConnectorUpdateKeepsBindings(t *testing.T) {
	r, s := newReconciler()
	scene := connectedPair(t, s)
	before, _ := scene.Find("el-4")

	res := r.Reconcile(scene, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "el-4", Style: ir.Style{StrokeColor: "#e03131"}}),
	}})

	assert.Equal(t, []string{"el-4"}, res.UpdatedIDs)
	assert.Empty(t, ir.CheckInvariants(res.Scene))

	conn, _ := res.Scene.Find("el-4")
	require.NotNil(t, conn.StartBinding)
	require.NotNil(t, conn.EndBinding)
	assert.Equal(t, "el-1", conn.StartBinding.ElementID)
	assert.Equal(t, "el-3", conn.EndBinding.ElementID)
	assert.Equal(t, "#e03131", conn.StrokeColor)
	assert.Equal(t, before.StrokeWidth, conn.StrokeWidth)
	assert.Equal(t, before.Roughness, conn.Roughness)
	assert.Equal(t, before.EndArrowhead, conn.EndArrowhead)
	require.Len(t, conn.Points, len(before.Points))
	for i := range before.Points {
		assert.InDelta(t, before.Points[i][0], conn.Points[i][0], 1e-9)
		assert.InDelta(t, before.Points[i][1], conn.Points[i][1], 1e-9)
	}

	for _, id := range []string{"el-1", "el-3"} {
		anchor, _ := res.Scene.Find(id)
		assert.True(t, anchor.HasBound("el-4"), id)
	}
}

func TestReconcile_PartialBoundTextUpdateKeepsContainer(t *testing.T) {
	r, s := newReconciler()
	scene := connectedPair(t, s)

	res := r.Reconcile(scene, ir.Batch{Elements: []ir.BatchItem{
		ir.ElementItem(ir.Element{ID: "el-2", Text: "Renamed"}),
	}})

	assert.Equal(t, []string{"el-2"}, res.UpdatedIDs)
	assert.Empty(t, ir.CheckInvariants(res.Scene))

	text, _ := res.Scene.Find("el-2")
	assert.Equal(t, "Renamed", text.Text)
	assert.Equal(t, "el-1", text.ContainerID)
	box, _ := res.Scene.Find("el-1")
	assert.True(t, box.HasBound("el-2"))
}

func TestReconcile_DecodedItemsHonourExplicitZeroes(t *testing.T) {
	r, s := newReconciler()
	scene := connectedPair(t, s)

	var batch ir.Batch
	require.NoError(t, json.Unmarshal([]byte(`{
		"elements": [
			{"id": "el-3", "x": 0, "y": 0},
			{"id": "el-4", "startBinding": null}
		]
	}`), &batch))

	res := r.Reconcile(scene, batch)
	assert.Empty(t, ir.CheckInvariants(res.Scene))

	moved, _ := res.Scene.Find("el-3")
	assert.Equal(t, 0.0, moved.X)
	assert.Equal(t, 0.0, moved.Y)
	assert.Equal(t, 150.0, moved.Width, "unspecified fields keep their values")

	conn, _ := res.Scene.Find("el-4")
	assert.Nil(t, conn.StartBinding, "explicit null unbinds")
	require.NotNil(t, conn.EndBinding)
	assert.Equal(t, "el-3", conn.EndBinding.ElementID)

	source, _ := res.Scene.Find("el-1")
	assert.False(t, source.HasBound("el-4"), "repair drops the unreciprocated entry")
}
