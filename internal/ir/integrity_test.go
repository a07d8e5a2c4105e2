package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/ir"
	"github.com/roach88/scenekit/internal/testutil"
)

// labelledPair builds: box (with bound text) -> arrow -> other.
func labelledPair(f *ir.Factory) ir.Scene {
	box := f.New(ir.KindRectangle)
	text := f.New(ir.KindText)
	other := f.New(ir.KindEllipse)
	arrow := f.New(ir.KindArrow)

	text.ContainerID = box.ID
	arrow.StartBinding = &ir.Binding{ElementID: box.ID}
	arrow.EndBinding = &ir.Binding{ElementID: other.ID}
	box.BoundElements = []ir.BoundElement{{ID: text.ID, Type: ir.KindText}, {ID: arrow.ID, Type: ir.KindArrow}}
	other.BoundElements = []ir.BoundElement{{ID: arrow.ID, Type: ir.KindArrow}}

	return ir.Scene{box, text, other, arrow}
}

func TestTombstoneCascadesToBoundText(t *testing.T) {
	f := testutil.NewFactory()
	s := labelledPair(f)
	require.Empty(t, ir.CheckInvariants(s))

	out, deleted := ir.Tombstone(s, f, "el-1")

	assert.Equal(t, []string{"el-1", "el-2"}, deleted)
	assert.Empty(t, ir.CheckInvariants(out))

	box, _ := out.Find("el-1")
	text, _ := out.Find("el-2")
	other, _ := out.Find("el-3")
	arrow, _ := out.Find("el-4")

	assert.True(t, box.IsDeleted)
	assert.True(t, text.IsDeleted)
	assert.Equal(t, int64(2), box.Version)
	assert.Equal(t, int64(2), text.Version)

	// Connector kept, dangling binding cleared.
	assert.False(t, arrow.IsDeleted)
	assert.Nil(t, arrow.StartBinding)
	require.NotNil(t, arrow.EndBinding)
	assert.Equal(t, int64(2), arrow.Version)

	// Untouched elements keep their version.
	assert.Equal(t, int64(1), other.Version)

	// Input scene is not modified.
	orig, _ := s.Find("el-1")
	assert.False(t, orig.IsDeleted)
}

func TestTombstoneIgnoresUnknownAndDeleted(t *testing.T) {
	f := testutil.NewFactory()
	s := labelledPair(f)

	out, deleted := ir.Tombstone(s, f, "missing")
	assert.Empty(t, deleted)
	assert.Equal(t, s, out)

	once, _ := ir.Tombstone(s, f, "el-3")
	twice, deleted := ir.Tombstone(once, f, "el-3")
	assert.Empty(t, deleted)
	assert.Equal(t, once, twice)
}

func TestTombstonePrunesBoundElementsOfDeletedConnector(t *testing.T) {
	f := testutil.NewFactory()
	s := labelledPair(f)

	out, deleted := ir.Tombstone(s, f, "el-4")
	assert.Equal(t, []string{"el-4"}, deleted)

	box, _ := out.Find("el-1")
	other, _ := out.Find("el-3")
	assert.Equal(t, []ir.BoundElement{{ID: "el-2", Type: ir.KindText}}, box.BoundElements)
	assert.Empty(t, other.BoundElements)
	assert.Equal(t, int64(2), box.Version)
	assert.Equal(t, int64(2), other.Version)
}

func TestTombstoneClearsFrameMembership(t *testing.T) {
	f := testutil.NewFactory()
	frame := f.New(ir.KindFrame)
	member := f.New(ir.KindRectangle)
	member.FrameID = frame.ID

	out, _ := ir.Tombstone(ir.Scene{frame, member}, f, frame.ID)
	got, _ := out.Find(member.ID)
	assert.Empty(t, got.FrameID)
	assert.Equal(t, int64(2), got.Version)
}

func TestRepair(t *testing.T) {
	f := testutil.NewFactory()
	box := f.New(ir.KindRectangle)  // el-1
	text := f.New(ir.KindText)      // el-2
	arrow := f.New(ir.KindArrow)    // el-3
	stray := f.New(ir.KindDiamond)  // el-4
	member := f.New(ir.KindEllipse) // el-5

	// Text claims the box, box does not list it.
	text.ContainerID = box.ID
	// Arrow points at something that does not exist.
	arrow.EndBinding = &ir.Binding{ElementID: "ghost"}
	// Stray lists an arrow that is not bound to it.
	stray.BoundElements = []ir.BoundElement{{ID: arrow.ID, Type: ir.KindArrow}}
	// Frame id names a non-frame.
	member.FrameID = box.ID

	out := ir.Repair(ir.Scene{box, text, arrow, stray, member}, f)
	assert.Empty(t, ir.CheckInvariants(out))

	gotBox, _ := out.Find(box.ID)
	assert.True(t, gotBox.HasBound(text.ID))
	assert.Equal(t, int64(2), gotBox.Version)

	gotArrow, _ := out.Find(arrow.ID)
	assert.Nil(t, gotArrow.EndBinding)

	gotStray, _ := out.Find(stray.ID)
	assert.Empty(t, gotStray.BoundElements)

	gotMember, _ := out.Find(member.ID)
	assert.Empty(t, gotMember.FrameID)

	gotText, _ := out.Find(text.ID)
	assert.Equal(t, int64(1), gotText.Version)
}

func TestRepairKeepsConsistentScene(t *testing.T) {
	f := testutil.NewFactory()
	s := labelledPair(f)
	assert.Equal(t, s, ir.Repair(s, f))
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name  string
		scene func(f *ir.Factory) ir.Scene
		field string
	}{
		{
			name: "missing id",
			scene: func(f *ir.Factory) ir.Scene {
				e := f.New(ir.KindRectangle)
				e.ID = ""
				return ir.Scene{e}
			},
			field: "elements[0].id",
		},
		{
			name: "duplicate id",
			scene: func(f *ir.Factory) ir.Scene {
				e := f.New(ir.KindRectangle)
				return ir.Scene{e, e}
			},
			field: "elements[1].id",
		},
		{
			name: "zero version",
			scene: func(f *ir.Factory) ir.Scene {
				e := f.New(ir.KindRectangle)
				e.Version = 0
				return ir.Scene{e}
			},
			field: "el-1.version",
		},
		{
			name: "container missing",
			scene: func(f *ir.Factory) ir.Scene {
				e := f.New(ir.KindText)
				e.ContainerID = "nope"
				return ir.Scene{e}
			},
			field: "el-1.containerId",
		},
		{
			name: "container does not list text",
			scene: func(f *ir.Factory) ir.Scene {
				box := f.New(ir.KindRectangle)
				text := f.New(ir.KindText)
				text.ContainerID = box.ID
				return ir.Scene{box, text}
			},
			field: "el-2.containerId",
		},
		{
			name: "dangling binding",
			scene: func(f *ir.Factory) ir.Scene {
				e := f.New(ir.KindArrow)
				e.StartBinding = &ir.Binding{ElementID: "gone"}
				return ir.Scene{e}
			},
			field: "el-1.startBinding",
		},
		{
			name: "bound element deleted",
			scene: func(f *ir.Factory) ir.Scene {
				box := f.New(ir.KindRectangle)
				text := f.New(ir.KindText)
				text.IsDeleted = true
				box.BoundElements = []ir.BoundElement{{ID: text.ID, Type: ir.KindText}}
				return ir.Scene{box, text}
			},
			field: "el-1.boundElements",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ir.CheckInvariants(tt.scene(testutil.NewFactory()))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}
