package ir_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scenekit/internal/ir"
)

func TestBatchItemDiscriminator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		element bool
		desc    bool
		invalid string
		checkFn func(t *testing.T, item ir.BatchItem)
	}{
		{
			name:    "string id is an element",
			input:   `{"id":"a","type":"rectangle","x":10,"version":3}`,
			element: true,
			checkFn: func(t *testing.T, item ir.BatchItem) {
				assert.Equal(t, "a", item.Element.ID)
				assert.Equal(t, int64(3), item.Element.Version)
				assert.Equal(t, 10.0, item.Element.X)
			},
		},
		{
			name:  "no id is a description",
			input: `{"type":"box","text":"hi","fromId":"a"}`,
			desc:  true,
			checkFn: func(t *testing.T, item ir.BatchItem) {
				assert.Equal(t, "box", item.Description.Type)
				assert.Equal(t, "hi", item.Description.Caption())
				assert.Equal(t, "a", item.Description.FromID)
			},
		},
		{
			name:  "empty id is a description",
			input: `{"id":"","type":"ellipse"}`,
			desc:  true,
		},
		{
			name:  "numeric id is a description",
			input: `{"id":7,"type":"ellipse"}`,
			desc:  true,
		},
		{
			name:    "number is invalid",
			input:   `42`,
			invalid: "item is not an object",
		},
		{
			name:    "null is invalid",
			input:   `null`,
			invalid: "item is not an object",
		},
		{
			name:    "malformed element",
			input:   `{"id":"a","version":"three"}`,
			invalid: `malformed element "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item ir.BatchItem
			require.NoError(t, json.Unmarshal([]byte(tt.input), &item))

			assert.Equal(t, tt.element, item.Element != nil)
			assert.Equal(t, tt.desc, item.Description != nil)
			if tt.invalid != "" {
				assert.Contains(t, item.Invalid, tt.invalid)
			} else {
				assert.Empty(t, item.Invalid)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, item)
			}
		})
	}
}

func TestBatchDecodeMixed(t *testing.T) {
	input := `{
		"elements": [{"type":"rect"}, "oops", {"id":"x","type":"text","text":"t"}],
		"deleteIds": ["y"],
		"message": "sync"
	}`

	var b ir.Batch
	require.NoError(t, json.Unmarshal([]byte(input), &b))
	require.Len(t, b.Elements, 3)
	assert.NotNil(t, b.Elements[0].Description)
	assert.NotEmpty(t, b.Elements[1].Invalid)
	assert.NotNil(t, b.Elements[2].Element)
	assert.Equal(t, []string{"y"}, b.DeleteIDs)
	assert.Equal(t, "sync", b.Message)
}

func TestBatchItemMarshal(t *testing.T) {
	got, err := json.Marshal(ir.DescriptionItem(ir.Description{Type: "ellipse", Label: "L"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ellipse","label":"L"}`, string(got))

	got, err = json.Marshal(ir.BatchItem{Invalid: "x"})
	require.NoError(t, err)
	assert.Equal(t, "null", string(got))

	got, err = json.Marshal(ir.ElementItem(ir.Element{ID: "e1", Type: ir.KindText}))
	require.NoError(t, err)
	assert.Contains(t, string(got), `"id":"e1"`)
}

func TestDescriptionCaption(t *testing.T) {
	assert.Equal(t, "text", ir.Description{Text: "text", Label: "label"}.Caption())
	assert.Equal(t, "label", ir.Description{Label: "label"}.Caption())
	assert.Empty(t, ir.Description{}.Caption())
}

func TestBatchItemRecordsPresentKeys(t *testing.T) {
	var item ir.BatchItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","x":0,"startBinding":null}`), &item))

	require.NotNil(t, item.Element)
	assert.True(t, item.Present.Has("x"))
	assert.True(t, item.Present.Has("startBinding"))
	assert.False(t, item.Present.Has("y"))

	var desc ir.BatchItem
	require.NoError(t, json.Unmarshal([]byte(`{"type":"box","x":0}`), &desc))
	assert.Nil(t, desc.Present, "descriptions carry no key set")
	assert.Nil(t, ir.ElementItem(ir.Element{ID: "b"}).Present)
}
