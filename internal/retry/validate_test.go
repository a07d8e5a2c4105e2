package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name      string
		validator Validator
		content   string
		want      bool
	}{
		{"non-empty text", NonEmpty, "hello", true},
		{"non-empty blank", NonEmpty, "   \n", false},
		{"non-empty empty array", NonEmpty, "[]", false},
		{"non-empty spaced empty array", NonEmpty, " [ ] ", false},
		{"non-empty empty object", NonEmpty, "{}", false},
		{"non-empty fenced empty array", NonEmpty, "```json\n[]\n```", false},

		{"json object", JSON, `{"a":1}`, true},
		{"json number", JSON, `42`, true},
		{"json invalid", JSON, `{"a":`, false},
		{"json empty", JSON, ``, false},

		{"array with items", NonEmptyJSONArray, `[{"type":"delete","id":"a"}]`, true},
		{"fenced array", NonEmptyJSONArray, "```json\n[1, 2]\n```", true},
		{"fenced array without tag", NonEmptyJSONArray, "```\n[1]\n```", true},
		{"empty array", NonEmptyJSONArray, `[]`, false},
		{"object is not array", NonEmptyJSONArray, `{"a":1}`, false},
		{"prose", NonEmptyJSONArray, `Sure! Here you go`, false},

		{"object with keys", JSONObjectWithKeys("elements", "message"), `{"elements":[],"message":"hi"}`, true},
		{"object missing key", JSONObjectWithKeys("elements", "message"), `{"elements":[]}`, false},
		{"null is not object", JSONObjectWithKeys(), `null`, false},
		{"array is not object", JSONObjectWithKeys(), `[1]`, false},

		{"all pass", All(NonEmpty, NonEmptyJSONArray), `[1]`, true},
		{"all one fails", All(NonEmpty, JSONObjectWithKeys("x")), `[1]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.validator(tt.content))
		})
	}
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `[1]`, ExtractJSON("```json\n[1]\n```"))
	assert.Equal(t, `{"a":1}`, ExtractJSON("  {\"a\":1}  "))
	assert.Equal(t, `[1]`, ExtractJSON("```[1]```"))
}
