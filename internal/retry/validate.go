package retry

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Validator decides whether generated content is usable.
type Validator func(content string) bool

// fencePattern matches a fenced code block, optionally tagged (```json).
var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*\\n?(.*?)\\n?\\s*```$")

// ExtractJSON strips surrounding whitespace and a fenced code block
// wrapper, returning the inner payload.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// NonEmpty rejects blank content and the literal empty renderings "[]" and
// "{}" (with or without surrounding whitespace or a code fence).
func NonEmpty(content string) bool {
	s := ExtractJSON(content)
	if s == "" {
		return false
	}
	compact := strings.Join(strings.Fields(s), "")
	return compact != "[]" && compact != "{}"
}

// JSON accepts content that parses as any JSON value (after fence
// stripping).
func JSON(content string) bool {
	s := ExtractJSON(content)
	return s != "" && json.Valid([]byte(s))
}

// NonEmptyJSONArray accepts a JSON array with at least one element,
// tolerating a fenced code block wrapper.
func NonEmptyJSONArray(content string) bool {
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(ExtractJSON(content)), &arr); err != nil {
		return false
	}
	return len(arr) > 0
}

// JSONObjectWithKeys accepts a JSON object that contains every key.
func JSONObjectWithKeys(keys ...string) Validator {
	return func(content string) bool {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(ExtractJSON(content)), &obj); err != nil {
			return false
		}
		if obj == nil {
			return false
		}
		for _, k := range keys {
			if _, ok := obj[k]; !ok {
				return false
			}
		}
		return true
	}
}

// All accepts content only when every validator does.
func All(validators ...Validator) Validator {
	return func(content string) bool {
		for _, v := range validators {
			if !v(content) {
				return false
			}
		}
		return true
	}
}
