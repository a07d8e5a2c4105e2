package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/scenekit/internal/ir"
)

// marshalScene converts a scene to canonical JSON TEXT for storage.
// A nil scene is stored as an empty array.
func marshalScene(s ir.Scene) (string, error) {
	if s == nil {
		s = ir.Scene{}
	}
	data, err := ir.MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("marshal scene: %w", err)
	}
	return string(data), nil
}

// unmarshalScene parses stored JSON TEXT to a scene.
func unmarshalScene(data string) (ir.Scene, error) {
	if data == "" {
		return ir.Scene{}, nil
	}
	var s ir.Scene
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("unmarshal scene: %w", err)
	}
	if s == nil {
		s = ir.Scene{}
	}
	return s, nil
}

// marshalPayload converts a batch payload or its results to canonical JSON
// TEXT. Nil is stored as JSON null.
func marshalPayload(v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}
