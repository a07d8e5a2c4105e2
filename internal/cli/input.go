package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/roach88/scenekit/internal/ir"
)

// readInput reads path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeActionsFile accepts a bare JSON array of actions or an object with
// an "actions" field.
func decodeActionsFile(data []byte) ([]ir.Action, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	var actions []ir.Action
	if trimmed[0] == '[' {
		if err := strictUnmarshal(trimmed, &actions); err != nil {
			return nil, err
		}
	} else {
		var envelope struct {
			Actions []ir.Action `json:"actions"`
		}
		if err := strictUnmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		actions = envelope.Actions
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("no actions in input")
	}
	return actions, nil
}

// decodeBatchFile accepts a batch object or a bare array of elements.
func decodeBatchFile(data []byte) (ir.Batch, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ir.Batch{}, fmt.Errorf("empty input")
	}
	var batch ir.Batch
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &batch.Elements); err != nil {
			return ir.Batch{}, err
		}
		return batch, nil
	}
	if err := strictUnmarshal(trimmed, &batch); err != nil {
		return ir.Batch{}, err
	}
	return batch, nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// validateActions runs the scene-independent checks of every action.
func validateActions(actions []ir.Action) []string {
	var msgs []string
	for i := range actions {
		for _, e := range actions[i].Validate() {
			msgs = append(msgs, fmt.Sprintf("actions[%d].%s", i, e.Error()))
		}
	}
	return msgs
}
